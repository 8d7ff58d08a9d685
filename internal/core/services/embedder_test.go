package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperbase/paperbase/internal/core/domain"
)

func TestEmbedder_EmbedBatch(t *testing.T) {
	provider := newFakeEmbedding("test-model", 4)
	e := NewEmbedder(provider)

	texts := []string{"alpha", "beta", "gamma"}
	vectors, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for i, v := range vectors {
		assert.Len(t, v, 4, "vector %d has wrong dimension", i)
	}
}

func TestEmbedder_EmptyInput(t *testing.T) {
	e := NewEmbedder(newFakeEmbedding("test-model", 4))

	vectors, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbedder_Memoisation(t *testing.T) {
	provider := newFakeEmbedding("test-model", 4)
	e := NewEmbedder(provider)

	_, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.Equal(t, 1, provider.callCount())

	// Same content again: served from cache, provider untouched.
	_, err = e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.callCount())

	// Different content misses.
	_, err = e.Embed(context.Background(), "something else")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.callCount())
}

func TestEmbedder_PartialCacheHit(t *testing.T) {
	provider := newFakeEmbedding("test-model", 4)
	e := NewEmbedder(provider)

	_, err := e.Embed(context.Background(), "cached")
	require.NoError(t, err)
	require.Equal(t, 1, provider.callCount())

	vectors, err := e.EmbedBatch(context.Background(), []string{"cached", "fresh"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, 2, provider.callCount())

	// Only the miss went to the provider.
	last := provider.batches[len(provider.batches)-1]
	assert.Equal(t, []string{"fresh"}, last)
}

func TestEmbedder_Batching(t *testing.T) {
	provider := newFakeEmbedding("test-model", 4)
	e := NewEmbedder(provider, WithBatchSize(2))

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 5)

	// 5 texts at batch size 2: 3 provider calls.
	assert.Equal(t, 3, provider.callCount())
}

func TestEmbedder_RetrySucceeds(t *testing.T) {
	provider := newFakeEmbedding("test-model", 4)
	provider.failUntil = 2 // fail twice, succeed on the third attempt
	e := NewEmbedder(provider,
		WithMaxRetries(3),
		WithRetryDelay(time.Millisecond))

	vectors, err := e.EmbedBatch(context.Background(), []string{"text"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, 3, provider.callCount())
}

func TestEmbedder_RetryExhausted(t *testing.T) {
	provider := newFakeEmbedding("test-model", 4)
	provider.failUntil = 100 // never recovers
	e := NewEmbedder(provider,
		WithMaxRetries(2),
		WithRetryDelay(time.Millisecond))

	_, err := e.EmbedBatch(context.Background(), []string{"text"})
	require.Error(t, err)

	var embErr *domain.EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, 3, embErr.Attempts, "maxRetries=2 means 3 total attempts")
	assert.Equal(t, 3, provider.callCount())
}

func TestEmbedder_CacheKeyedByModel(t *testing.T) {
	providerA := newFakeEmbedding("model-a", 4)
	e := NewEmbedder(providerA)

	_, err := e.Embed(context.Background(), "shared text")
	require.NoError(t, err)

	// A gateway around a different model must not serve model-a vectors.
	providerB := newFakeEmbedding("model-b", 4)
	e2 := NewEmbedder(providerB)
	_, err = e2.Embed(context.Background(), "shared text")
	require.NoError(t, err)
	assert.Equal(t, 1, providerB.callCount())
}

func TestEmbedder_PassesThroughMetadata(t *testing.T) {
	provider := newFakeEmbedding("text-embedding-3-small", 1536)
	e := NewEmbedder(provider)

	assert.Equal(t, "text-embedding-3-small", e.ModelName())
	assert.Equal(t, 1536, e.Dimensions())
	assert.NoError(t, e.Ping(context.Background()))
}
