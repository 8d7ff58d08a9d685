package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/paperbase/paperbase/internal/core/domain"
	"github.com/paperbase/paperbase/internal/core/ports/driven"
	"github.com/paperbase/paperbase/internal/logger"
)

// Ensure Embedder implements the interface.
var _ driven.EmbeddingService = (*Embedder)(nil)

// Embedder gateway defaults.
const (
	DefaultBatchSize  = 32
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
)

// Embedder wraps a provider embedding service with batching, bounded
// retries, rate limiting, and content-hash memoisation. It satisfies the
// same port as the provider, so callers never see the difference.
type Embedder struct {
	provider driven.EmbeddingService

	batchSize  int
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter

	mu   sync.Mutex
	memo map[string][]float32
}

// EmbedderOption configures the embedder gateway.
type EmbedderOption func(*Embedder)

// WithBatchSize sets the number of texts per provider request.
func WithBatchSize(n int) EmbedderOption {
	return func(e *Embedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithMaxRetries bounds retry attempts per failing batch.
func WithMaxRetries(n int) EmbedderOption {
	return func(e *Embedder) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithRetryDelay sets the base backoff delay.
func WithRetryDelay(d time.Duration) EmbedderOption {
	return func(e *Embedder) {
		if d > 0 {
			e.retryDelay = d
		}
	}
}

// WithRateLimit throttles outbound provider requests to n per second.
// Zero or negative disables throttling.
func WithRateLimit(perSec float64) EmbedderOption {
	return func(e *Embedder) {
		if perSec > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

// NewEmbedder creates the embedding gateway around provider.
func NewEmbedder(provider driven.EmbeddingService, opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		provider:   provider,
		batchSize:  DefaultBatchSize,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		memo:       make(map[string][]float32),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Embed generates an embedding for one text, serving from the memo cache
// when the same content was embedded before under the current model.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for texts, one vector per input in the
// same order. Inputs already in the cache never reach the provider; the
// rest go out in batches of the configured size. A provider batch is
// atomic: it either fully succeeds (possibly after retries) or the whole
// call fails and no partial results are reported.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	// Cache pass: note misses, keep order.
	var missIdx []int
	e.mu.Lock()
	for i, text := range texts {
		keys[i] = e.memoKey(text)
		if v, ok := e.memo[keys[i]]; ok {
			vectors[i] = v
		} else {
			missIdx = append(missIdx, i)
		}
	}
	e.mu.Unlock()

	if len(missIdx) == 0 {
		logger.Debug("Embedding batch served entirely from cache (%d texts)", len(texts))
		return vectors, nil
	}

	for start := 0; start < len(missIdx); start += e.batchSize {
		end := min(start+e.batchSize, len(missIdx))
		batch := missIdx[start:end]

		batchTexts := make([]string, len(batch))
		for j, i := range batch {
			batchTexts[j] = texts[i]
		}

		results, err := e.embedWithRetry(ctx, batchTexts)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		for j, i := range batch {
			vectors[i] = results[j]
			e.memo[keys[i]] = results[j]
		}
		e.mu.Unlock()
	}

	return vectors, nil
}

// embedWithRetry calls the provider for one batch with bounded retries and
// exponential backoff plus jitter.
func (e *Embedder) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error

	attempts := e.maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := e.backoff(attempt)
			logger.Debug("Embedding batch retry %d/%d after %v: %v",
				attempt, e.maxRetries, delay, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		results, err := e.provider.EmbedBatch(ctx, texts)
		if err == nil {
			if len(results) != len(texts) {
				lastErr = fmt.Errorf("provider returned %d vectors for %d texts",
					len(results), len(texts))
				continue
			}
			return results, nil
		}
		lastErr = err
	}

	return nil, &domain.EmbeddingError{Attempts: attempts, Err: lastErr}
}

// backoff returns the delay before the given retry attempt: base delay
// doubled per attempt, with up to 25% random jitter.
func (e *Embedder) backoff(attempt int) time.Duration {
	delay := e.retryDelay << (attempt - 1)
	jitter := time.Duration(rand.Int64N(int64(delay)/4 + 1))
	return delay + jitter
}

func (e *Embedder) memoKey(text string) string {
	return e.provider.ModelName() + ":" + domain.HashText(text)
}

// Dimensions returns the provider's embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.provider.Dimensions()
}

// ModelName returns the provider's model identifier.
func (e *Embedder) ModelName() string {
	return e.provider.ModelName()
}

// Ping validates the provider is reachable.
func (e *Embedder) Ping(ctx context.Context) error {
	return e.provider.Ping(ctx)
}

// Close releases the provider and drops the cache.
func (e *Embedder) Close() error {
	e.mu.Lock()
	e.memo = make(map[string][]float32)
	e.mu.Unlock()
	return e.provider.Close()
}
