package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsValid(t *testing.T) {
	valid := []Status{
		StatusPending, StatusExtracting, StatusChunking,
		StatusEmbedding, StatusIndexing, StatusComplete, StatusFailed,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "status %q", s)
	}
	assert.False(t, Status("unknown").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusComplete.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusIndexing.Terminal())
}

func TestDocumentID_StableAcrossCleanPaths(t *testing.T) {
	a := DocumentID("/data/docs/report.pdf")
	b := DocumentID("/data/docs/./report.pdf")
	c := DocumentID("/data/docs/notes/../report.pdf")

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, DocumentID("/data/docs/other.pdf"))
}

func TestChunkID_Format(t *testing.T) {
	assert.Equal(t, "abc:0", ChunkID("abc", 0))
	assert.Equal(t, "abc:17", ChunkID("abc", 17))
}

func TestHashText_Deterministic(t *testing.T) {
	assert.Equal(t, HashText("hello"), HashText("hello"))
	assert.NotEqual(t, HashText("hello"), HashText("hello "))
	assert.Equal(t, HashText("hello"), HashBytes([]byte("hello")))
}
