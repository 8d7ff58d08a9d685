package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractionError(t *testing.T) {
	cause := errors.New("tesseract exited with status 1")
	err := &ExtractionError{
		DocumentID: "doc-42",
		Reason:     "OCR failed",
		Err:        cause,
	}

	assert.Contains(t, err.Error(), "doc-42")
	assert.Contains(t, err.Error(), "OCR failed")
	assert.ErrorIs(t, err, cause)

	var extractionErr *ExtractionError
	require.ErrorAs(t, error(err), &extractionErr)
	assert.Equal(t, "doc-42", extractionErr.DocumentID)
}

func TestEmbeddingError(t *testing.T) {
	cause := errors.New("429 too many requests")
	err := &EmbeddingError{Attempts: 4, Err: cause}

	assert.Contains(t, err.Error(), "4 attempts")
	assert.ErrorIs(t, err, cause)
}

func TestMismatchPolicy(t *testing.T) {
	assert.True(t, MismatchReject.IsValid())
	assert.True(t, MismatchReembed.IsValid())
	assert.False(t, MismatchPolicy("lazy").IsValid())
	assert.Equal(t, unknownDescription, MismatchPolicy("lazy").Description())
	assert.NotEqual(t, unknownDescription, MismatchReject.Description())
}

func TestDedupePolicy(t *testing.T) {
	assert.True(t, DedupeBest.IsValid())
	assert.True(t, DedupeAll.IsValid())
	assert.False(t, DedupePolicy("").IsValid())
}
