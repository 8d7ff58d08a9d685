package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates an ingestion for the same document is
	// already in flight. The caller should retry later; requests are
	// never queued.
	ErrConflict = errors.New("ingestion already in progress")

	// ErrStaleIndex indicates the index was built with a different
	// embedding model than the one configured for queries. Re-ingest the
	// corpus, or enable the reembed mismatch policy.
	ErrStaleIndex = errors.New("index embedding model mismatch")

	// ErrUnsupportedType indicates no extractor handles the media type.
	ErrUnsupportedType = errors.New("unsupported media type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Grounded answers and summaries are disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// ExtractionError reports an unrecoverable per-document extraction failure.
// The owning document enters the terminal failed state.
type ExtractionError struct {
	// DocumentID identifies the document that failed.
	DocumentID string

	// Reason is a short user-facing cause (never internal stack detail).
	Reason string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for document %s: %s", e.DocumentID, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// EmbeddingError reports a batch embedding failure after bounded retries.
// A batch is atomic: partial success is never reported.
type EmbeddingError struct {
	// Attempts is how many times the batch was tried.
	Attempts int

	// Err is the last underlying failure.
	Err error
}

// Error implements the error interface.
func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the underlying cause.
func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
