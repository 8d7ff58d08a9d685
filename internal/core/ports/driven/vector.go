package driven

import (
	"context"

	"github.com/paperbase/paperbase/internal/core/domain"
)

// VectorIndex provides persistent nearest-neighbour search over index
// entries. The per-document delete+upsert sequence is the only required
// transactional boundary in the system: a concurrent query observes either
// the full pre-replace or full post-replace set, never a partial one.
type VectorIndex interface {
	// Upsert inserts entries, replacing any existing entry with the same
	// chunk ID.
	Upsert(ctx context.Context, entries []domain.IndexEntry) error

	// DeleteDocument removes all entries for a document atomically.
	DeleteDocument(ctx context.Context, documentID string) error

	// ReplaceDocument atomically deletes a document's prior entries and
	// inserts the new set.
	ReplaceDocument(ctx context.Context, documentID string, entries []domain.IndexEntry) error

	// Query finds the k most similar entries to the query vector, ranked
	// by descending similarity; ties broken by ascending chunk sequence.
	Query(ctx context.Context, vector []float32, k int, filter *QueryFilter) ([]VectorHit, error)

	// Count returns the number of entries held for a document.
	Count(ctx context.Context, documentID string) (int, error)

	// Model returns the embedding model identity the index was built
	// with, empty for a fresh index.
	Model() string

	// AdoptModel records the embedding model identity and dimension.
	// Entries embedded with a previous model become invalid and must be
	// replaced by the caller.
	AdoptModel(name string, dimensions int) error

	// Close flushes and releases resources.
	Close() error
}

// QueryFilter restricts a similarity query.
type QueryFilter struct {
	// DocumentIDs limits results to the given documents when non-empty.
	DocumentIDs []string
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// Entry is the matched index entry.
	Entry domain.IndexEntry

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
