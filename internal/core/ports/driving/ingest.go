package driving

import (
	"context"

	"github.com/paperbase/paperbase/internal/core/domain"
)

// Ingestor runs the ingestion pipeline for source documents.
type Ingestor interface {
	// Ingest processes the document at path end to end: extract, chunk,
	// embed, index. At most one ingestion per document ID runs at a
	// time; a concurrent request for the same ID fails with
	// domain.ErrConflict after the configured lock timeout.
	// Re-ingesting a complete document atomically replaces its prior
	// index entries.
	Ingest(ctx context.Context, path string) (*domain.Document, error)

	// Status returns the current pipeline state of a document.
	Status(ctx context.Context, documentID string) (*domain.Document, error)

	// RefreshEmbeddings re-embeds every stored chunk with the current
	// embedding model and swaps the index contents. Used when the
	// configured model has changed since the index was built.
	RefreshEmbeddings(ctx context.Context) error
}
