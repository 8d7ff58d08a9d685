package driving

import (
	"context"

	"github.com/paperbase/paperbase/internal/core/domain"
)

// DocumentService manages tracked documents.
type DocumentService interface {
	// List returns all tracked documents.
	List(ctx context.Context) ([]domain.Document, error)

	// Get returns a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Delete removes a document, its chunks, and its index entries.
	// Index entries go first so a concurrent query never cites a
	// document the store has already forgotten.
	Delete(ctx context.Context, id string) error
}
