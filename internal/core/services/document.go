package services

import (
	"context"
	"fmt"

	"github.com/paperbase/paperbase/internal/core/domain"
	"github.com/paperbase/paperbase/internal/core/ports/driven"
	"github.com/paperbase/paperbase/internal/core/ports/driving"
	"github.com/paperbase/paperbase/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages tracked documents.
type DocumentService struct {
	store driven.DocumentStore
	index driven.VectorIndex
}

// NewDocumentService creates the document management service.
func NewDocumentService(store driven.DocumentStore, index driven.VectorIndex) *DocumentService {
	return &DocumentService{
		store: store,
		index: index,
	}
}

// List returns all tracked documents.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.store.ListDocuments(ctx)
}

// Get returns a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// Delete removes a document, its chunks, and its index entries. Index
// entries go first: a hit against a deleted chunk is dropped during
// hydration, but a stored chunk without index entries would linger
// invisibly forever.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetDocument(ctx, id); err != nil {
		return err
	}

	if err := s.index.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("removing index entries: %w", err)
	}
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("removing document: %w", err)
	}

	logger.Info("Deleted document %s", id)
	return nil
}
