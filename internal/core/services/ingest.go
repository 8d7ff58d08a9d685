package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/paperbase/paperbase/internal/core/domain"
	"github.com/paperbase/paperbase/internal/core/ports/driven"
	"github.com/paperbase/paperbase/internal/core/ports/driving"
	"github.com/paperbase/paperbase/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// MediaTypeDetector maps a file path to a MIME type, empty when unknown.
type MediaTypeDetector func(path string) string

// IngestService runs documents through the pipeline: extract, chunk,
// embed, index. One ingestion per document at a time.
type IngestService struct {
	store      driven.DocumentStore
	registry   driven.ExtractorRegistry
	chunker    driven.Chunker
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	detect     MediaTypeDetector
	locks      *lockTable
	onMismatch domain.MismatchPolicy

	mu     sync.Mutex
	active map[string]domain.Status
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithLockTimeout bounds how long Ingest waits for the per-document lock.
func WithLockTimeout(d time.Duration) IngestOption {
	return func(s *IngestService) {
		if d > 0 {
			s.locks = newLockTable(d)
		}
	}
}

// WithIngestMismatchPolicy sets the behaviour when the index was built
// with a different embedding model.
func WithIngestMismatchPolicy(p domain.MismatchPolicy) IngestOption {
	return func(s *IngestService) {
		if p.IsValid() {
			s.onMismatch = p
		}
	}
}

// NewIngestService creates the ingestion pipeline service.
func NewIngestService(
	store driven.DocumentStore,
	registry driven.ExtractorRegistry,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	detect MediaTypeDetector,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		store:      store,
		registry:   registry,
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		detect:     detect,
		locks:      newLockTable(5 * time.Second),
		onMismatch: domain.MismatchReject,
		active:     make(map[string]domain.Status),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest processes the document at path end to end. A concurrent request
// for the same document fails with domain.ErrConflict after the lock
// timeout. Re-ingesting a document replaces its prior chunks and index
// entries; stale entries are never left behind.
func (s *IngestService) Ingest(ctx context.Context, path string) (*domain.Document, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}

	docID := domain.DocumentID(path)
	if err := s.locks.Acquire(ctx, docID); err != nil {
		return nil, err
	}
	defer s.locks.Release(docID)

	if err := s.ensureIndexModel(ctx, docID); err != nil {
		return nil, err
	}

	doc, err := s.run(ctx, docID, path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// run executes the pipeline stages with the lock held.
func (s *IngestService) run(ctx context.Context, docID, path string) (*domain.Document, error) {
	logger.Section("Ingesting %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	mediaType := s.detect(path)
	if mediaType == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, path)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          docID,
		Path:        path,
		MediaType:   mediaType,
		ContentHash: domain.HashBytes(data),
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if prior, err := s.store.GetDocument(ctx, docID); err == nil {
		doc.CreatedAt = prior.CreatedAt
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	// Extract.
	s.setStage(ctx, doc, domain.StatusExtracting)
	text, usedOCR, err := s.registry.Extract(ctx, path, mediaType)
	if err != nil {
		return nil, s.fail(ctx, doc, "extraction", &domain.ExtractionError{
			DocumentID: docID,
			Reason:     err.Error(),
			Err:        err,
		})
	}
	doc.Text = text
	doc.UsedOCR = usedOCR
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving extracted text: %w", err)
	}
	logger.Debug("Extracted %d chars from %s (ocr=%v)", len(text), path, usedOCR)

	// Chunk. The new chunk set stays in memory until the indexing stage:
	// persisting it earlier would let queries hydrate old index entries
	// against new texts while the (slow) embedding stage runs.
	s.setStage(ctx, doc, domain.StatusChunking)
	chunks, err := s.chunker.Chunk(docID, text)
	if err != nil {
		return nil, s.fail(ctx, doc, "chunking", err)
	}
	logger.Debug("Split %s into %d chunks", path, len(chunks))

	// Embed.
	s.setStage(ctx, doc, domain.StatusEmbedding)
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, s.fail(ctx, doc, "embedding", err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	// Index. Chunk rows and index entries swap together here, so a
	// concurrent query sees the old set or the new set, never a mix.
	s.setStage(ctx, doc, domain.StatusIndexing)
	if err := s.store.ReplaceChunks(ctx, docID, chunks); err != nil {
		return nil, s.fail(ctx, doc, "indexing", err)
	}
	entries := make([]domain.IndexEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = domain.IndexEntry{
			ChunkID: c.ID,
			Vector:  c.Embedding,
			Meta: domain.EntryMeta{
				DocumentID: docID,
				Path:       path,
				Seq:        c.Seq,
				Start:      c.Start,
				End:        c.End,
			},
		}
	}
	if err := s.index.ReplaceDocument(ctx, docID, entries); err != nil {
		return nil, s.fail(ctx, doc, "indexing", err)
	}

	s.setStage(ctx, doc, domain.StatusComplete)
	s.clearActive(docID)
	logger.Info("Ingested %s: %d chunks indexed", path, len(chunks))
	return doc, nil
}

// Status returns the document's pipeline state, preferring the in-memory
// stage of an active ingestion over the persisted row.
func (s *IngestService) Status(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if stage, ok := s.active[documentID]; ok {
		doc.Status = stage
	}
	s.mu.Unlock()
	return doc, nil
}

// RefreshEmbeddings re-embeds every stored chunk with the current model
// and swaps the index contents document by document. Used after the
// configured embedding model changes.
func (s *IngestService) RefreshEmbeddings(ctx context.Context) error {
	return s.refreshAll(ctx, "")
}

// refreshAll re-embeds every complete document except skipID, whose lock
// the caller already holds and whose entries the caller is about to
// replace itself. The new model identity is recorded only after every
// document refreshed cleanly; a midway failure leaves the index still
// marked with the old model so queries keep failing with ErrStaleIndex
// instead of silently mixing models.
func (s *IngestService) refreshAll(ctx context.Context, skipID string) error {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	logger.Section("Re-embedding %d documents with model %s",
		len(docs), s.embedder.ModelName())

	for _, doc := range docs {
		if doc.Status != domain.StatusComplete || doc.ID == skipID {
			continue
		}
		if err := s.locks.Acquire(ctx, doc.ID); err != nil {
			return fmt.Errorf("document %s: %w", doc.ID, err)
		}
		err := s.refreshDocument(ctx, doc)
		s.locks.Release(doc.ID)
		if err != nil {
			return fmt.Errorf("document %s: %w", doc.ID, err)
		}
	}

	if err := s.index.AdoptModel(s.embedder.ModelName(), s.embedder.Dimensions()); err != nil {
		return fmt.Errorf("adopting model: %w", err)
	}
	return nil
}

func (s *IngestService) refreshDocument(ctx context.Context, doc domain.Document) error {
	chunks, err := s.store.GetChunks(ctx, doc.ID)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return s.index.DeleteDocument(ctx, doc.ID)
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
		entries[i] = domain.IndexEntry{
			ChunkID: chunks[i].ID,
			Vector:  vectors[i],
			Meta: domain.EntryMeta{
				DocumentID: doc.ID,
				Path:       doc.Path,
				Seq:        chunks[i].Seq,
				Start:      chunks[i].Start,
				End:        chunks[i].End,
			},
		}
	}
	if err := s.store.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return err
	}
	return s.index.ReplaceDocument(ctx, doc.ID, entries)
}

// ensureIndexModel records the embedding model on a fresh index and
// applies the mismatch policy when the index was built with another model.
// docID names the document the caller holds the lock for, so a re-embed
// sweep does not block on it.
func (s *IngestService) ensureIndexModel(ctx context.Context, docID string) error {
	current := s.embedder.ModelName()
	recorded := s.index.Model()

	switch {
	case recorded == "":
		return s.index.AdoptModel(current, s.embedder.Dimensions())
	case recorded == current:
		return nil
	case s.onMismatch == domain.MismatchReembed:
		logger.Warn("Index built with model %q, re-embedding with %q", recorded, current)
		return s.refreshAll(ctx, docID)
	default:
		return fmt.Errorf("%w: index has %q, configured %q; re-ingest or enable reembed",
			domain.ErrStaleIndex, recorded, current)
	}
}

// setStage persists a pipeline transition and mirrors it in memory.
// Persistence errors at a transition are logged, not fatal: the stage
// itself decides success.
func (s *IngestService) setStage(ctx context.Context, doc *domain.Document, stage domain.Status) {
	doc.Status = stage
	doc.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	s.active[doc.ID] = stage
	s.mu.Unlock()
	if err := s.store.SetStatus(ctx, doc.ID, stage, ""); err != nil {
		logger.Warn("Persisting status %s for %s: %v", stage, doc.ID, err)
	}
}

// fail marks the document failed with the stage and reason, and returns
// the original error.
func (s *IngestService) fail(ctx context.Context, doc *domain.Document, stage string, cause error) error {
	reason := fmt.Sprintf("%s: %v", stage, cause)
	doc.Status = domain.StatusFailed
	doc.FailureReason = reason
	s.clearActive(doc.ID)
	if err := s.store.SetStatus(ctx, doc.ID, domain.StatusFailed, reason); err != nil {
		logger.Warn("Persisting failure for %s: %v", doc.ID, err)
	}
	logger.Warn("Ingestion of %s failed at %s: %v", doc.Path, stage, cause)
	return cause
}

func (s *IngestService) clearActive(docID string) {
	s.mu.Lock()
	delete(s.active, docID)
	s.mu.Unlock()
}
