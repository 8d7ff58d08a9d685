package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/paperbase/paperbase/internal/core/domain"
	"github.com/paperbase/paperbase/internal/core/ports/driven"
	"github.com/paperbase/paperbase/internal/core/ports/driving"
	"github.com/paperbase/paperbase/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.Querier = (*QueryService)(nil)

// Query defaults.
const (
	DefaultTopK      = 3
	DefaultOverfetch = 4
)

// QueryService answers similarity queries over the index. It embeds the
// query text, overfetches candidates, deduplicates by document, and
// hydrates the winners into passages with provenance.
type QueryService struct {
	store      driven.DocumentStore
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	refresher  driving.Ingestor
	topK       int
	overfetch  int
	dedupe     domain.DedupePolicy
	onMismatch domain.MismatchPolicy
}

// QueryOption configures the query service.
type QueryOption func(*QueryService)

// WithTopK sets the default result count.
func WithTopK(k int) QueryOption {
	return func(s *QueryService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithOverfetch sets the candidate pool multiplier applied before dedup.
func WithOverfetch(n int) QueryOption {
	return func(s *QueryService) {
		if n >= 1 {
			s.overfetch = n
		}
	}
}

// WithDedupePolicy sets the default document dedup policy.
func WithDedupePolicy(p domain.DedupePolicy) QueryOption {
	return func(s *QueryService) {
		if p.IsValid() {
			s.dedupe = p
		}
	}
}

// WithQueryMismatchPolicy sets the behaviour when the index model differs
// from the configured one. The reembed policy needs a refresher.
func WithQueryMismatchPolicy(p domain.MismatchPolicy, refresher driving.Ingestor) QueryOption {
	return func(s *QueryService) {
		if p.IsValid() {
			s.onMismatch = p
			s.refresher = refresher
		}
	}
}

// NewQueryService creates the query pipeline service.
func NewQueryService(
	store driven.DocumentStore,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	opts ...QueryOption,
) *QueryService {
	s := &QueryService{
		store:      store,
		embedder:   embedder,
		index:      index,
		topK:       DefaultTopK,
		overfetch:  DefaultOverfetch,
		dedupe:     domain.DedupeBest,
		onMismatch: domain.MismatchReject,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query runs the retrieval pipeline for text. An empty or blank query
// returns an empty result without touching the embedder or index.
func (s *QueryService) Query(ctx context.Context, text string, opts domain.QueryOptions) ([]domain.Passage, error) {
	if strings.TrimSpace(text) == "" {
		return []domain.Passage{}, nil
	}

	if err := s.checkModel(ctx); err != nil {
		return nil, err
	}

	k := opts.K
	if k <= 0 {
		k = s.topK
	}
	dedupe := opts.Dedupe
	if !dedupe.IsValid() {
		dedupe = s.dedupe
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Overfetch so dedup still has k survivors.
	hits, err := s.index.Query(ctx, vector, k*s.overfetch, nil)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	logger.Debug("Query matched %d candidates for k=%d", len(hits), k)

	if dedupe == domain.DedupeBest {
		hits = bestPerDocument(hits)
	}
	if len(hits) > k {
		hits = hits[:k]
	}

	return s.hydrate(ctx, hits)
}

// checkModel applies the model mismatch policy before serving a query.
func (s *QueryService) checkModel(ctx context.Context) error {
	recorded := s.index.Model()
	current := s.embedder.ModelName()
	if recorded == "" || recorded == current {
		return nil
	}

	if s.onMismatch == domain.MismatchReembed && s.refresher != nil {
		logger.Warn("Index built with model %q, re-embedding with %q before query",
			recorded, current)
		return s.refresher.RefreshEmbeddings(ctx)
	}

	return fmt.Errorf("%w: index has %q, configured %q; re-ingest or enable reembed",
		domain.ErrStaleIndex, recorded, current)
}

// bestPerDocument keeps only the best-scoring hit per document, preserving
// the overall ranking.
func bestPerDocument(hits []driven.VectorHit) []driven.VectorHit {
	seen := make(map[string]bool, len(hits))
	out := hits[:0:0]
	for _, h := range hits {
		if seen[h.Entry.Meta.DocumentID] {
			continue
		}
		seen[h.Entry.Meta.DocumentID] = true
		out = append(out, h)
	}
	return out
}

// hydrate turns index hits into passages, pulling chunk text from the
// store. A hit whose chunk vanished mid-query (concurrent delete) is
// dropped rather than failing the whole result.
func (s *QueryService) hydrate(ctx context.Context, hits []driven.VectorHit) ([]domain.Passage, error) {
	passages := make([]domain.Passage, 0, len(hits))
	for _, h := range hits {
		chunk, err := s.store.GetChunk(ctx, h.Entry.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Debug("Dropping hit %s: chunk no longer stored", h.Entry.ChunkID)
				continue
			}
			return nil, fmt.Errorf("loading chunk %s: %w", h.Entry.ChunkID, err)
		}
		passages = append(passages, domain.Passage{
			DocumentID: h.Entry.Meta.DocumentID,
			Path:       h.Entry.Meta.Path,
			Seq:        h.Entry.Meta.Seq,
			Start:      h.Entry.Meta.Start,
			End:        h.Entry.Meta.End,
			Text:       chunk.Text,
			Score:      h.Similarity,
		})
	}

	// The index already ranks; keep its order stable after drops.
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
	return passages, nil
}
