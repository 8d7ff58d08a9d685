package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/paperbase/paperbase/internal/core/domain"
	"github.com/paperbase/paperbase/internal/core/ports/driven"
)

// fakeEmbeddingService is a deterministic in-memory embedding provider.
// Each text embeds to a vector derived from its length, so equal texts get
// equal vectors and distinct texts (almost always) differ.
type fakeEmbeddingService struct {
	mu        sync.Mutex
	model     string
	dims      int
	calls     int
	batches   [][]string
	failUntil int // fail the first N EmbedBatch calls
	embedFn   func(text string) []float32
}

var _ driven.EmbeddingService = (*fakeEmbeddingService)(nil)

func newFakeEmbedding(model string, dims int) *fakeEmbeddingService {
	return &fakeEmbeddingService{model: model, dims: dims}
}

func (f *fakeEmbeddingService) vector(text string) []float32 {
	if f.embedFn != nil {
		return f.embedFn(text)
	}
	v := make([]float32, f.dims)
	for i := range v {
		v[i] = float32((len(text)+i)%17) + 1
	}
	return v
}

func (f *fakeEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.calls <= f.failUntil {
		return nil, fmt.Errorf("provider unavailable (call %d)", f.calls)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f *fakeEmbeddingService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeEmbeddingService) Dimensions() int              { return f.dims }
func (f *fakeEmbeddingService) ModelName() string            { return f.model }
func (f *fakeEmbeddingService) Ping(_ context.Context) error { return nil }
func (f *fakeEmbeddingService) Close() error                 { return nil }

// fakeStore is an in-memory DocumentStore.
type fakeStore struct {
	mu     sync.Mutex
	docs   map[string]*domain.Document
	chunks map[string][]domain.Chunk // keyed by document ID
}

var _ driven.DocumentStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:   make(map[string]*domain.Document),
		chunks: make(map[string][]domain.Chunk),
	}
}

func (s *fakeStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *doc
	s.docs[doc.ID] = &cp
	return nil
}

func (s *fakeStore) SetStatus(_ context.Context, id string, status domain.Status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	doc.FailureReason = reason
	return nil
}

func (s *fakeStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (s *fakeStore) GetDocumentByPath(_ context.Context, path string) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		if doc.Path == path {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *fakeStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.docs, id)
	delete(s.chunks, id)
	return nil
}

func (s *fakeStore) ReplaceChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[documentID] = append([]domain.Chunk(nil), chunks...)
	return nil
}

func (s *fakeStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Chunk(nil), s.chunks[documentID]...), nil
}

func (s *fakeStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunks := range s.chunks {
		for i := range chunks {
			if chunks[i].ID == id {
				cp := chunks[i]
				return &cp, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// fakeIndex is an in-memory VectorIndex using dot-product similarity over
// the fake embedding vectors.
type fakeIndex struct {
	mu      sync.Mutex
	entries map[string]domain.IndexEntry
	model   string
	dims    int
}

var _ driven.VectorIndex = (*fakeIndex)(nil)

func newFakeIndex() *fakeIndex {
	return &fakeIndex{entries: make(map[string]domain.IndexEntry)}
}

func (x *fakeIndex) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, e := range entries {
		x.entries[e.ChunkID] = e
	}
	return nil
}

func (x *fakeIndex) DeleteDocument(_ context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for id, e := range x.entries {
		if e.Meta.DocumentID == documentID {
			delete(x.entries, id)
		}
	}
	return nil
}

func (x *fakeIndex) ReplaceDocument(ctx context.Context, documentID string, entries []domain.IndexEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for id, e := range x.entries {
		if e.Meta.DocumentID == documentID {
			delete(x.entries, id)
		}
	}
	for _, e := range entries {
		x.entries[e.ChunkID] = e
	}
	return nil
}

func (x *fakeIndex) Query(_ context.Context, vector []float32, k int, filter *driven.QueryFilter) ([]driven.VectorHit, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	allowed := map[string]bool{}
	if filter != nil {
		for _, id := range filter.DocumentIDs {
			allowed[id] = true
		}
	}

	var hits []driven.VectorHit
	for _, e := range x.entries {
		if len(allowed) > 0 && !allowed[e.Meta.DocumentID] {
			continue
		}
		hits = append(hits, driven.VectorHit{Entry: e, Similarity: cosine(vector, e.Vector)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Entry.Meta.Seq < hits[j].Entry.Meta.Seq
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (x *fakeIndex) Count(_ context.Context, documentID string) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	n := 0
	for _, e := range x.entries {
		if e.Meta.DocumentID == documentID {
			n++
		}
	}
	return n, nil
}

func (x *fakeIndex) Model() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.model
}

func (x *fakeIndex) AdoptModel(name string, dimensions int) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.model = name
	x.dims = dimensions
	return nil
}

func (x *fakeIndex) Close() error { return nil }

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// fakeLLM returns canned responses.
type fakeLLM struct {
	answer    string
	summary   string
	questions []string
}

var _ driven.LLMService = (*fakeLLM)(nil)

func (l *fakeLLM) GenerateAnswer(_ context.Context, question string, _ []string) (string, error) {
	l.questions = append(l.questions, question)
	return l.answer, nil
}

func (l *fakeLLM) Summarise(_ context.Context, _ string, _ int) (string, error) {
	return l.summary, nil
}

func (l *fakeLLM) Close() error { return nil }
