// Package flat provides a persistent brute-force vector index. Entries
// live in memory and snapshot to disk as a gob file; exhaustive cosine
// search keeps results exact, which is the right trade until corpora grow
// past tens of thousands of chunks.
package flat

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/paperbase/paperbase/internal/core/domain"
	"github.com/paperbase/paperbase/internal/core/ports/driven"
	"github.com/paperbase/paperbase/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// snapshotFile is the index file name under the index directory.
const snapshotFile = "index.gob"

// snapshot is the on-disk form of the index.
type snapshot struct {
	Model      string
	Dimensions int
	Entries    []domain.IndexEntry
}

// Index is an exhaustive-search vector index with gob persistence.
// A write lock covers every mutation, so per-document replacement is
// atomic with respect to queries.
type Index struct {
	path string

	mu      sync.RWMutex
	model   string
	dims    int
	entries map[string]domain.IndexEntry
	byDoc   map[string]map[string]struct{}
}

// Open loads the index from dir, creating an empty one when no snapshot
// exists yet.
func Open(dir string) (*Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	x := &Index{
		path:    filepath.Join(dir, snapshotFile),
		entries: make(map[string]domain.IndexEntry),
		byDoc:   make(map[string]map[string]struct{}),
	}
	if err := x.load(); err != nil {
		return nil, err
	}
	return x, nil
}

func (x *Index) load() error {
	f, err := os.Open(x.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening index snapshot: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("decoding index snapshot: %w", err)
	}

	x.model = snap.Model
	x.dims = snap.Dimensions
	for _, e := range snap.Entries {
		x.insert(e)
	}
	logger.Debug("Loaded %d index entries (model %q)", len(x.entries), x.model)
	return nil
}

// save writes the snapshot via temp file + rename so a crash never leaves
// a torn index on disk. Caller holds the write lock.
func (x *Index) save() error {
	snap := snapshot{
		Model:      x.model,
		Dimensions: x.dims,
		Entries:    make([]domain.IndexEntry, 0, len(x.entries)),
	}
	for _, e := range x.entries {
		snap.Entries = append(snap.Entries, e)
	}

	tmp, err := os.CreateTemp(filepath.Dir(x.path), "index-*.tmp")
	if err != nil {
		return fmt.Errorf("creating snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(&snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding index snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), x.path); err != nil {
		return fmt.Errorf("replacing index snapshot: %w", err)
	}
	return nil
}

// insert adds e to the in-memory maps. Caller holds the write lock.
func (x *Index) insert(e domain.IndexEntry) {
	if old, ok := x.entries[e.ChunkID]; ok {
		x.removeFromDoc(old.Meta.DocumentID, e.ChunkID)
	}
	x.entries[e.ChunkID] = e
	docSet, ok := x.byDoc[e.Meta.DocumentID]
	if !ok {
		docSet = make(map[string]struct{})
		x.byDoc[e.Meta.DocumentID] = docSet
	}
	docSet[e.ChunkID] = struct{}{}
}

func (x *Index) removeFromDoc(documentID, chunkID string) {
	if docSet, ok := x.byDoc[documentID]; ok {
		delete(docSet, chunkID)
		if len(docSet) == 0 {
			delete(x.byDoc, documentID)
		}
	}
}

// deleteDocLocked removes a document's entries. Caller holds the write
// lock.
func (x *Index) deleteDocLocked(documentID string) {
	for chunkID := range x.byDoc[documentID] {
		delete(x.entries, chunkID)
	}
	delete(x.byDoc, documentID)
}

// Upsert inserts entries, replacing same-ID entries, and snapshots.
func (x *Index) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, e := range entries {
		x.insert(e)
	}
	return x.save()
}

// DeleteDocument removes all entries for a document atomically.
func (x *Index) DeleteDocument(_ context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.deleteDocLocked(documentID)
	return x.save()
}

// ReplaceDocument swaps a document's entries under one lock, so a
// concurrent query sees the old set or the new set, never a mix.
func (x *Index) ReplaceDocument(_ context.Context, documentID string, entries []domain.IndexEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.deleteDocLocked(documentID)
	for _, e := range entries {
		x.insert(e)
	}
	return x.save()
}

// Query scans every entry and returns the k nearest by cosine similarity.
// Ties break by ascending chunk sequence, then chunk ID for determinism.
func (x *Index) Query(_ context.Context, vector []float32, k int, filter *driven.QueryFilter) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	var allowed map[string]struct{}
	if filter != nil && len(filter.DocumentIDs) > 0 {
		allowed = make(map[string]struct{}, len(filter.DocumentIDs))
		for _, id := range filter.DocumentIDs {
			allowed[id] = struct{}{}
		}
	}

	hits := make([]driven.VectorHit, 0, len(x.entries))
	for _, e := range x.entries {
		if allowed != nil {
			if _, ok := allowed[e.Meta.DocumentID]; !ok {
				continue
			}
		}
		hits = append(hits, driven.VectorHit{
			Entry:      e,
			Similarity: cosine(vector, e.Vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if hits[i].Entry.Meta.Seq != hits[j].Entry.Meta.Seq {
			return hits[i].Entry.Meta.Seq < hits[j].Entry.Meta.Seq
		}
		return hits[i].Entry.ChunkID < hits[j].Entry.ChunkID
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of entries held for a document.
func (x *Index) Count(_ context.Context, documentID string) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byDoc[documentID]), nil
}

// Model returns the embedding model the index was built with.
func (x *Index) Model() string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.model
}

// AdoptModel records the embedding model identity and dimension.
func (x *Index) AdoptModel(name string, dimensions int) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.model = name
	x.dims = dimensions
	return x.save()
}

// Size returns the total number of entries.
func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Close snapshots one final time.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.save()
}

// cosine computes cosine similarity; zero vectors score zero.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
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
