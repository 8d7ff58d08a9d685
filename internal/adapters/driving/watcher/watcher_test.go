package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperbase/paperbase/internal/core/domain"
)

// recordingIngestor records every ingested path.
type recordingIngestor struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (r *recordingIngestor) Ingest(_ context.Context, path string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	if r.err != nil {
		return nil, r.err
	}
	return &domain.Document{ID: domain.DocumentID(path), Path: path}, nil
}

func (r *recordingIngestor) Status(_ context.Context, _ string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (r *recordingIngestor) RefreshEmbeddings(_ context.Context) error { return nil }

func (r *recordingIngestor) ingested() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func detectTxt(path string) string {
	if filepath.Ext(path) == ".txt" {
		return "text/plain"
	}
	return ""
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func TestWatcher_IngestsNewFile(t *testing.T) {
	dir := t.TempDir()
	ing := &recordingIngestor{}
	w := New(dir, ing, detectTxt, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to arm.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "new.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	waitFor(t, 3*time.Second, func() bool {
		return len(ing.ingested()) >= 1
	})
	assert.Contains(t, ing.ingested(), path)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	ing := &recordingIngestor{}
	w := New(dir, ing, detectTxt, WithDebounce(150*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	// A burst of writes inside the debounce window collapses to one
	// ingestion.
	path := filepath.Join(dir, "burst.txt")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("revision"), 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	waitFor(t, 3*time.Second, func() bool {
		return len(ing.ingested()) >= 1
	})
	// Allow a settling period to catch any extra trigger.
	time.Sleep(300 * time.Millisecond)
	assert.Len(t, ing.ingested(), 1)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_IgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	ing := &recordingIngestor{}
	w := New(dir, ing, detectTxt, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.bin"), []byte{0}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "take.txt"), []byte("x"), 0o644))

	waitFor(t, 3*time.Second, func() bool {
		return len(ing.ingested()) >= 1
	})
	time.Sleep(200 * time.Millisecond)

	got := ing.ingested()
	assert.Len(t, got, 1)
	assert.Contains(t, got[0], "take.txt")

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_ConflictIsDropped(t *testing.T) {
	dir := t.TempDir()
	ing := &recordingIngestor{err: domain.ErrConflict}
	w := New(dir, ing, detectTxt, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "busy.txt"), []byte("x"), 0o644))

	waitFor(t, 3*time.Second, func() bool {
		return len(ing.ingested()) >= 1
	})

	// The conflict is swallowed; the watcher keeps running.
	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	ing := &recordingIngestor{}
	w := New(dir, ing, detectTxt, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "inner.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	waitFor(t, 3*time.Second, func() bool {
		return len(ing.ingested()) >= 1
	})
	assert.Contains(t, ing.ingested(), path)

	cancel()
	require.NoError(t, <-done)
}
