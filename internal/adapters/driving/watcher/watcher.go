// Package watcher ingests documents automatically when files under the
// documents root change. Events are debounced per path so editors that
// write in bursts trigger one ingestion, not many.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/paperbase/paperbase/internal/core/domain"
	"github.com/paperbase/paperbase/internal/core/ports/driving"
	"github.com/paperbase/paperbase/internal/logger"
)

// DefaultDebounce is the quiet period after the last event on a path
// before ingestion starts.
const DefaultDebounce = 2 * time.Second

// Watcher drives the ingestor from filesystem events.
type Watcher struct {
	root     string
	ingestor driving.Ingestor
	detect   func(path string) string
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the per-path quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over root. detect maps paths to media types;
// paths it does not recognise are ignored.
func New(root string, ingestor driving.Ingestor, detect func(path string) string, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		ingestor: ingestor,
		detect:   detect,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the documents root until ctx is cancelled. Subdirectories
// present at start or created later are watched too.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.root); err != nil {
		return err
	}
	logger.Info("Watching %s for document changes", w.root)

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// addRecursive watches dir and every subdirectory below it.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && !strings.HasPrefix(d.Name(), ".") {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) handle(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	// New directories join the watch set.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(fsw, event.Name); err != nil {
				logger.Warn("Watching new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	if w.detect(event.Name) == "" {
		return
	}

	w.schedule(ctx, event.Name)
}

// schedule (re)arms the debounce timer for path. Every new event pushes
// the ingestion back until the file settles.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}

	w.wg.Add(1)
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.ingest(ctx, path)
	})
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	logger.Debug("File settled, ingesting: %s", path)
	_, err := w.ingestor.Ingest(ctx, path)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrConflict):
		// An ingestion for this document is already running; the watcher
		// never queues a second one.
		logger.Debug("Skipping %s: ingestion already in progress", path)
	default:
		logger.Warn("Auto-ingesting %s: %v", path, err)
	}
}

// drain waits for in-flight debounce callbacks to finish.
func (w *Watcher) drain() {
	w.mu.Lock()
	for path, timer := range w.pending {
		// A timer whose callback already fired settles its own waitgroup
		// slot; only a successfully stopped one needs releasing here.
		if timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
