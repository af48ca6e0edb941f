// Package watcher keeps the corpus in step with directories of study files.
// Changed files are re-ingested and deleted files removed, in debounced
// batches.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
	"github.com/custodia-labs/studymate/internal/logger"
)

// DefaultDebounce is how long the watcher waits for events to settle.
const DefaultDebounce = 500 * time.Millisecond

// ErrMissingCorpusService is returned when the corpus service is not provided.
var ErrMissingCorpusService = errors.New("watcher: corpus service is required")

// ChangeKind classifies a pending file change.
type ChangeKind int

// Change kinds.
const (
	ChangeUpdated ChangeKind = iota
	ChangeDeleted
)

// Config configures a Watcher.
type Config struct {
	// Debounce is the quiet period before a batch is processed.
	Debounce time.Duration

	// Filter selects the files to ingest. Nil accepts every file.
	Filter func(path string) bool

	// Rebuild rebuilds the index after each batch. Otherwise the index is
	// only marked stale.
	Rebuild bool

	// IndexPath is where the index is saved after a rebuild. Empty skips saving.
	IndexPath string
}

// Batch reports one processed group of changes.
type Batch struct {
	Updated []string
	Removed []string
	Failed  map[string]error

	// Rebuilt is set when the index was rebuilt after the batch.
	Rebuilt bool

	// Err is a rebuild or save failure.
	Err error
}

// Watcher watches directories and feeds file changes into the corpus.
type Watcher struct {
	corpus    driving.CorpusService
	retrieval driving.RetrievalService
	cfg       Config
	fsw       *fsnotify.Watcher
	onBatch   func(Batch)

	// pending is only touched by the Run goroutine.
	pending map[string]ChangeKind
}

// New creates a watcher. The retrieval service is optional and only used
// when cfg.Rebuild is set.
func New(corpus driving.CorpusService, retrieval driving.RetrievalService, cfg Config) (*Watcher, error) {
	if corpus == nil {
		return nil, ErrMissingCorpusService
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	return &Watcher{
		corpus:    corpus,
		retrieval: retrieval,
		cfg:       cfg,
		fsw:       fsw,
		pending:   make(map[string]ChangeKind),
	}, nil
}

// OnBatch registers a callback run after each processed batch.
func (w *Watcher) OnBatch(fn func(Batch)) {
	w.onBatch = fn
}

// Add watches root and every non-hidden directory below it.
func (w *Watcher) Add(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		logger.Debug("Watching %s", path)
		return nil
	})
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run processes events until ctx is cancelled. Pending changes are
// dropped on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if kind, ok := w.handleEvent(event); ok {
				w.pending[event.Name] = kind
				timer.Reset(w.cfg.Debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error: %v", err)

		case <-timer.C:
			if len(w.pending) == 0 {
				continue
			}
			batch := w.flush(ctx)
			if w.onBatch != nil {
				w.onBatch(batch)
			}
		}
	}
}

// handleEvent classifies a filesystem event. New directories are watched
// and produce no change; chmod-only events are ignored. Hidden directories
// are never watched, so only the base name is checked here.
func (w *Watcher) handleEvent(event fsnotify.Event) (ChangeKind, bool) {
	if isHidden(filepath.Base(event.Name)) {
		return 0, false
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if !w.accepts(event.Name) {
			return 0, false
		}
		return ChangeDeleted, true
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return 0, false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return 0, false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.Add(event.Name); err != nil {
				logger.Warn("Cannot watch new directory: %v", err)
			}
		}
		return 0, false
	}
	if !w.accepts(event.Name) {
		return 0, false
	}
	return ChangeUpdated, true
}

func (w *Watcher) accepts(path string) bool {
	return w.cfg.Filter == nil || w.cfg.Filter(path)
}

// flush applies the pending changes in path order and clears them.
func (w *Watcher) flush(ctx context.Context) Batch {
	batch := Batch{Failed: make(map[string]error)}

	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		switch w.pending[path] {
		case ChangeUpdated:
			if _, _, err := w.corpus.AddFile(ctx, path); err != nil {
				batch.Failed[path] = err
				continue
			}
			batch.Updated = append(batch.Updated, path)
		case ChangeDeleted:
			_, err := w.corpus.RemoveSource(ctx, filepath.Base(path))
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				batch.Failed[path] = err
				continue
			}
			batch.Removed = append(batch.Removed, path)
		}
	}
	clear(w.pending)

	for path, err := range batch.Failed {
		logger.Warn("Cannot update %s: %v", path, err)
	}
	logger.Info("Watcher batch: %d updated, %d removed, %d failed",
		len(batch.Updated), len(batch.Removed), len(batch.Failed))

	if !w.cfg.Rebuild || w.retrieval == nil || len(batch.Updated)+len(batch.Removed) == 0 {
		return batch
	}
	if _, err := w.retrieval.Rebuild(ctx); err != nil {
		batch.Err = fmt.Errorf("rebuilding index: %w", err)
		return batch
	}
	batch.Rebuilt = true
	if w.cfg.IndexPath != "" {
		if err := w.retrieval.SaveIndex(ctx, w.cfg.IndexPath); err != nil {
			batch.Err = fmt.Errorf("saving index: %w", err)
		}
	}
	return batch
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." do not count.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
