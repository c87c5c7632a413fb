// Package watcher reloads a dataset file into a running session whenever
// the file changes on disk. Editor save storms are debounced and rewrites
// with identical content are suppressed by hash so a reload only happens
// when the dataset actually changed.
package watcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Loader receives the reload callback. *session.Session satisfies it.
type Loader interface {
	LoadDatasetFile(path string) error
}

// Watcher monitors one dataset file.
type Watcher struct {
	path      string
	loader    Loader
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	lastHash string
	timer    *time.Timer
}

// NewWatcher builds a watcher for the dataset file at path. The containing
// directory is watched rather than the file itself so that editors which
// replace the file on save (write to temp, rename over) keep the watch
// alive.
func NewWatcher(path string, loader Loader, debounceMs int, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dataset path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:      abs,
		loader:    loader,
		fsWatcher: fsWatcher,
		debounce:  time.Duration(debounceMs) * time.Millisecond,
		logger:    logger,
	}
	w.lastHash = fileHash(abs)
	return w, nil
}

// Start begins watching until ctx is cancelled. It returns immediately;
// reloads happen on a background goroutine.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.matches(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// matches reports whether an event path refers to the watched dataset file.
func (w *Watcher) matches(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return abs == w.path
}

// schedule arms (or re-arms) the debounce timer. Rapid successive events
// collapse into a single reload after the quiet period.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	hash := fileHash(w.path)
	if hash == "" {
		// file is mid-rewrite or gone; the next event will retry
		return
	}

	w.mu.Lock()
	unchanged := hash == w.lastHash
	if !unchanged {
		w.lastHash = hash
	}
	w.mu.Unlock()

	if unchanged {
		w.logger.Debug("dataset rewrite with identical content, skipping reload",
			zap.String("path", w.path))
		return
	}

	if err := w.loader.LoadDatasetFile(w.path); err != nil {
		w.logger.Warn("dataset reload failed",
			zap.String("path", w.path),
			zap.Error(err))
		return
	}
	w.logger.Info("dataset reloaded", zap.String("path", w.path))
}

// Close stops the underlying fs watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsWatcher.Close()
}

// fileHash returns the SHA-256 of the file content, or "" when unreadable.
func fileHash(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return ""
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
