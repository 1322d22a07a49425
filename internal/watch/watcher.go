// Package watch keeps a gallery continuously up to date: file events and a
// periodic rescan both funnel into serialized rebuild passes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pythonot/nbrun/internal/logfields"
)

// Watcher monitors the gallery source directory for notebook changes and
// fires a debounced callback. Gallery regeneration rewrites many notebooks in
// a burst; the debounce window folds the burst into one callback.
type Watcher struct {
	dir      string
	pattern  string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	pending  chan struct{}
}

// NewWatcher creates a watcher for notebooks matching pattern inside dir.
func NewWatcher(dir, pattern string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		dir:      dir,
		pattern:  pattern,
		watcher:  fsw,
		debounce: debounce,
		pending:  make(chan struct{}, 1),
	}, nil
}

// Start begins monitoring. onChange runs on its own goroutine after the
// debounce window closes.
func (w *Watcher) Start(ctx context.Context, onChange func()) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", w.dir, err)
	}

	slog.Info("Watching for notebook changes", logfields.Path(w.dir))
	go w.watchLoop(ctx)
	go w.debounceLoop(ctx, onChange)
	return nil
}

func (w *Watcher) matches(name string) bool {
	ok, err := filepath.Match(w.pattern, filepath.Base(name))
	return err == nil && ok
}

// watchLoop filters file system events down to notebook changes.
func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			slog.Debug("Notebook change detected",
				logfields.Path(event.Name),
				slog.String("op", event.Op.String()))
			select {
			case w.pending <- struct{}{}:
			default:
				// A change is already pending.
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

// debounceLoop resets the timer on every pending change and invokes onChange
// once the burst settles.
func (w *Watcher) debounceLoop(ctx context.Context, onChange func()) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.pending:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, onChange)
		}
	}
}

// Close stops the underlying file system watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
