// Package watch re-runs an action when a dataset file changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/andrew2loo/RethinkBI/internal/debug"
)

// DefaultDebounce collapses bursts of writes into one callback.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a file for changes
type Watcher struct {
	file     string
	callback func(ctx context.Context) error
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *slog.Logger
	done     chan struct{}
	stopped  chan struct{}
}

// NewWatcher creates a watcher on file. The containing directory is watched so that
// editors replacing the file by rename are still seen.
func NewWatcher(file string, debounce time.Duration, callback func(ctx context.Context) error) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	absPath, err := filepath.Abs(file)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		file:     absPath,
		callback: callback,
		watcher:  watcher,
		debounce: debounce,
		log:      debug.With("component", "watch", "file", absPath),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Start runs the callback once, then again after every settled change until ctx is done
// or Stop is called. Start must be called at most once.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.callback(ctx); err != nil {
		close(w.stopped)
		return fmt.Errorf("initial callback failed: %w", err)
	}

	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.stopped)

	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()
	var debounceCh <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if eventPath, err := filepath.Abs(event.Name); err == nil && eventPath == w.file {
				debounceTimer.Reset(w.debounce)
				debounceCh = debounceTimer.C
			}

		case <-debounceCh:
			debounceCh = nil
			w.log.Debug("file changed")
			if err := w.callback(ctx); err != nil {
				w.log.Error("watch callback failed", "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)

		case <-ctx.Done():
			return
		case <-w.done:
			return
		}
	}
}

// Stop stops watching and waits for a running callback to return.
func (w *Watcher) Stop() error {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	err := w.watcher.Close()
	<-w.stopped
	return err
}

// Done is closed once the watcher has stopped.
func (w *Watcher) Done() <-chan struct{} {
	return w.stopped
}
