// Package fswatch turns file system notifications on a drop folder into
// debounced per-file callbacks.
package fswatch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
)

// DefaultDebounce is how long a file must stay quiet before it is handled
const DefaultDebounce = 500 * time.Millisecond

// Handler is called once a created or written file has settled
type Handler func(ctx context.Context, path string)

// Config configures a Watcher
type Config struct {
	Dir        string
	Extensions []string // lower-case, with dot; empty accepts every file
	Debounce   time.Duration
	Logger     interfaces.Logger
}

// Watcher monitors one directory
type Watcher struct {
	watcher    *fsnotify.Watcher
	dir        string
	extensions map[string]bool
	debounce   time.Duration
	logger     interfaces.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// NewWatcher starts watching config.Dir
func NewWatcher(config Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(config.Dir); err != nil {
		//nolint:errcheck // Already failing
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch folder %s: %w", config.Dir, err)
	}

	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Logger == nil {
		config.Logger = &interfaces.NoOpLogger{}
	}

	extensions := make(map[string]bool, len(config.Extensions))
	for _, ext := range config.Extensions {
		extensions[strings.ToLower(ext)] = true
	}

	return &Watcher{
		watcher:    fsWatcher,
		dir:        config.Dir,
		extensions: extensions,
		debounce:   config.Debounce,
		logger:     config.Logger,
		pending:    make(map[string]*time.Timer),
	}, nil
}

// Run dispatches settled files to handle until ctx is done. Pending timers
// are dropped and running handlers are awaited before it returns.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	w.logger.Info("watching folder", interfaces.F("dir", w.dir))
	defer w.drain()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.accepts(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name, handle)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", interfaces.F("error", err))
		}
	}
}

// accepts filters hidden files and unwanted extensions
func (w *Watcher) accepts(path string) bool {
	base := filepath.Base(path)
	if base == "" || base[0] == '.' {
		return false
	}
	if len(w.extensions) == 0 {
		return true
	}
	return w.extensions[strings.ToLower(filepath.Ext(base))]
}

// schedule restarts the quiet period of path
func (w *Watcher) schedule(ctx context.Context, path string, handle Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.pending[path]; exists {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.pending[path] != timer {
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		w.wg.Add(1)
		w.mu.Unlock()

		defer w.wg.Done()
		if ctx.Err() != nil {
			return
		}
		w.logger.Debug("file settled", interfaces.F("path", path))
		handle(ctx, path)
	})
	w.pending[path] = timer
}

func (w *Watcher) drain() {
	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
