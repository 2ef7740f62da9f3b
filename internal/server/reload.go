package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/offhours/internal/logger"
)

// DefaultDebounce is the quiet period after the last change before reloading.
const DefaultDebounce = 500 * time.Millisecond

// Reloader watches heuristics files and calls reload after they change.
// It watches parent directories so files that are replaced by rename, or
// created after startup, are still picked up.
type Reloader struct {
	watcher  *fsnotify.Watcher
	reload   func() error
	files    map[string]bool
	debounce time.Duration
	log      *logger.Logger
}

// NewReloader creates a watcher for paths. Empty paths are ignored, as are
// paths whose directory does not exist.
func NewReloader(reload func() error, paths ...string) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	r := &Reloader{
		watcher:  watcher,
		reload:   reload,
		files:    make(map[string]bool),
		debounce: DefaultDebounce,
		log:      logger.Named("reload"),
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		dir := filepath.Dir(abs)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		r.files[abs] = true
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %q: %w", dir, err)
		}
		dirs[dir] = true
	}
	return r, nil
}

// Watching returns the number of files being watched.
func (r *Reloader) Watching() int { return len(r.files) }

// Close releases the watcher without running it.
func (r *Reloader) Close() error { return r.watcher.Close() }

// Run watches for changes until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if !r.files[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(r.debounce, func() {
				if err := r.reload(); err != nil {
					r.log.Error().Err(err).Msg("hot-reload failed, keeping previous heuristics")
					return
				}
				r.log.Info().Str("file", event.Name).Msg("hot-reload complete")
			})

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn().Err(err).Msg("file watcher error")
		}
	}
}
