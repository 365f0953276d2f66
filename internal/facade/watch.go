package facade

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/buildinspect/buildinspect/internal/log"
)

// Watcher re-triggers analysis when any of the watched archive files
// change on disk, debouncing bursts of writes (a build tool often rewrites
// an APK in several small operations).
type Watcher struct {
	fsw       *fsnotify.Watcher
	debounce  time.Duration
	onChanged func(changed string)
}

// NewWatcher opens an fsnotify watch on the directories containing each of
// the given archive paths.
func NewWatcher(archivePaths []string, debounce time.Duration, onChanged func(changed string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dirs := make(map[string]bool)
	for _, p := range archivePaths {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			log.Driver("watch %s: %v", dir, err)
		}
	}

	watched := make(map[string]bool)
	for _, p := range archivePaths {
		watched[filepath.Clean(p)] = true
	}
	notify := func(changed string) {
		if watched[filepath.Clean(changed)] {
			onChanged(changed)
		}
	}

	return &Watcher{fsw: fsw, debounce: debounce, onChanged: notify}, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run processes file events until ctx is cancelled, debouncing repeated
// writes to the same path into a single callback invocation.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]*time.Timer)
	fire := make(chan string)

	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			path := ev.Name
			if t, exists := pending[path]; exists {
				t.Stop()
			}
			pending[path] = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- path:
				case <-ctx.Done():
				}
			})

		case path := <-fire:
			delete(pending, path)
			w.onChanged(path)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Driver("watch error: %v", err)
		}
	}
}
