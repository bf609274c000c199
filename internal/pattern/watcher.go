package pattern

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads an external pattern catalog into a registry whenever the
// file changes. Built-in patterns are never touched; only the IDs loaded from
// the file are replaced on each reload.
type Watcher struct {
	registry *Registry
	path     string
	log      *slog.Logger

	mu      sync.Mutex
	loaded  []string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a catalog watcher. It performs an initial load before
// watching; initial load errors are returned, later reload errors are logged.
func NewWatcher(registry *Registry, path string, log *slog.Logger) (*Watcher, error) {
	w := &Watcher{
		registry: registry,
		path:     path,
		log:      log,
		done:     make(chan struct{}),
	}
	if err := w.reload(); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors replace files on save, which drops a
	// watch registered on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	w.watcher = fw

	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.reload(); err != nil {
				w.log.Warn("pattern catalog reload failed", "path", w.path, "error", err)
			} else {
				w.log.Info("pattern catalog reloaded", "path", w.path)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("pattern catalog watch error", "error", err)
		}
	}
}

// reload re-reads the catalog file and swaps the previously loaded custom
// patterns for the new set.
func (w *Watcher) reload() error {
	patterns, loadErr := LoadFile(w.path)

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, id := range w.loaded {
		w.registry.Remove(id)
	}
	w.loaded = nil

	added, mergeErr := Merge(w.registry, patterns)
	w.loaded = added

	if loadErr != nil {
		return loadErr
	}
	return mergeErr
}

// Close stops watching. Safe to call multiple times.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
