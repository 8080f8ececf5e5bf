package assets

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kiddos-intellect/imgpipe/internal/domain"
)

// DefaultDebounce is how long a path must stay quiet before it is converted.
const DefaultDebounce = 500 * time.Millisecond

// Watcher converts images as they are created or modified under the source root.
type Watcher struct {
	converter *Converter
	filter    *FileFilter
	debounce  time.Duration
	watcher   *fsnotify.Watcher

	// OnConverted, when set, is called after each conversion attempt.
	OnConverted func(domain.ConversionRecord)

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher feeding the given converter.
func NewWatcher(converter *Converter, filter *FileFilter, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		converter: converter,
		filter:    filter,
		debounce:  debounce,
		watcher:   fsWatcher,
		pending:   make(map[string]*time.Timer),
	}, nil
}

// Run watches the source tree until ctx is canceled. Debounced paths that
// have not fired yet are dropped; running conversions finish before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	root := w.converter.Options().SrcRoot
	if _, err := CheckRoot(root); err != nil {
		return err
	}
	if err := w.addTree(root); err != nil {
		return err
	}
	slog.Info("Watching for image changes", "root", root)

	for {
		select {
		case <-ctx.Done():
			w.stopPending()
			w.wg.Wait()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.wg.Wait()
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.wg.Wait()
				return nil
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	root := w.converter.Options().SrcRoot
	rel, err := filepath.Rel(root, event.Name)
	if err != nil {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		if event.Has(fsnotify.Create) && !w.filter.ShouldSkipDir(rel) {
			if err := w.addTree(event.Name); err != nil {
				slog.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
			w.scheduleTree(event.Name)
		}
		return
	}

	if filepath.Base(event.Name)[0] == '.' {
		return
	}
	if !w.filter.Matches(event.Name) || w.filter.ShouldExclude(rel) {
		return
	}
	w.schedule(event.Name)
}

// scheduleTree queues images that landed in a new directory before it was watched.
func (w *Watcher) scheduleTree(dir string) {
	seq, err := NewDiscoverer(w.filter).Discover(dir)
	if err != nil {
		return
	}
	for path := range seq {
		w.schedule(path)
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.pending[path]; exists {
		if timer.Stop() {
			w.wg.Done()
		}
	}

	w.wg.Add(1)
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		rec := w.converter.ConvertFile(path)
		if rec.Error == "" {
			slog.Info("Converted image", "source", path, "outputs", len(rec.Outputs))
		}
		if w.OnConverted != nil {
			w.OnConverted(rec)
		}
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		if timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}

func (w *Watcher) addTree(dir string) error {
	root := w.converter.Options().SrcRoot
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(root, path); err == nil && rel != "." && w.filter.ShouldSkipDir(rel) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
