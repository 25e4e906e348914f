package library

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long the watcher waits for changes to settle
const DefaultDebounce = 2 * time.Second

// Watcher applies music-directory changes to the database and calls
// onChange once a burst of changes has been processed.
type Watcher struct {
	scanner  *Scanner
	root     string
	debounce time.Duration
	onChange func(ctx context.Context)
	logger   *logrus.Logger

	fs      *fsnotify.Watcher
	mutex   sync.Mutex
	pending map[string]bool
}

// NewWatcher creates a watcher for root. Run starts it.
func NewWatcher(scanner *Scanner, root string, debounce time.Duration, onChange func(ctx context.Context), logger *logrus.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Watcher{
		scanner:  scanner,
		root:     root,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		pending:  make(map[string]bool),
	}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	w.fs = watcher

	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	w.logger.WithField("library_path", w.root).Info("File watcher started")

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Error("File watcher error")

		case <-timer.C:
			if w.flush() && w.onChange != nil {
				w.onChange(ctx)
			}
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fs.Add(path)
		}
		return nil
	})
}

// handleEvent records a relevant change and reports whether it was one.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if ignored(event.Name) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.WithError(err).WithField("directory", event.Name).Warn("Failed to watch new directory")
			} else {
				w.logger.WithField("directory", event.Name).Info("Watching new directory")
			}
			// files may already be inside
			w.queueDir(event.Name)
			return true
		}
	}

	if !w.scanner.IsAudioFile(event.Name) {
		return false
	}
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.queue(event.Name)
		return true
	}
	return false
}

func (w *Watcher) queue(path string) {
	w.mutex.Lock()
	w.pending[path] = true
	w.mutex.Unlock()
}

func (w *Watcher) queueDir(dir string) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && w.scanner.IsAudioFile(path) {
			w.queue(path)
		}
		return nil
	})
}

// flush applies pending changes and reports whether the library changed.
func (w *Watcher) flush() bool {
	w.mutex.Lock()
	pending := w.pending
	w.pending = make(map[string]bool)
	w.mutex.Unlock()

	changed := false
	for path := range pending {
		logger := w.logger.WithField("file_path", path)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if err := w.scanner.Remove(path); err != nil {
				logger.WithError(err).Error("Error removing track from database")
				continue
			}
			logger.Info("Removed track from database")
			changed = true
			continue
		}
		if err := w.scanner.ScanFile(path); err != nil {
			logger.WithError(err).Error("Error extracting metadata")
			continue
		}
		logger.Info("Added or updated track")
		changed = true
	}
	return changed
}
