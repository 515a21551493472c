// Package watch notices RAW files appearing in or leaving the open folder.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"rawcull/internal/errors"
	"rawcull/internal/log"

	"github.com/fsnotify/fsnotify"
)

// Change is a file event for a RAW file in the watched directory.
type Change struct {
	Path      string
	Op        fsnotify.Op
	Timestamp time.Time
}

// Removed reports whether the file left the directory.
func (c Change) Removed() bool {
	return c.Op.Has(fsnotify.Remove) || c.Op.Has(fsnotify.Rename)
}

// Watcher monitors one directory using fsnotify and reports changes to
// files accepted by its match function.
type Watcher struct {
	dir   string
	match func(name string) bool

	changes   chan Change
	stopChan  chan struct{}
	done      chan struct{}
	fsWatcher *fsnotify.Watcher

	mutex   sync.RWMutex
	running bool
	stopped bool
}

// New creates a watcher for dir. match receives base names; nil accepts
// every file.
func New(dir string, match func(name string) bool) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.NewFileError("error accessing directory", dir, errors.DirectoryNotFound, err)
	}
	if !info.IsDir() {
		return nil, errors.NewFileError("not a directory", dir, errors.DirectoryNotFound, nil)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", dir)
	}
	if match == nil {
		match = func(string) bool { return true }
	}

	return &Watcher{
		dir:       dir,
		match:     match,
		changes:   make(chan Change, 64),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
		fsWatcher: fsWatcher,
	}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Changes returns the channel that delivers changes. It is closed by Stop.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start begins delivering changes.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.running {
		return errors.New("watcher already running")
	}
	if w.stopped {
		return errors.New("watcher stopped")
	}
	w.running = true
	go w.loop()
	log.LogWithFields(log.F("directory", w.dir)).Info("Watching directory")
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if change, ok := w.filter(event); ok {
				select {
				case w.changes <- change:
				case <-w.stopChan:
					return
				default:
					log.LogWithFields(log.F("file", event.Name)).Warn("Change channel is full, dropped event")
				}
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.LogWithError(err).Error("fsnotify watcher error")

		case <-w.stopChan:
			return
		}
	}
}

// filter keeps creations, writes, removals and renames of matching files.
// Chmod-only events and directories are dropped.
func (w *Watcher) filter(event fsnotify.Event) (Change, bool) {
	if !w.match(filepath.Base(event.Name)) {
		return Change{}, false
	}
	change := Change{Path: event.Name, Op: event.Op, Timestamp: time.Now()}

	switch {
	case change.Removed():
		return change, true
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			// Gone again before we looked.
			if !os.IsNotExist(err) {
				log.LogWithError(err, log.F("file", event.Name)).Error("Error stating file")
			}
			return Change{}, false
		}
		if info.IsDir() {
			return Change{}, false
		}
		return change, true
	}
	return Change{}, false
}

// Stop halts watching and closes the Changes channel. It is safe to call
// more than once.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true

	close(w.stopChan)
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithError(err).Error("Error closing fsnotify watcher")
	}
	if w.running {
		<-w.done
	}
	w.running = false
	close(w.changes)
	log.Info("Watcher stopped.")
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}
