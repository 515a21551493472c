package watch

import (
	"sync"
	"time"

	"rawcull/internal/catalog"
	"rawcull/internal/errors"
	"rawcull/internal/log"
)

// DefaultDebounce groups bursts of changes, such as a card copy, into one
// rescan.
const DefaultDebounce = 500 * time.Millisecond

// Status is a snapshot of a Rescanner.
type Status struct {
	Running      bool
	Directory    string
	LastActivity time.Time
	Rescans      int
	Changes      int
}

// Rescanner keeps a catalog in sync with its directory. Changes reported by
// the watcher are debounced, the catalog is rescanned, and the callback is
// told which files changed.
type Rescanner struct {
	watcher  *Watcher
	cat      *catalog.Catalog
	debounce time.Duration

	mutex        sync.RWMutex
	callback     func([]Change, error)
	running      bool
	lastActivity time.Time
	rescans      int
	changes      int
	done         chan struct{}
}

// NewRescanner watches the catalog's directory for files the catalog would
// list.
func NewRescanner(cat *catalog.Catalog, debounce time.Duration) (*Rescanner, error) {
	w, err := New(cat.Dir(), cat.Matches)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Rescanner{watcher: w, cat: cat, debounce: debounce}, nil
}

// SetCallback sets the function called after each rescan with the changes
// that triggered it and the rescan error, if any. It runs on the
// rescanner's goroutine.
func (r *Rescanner) SetCallback(cb func([]Change, error)) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.callback = cb
}

// Start begins watching.
func (r *Rescanner) Start() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.running {
		return errors.New("rescanner is already running")
	}
	if err := r.watcher.Start(); err != nil {
		return errors.Wrap(err, "error starting watcher")
	}
	r.running = true
	r.done = make(chan struct{})
	go r.process()
	return nil
}

// Stop halts watching. A pending rescan is dropped.
func (r *Rescanner) Stop() {
	r.mutex.Lock()
	if !r.running {
		r.mutex.Unlock()
		r.watcher.Stop()
		return
	}
	r.running = false
	done := r.done
	r.mutex.Unlock()

	r.watcher.Stop()
	<-done
}

// Status returns the current status.
func (r *Rescanner) Status() Status {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return Status{
		Running:      r.running,
		Directory:    r.watcher.Dir(),
		LastActivity: r.lastActivity,
		Rescans:      r.rescans,
		Changes:      r.changes,
	}
}

func (r *Rescanner) process() {
	defer close(r.done)

	var pending []Change
	timer := time.NewTimer(r.debounce)
	timer.Stop()

	for {
		select {
		case change, ok := <-r.watcher.Changes():
			if !ok {
				timer.Stop()
				return
			}
			r.mutex.Lock()
			r.lastActivity = change.Timestamp
			r.changes++
			r.mutex.Unlock()

			pending = append(pending, change)
			timer.Reset(r.debounce)

		case <-timer.C:
			r.rescan(pending)
			pending = nil
		}
	}
}

func (r *Rescanner) rescan(changes []Change) {
	err := r.cat.Rescan()
	if err != nil {
		log.LogWithError(err).Error("Rescan failed")
	}

	r.mutex.Lock()
	r.rescans++
	cb := r.callback
	r.mutex.Unlock()

	log.LogWithFields(log.F("directory", r.cat.Dir()), log.F("changes", len(changes))).Debug("Rescanned after changes")
	if cb != nil {
		cb(changes, err)
	}
}
