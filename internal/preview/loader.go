package preview

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"rawcull/internal/catalog"
	"rawcull/internal/config"
	"rawcull/internal/log"

	"golang.org/x/sync/errgroup"
)

// Result is delivered once per entry of a batch. Done counts the results
// delivered so far including this one.
type Result struct {
	Entry catalog.Entry
	Image image.Image
	Err   error
	Done  int
	Total int
}

// Loader decodes previews in the background on a bounded worker pool.
// Thumbnail batches and the single-view focus image are scheduled
// independently; starting a new one of either kind cancels the pending one.
type Loader struct {
	thumbs  *Cache
	display *Cache
	workers int

	ctx    context.Context
	cancel context.CancelFunc

	// requests bounds on-demand thumbnail decodes; pending dedupes them.
	requests chan struct{}

	mu          sync.Mutex
	batchCancel context.CancelFunc
	focusCancel context.CancelFunc
	pending     map[string]chan struct{}
}

// NewLoader returns a Loader over the thumbnail and display caches.
func NewLoader(thumbs, display *Cache, workers int) *Loader {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		thumbs:   thumbs,
		display:  display,
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
		requests: make(chan struct{}, workers),
		pending:  make(map[string]chan struct{}),
	}
}

// NewCaches builds the thumbnail and display caches from cfg.
func NewCaches(decoder Decoder, cfg *config.Config) (thumbs, display *Cache, err error) {
	thumbs, err = NewCache(decoder, cfg.Preview.ThumbSize, cfg.Preview.ThumbCache)
	if err != nil {
		return nil, nil, err
	}
	display, err = NewCache(decoder, cfg.Preview.DisplaySize, cfg.Preview.DisplayCache)
	if err != nil {
		return nil, nil, err
	}
	return thumbs, display, nil
}

// Thumbs returns the thumbnail cache.
func (l *Loader) Thumbs() *Cache { return l.thumbs }

// Display returns the single-view cache.
func (l *Loader) Display() *Cache { return l.display }

// LoadAll decodes thumbnails for entries and calls fn for each one as it
// completes. fn runs on a worker goroutine. Results of a cancelled batch are
// not delivered. The returned channel closes when the batch ends.
func (l *Loader) LoadAll(entries []catalog.Entry, fn func(Result)) <-chan struct{} {
	ctx := l.replace(&l.batchCancel)
	done := make(chan struct{})

	go func() {
		defer close(done)
		total := len(entries)
		var completed atomic.Int64

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(l.workers)
		for _, e := range entries {
			e := e
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				img, err := l.thumbs.Get(gctx, e)
				if gctx.Err() != nil {
					return nil
				}
				fn(Result{
					Entry: e,
					Image: img,
					Err:   err,
					Done:  int(completed.Add(1)),
					Total: total,
				})
				return nil
			})
		}
		_ = g.Wait()
		log.LogWithFields(log.F("total", total), log.F("completed", completed.Load())).Debug("Thumbnail batch finished")
	}()
	return done
}

// LoadAround runs LoadAll over at most as many entries as the thumbnail cache
// holds, centred on entries[center]. Entries outside the window are decoded
// through Request when they are displayed.
func (l *Loader) LoadAround(entries []catalog.Entry, center int, fn func(Result)) <-chan struct{} {
	n := l.thumbs.Cap()
	if len(entries) <= n {
		return l.LoadAll(entries, fn)
	}
	start := min(max(0, center-n/2), len(entries)-n)
	return l.LoadAll(entries[start:start+n], fn)
}

// Request decodes the thumbnail of e outside any batch, for a cell shown
// after its preview was evicted. A second request for a pending path is
// dropped and gets the pending request's channel. Requests are not cancelled
// by new batches, only by Stop.
func (l *Loader) Request(e catalog.Entry, fn func(Result)) <-chan struct{} {
	l.mu.Lock()
	if done, ok := l.pending[e.Path]; ok {
		l.mu.Unlock()
		return done
	}
	done := make(chan struct{})
	l.pending[e.Path] = done
	l.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			l.mu.Lock()
			delete(l.pending, e.Path)
			l.mu.Unlock()
		}()

		select {
		case l.requests <- struct{}{}:
			defer func() { <-l.requests }()
		case <-l.ctx.Done():
			return
		}
		img, err := l.thumbs.Get(l.ctx, e)
		if l.ctx.Err() != nil {
			return
		}
		fn(Result{Entry: e, Image: img, Err: err, Done: 1, Total: 1})
	}()
	return done
}

// Focus decodes the single-view image for e and calls fn unless another
// Focus call or Stop came first.
func (l *Loader) Focus(e catalog.Entry, fn func(Result)) <-chan struct{} {
	ctx := l.replace(&l.focusCancel)
	done := make(chan struct{})

	go func() {
		defer close(done)
		img, err := l.display.Get(ctx, e)
		if ctx.Err() != nil {
			return
		}
		fn(Result{Entry: e, Image: img, Err: err, Done: 1, Total: 1})
	}()
	return done
}

// replace cancels the job tracked by slot and returns a context for its
// successor.
func (l *Loader) replace(slot *context.CancelFunc) context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	if *slot != nil {
		(*slot)()
	}
	ctx, cancel := context.WithCancel(l.ctx)
	*slot = cancel
	return ctx
}

// CancelFocus abandons the pending single-view decode, if any.
func (l *Loader) CancelFocus() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.focusCancel != nil {
		l.focusCancel()
		l.focusCancel = nil
	}
}

// Stop cancels all pending work. The Loader must not be used afterwards.
func (l *Loader) Stop() {
	l.cancel()
}
