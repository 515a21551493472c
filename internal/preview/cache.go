// Package preview decodes and caches the bitmaps shown for catalog entries.
package preview

import (
	"context"
	"image"
	"sync"

	"rawcull/internal/catalog"
	"rawcull/internal/errors"
	"rawcull/internal/log"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
)

// Decoder produces a bitmap no larger than maxDim on its longest edge.
type Decoder interface {
	Preview(ctx context.Context, path string, maxDim int) (image.Image, error)
}

// Cache holds decoded previews of one size, evicting the least recently
// displayed entry once it holds more than its bound.
type Cache struct {
	decoder Decoder
	maxDim  int
	size    int
	images  *lru.Cache
	group   singleflight.Group

	mu         sync.RWMutex
	unviewable map[string]error
}

// NewCache returns a cache of at most size bitmaps, each decoded at maxDim.
func NewCache(decoder Decoder, maxDim, size int) (*Cache, error) {
	images, err := lru.NewWithEvict(size, func(key, _ interface{}) {
		log.Debugf("evicted preview %v", key)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create preview cache of size %d", size)
	}
	return &Cache{
		decoder:    decoder,
		maxDim:     maxDim,
		size:       size,
		images:     images,
		unviewable: make(map[string]error),
	}, nil
}

// Get returns the preview of e, decoding it on first use. Concurrent calls
// for the same entry share one decode. An entry the decoder rejects is
// remembered as unviewable and its DecodeError is returned on every call.
func (c *Cache) Get(ctx context.Context, e catalog.Entry) (image.Image, error) {
	if err := c.Unviewable(e.Path); err != nil {
		return nil, err
	}
	if v, ok := c.images.Get(e.Path); ok {
		return v.(image.Image), nil
	}

	for {
		v, err, _ := c.group.Do(e.Path, func() (interface{}, error) {
			if v, ok := c.images.Peek(e.Path); ok {
				return v, nil
			}
			img, err := c.decoder.Preview(ctx, e.Path, c.maxDim)
			if err != nil {
				return nil, err
			}
			c.images.Add(e.Path, img)
			return img, nil
		})
		if err == nil {
			return v.(image.Image), nil
		}

		if errors.IsDecodeError(err) {
			c.markUnviewable(e.Path, err)
			return nil, err
		}
		// Another caller's context ended the shared decode; retry with ours.
		if ctx.Err() == nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			continue
		}
		return nil, err
	}
}

func (c *Cache) markUnviewable(path string, err error) {
	c.mu.Lock()
	c.unviewable[path] = err
	c.mu.Unlock()
	log.LogWithError(err, log.F("path", path)).Warn("Preview unavailable")
}

// Unviewable returns the decode error recorded for path, or nil.
func (c *Cache) Unviewable(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unviewable[path]
}

// Peek returns a cached preview without decoding or touching recency.
func (c *Cache) Peek(path string) (image.Image, bool) {
	v, ok := c.images.Peek(path)
	if !ok {
		return nil, false
	}
	return v.(image.Image), true
}

// Len returns the number of cached previews.
func (c *Cache) Len() int {
	return c.images.Len()
}

// Cap returns how many previews the cache holds before evicting.
func (c *Cache) Cap() int {
	return c.size
}

// MaxDim returns the longest edge previews are decoded at.
func (c *Cache) MaxDim() int {
	return c.maxDim
}

// Forget drops the cached preview and any unviewable mark for path, so the
// next Get decodes the file again.
func (c *Cache) Forget(path string) {
	c.images.Remove(path)
	c.mu.Lock()
	delete(c.unviewable, path)
	c.mu.Unlock()
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.images.Purge()
	c.mu.Lock()
	c.unviewable = make(map[string]error)
	c.mu.Unlock()
}
