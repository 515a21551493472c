// Package rating keeps the star rating of each image, keyed by file path.
package rating

import (
	"sync"

	"rawcull/internal/config"
	"rawcull/internal/errors"
	"rawcull/pkg/types"
)

// Store records ratings. Get on a path that was never rated returns 0.
type Store interface {
	Set(path string, r types.Rating) error
	Get(path string) types.Rating
	All() map[string]types.Rating
	Close() error
}

// MemoryStore keeps ratings for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	ratings map[string]types.Rating
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ratings: make(map[string]types.Rating)}
}

// Set records r for path, replacing any earlier rating.
func (s *MemoryStore) Set(path string, r types.Rating) error {
	if !r.Valid() {
		return errors.NewRatingError(int(r))
	}
	s.mu.Lock()
	s.ratings[path] = r
	s.mu.Unlock()
	return nil
}

// Get returns the last rating set for path, or 0.
func (s *MemoryStore) Get(path string) types.Rating {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ratings[path]
}

// All returns a snapshot of every recorded rating.
func (s *MemoryStore) All() map[string]types.Rating {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]types.Rating, len(s.ratings))
	for k, v := range s.ratings {
		out[k] = v
	}
	return out
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// Open returns the store selected by cfg: SQLite when ratings.persist is
// set, memory otherwise.
func Open(cfg *config.Config) (Store, error) {
	if cfg == nil || !cfg.Ratings.Persist {
		return NewMemoryStore(), nil
	}
	return OpenSQLite(cfg.Ratings.Database)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
