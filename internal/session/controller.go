// Package session holds the browsing state shared by the GUI and TUI: the
// visible entries under the active rating filter, the cursor, and the view
// mode.
package session

import (
	"fmt"
	"sync"

	"rawcull/internal/catalog"
	"rawcull/internal/errors"
	"rawcull/internal/log"
	"rawcull/internal/rating"
	"rawcull/pkg/types"

	"github.com/samber/lo"
)

// Controller composes a catalog and a rating store into what is displayed.
// The cursor is an index into Visible(), or -1 when nothing is visible.
type Controller struct {
	mu      sync.RWMutex
	cat     *catalog.Catalog
	ratings rating.Store
	mode    types.ViewMode
	filter  types.Filter
	visible []catalog.Entry
	index   int
}

// New returns a Controller showing every entry of cat in the given mode.
// cat may be nil until a folder is opened.
func New(cat *catalog.Catalog, ratings rating.Store, mode types.ViewMode) *Controller {
	c := &Controller{
		cat:     cat,
		ratings: ratings,
		mode:    mode,
		filter:  types.FilterAll,
		index:   -1,
	}
	c.recompute()
	c.resetIndex()
	return c
}

// SetCatalog switches to a different folder, keeping mode and filter.
func (c *Controller) SetCatalog(cat *catalog.Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cat = cat
	c.recompute()
	c.resetIndex()
}

// Catalog returns the current catalog, or nil.
func (c *Controller) Catalog() *catalog.Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cat
}

// Ratings returns the rating store.
func (c *Controller) Ratings() rating.Store {
	return c.ratings
}

// recompute rebuilds the visible list from the catalog. Callers hold mu.
func (c *Controller) recompute() {
	if c.cat == nil {
		c.visible = nil
		return
	}
	c.visible = lo.Filter(c.cat.Entries(), func(e catalog.Entry, _ int) bool {
		return c.filter.Match(c.ratings.Get(e.Path))
	})
}

func (c *Controller) resetIndex() {
	if len(c.visible) == 0 {
		c.index = -1
		return
	}
	c.index = 0
}

func (c *Controller) clampIndex() {
	switch {
	case len(c.visible) == 0:
		c.index = -1
	case c.index < 0:
		c.index = 0
	case c.index >= len(c.visible):
		c.index = len(c.visible) - 1
	}
}

// Mode returns the current view mode.
func (c *Controller) Mode() types.ViewMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// ToggleMode flips between grid and single view and returns the new mode.
func (c *Controller) ToggleMode() types.ViewMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == types.ViewGrid {
		c.mode = types.ViewSingle
	} else {
		c.mode = types.ViewGrid
	}
	log.Debugf("view mode %s", c.mode)
	return c.mode
}

// Filter returns the active rating filter.
func (c *Controller) Filter() types.Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// ApplyFilter changes the rating filter and moves the cursor to the first
// visible entry.
func (c *Controller) ApplyFilter(f types.Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
	c.recompute()
	c.resetIndex()
	log.LogWithFields(log.F("filter", f.String()), log.F("visible", len(c.visible))).Debug("Filter applied")
}

// Visible returns the entries that pass the filter, in catalog order.
func (c *Controller) Visible() []catalog.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]catalog.Entry, len(c.visible))
	copy(out, c.visible)
	return out
}

// Index returns the cursor, or -1 when nothing is visible.
func (c *Controller) Index() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

// Current returns the entry under the cursor.
func (c *Controller) Current() (catalog.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.index < 0 {
		return catalog.Entry{}, false
	}
	return c.visible[c.index], true
}

// Next advances the cursor and reports whether it moved. It stops at the
// last entry.
func (c *Controller) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index < 0 || c.index >= len(c.visible)-1 {
		return false
	}
	c.index++
	return true
}

// Previous moves the cursor back and reports whether it moved. It stops at
// the first entry.
func (c *Controller) Previous() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index <= 0 {
		return false
	}
	c.index--
	return true
}

// Select moves the cursor to visible entry i and switches to single view.
func (c *Controller) Select(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.visible) {
		return errors.Newf("index %d out of range 0-%d", i, len(c.visible)-1)
	}
	c.index = i
	c.mode = types.ViewSingle
	return nil
}

// Rating returns the rating of path.
func (c *Controller) Rating(path string) types.Rating {
	return c.ratings.Get(path)
}

// RateCurrent rates the entry under the cursor.
func (c *Controller) RateCurrent(r types.Rating) error {
	c.mu.RLock()
	i := c.index
	c.mu.RUnlock()
	if i < 0 {
		return errors.New("no image selected")
	}
	return c.Rate(i, r)
}

// Rate sets the rating of visible entry i. Under a rating filter the entry
// may leave the visible list; the cursor then stays at the same position,
// clamped to the shorter list.
func (c *Controller) Rate(i int, r types.Rating) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.visible) {
		return errors.Newf("index %d out of range 0-%d", i, len(c.visible)-1)
	}
	e := c.visible[i]
	if err := c.ratings.Set(e.Path, r); err != nil {
		return err
	}
	log.LogWithFields(log.F("path", e.Path), log.F("rating", int(r))).Info("Rated image")

	if !c.filter.All() {
		c.recompute()
		c.clampIndex()
	}
	return nil
}

// Refresh rebuilds the visible list after the catalog was rescanned. The
// cursor follows the current entry if it is still visible.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var current string
	if c.index >= 0 {
		current = c.visible[c.index].Path
	}
	c.recompute()
	if current != "" {
		if _, i, ok := lo.FindIndexOf(c.visible, func(e catalog.Entry) bool { return e.Path == current }); ok {
			c.index = i
			return
		}
	}
	c.clampIndex()
}

// Rated returns every catalog entry with a rating of at least min, in
// catalog order, regardless of the active filter.
func (c *Controller) Rated(min types.Rating) []catalog.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cat == nil {
		return nil
	}
	return lo.Filter(c.cat.Entries(), func(e catalog.Entry, _ int) bool {
		return c.ratings.Get(e.Path) >= min
	})
}

// Status renders the status line for the current entry.
func (c *Controller) Status() string {
	e, ok := c.Current()
	if !ok {
		if c.Catalog() == nil {
			return "Select a folder to begin"
		}
		return "No images match the selected filter"
	}
	return fmt.Sprintf("%s - Score: %s", e.Name, c.ratings.Get(e.Path))
}
