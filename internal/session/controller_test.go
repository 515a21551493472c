package session

import (
	"path/filepath"
	"testing"

	"rawcull/internal/catalog"
	"rawcull/internal/config"
	"rawcull/internal/errors"
	"rawcull/internal/rating"
	"rawcull/pkg/testutils"
	"rawcull/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newController builds a controller over a folder holding the given names.
func newController(t *testing.T, files ...string) (*Controller, string) {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		testutils.WriteFile(t, dir, f, []byte("raw"))
	}
	cat, err := catalog.Scan(dir, catalog.Options{Extensions: config.DefaultExtensions})
	require.NoError(t, err)
	return New(cat, rating.NewMemoryStore(), types.ViewGrid), cat.Dir()
}

func visibleNames(c *Controller) []string {
	var out []string
	for _, e := range c.Visible() {
		out = append(out, e.Name)
	}
	return out
}

func TestInitialState(t *testing.T) {
	c, _ := newController(t, "a.raf", "b.raf")
	assert.Equal(t, types.ViewGrid, c.Mode())
	assert.True(t, c.Filter().All())
	assert.Equal(t, 0, c.Index())
	e, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "a.raf", e.Name)
	assert.Equal(t, "a.raf - Score: 0★", c.Status())
}

func TestNoFolder(t *testing.T) {
	c := New(nil, rating.NewMemoryStore(), types.ViewSingle)
	assert.Equal(t, types.ViewSingle, c.Mode())
	assert.Equal(t, -1, c.Index())
	_, ok := c.Current()
	assert.False(t, ok)
	assert.False(t, c.Next())
	assert.False(t, c.Previous())
	assert.Error(t, c.RateCurrent(3))
	assert.Nil(t, c.Rated(1))
	assert.Equal(t, "Select a folder to begin", c.Status())
}

func TestToggleTwiceRestoresMode(t *testing.T) {
	for _, start := range []types.ViewMode{types.ViewGrid, types.ViewSingle} {
		c := New(nil, rating.NewMemoryStore(), start)
		first := c.ToggleMode()
		assert.NotEqual(t, start, first)
		assert.Equal(t, start, c.ToggleMode())
	}
}

func TestNavigationClamps(t *testing.T) {
	c, _ := newController(t, "a.raf", "b.raf", "c.raf")

	assert.False(t, c.Previous(), "no wraparound at the start")
	assert.Equal(t, 0, c.Index())

	assert.True(t, c.Next())
	assert.True(t, c.Next())
	assert.False(t, c.Next(), "no wraparound at the end")
	assert.Equal(t, 2, c.Index())

	assert.True(t, c.Previous())
	assert.Equal(t, 1, c.Index())
}

func TestSelectEntersSingleView(t *testing.T) {
	c, _ := newController(t, "a.raf", "b.raf", "c.raf")
	require.NoError(t, c.Select(2))
	assert.Equal(t, types.ViewSingle, c.Mode())
	assert.Equal(t, 2, c.Index())

	assert.Error(t, c.Select(3))
	assert.Error(t, c.Select(-1))
	assert.Equal(t, 2, c.Index())
}

func TestFilterNeverExposesOtherRatings(t *testing.T) {
	c, _ := newController(t, "a.raf", "b.raf", "c.raf", "d.raf", "e.raf")
	ratings := []types.Rating{3, 0, 1, 3, 5}
	for i, r := range ratings {
		require.NoError(t, c.Rate(i, r))
	}

	for k := types.MinRating; k <= types.MaxRating; k++ {
		c.ApplyFilter(types.FilterRating(k))
		for {
			e, ok := c.Current()
			if !ok {
				break
			}
			assert.Equal(t, k, c.Rating(e.Path), "filter %s exposed %s", k, e.Name)
			if !c.Next() {
				break
			}
		}
	}

	c.ApplyFilter(types.FilterRating(3))
	assert.Equal(t, []string{"a.raf", "d.raf"}, visibleNames(c))

	c.ApplyFilter(types.FilterRating(4))
	assert.Empty(t, c.Visible())
	assert.Equal(t, -1, c.Index())
	assert.Equal(t, "No images match the selected filter", c.Status())

	c.ApplyFilter(types.FilterAll)
	assert.Len(t, c.Visible(), 5)
	assert.Equal(t, 0, c.Index())
}

func TestFilterZeroIncludesUnrated(t *testing.T) {
	c, _ := newController(t, "a.raf", "b.raf", "c.raf")
	require.NoError(t, c.Rate(0, 2))
	require.NoError(t, c.Rate(1, 0))

	c.ApplyFilter(types.FilterRating(0))
	assert.Equal(t, []string{"b.raf", "c.raf"}, visibleNames(c))
}

func TestApplyFilterResetsCursor(t *testing.T) {
	c, _ := newController(t, "a.raf", "b.raf", "c.raf")
	c.Next()
	c.Next()
	c.ApplyFilter(types.FilterRating(0))
	assert.Equal(t, 0, c.Index())
}

func TestRatingWhileFilteredDropsEntry(t *testing.T) {
	c, _ := newController(t, "a.raf", "b.raf", "c.raf")
	c.ApplyFilter(types.FilterRating(0))
	require.True(t, c.Next())

	require.NoError(t, c.RateCurrent(4))
	assert.Equal(t, []string{"a.raf", "c.raf"}, visibleNames(c))
	assert.Equal(t, 1, c.Index())
	e, _ := c.Current()
	assert.Equal(t, "c.raf", e.Name)

	require.NoError(t, c.RateCurrent(4))
	assert.Equal(t, 0, c.Index(), "cursor clamps to the shorter list")

	require.NoError(t, c.RateCurrent(4))
	assert.Equal(t, -1, c.Index())
	assert.Error(t, c.RateCurrent(1))
}

func TestRateRejectsOutOfRange(t *testing.T) {
	c, dir := newController(t, "a.raf")
	require.NoError(t, c.RateCurrent(2))

	err := c.RateCurrent(6)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRating(err))
	assert.Equal(t, types.Rating(2), c.Rating(filepath.Join(dir, "a.raf")))
	assert.Equal(t, "a.raf - Score: 2★", c.Status())
}

func TestRefreshFollowsCurrentEntry(t *testing.T) {
	c, dir := newController(t, "b.raf", "c.raf")
	require.True(t, c.Next())

	testutils.WriteFile(t, dir, "a.raf", []byte("raw"))
	require.NoError(t, c.Catalog().Rescan())
	c.Refresh()

	assert.Equal(t, []string{"a.raf", "b.raf", "c.raf"}, visibleNames(c))
	e, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "c.raf", e.Name)
}

func TestRatedIgnoresFilter(t *testing.T) {
	c, _ := newController(t, "a.raf", "b.raf", "c.raf")
	require.NoError(t, c.Rate(0, 3))
	require.NoError(t, c.Rate(2, 1))
	c.ApplyFilter(types.FilterRating(0))

	var names []string
	for _, e := range c.Rated(1) {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"a.raf", "c.raf"}, names)
}

func TestSetCatalog(t *testing.T) {
	c := New(nil, rating.NewMemoryStore(), types.ViewGrid)
	c.ApplyFilter(types.FilterRating(0))

	dir := t.TempDir()
	testutils.WriteFile(t, dir, "x.nef", []byte("raw"))
	cat, err := catalog.Scan(dir, catalog.Options{Extensions: config.DefaultExtensions})
	require.NoError(t, err)

	c.SetCatalog(cat)
	assert.Equal(t, []string{"x.nef"}, visibleNames(c))
	assert.Equal(t, 0, c.Index())
	assert.Equal(t, types.FilterRating(0), c.Filter())
}
