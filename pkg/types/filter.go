package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter selects which entries are visible: every entry, or entries with
// exactly one rating. Rating 0 includes entries that were never rated.
type Filter struct {
	all    bool
	rating Rating
}

// FilterAll shows every entry.
var FilterAll = Filter{all: true}

// FilterRating shows entries rated exactly r.
func FilterRating(r Rating) Filter {
	return Filter{rating: r}
}

// All reports whether the filter shows everything.
func (f Filter) All() bool {
	return f.all
}

// Rating returns the rating the filter selects; meaningless when All is true.
func (f Filter) Rating() Rating {
	return f.rating
}

// Match reports whether an entry with rating r passes the filter.
func (f Filter) Match(r Rating) bool {
	return f.all || f.rating == r
}

// String renders the filter as it appears in the filter dropdown.
func (f Filter) String() string {
	if f.all {
		return "All"
	}
	return f.rating.String()
}

// FilterOptions lists the dropdown labels in display order.
func FilterOptions() []string {
	opts := []string{FilterAll.String()}
	for r := MinRating; r <= MaxRating; r++ {
		opts = append(opts, FilterRating(r).String())
	}
	return opts
}

// ParseFilter accepts "All", "3", or "3★".
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") || s == "" {
		return FilterAll, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "★"))
	if err != nil {
		return Filter{}, fmt.Errorf("invalid filter %q", s)
	}
	r := Rating(n)
	if !r.Valid() {
		return Filter{}, fmt.Errorf("invalid filter %q: rating out of range", s)
	}
	return FilterRating(r), nil
}

// NextFilter cycles All -> 0★ -> ... -> 5★ -> All.
func NextFilter(f Filter) Filter {
	switch {
	case f.all:
		return FilterRating(MinRating)
	case f.rating >= MaxRating:
		return FilterAll
	default:
		return FilterRating(f.rating + 1)
	}
}
