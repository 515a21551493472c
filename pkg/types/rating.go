package types

import (
	"fmt"
	"strings"
)

// Rating is a star rating from 0 to 5. Unrated images read as 0.
type Rating int

const (
	MinRating Rating = 0
	MaxRating Rating = 5
)

// Valid reports whether r is inside 0..5.
func (r Rating) Valid() bool {
	return r >= MinRating && r <= MaxRating
}

// String renders the rating the way the status bar shows it, e.g. "3★".
func (r Rating) String() string {
	return fmt.Sprintf("%d★", int(r))
}

// Stars renders filled and empty stars, e.g. "★★★☆☆".
func (r Rating) Stars() string {
	if !r.Valid() {
		return ""
	}
	return strings.Repeat("★", int(r)) + strings.Repeat("☆", int(MaxRating-r))
}
