package types

import "fmt"

// ViewMode is how the visible entries are presented.
type ViewMode int

const (
	ViewGrid ViewMode = iota
	ViewSingle
)

func (m ViewMode) String() string {
	if m == ViewSingle {
		return "single"
	}
	return "grid"
}

// ParseViewMode accepts "grid" or "single".
func ParseViewMode(s string) (ViewMode, error) {
	switch s {
	case "grid", "":
		return ViewGrid, nil
	case "single":
		return ViewSingle, nil
	}
	return ViewGrid, fmt.Errorf("unknown view mode %q", s)
}
