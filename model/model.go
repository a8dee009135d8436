package model

import "strings"

// Filter selects which todos are shown.
type Filter string

const (
	FilterAll       Filter = "All"
	FilterActive    Filter = "Active"
	FilterCompleted Filter = "Completed"
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// ParseFilter maps external input (flag, config, key binding) to a Filter.
// Unknown or empty values fall back to FilterAll.
func ParseFilter(raw string) Filter {
	raw = strings.TrimSpace(raw)
	for _, f := range Filters {
		if strings.EqualFold(raw, string(f)) {
			return f
		}
	}
	return FilterAll
}

// Next returns the filter that follows f in display order.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterActive
	case FilterActive:
		return FilterCompleted
	default:
		return FilterAll
	}
}

// Matches reports whether an item with the given completion state is visible under f.
func (f Filter) Matches(complete bool) bool {
	switch f {
	case FilterActive:
		return !complete
	case FilterCompleted:
		return complete
	default:
		return true
	}
}

// TodoItem is a single todo entry.
// Editing is UI-only state; it is written as provided but reset on load.
type TodoItem struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Complete bool   `json:"complete"`
	Editing  bool   `json:"editing"`
}
