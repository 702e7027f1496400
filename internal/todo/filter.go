package todo

import (
	"fmt"
	"strings"
)

// Filter selects which tasks are visible.
type Filter string

const (
	FilterNone      Filter = ""
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists every valid value, in display order.
var Filters = []Filter{FilterNone, FilterActive, FilterCompleted}

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterNone, FilterActive, FilterCompleted:
		return f, nil
	case "all":
		return FilterNone, nil
	default:
		return FilterNone, fmt.Errorf("%w: %q", ErrUnknownFilter, s)
	}
}

func (f Filter) Label() string {
	switch f {
	case FilterActive:
		return "Active"
	case FilterCompleted:
		return "Completed"
	default:
		return "All"
	}
}

// IsVisible is the only visibility rule: a task is hidden iff it is open
// under the completed filter or done under the active filter.
func IsVisible(completed bool, f Filter) bool {
	hidden := (!completed && f == FilterCompleted) || (completed && f == FilterActive)
	return !hidden
}

// FilterState holds the current filter for one list. Set always notifies,
// even when the value does not change.
type FilterState struct {
	cur Filter
	bus *Bus
}

// NewFilterState binds a filter to l: FilterSet events go out on l's bus.
func NewFilterState(l *List) *FilterState {
	return &FilterState{bus: l.Bus()}
}

func (s *FilterState) Value() Filter { return s.cur }

func (s *FilterState) Set(f Filter) {
	s.cur = f
	s.bus.Emit(Event{Kind: FilterSet, Filter: f})
}

// Visible evaluates IsVisible for t against the current value.
func (s *FilterState) Visible(t *Task) bool {
	return IsVisible(t.Completed(), s.cur)
}
