package view

import (
	"strings"

	"tally-cli/internal/todo"
)

// FilterFromRoute maps a route fragment ("#/", "#/active", "completed",
// ...) to a filter. Unknown routes select no filter, like a catch-all route.
func FilterFromRoute(fragment string) todo.Filter {
	p := strings.TrimSpace(fragment)
	p = strings.TrimPrefix(p, "#")
	p = strings.Trim(p, "/")
	f, err := todo.ParseFilter(p)
	if err != nil {
		return todo.FilterNone
	}
	return f
}

// Route is the fragment that selects f.
func Route(f todo.Filter) string {
	return "#/" + string(f)
}

// IsRoute reports whether s looks like a route fragment rather than a word.
func IsRoute(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "#/")
}
