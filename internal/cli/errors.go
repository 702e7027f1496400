package cli

import (
	"fmt"
	"strings"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

type ambiguousIDError struct {
	prefix  string
	matches []string
}

func (e ambiguousIDError) Error() string {
	return fmt.Sprintf("id prefix %q matches %d todos: %s", e.prefix, len(e.matches), strings.Join(e.matches, ", "))
}
