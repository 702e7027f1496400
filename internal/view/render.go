// Package view holds the controllers that sit between a todo.List and a
// presentation layer. Controllers decide when something must be drawn; a
// Renderer decides how.
package view

import (
	"tally-cli/internal/todo"
)

// Renderer is implemented by the presentation layer. Calls arrive
// synchronously from inside event delivery.
type Renderer interface {
	RenderApp(AppState)
	RenderItem(ItemState)
	RemoveItem(id string)
}

// AppState is everything the whole-list view needs.
type AppState struct {
	// Empty hides the main and footer regions.
	Empty      bool
	Stats      todo.Stats
	Filter     todo.Filter
	AllChecked bool
	// Items are task ids in list order, hidden ones included.
	Items []string
	Input string
	// Err is the last write failure, until dismissed.
	Err error
}

type Mode int

const (
	Viewing Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "viewing"
}

type ItemState struct {
	ID        string
	Title     string
	Completed bool
	Order     int
	Hidden    bool
	Mode      Mode
	Draft     string
}

// NopRenderer draws nothing. Headless callers use it.
type NopRenderer struct{}

func (NopRenderer) RenderApp(AppState)   {}
func (NopRenderer) RenderItem(ItemState) {}
func (NopRenderer) RemoveItem(string)    {}
