package tui

import (
	"context"

	"tally-cli/internal/todo"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
)

type Options struct {
	List   *todo.List
	Filter *todo.FilterState
	// CommitKey creates a todo and finishes an edit. Default "enter".
	CommitKey string
	// Glyphs is "unicode" or "ascii".
	Glyphs  string
	NoColor bool
	Logger  *log.Entry
}

// Run loads the list and runs the terminal UI until the user quits.
func Run(ctx context.Context, opts Options) error {
	applyColorProfilePreference(opts.NoColor)
	applyThemePreference()
	applyGlyphPreference(opts.Glyphs)

	m := newAppModel(ctx, opts)
	defer m.app.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
