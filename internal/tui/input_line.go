package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// renderInputLine pads an input view to w cells on the input background.
func renderInputLine(w int, inputView string) string {
	if w < 10 {
		w = 10
	}

	// A text input must stay on one visual line; a stray newline looks like
	// the terminal inserted one while typing.
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	line := lipgloss.PlaceHorizontal(
		w,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > w {
		// Terminate styling so the background doesn't bleed past the cut.
		line = xansi.Cut(line, 0, w) + "\x1b[0m"
	}
	return line
}

// truncate shortens s to w cells, marking the cut.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= w {
		return s
	}
	return xansi.Truncate(s, w, glyphEllipsis())
}
