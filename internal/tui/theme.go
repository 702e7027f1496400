package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The list must stay readable on light and dark terminals, so colors are
// adaptive and "faint" is only applied on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted      lipgloss.TerminalColor = ac("240", "243")
	colorTitle      lipgloss.TerminalColor = ac("#b83f45", "#d9777c")
	colorSelectedBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg lipgloss.TerminalColor = ac("235", "255")
	colorInputBg    lipgloss.TerminalColor = ac("254", "234")
	colorAccent     lipgloss.TerminalColor = ac("27", "62")
	colorDone       lipgloss.TerminalColor = ac("28", "71")
	colorError      lipgloss.TerminalColor = ac("196", "160")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleHeader() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
}

func styleSelected() lipgloss.Style {
	return lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg)
}

func styleCompleted() lipgloss.Style {
	return styleMuted().Strikethrough(true)
}

func styleCheck(done bool) lipgloss.Style {
	if done {
		return lipgloss.NewStyle().Foreground(colorDone)
	}
	return styleMuted()
}

func styleFilter(selected bool) lipgloss.Style {
	if selected {
		return lipgloss.NewStyle().Foreground(colorAccent).Underline(true)
	}
	return styleMuted()
}

func styleError() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorError).Bold(true)
}

// applyColorProfilePreference picks Lip Gloss's color profile. NO_COLOR or
// noColor force plain text; otherwise TERM/COLORTERM can only upgrade what
// termenv detected.
func applyColorProfilePreference(noColor bool) {
	if noColor || strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && (profile == termenv.Ascii || profile == termenv.ANSI) {
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference fixes the background guess some terminals get wrong.
//
// Priority:
// 1) TALLY_TUI_THEME=light|dark|auto
// 2) TALLY_TUI_DARKBG=true|false
// 3) COLORFGBG ("fg;bg")
func applyThemePreference() {
	if dark, ok := themeFromEnv(); ok {
		lipgloss.SetHasDarkBackground(dark)
	}
}

func themeFromEnv() (dark bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("TALLY_TUI_THEME"))) {
	case "light":
		return false, true
	case "dark":
		return true, true
	}
	if v := strings.TrimSpace(os.Getenv("TALLY_TUI_DARKBG")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b, true
		}
	}
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			// xterm palette: 0-6 dark, 7-15 light.
			return bg < 7, true
		}
	}
	return false, false
}
