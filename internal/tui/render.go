package tui

import (
	"fmt"
	"strings"

	"tally-cli/internal/todo"
	"tally-cli/internal/view"

	"github.com/charmbracelet/lipgloss"
)

const defaultWidth = 80

func (m appModel) View() string {
	w := m.width
	if w <= 0 {
		w = defaultWidth
	}
	if m.showHelp {
		return renderHelp(m.commitKey, min(w, 100))
	}

	st := m.scr.app
	var b strings.Builder
	b.WriteString(styleHeader().Render("todos"))
	b.WriteString("\n\n")

	prefix := "  "
	if !st.Empty {
		prefix = glyphToggleAll(st.AllChecked) + " "
	}
	b.WriteString(styleMuted().Render(prefix))
	b.WriteString(renderInputLine(w-lipgloss.Width(prefix), m.newInput.View()))
	b.WriteString("\n")

	// Empty hides the main list and the footer.
	if !st.Empty {
		rule := styleMuted().Render(strings.Repeat(glyphHRule(), w))
		b.WriteString(rule)
		b.WriteString("\n")
		for i, it := range m.scr.visible() {
			b.WriteString(m.renderRow(it, i == m.cursor && m.focus != focusInput, w))
			b.WriteString("\n")
		}
		b.WriteString(rule)
		b.WriteString("\n")
		b.WriteString(renderFooter(st, w))
		b.WriteString("\n")
	}

	if st.Err != nil {
		b.WriteString(styleError().Render(truncate("write failed: "+st.Err.Error(), w)))
		b.WriteString("\n")
	}
	if m.minibuffer != "" {
		b.WriteString(styleMuted().Render(truncate(m.minibuffer, w)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m appModel) renderRow(it view.ItemState, selected bool, w int) string {
	cur := "  "
	if selected {
		cur = glyphCursor() + " "
	}
	check := styleCheck(it.Completed).Render(glyphCheckbox(it.Completed))
	lead := cur + check + " "
	room := w - lipgloss.Width(lead)

	if it.Mode == view.Editing && it.ID == m.editingID {
		return lead + renderInputLine(room, m.editInput.View())
	}

	title := truncate(it.Title, room)
	switch {
	case selected:
		title = styleSelected().Render(title)
	case it.Completed:
		title = styleCompleted().Render(title)
	}
	return lead + title
}

func renderFooter(st view.AppState, w int) string {
	noun := "items"
	if st.Stats.Remaining == 1 {
		noun = "item"
	}
	left := fmt.Sprintf("%d %s left", st.Stats.Remaining, noun)

	filters := make([]string, 0, len(todo.Filters))
	for _, f := range todo.Filters {
		filters = append(filters, styleFilter(f == st.Filter).Render(f.Label()))
	}
	parts := []string{left, strings.Join(filters, " ")}
	if st.Stats.Completed > 0 {
		parts = append(parts, styleMuted().Render(fmt.Sprintf("Clear completed (%d)", st.Stats.Completed)))
	}
	return truncate(strings.Join(parts, "   "), w)
}
