package tui

import (
	"context"

	"tally-cli/internal/todo"
	"tally-cli/internal/view"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusList
	focusEdit
)

// fetchMsg asks Update to load the list. Fetch runs on the Update loop, not
// in a command goroutine, so the list is only ever touched from one place.
type fetchMsg struct{}

func fetchCmd() tea.Msg { return fetchMsg{} }

type appModel struct {
	ctx       context.Context
	list      *todo.List
	filter    *todo.FilterState
	app       *view.AppController
	scr       *screen
	log       *log.Entry
	commitKey string

	keys      keyMap
	help      help.Model
	newInput  textinput.Model
	editInput textinput.Model

	focus      focusArea
	cursor     int
	editingID  string
	showHelp   bool
	minibuffer string
	width      int
	height     int
}

func newAppModel(ctx context.Context, opts Options) appModel {
	commit := opts.CommitKey
	if commit == "" {
		commit = "enter"
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	scr := newScreen()
	ni := textinput.New()
	ni.Prompt = ""
	ni.Placeholder = "What needs to be done?"
	ni.CharLimit = 512
	ni.Focus()

	ei := textinput.New()
	ei.Prompt = ""
	ei.CharLimit = 512

	app := view.NewApp(opts.List, opts.Filter, scr,
		view.WithCommitKey(commit),
		view.WithLogger(logger.WithField("component", "view")),
	)
	return appModel{
		ctx:       ctx,
		list:      opts.List,
		filter:    opts.Filter,
		app:       app,
		scr:       scr,
		log:       logger,
		commitKey: commit,
		keys:      defaultKeyMap(),
		help:      help.New(),
		newInput:  ni,
		editInput: ei,
		focus:     focusInput,
	}
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, fetchCmd)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case fetchMsg:
		if m.focus == focusEdit {
			m.stopEditing()
		}
		m.report(m.list.Fetch(m.ctx))
		m.clampCursor()
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	var cmd tea.Cmd
	if m.focus == focusEdit {
		m.editInput, cmd = m.editInput.Update(msg)
	} else {
		m.newInput, cmd = m.newInput.Update(msg)
	}
	return m, cmd
}

func (m appModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	m.minibuffer = ""
	m.app.DismissErr()

	switch m.focus {
	case focusEdit:
		return m.updateEdit(msg)
	case focusInput:
		return m.updateInput(msg)
	default:
		return m.updateList(msg)
	}
}

func (m appModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case k == m.commitKey:
		m.app.SetInput(m.newInput.Value())
		t, err := m.app.CreateOnEnter(m.ctx, k)
		if err != nil {
			m.report(err)
			return m, nil
		}
		if t != nil {
			m.newInput.SetValue(m.app.Input())
		}
		return m, nil
	case k == "tab" || k == "down" || k == "esc":
		m.focusList()
		return m, nil
	}
	var cmd tea.Cmd
	m.newInput, cmd = m.newInput.Update(msg)
	return m, cmd
}

func (m appModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ic, ok := m.app.Item(m.editingID)
	if !ok || !ic.Live() {
		m.stopEditing()
		return m.updateList(msg)
	}

	k := msg.String()
	switch k {
	case m.commitKey:
		ic.SetDraft(m.editInput.Value())
		_, err := ic.HandleKey(m.ctx, k)
		m.finishEdit(ic, err)
		m.clampCursor()
		return m, nil
	case "tab":
		// Leaving the field saves, like a blur.
		ic.SetDraft(m.editInput.Value())
		err := ic.Close(m.ctx)
		m.finishEdit(ic, err)
		m.clampCursor()
		return m, nil
	case "esc":
		ic.Cancel()
		m.stopEditing()
		return m, nil
	}

	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	ic.SetDraft(m.editInput.Value())
	return m, cmd
}

func (m appModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	vis := m.scr.visible()
	var sel *view.ItemController
	if m.cursor >= 0 && m.cursor < len(vis) {
		sel, _ = m.app.Item(vis[m.cursor].ID)
	}

	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		m.cursor++
	case key.Matches(msg, m.keys.Toggle):
		if sel != nil {
			m.report(sel.ToggleCompleted(m.ctx))
		}
	case key.Matches(msg, m.keys.Edit):
		if sel != nil {
			if err := sel.Edit(); err != nil {
				m.report(err)
				break
			}
			m.editingID = sel.ID()
			m.focus = focusEdit
			m.editInput.SetValue(sel.Draft())
			m.editInput.CursorEnd()
			cmd = m.editInput.Focus()
		}
	case key.Matches(msg, m.keys.Destroy):
		if sel != nil {
			m.report(sel.Clear(m.ctx))
		}
	case key.Matches(msg, m.keys.ToggleAll):
		m.report(m.app.ToggleAllComplete(m.ctx, !m.scr.app.AllChecked))
	case key.Matches(msg, m.keys.ClearCompleted):
		m.report(m.app.ClearCompleted(m.ctx))
	case key.Matches(msg, m.keys.FilterAll):
		m.filter.Set(todo.FilterNone)
	case key.Matches(msg, m.keys.FilterActive):
		m.filter.Set(todo.FilterActive)
	case key.Matches(msg, m.keys.FilterCompleted):
		m.filter.Set(todo.FilterCompleted)
	case key.Matches(msg, m.keys.CycleFilter):
		m.filter.Set(nextFilter(m.filter.Value()))
	case key.Matches(msg, m.keys.NewTodo):
		cmd = m.focusInput()
	case key.Matches(msg, m.keys.Reload):
		return m, fetchCmd
	}
	m.clampCursor()
	return m, cmd
}

func nextFilter(f todo.Filter) todo.Filter {
	for i, x := range todo.Filters {
		if x == f {
			return todo.Filters[(i+1)%len(todo.Filters)]
		}
	}
	return todo.FilterNone
}

func (m *appModel) focusList() {
	m.newInput.Blur()
	m.focus = focusList
	m.clampCursor()
}

func (m *appModel) focusInput() tea.Cmd {
	m.focus = focusInput
	return m.newInput.Focus()
}

// finishEdit leaves the edit field unless the save failed and the item
// kept its draft.
func (m *appModel) finishEdit(ic *view.ItemController, err error) {
	if err == nil || !ic.Live() || ic.Mode() != view.Editing {
		m.stopEditing()
	}
	m.report(err)
}

func (m *appModel) stopEditing() {
	m.editingID = ""
	m.editInput.Blur()
	m.editInput.SetValue("")
	m.focus = focusList
}

func (m *appModel) clampCursor() {
	n := len(m.scr.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// report logs err. Write failures already reach the screen through the
// app state; anything else goes to the minibuffer.
func (m *appModel) report(err error) {
	if err == nil {
		return
	}
	m.log.WithError(err).Warn("operation failed")
	if !todo.IsPersistError(err) {
		m.minibuffer = err.Error()
	}
}
