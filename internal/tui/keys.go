package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the list-mode bindings. Input and edit modes only react to
// the commit key, tab and esc; everything else is typed.
type keyMap struct {
	Up              key.Binding
	Down            key.Binding
	Toggle          key.Binding
	Edit            key.Binding
	Destroy         key.Binding
	ToggleAll       key.Binding
	ClearCompleted  key.Binding
	FilterAll       key.Binding
	FilterActive    key.Binding
	FilterCompleted key.Binding
	CycleFilter     key.Binding
	NewTodo         key.Binding
	Reload          key.Binding
	Help            key.Binding
	Quit            key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:              key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:            key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:          key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		Edit:            key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Destroy:         key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		ToggleAll:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all done")),
		ClearCompleted:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear done")),
		FilterAll:       key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
		FilterActive:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "active")),
		FilterCompleted: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "completed")),
		CycleFilter:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		NewTodo:         key.NewBinding(key.WithKeys("n", "tab"), key.WithHelp("n", "new")),
		Reload:          key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:            key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:            key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Edit, k.Destroy, k.CycleFilter, k.NewTodo, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Edit, k.Destroy},
		{k.ToggleAll, k.ClearCompleted, k.Reload},
		{k.FilterAll, k.FilterActive, k.FilterCompleted, k.CycleFilter},
		{k.NewTodo, k.Help, k.Quit},
	}
}
