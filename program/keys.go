package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle     key.Binding
	Metric     key.Binding
	MetricN    key.Binding
	Retry      key.Binding
	Reload     key.Binding
	Up         key.Binding
	Down       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Quit       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Toggle, k.Metric, k.Retry}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Reload},
		{k.Up, k.Down, k.Toggle, k.Retry},
		{k.Metric, k.MetricN, k.ScrollUp, k.ScrollDown},
	}
}

var keys = keyMap{
	Toggle: key.NewBinding(
		key.WithKeys(" ", "enter", "x"),
		key.WithHelp("space/x", "select"),
	),
	Metric: key.NewBinding(
		key.WithKeys("m", "tab"),
		key.WithHelp("m/tab", "metric"),
	),
	MetricN: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("1-9", "pick metric"),
	),
	Retry: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "retry"),
	),
	Reload: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "reload prefectures"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "scroll chart up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "scroll chart down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q/ctrl+c", "quit"),
	),
}
