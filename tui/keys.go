package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	HalfDown key.Binding
	HalfUp   key.Binding

	// Filter & input
	Filter key.Binding
	Escape key.Binding
	Enter  key.Binding

	// Actions
	Fire     key.Binding
	Editor   key.Binding
	Shell    key.Binding
	CopyPath key.Binding

	// Views
	ViewAll    key.Binding
	ViewDirty  key.Binding
	ViewAhead  key.Binding
	ViewBehind key.Binding
	ViewRecent key.Binding

	// Meta
	Help key.Binding
	Quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g/home", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G/end", "bottom"),
		),
		HalfDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("C-d", "½ page down"),
		),
		HalfUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("C-u", "½ page up"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Fire: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "test effect"),
		),
		Editor: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "editor"),
		),
		Shell: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "shell"),
		),
		CopyPath: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy path"),
		),
		ViewAll: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "all"),
		),
		ViewDirty: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "dirty"),
		),
		ViewAhead: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "ahead"),
		),
		ViewBehind: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "behind"),
		),
		ViewRecent: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "recent"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) helpText() string {
	format := func(b key.Binding) string {
		h := b.Help()
		return "  " + padRight(h.Key, 12) + h.Desc
	}

	return `Navigation
` + format(k.Up) + `
` + format(k.Down) + `
` + format(k.Top) + `
` + format(k.Bottom) + `
` + format(k.HalfDown) + `
` + format(k.HalfUp) + `
` + format(k.Filter) + `
` + format(k.Escape) + `

Actions
` + format(k.Fire) + `
` + format(k.Editor) + `
` + format(k.CopyPath) + `
` + format(k.Shell) + `

Views
` + format(k.ViewAll) + `
` + format(k.ViewDirty) + `
` + format(k.ViewAhead) + `
` + format(k.ViewBehind) + `
` + format(k.ViewRecent) + `

` + format(k.Help) + `
` + format(k.Quit)
}
