package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Views
	SwitchView key.Binding
	Unread     key.Binding
	Archived   key.Binding
	TagFilter  key.Binding
	ClearTag   key.Binding

	// Actions
	Save      key.Binding
	Open      key.Binding
	OpenSaved key.Binding
	EditTags  key.Binding
	Toggle    key.Binding
	Delete    key.Binding

	// General
	Quit   key.Binding
	Cancel key.Binding
	Submit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		SwitchView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "unread/archived"),
		),
		Unread: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "unread"),
		),
		Archived: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "archived"),
		),
		TagFilter: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "filter by tag"),
		),
		ClearTag: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear filter"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save current page"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "read"),
		),
		OpenSaved: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open saved"),
		),
		EditTags: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit tags"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "archive/restore"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
	}
}
