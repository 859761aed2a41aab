package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all the lipgloss styles for the TUI.
type Styles struct {
	// App-level styles
	App    lipgloss.Style
	Header lipgloss.Style
	Footer lipgloss.Style

	// View tabs
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	FilterBar lipgloss.Style

	// List styles
	ListItemTitle   lipgloss.Style
	ListItemDesc    lipgloss.Style
	SelectedTitle   lipgloss.Style
	SelectedDesc    lipgloss.Style
	SelectionMarker lipgloss.Style
	Tag             lipgloss.Style
	ActiveTag       lipgloss.Style

	// Input styles
	InputBox   lipgloss.Style
	InputLabel lipgloss.Style

	// Status styles
	Spinner lipgloss.Style
	Error   lipgloss.Style
	Toast   lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}
	highlight := lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8CFF"}
	special := lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F5F", Dark: "#FF8888"}
	text := lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#fafafa"}

	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			MarginBottom(1),

		Footer: lipgloss.NewStyle().
			Foreground(subtle).
			MarginTop(1),

		Tab: lipgloss.NewStyle().
			Foreground(subtle).
			Padding(0, 1),

		ActiveTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			Underline(true).
			Padding(0, 1),

		FilterBar: lipgloss.NewStyle().
			Foreground(highlight).
			Italic(true),

		ListItemTitle: lipgloss.NewStyle().
			Foreground(text),

		ListItemDesc: lipgloss.NewStyle().
			Foreground(subtle),

		SelectedTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight),

		SelectedDesc: lipgloss.NewStyle().
			Foreground(highlight),

		SelectionMarker: lipgloss.NewStyle().
			Foreground(highlight).
			SetString("› "),

		Tag: lipgloss.NewStyle().
			Foreground(special),

		ActiveTag: lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			Underline(true),

		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(1, 2).
			Width(60),

		InputLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			MarginBottom(1),

		Spinner: lipgloss.NewStyle().
			Foreground(special),

		Error: lipgloss.NewStyle().
			Foreground(errorColor),

		Toast: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fafafa")).
			Background(lipgloss.Color("#2d3748")).
			Padding(0, 1),

		Muted: lipgloss.NewStyle().
			Foreground(subtle),
	}
}
