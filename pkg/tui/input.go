package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// TagInputModel is a boxed, comma separated tag prompt.
type TagInputModel struct {
	textInput textinput.Model
	styles    Styles
	label     string
	hint      string
}

// NewTagInput creates a tag prompt with the given label and hint line.
func NewTagInput(styles Styles, label, hint string) TagInputModel {
	ti := textinput.New()
	ti.Placeholder = "tag, another tag"
	ti.CharLimit = 256
	ti.Width = 54 // Fit within the input box

	return TagInputModel{
		textInput: ti,
		styles:    styles,
		label:     label,
		hint:      hint,
	}
}

// Update handles messages for the prompt.
func (m TagInputModel) Update(msg tea.Msg) (TagInputModel, tea.Cmd) {
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the prompt.
func (m TagInputModel) View() string {
	return m.styles.InputBox.Render(
		m.styles.InputLabel.Render(m.label) + "\n\n" +
			m.textInput.View() + "\n\n" +
			m.styles.Muted.Render(m.hint),
	)
}

// Value returns the current input value.
func (m TagInputModel) Value() string {
	return m.textInput.Value()
}

// Start clears the prompt, fills in value and focuses it.
func (m TagInputModel) Start(value string) (TagInputModel, tea.Cmd) {
	m.textInput.Reset()
	m.textInput.SetValue(value)
	m.textInput.CursorEnd()
	cmd := m.textInput.Focus()
	return m, cmd
}

// Stop blurs the prompt.
func (m TagInputModel) Stop() TagInputModel {
	m.textInput.Blur()
	return m
}
