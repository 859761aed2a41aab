package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/irfansharif/readlater/pkg/browser"
	"github.com/irfansharif/readlater/pkg/listview"
	"github.com/irfansharif/readlater/pkg/notify"
	"github.com/irfansharif/readlater/pkg/pipeline"
	"github.com/irfansharif/readlater/pkg/storage"
)

// DefaultToastDelay is how long a toast stays up.
const DefaultToastDelay = 5 * time.Second

// State represents the current UI state.
type State int

const (
	stateList State = iota
	stateSaveTags
	stateEditTags
	stateSaving
)

// Saver saves the page the user is looking at.
type Saver interface {
	SaveActive(ctx context.Context, tags []string) (pipeline.Result, error)
}

// Opener opens a URL in a new, focused browser tab.
type Opener interface {
	Create(ctx context.Context, url string, active bool) (browser.Tab, error)
}

// Clicker activates a notification.
type Clicker interface {
	Click(ctx context.Context, id string) error
}

// Options configures the TUI.
type Options struct {
	Store  *storage.Store
	Saver  Saver
	Opener Opener
	// Notifications, if set, are shown as toasts. Clicker activates the
	// interactive ones.
	Notifications <-chan notify.Notification
	Clicker       Clicker
	ReaderURL     func(id int64) string
	ToastDelay    time.Duration
	Logger        *slog.Logger
}

// toast is a transient status line. Toasts for a saved article can be
// opened with OpenSaved while they are visible.
type toast struct {
	text      string
	articleID int64
	noteID    string
	seq       int
}

func (t *toast) openable() bool {
	return t != nil && (t.articleID != 0 || t.noteID != "")
}

// Model is the main TUI model.
type Model struct {
	ctx    context.Context
	state  State
	opts   Options
	keys   KeyMap
	styles Styles
	width  int
	height int
	now    func() time.Time

	// List state
	vm     listview.ViewModel
	cards  []listview.Card
	counts map[storage.Status]int
	cursor int

	// Components
	saveInput TagInputModel
	editInput TagInputModel
	editID    int64
	spinner   spinner.Model

	// Status
	toast    *toast
	toastSeq int
	err      error
}

// Messages
type (
	saveDoneMsg struct {
		res pipeline.Result
		err error
	}
	notificationMsg struct{ n notify.Notification }
	toastExpiredMsg struct{ seq int }
	openedMsg       struct{ err error }
)

// New creates a new TUI model showing unread articles.
func New(ctx context.Context, opts Options) Model {
	if opts.ToastDelay <= 0 {
		opts.ToastDelay = DefaultToastDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	styles := DefaultStyles()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	m := Model{
		ctx:       ctx,
		state:     stateList,
		opts:      opts,
		keys:      DefaultKeyMap(),
		styles:    styles,
		now:       time.Now,
		vm:        listview.NewViewModel(),
		saveInput: NewTagInput(styles, "Save current page", "Enter to save, Esc to cancel"),
		editInput: NewTagInput(styles, "Edit tags", "Enter to apply, Esc to cancel"),
		spinner:   s,
	}
	m.reload()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return m.waitForNotification()
}

func (m Model) waitForNotification() tea.Cmd {
	ch := m.opts.Notifications
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg{n: n}
	}
}

// reload re-renders the list from the store.
func (m *Model) reload() {
	articles, err := m.opts.Store.List(m.ctx)
	if err != nil {
		m.err = err
		return
	}
	m.counts = map[storage.Status]int{}
	for _, a := range articles {
		m.counts[a.Status]++
	}
	m.cards = listview.Cards(listview.Filter(articles, m.vm))
	if m.cursor >= len(m.cards) {
		m.cursor = max(0, len(m.cards)-1)
	}
}

func (m Model) selected() (listview.Card, bool) {
	if len(m.cards) == 0 || m.cursor >= len(m.cards) {
		return listview.Card{}, false
	}
	return m.cards[m.cursor], true
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if m.state == stateSaving {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case saveDoneMsg:
		m.state = stateList
		m.reload()
		return m.handleSaveDone(msg)

	case notificationMsg:
		// The background context may have changed the store.
		m.reload()
		noteID := ""
		if msg.n.Interactive {
			noteID = msg.n.ID
		}
		cmd := m.showToast(msg.n.Message, 0, noteID)
		return m, tea.Batch(cmd, m.waitForNotification())

	case toastExpiredMsg:
		if m.toast != nil && m.toast.seq == msg.seq {
			m.toast = nil
		}
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleSaveDone(msg saveDoneMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, pipeline.ErrSystemPage):
		return *m, m.showToast("Cannot save browser system pages.", 0, "")
	case msg.err != nil:
		m.err = msg.err
		return *m, nil
	}

	switch msg.res.Outcome {
	case pipeline.OutcomeSaved:
		return *m, m.showToast("Saved!", msg.res.Article.ID, "")
	case pipeline.OutcomeDuplicate:
		return *m, m.showToast("Already saved!", 0, "")
	default:
		return *m, m.showToast("Saving in the background...", 0, "")
	}
}

func (m *Model) showToast(text string, articleID int64, noteID string) tea.Cmd {
	m.toastSeq++
	seq := m.toastSeq
	m.toast = &toast{text: text, articleID: articleID, noteID: noteID, seq: seq}
	return tea.Tick(m.opts.ToastDelay, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle state-specific keys first
	switch m.state {
	case stateSaveTags:
		return m.handleSaveTagsKeys(msg)
	case stateEditTags:
		return m.handleEditTagsKeys(msg)
	case stateSaving:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	// List state keys
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.cards)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		if len(m.cards) > 0 {
			m.cursor = len(m.cards) - 1
		}
		return m, nil

	case key.Matches(msg, m.keys.SwitchView):
		return m.switchView(m.vm.Status.Opposite()), nil

	case key.Matches(msg, m.keys.Unread):
		return m.switchView(storage.StatusUnread), nil

	case key.Matches(msg, m.keys.Archived):
		return m.switchView(storage.StatusArchived), nil

	case key.Matches(msg, m.keys.TagFilter):
		card, ok := m.selected()
		if !ok || len(card.Article.Tags) == 0 {
			return m, nil
		}
		m.vm = m.vm.WithTag(nextTag(card.Article.Tags, m.vm.Tag))
		m.cursor = 0
		m.reload()
		return m, nil

	case key.Matches(msg, m.keys.ClearTag):
		m.vm = m.vm.ClearTag()
		m.reload()
		return m, nil

	case key.Matches(msg, m.keys.Save):
		m.state = stateSaveTags
		m.err = nil
		var cmd tea.Cmd
		m.saveInput, cmd = m.saveInput.Start("")
		return m, cmd

	case key.Matches(msg, m.keys.Open):
		card, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.openReader(card.Article.ID)

	case key.Matches(msg, m.keys.OpenSaved):
		return m.openToast()

	case key.Matches(msg, m.keys.EditTags):
		card, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.state = stateEditTags
		m.editID = card.Article.ID
		var cmd tea.Cmd
		m.editInput, cmd = m.editInput.Start(listview.JoinTags(card.Article.Tags))
		return m, cmd

	case key.Matches(msg, m.keys.Toggle):
		card, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.opts.Store.UpdateByID(m.ctx, card.Article.ID, storage.WithStatus(card.ToggleTarget())); err != nil {
			m.err = err
			return m, nil
		}
		m.reload()
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		card, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.opts.Store.DeleteByID(m.ctx, card.Article.ID); err != nil {
			m.err = err
			return m, nil
		}
		m.reload()
		return m, nil
	}

	return m, nil
}

func (m Model) switchView(s storage.Status) Model {
	m.vm = m.vm.WithStatus(s)
	m.cursor = 0
	m.reload()
	return m
}

// nextTag cycles through tags, starting over after current.
func nextTag(tags []string, current string) string {
	for i, t := range tags {
		if t == current {
			return tags[(i+1)%len(tags)]
		}
	}
	return tags[0]
}

func (m Model) handleSaveTagsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.state = stateList
		m.saveInput = m.saveInput.Stop()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		tags := listview.ParseTags(m.saveInput.Value())
		m.saveInput = m.saveInput.Stop()
		m.state = stateSaving
		return m, tea.Batch(m.spinner.Tick, m.saveActive(tags))
	}

	var cmd tea.Cmd
	m.saveInput, cmd = m.saveInput.Update(msg)
	return m, cmd
}

func (m Model) handleEditTagsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.state = stateList
		m.editInput = m.editInput.Stop()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		tags := listview.ParseTags(m.editInput.Value())
		m.editInput = m.editInput.Stop()
		m.state = stateList
		if err := m.opts.Store.UpdateByID(m.ctx, m.editID, storage.WithTags(tags)); err != nil {
			m.err = err
			return m, nil
		}
		m.reload()
		return m, nil
	}

	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

func (m Model) saveActive(tags []string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.opts.Saver.SaveActive(m.ctx, tags)
		return saveDoneMsg{res: res, err: err}
	}
}

func (m Model) openReader(id int64) tea.Cmd {
	return func() tea.Msg {
		_, err := m.opts.Opener.Create(m.ctx, m.opts.ReaderURL(id), true)
		return openedMsg{err: err}
	}
}

func (m Model) openToast() (tea.Model, tea.Cmd) {
	if !m.toast.openable() {
		return m, nil
	}
	t := *m.toast
	m.toast = nil
	if t.noteID != "" && m.opts.Clicker != nil {
		return m, func() tea.Msg {
			return openedMsg{err: m.opts.Clicker.Click(m.ctx, t.noteID)}
		}
	}
	id := t.articleID
	if id == 0 {
		var err error
		if id, err = strconv.ParseInt(t.noteID, 10, 64); err != nil {
			return m, nil
		}
	}
	return m, m.openReader(id)
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sb strings.Builder

	// Header
	sb.WriteString(m.styles.Header.Render("Read Later"))
	sb.WriteString("\n")
	sb.WriteString(m.renderTabs())
	sb.WriteString("\n")
	if m.vm.Tag != "" {
		sb.WriteString(m.styles.FilterBar.Render(fmt.Sprintf("Filtered by #%s  [c] clear", m.vm.Tag)))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	// Main content area
	switch m.state {
	case stateSaveTags:
		sb.WriteString(m.saveInput.View())
	case stateEditTags:
		sb.WriteString(m.editInput.View())
	case stateSaving:
		sb.WriteString(m.spinner.View())
		sb.WriteString(" Saving...")
	default:
		sb.WriteString(m.renderList())
	}

	// Status line, placed just above the footer help text.
	var statusLine string
	if m.err != nil {
		statusLine = m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	} else if m.toast != nil {
		text := m.toast.text
		if m.toast.openable() {
			text += "  [o] open"
		}
		statusLine = m.styles.Toast.Render(text)
	}

	// Footer, pushed to the bottom by filling the remaining vertical space.
	content := sb.String()
	contentHeight := strings.Count(content, "\n") + 1
	appPaddingV := 2 // Top + bottom padding from App style
	footerLines := 1 // Help text
	if statusLine != "" {
		footerLines += 2 // Status line + blank line separating it from help
	}
	remaining := m.height - contentHeight - appPaddingV - footerLines
	if remaining > 0 {
		sb.WriteString(strings.Repeat("\n", remaining))
	}

	if statusLine != "" {
		sb.WriteString(statusLine)
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Footer.Render(m.renderHelp()))

	return m.styles.App.Render(sb.String())
}

func (m Model) renderTabs() string {
	tab := func(s storage.Status, label string) string {
		text := fmt.Sprintf("%s (%d)", label, m.counts[s])
		if m.vm.Status == s {
			return m.styles.ActiveTab.Render(text)
		}
		return m.styles.Tab.Render(text)
	}
	return tab(storage.StatusUnread, "Unread") + " " + tab(storage.StatusArchived, "Archived")
}

func (m Model) renderList() string {
	if len(m.cards) == 0 {
		return renderEmptyState(m.styles)
	}

	var sb strings.Builder

	// Calculate visible items based on height
	listHeight := m.height - 12 // Account for header, footer, etc.
	itemHeight := 3             // Each item is 2 lines + 1 blank line
	visibleItems := listHeight / itemHeight
	if visibleItems < 1 {
		visibleItems = 5
	}

	start := 0
	if m.cursor >= visibleItems {
		start = m.cursor - visibleItems + 1
	}
	end := min(start+visibleItems, len(m.cards))

	now := m.now()
	for i := start; i < end; i++ {
		if i > start {
			sb.WriteString("\n\n")
		}
		sb.WriteString(renderCard(m.cards[i], m.vm.Tag, i == m.cursor, m.width-4, now, m.styles))
	}

	return sb.String()
}

func (m Model) renderHelp() string {
	var parts []string

	switch m.state {
	case stateSaveTags:
		parts = append(parts, "[enter] save", "[esc] cancel")
	case stateEditTags:
		parts = append(parts, "[enter] apply", "[esc] cancel")
	case stateSaving:
		parts = append(parts, "[q]uit")
	default:
		parts = append(parts,
			"[s]ave page",
			"[enter] read",
			"[tab] view",
			"[t]ag filter",
			"[e]dit tags",
			"[x] archive/restore",
			"[d]elete",
			"[q]uit",
		)
	}

	return strings.Join(parts, "  ")
}
