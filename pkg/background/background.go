// Package background is the privileged context: it takes over saves the popup
// could not finish, serves the context menu and turns notification clicks into
// reader tabs.
package background

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/irfansharif/readlater/pkg/browser"
	"github.com/irfansharif/readlater/pkg/pipeline"
)

// ActionSaveCurrentPage asks the worker to save a tab the popup could not.
const ActionSaveCurrentPage = "save_current_page"

// DefaultInboxSize bounds the number of queued messages.
const DefaultInboxSize = 16

// Message is sent from the popup to the worker.
type Message struct {
	Action     string      `json:"action"`
	Tab        browser.Tab `json:"tab"`
	ManualTags []string    `json:"manualTags"`
}

// Ack reports how a queued message was handled.
type Ack struct {
	Message Message
	Result  pipeline.Result
	Err     error
}

// Saver is the part of the pipeline the worker drives.
type Saver interface {
	SaveTab(ctx context.Context, tab browser.Tab, url string, tags []string) (pipeline.Result, error)
	SaveLink(ctx context.Context, url string) (pipeline.Result, error)
}

// Opener opens a URL in a new, focused tab.
type Opener interface {
	Create(ctx context.Context, url string, active bool) (browser.Tab, error)
}

// Clearer dismisses a notification.
type Clearer interface {
	Clear(id string)
}

// Config configures a Worker.
type Config struct {
	Saver  Saver
	Opener Opener
	Notes  Clearer
	// ReaderURL builds the reader URL for an article id.
	ReaderURL func(id int64) string
	Logger    *slog.Logger
	InboxSize int
}

// Worker is the privileged context.
type Worker struct {
	saver     Saver
	opener    Opener
	notes     Clearer
	readerURL func(int64) string
	logger    *slog.Logger

	inbox chan Message
	acks  chan Ack
}

// New creates a Worker. Call Run to start processing messages.
func New(cfg Config) *Worker {
	size := cfg.InboxSize
	if size <= 0 {
		size = DefaultInboxSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		saver:     cfg.Saver,
		opener:    cfg.Opener,
		notes:     cfg.Notes,
		readerURL: cfg.ReaderURL,
		logger:    logger,
		inbox:     make(chan Message, size),
		acks:      make(chan Ack, size),
	}
}

// Post queues msg without blocking. If the inbox is full the message is
// dropped and a warning logged.
func (w *Worker) Post(msg Message) {
	select {
	case w.inbox <- msg:
	default:
		w.logger.Warn("inbox full, dropping message", "action", msg.Action, "url", msg.Tab.URL)
	}
}

// SaveCurrentPage queues a save of tab with tags. It satisfies
// pipeline.Handoff.
func (w *Worker) SaveCurrentPage(tab browser.Tab, tags []string) {
	w.Post(Message{Action: ActionSaveCurrentPage, Tab: tab, ManualTags: tags})
}

// Acks returns the channel acknowledgements are sent on. Sends never block;
// acks nobody reads are lost.
func (w *Worker) Acks() <-chan Ack {
	return w.acks
}

// Run processes messages until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-w.inbox:
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg Message) {
	ack := Ack{Message: msg}
	switch msg.Action {
	case ActionSaveCurrentPage:
		ack.Result, ack.Err = w.saver.SaveTab(ctx, msg.Tab, msg.Tab.URL, msg.ManualTags)
	default:
		ack.Err = fmt.Errorf("unknown action %q", msg.Action)
		w.logger.Warn("ignoring message", "action", msg.Action)
	}
	select {
	case w.acks <- ack:
	default:
	}
}

// NotificationClicked opens the reader for notifications whose id is an
// article id and clears them. Other ids are ignored.
func (w *Worker) NotificationClicked(ctx context.Context, id string) error {
	articleID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil
	}
	if _, err := w.opener.Create(ctx, w.readerURL(articleID), true); err != nil {
		return fmt.Errorf("opening reader for %d: %w", articleID, err)
	}
	if w.notes != nil {
		w.notes.Clear(id)
	}
	return nil
}
