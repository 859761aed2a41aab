// Package notify shows user notifications and routes clicks on them.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
)

// Title is the heading of every notification.
const Title = "Read Later"

// Notification is a dismissible message with a caller-chosen ID.
type Notification struct {
	ID      string
	Title   string
	Message string
	// Interactive notifications lead somewhere when clicked.
	Interactive bool
}

// Banner posts notifications outside the process, e.g. to the desktop.
type Banner interface {
	Post(ctx context.Context, n Notification) error
}

// ClickHandler is called with the ID of a clicked notification.
type ClickHandler func(ctx context.Context, id string) error

// Center keeps track of shown notifications and dispatches clicks.
type Center struct {
	logger *slog.Logger
	banner Banner

	mu       sync.Mutex
	active   map[string]Notification
	handlers []ClickHandler
	subs     []chan Notification
}

var plainSeq atomic.Int64

// PlainID returns a fresh, non-numeric notification ID for messages that
// don't point at an article.
func PlainID() string {
	return "msg-" + strconv.FormatInt(plainSeq.Add(1), 10)
}

// NewCenter creates a Center. banner may be nil.
func NewCenter(logger *slog.Logger, banner Banner) *Center {
	return &Center{
		logger: logger,
		banner: banner,
		active: make(map[string]Notification),
	}
}

// Show displays n, replacing any notification with the same ID.
func (c *Center) Show(ctx context.Context, n Notification) error {
	if n.ID == "" {
		n.ID = PlainID()
	}
	if n.Title == "" {
		n.Title = Title
	}

	c.mu.Lock()
	c.active[n.ID] = n
	subs := append([]chan Notification(nil), c.subs...)
	c.mu.Unlock()

	c.logger.Info("notification", "id", n.ID, "message", n.Message)
	for _, ch := range subs {
		select {
		case ch <- n:
		default:
			c.logger.Warn("notification subscriber is behind, dropping", "id", n.ID)
		}
	}

	if c.banner != nil {
		if err := c.banner.Post(ctx, n); err != nil {
			return fmt.Errorf("posting banner: %w", err)
		}
	}
	return nil
}

// Clear dismisses the notification with the given ID, if shown.
func (c *Center) Clear(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, id)
}

// shown returns the notifications not yet cleared, ordered by ID.
func (c *Center) shown() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]Notification, 0, len(c.active))
	for _, n := range c.active {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// OnClicked registers a click handler.
func (c *Center) OnClicked(h ClickHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
}

// Click reports a click on the notification with the given ID to every
// handler. The first handler error is returned.
func (c *Center) Click(ctx context.Context, id string) error {
	c.mu.Lock()
	handlers := append([]ClickHandler(nil), c.handlers...)
	c.mu.Unlock()

	var firstErr error
	for _, h := range handlers {
		if err := h(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Subscribe returns a channel receiving every notification shown from now
// on. Sends never block; a full channel drops notifications.
func (c *Center) Subscribe(buffer int) <-chan Notification {
	ch := make(chan Notification, buffer)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, ch)
	return ch
}

// OSABanner posts macOS notification banners through osascript.
type OSABanner struct{}

// Post implements Banner.
func (OSABanner) Post(ctx context.Context, n Notification) error {
	script := `on run argv
	display notification (item 2 of argv) with title (item 1 of argv)
end run`
	return exec.CommandContext(ctx, "osascript", "-e", script, n.Title, n.Message).Run()
}
