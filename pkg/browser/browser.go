// Package browser describes the parts of the host browser that readlater
// drives: tabs, page capture and load tracking.
package browser

import (
	"context"
	"errors"
	"strings"
)

// ErrAccessDenied is returned when the calling context is not allowed to read
// a page. Callers fall back to a privileged context.
var ErrAccessDenied = errors.New("access to page denied")

// ErrTabClosed is returned by WaitComplete when the tab went away before it
// finished loading.
var ErrTabClosed = errors.New("tab closed")

// Tab is a browsing context.
type Tab struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Page is a snapshot of a loaded document.
type Page struct {
	// URL is the base URL relative links resolve against.
	URL string
	// Title is the document title.
	Title string
	// HTML is the serialized document.
	HTML string
}

// Tabs controls browsing contexts.
type Tabs interface {
	// Active returns the tab the user is looking at.
	Active(ctx context.Context) (Tab, error)
	// Create opens url in a new tab, in the background unless active is set.
	Create(ctx context.Context, url string, active bool) (Tab, error)
	// Capture serializes the tab's current document.
	Capture(ctx context.Context, tab Tab) (Page, error)
	// WaitComplete blocks until the tab has finished loading.
	WaitComplete(ctx context.Context, tab Tab) error
	// Remove closes the tab.
	Remove(ctx context.Context, tab Tab) error
}

var systemPrefixes = []string{
	"about:",
	"moz-extension:",
	"chrome:",
	"chrome-extension:",
	"safari-web-extension:",
	"favorites://",
}

// IsSystemURL reports whether url belongs to the browser itself and can't be
// saved.
func IsSystemURL(url string) bool {
	if url == "" {
		return true
	}
	for _, p := range systemPrefixes {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}
