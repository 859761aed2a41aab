// Package fetch implements browser.Tabs over plain HTTP. It needs no
// permission on the user's browser, which makes it the privileged context the
// save pipeline falls back to.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/irfansharif/readlater/pkg/browser"
)

// ErrNoActiveTab is returned by Active; there is no user-facing tab to speak
// of when fetching over HTTP.
var ErrNoActiveTab = errors.New("no active tab")

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"

// tab is a page being fetched.
type tab struct {
	info   browser.Tab
	done   chan struct{}
	cancel context.CancelFunc
	page   browser.Page
	err    error
}

// Tabs fetches pages over HTTP.
type Tabs struct {
	client *http.Client
	logger *slog.Logger

	mu   sync.Mutex
	tabs map[string]*tab
	next int
}

var _ browser.Tabs = (*Tabs)(nil)

// New creates an HTTP-backed Tabs.
func New(logger *slog.Logger) *Tabs {
	return &Tabs{
		client: &http.Client{
			Timeout: 2 * time.Minute,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		logger: logger,
		tabs:   make(map[string]*tab),
	}
}

// Active implements browser.Tabs.
func (t *Tabs) Active(context.Context) (browser.Tab, error) {
	return browser.Tab{}, ErrNoActiveTab
}

// Create implements browser.Tabs. The fetch runs in the background; use
// WaitComplete to wait for it.
func (t *Tabs) Create(_ context.Context, url string, _ bool) (browser.Tab, error) {
	if url == "" {
		return browser.Tab{}, fmt.Errorf("empty URL")
	}

	// The fetch outlives the caller's context; Remove cancels it.
	ctx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	t.next++
	tb := &tab{
		info:   browser.Tab{ID: "http-" + strconv.Itoa(t.next), URL: url},
		done:   make(chan struct{}),
		cancel: cancel,
	}
	t.tabs[tb.info.ID] = tb
	t.mu.Unlock()

	go func() {
		defer close(tb.done)
		tb.page, tb.err = t.fetch(ctx, url)
		if tb.err != nil {
			t.logger.Warn("fetch failed", "url", url, "err", tb.err)
		}
	}()

	return tb.info, nil
}

func (t *Tabs) lookup(id string) (*tab, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tb, ok := t.tabs[id]
	return tb, ok
}

// WaitComplete implements browser.Tabs.
func (t *Tabs) WaitComplete(ctx context.Context, bt browser.Tab) error {
	tb, ok := t.lookup(bt.ID)
	if !ok {
		return browser.ErrTabClosed
	}
	select {
	case <-tb.done:
		return tb.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Capture implements browser.Tabs. Tabs that weren't opened here, such as
// tabs handed over from the user's browser, are fetched by URL.
func (t *Tabs) Capture(ctx context.Context, bt browser.Tab) (browser.Page, error) {
	tb, ok := t.lookup(bt.ID)
	if !ok {
		return t.fetch(ctx, bt.URL)
	}
	select {
	case <-tb.done:
		return tb.page, tb.err
	case <-ctx.Done():
		return browser.Page{}, ctx.Err()
	}
}

// Remove implements browser.Tabs.
func (t *Tabs) Remove(_ context.Context, bt browser.Tab) error {
	t.mu.Lock()
	tb, ok := t.tabs[bt.ID]
	delete(t.tabs, bt.ID)
	t.mu.Unlock()
	if ok {
		tb.cancel()
	}
	return nil
}

// fetch downloads url and decodes it to UTF-8.
func (t *Tabs) fetch(ctx context.Context, url string) (browser.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return browser.Page{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := t.client.Do(req)
	if err != nil {
		return browser.Page{}, fmt.Errorf("fetching content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return browser.Page{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return browser.Page{}, fmt.Errorf("decoding response: %w", err)
	}
	html, err := io.ReadAll(body)
	if err != nil {
		return browser.Page{}, fmt.Errorf("reading response: %w", err)
	}

	return browser.Page{
		URL:   resp.Request.URL.String(),
		Title: documentTitle(string(html)),
		HTML:  string(html),
	}, nil
}

func documentTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
