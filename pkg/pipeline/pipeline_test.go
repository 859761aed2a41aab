package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/irfansharif/readlater/pkg/browser"
	"github.com/irfansharif/readlater/pkg/extractor"
	"github.com/irfansharif/readlater/pkg/notify"
	"github.com/irfansharif/readlater/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeTabs struct {
	mu        sync.Mutex
	active    browser.Tab
	pages     map[string]browser.Page
	createErr error
	waitErr   error
	created   []string
	removed   []string
}

func (f *fakeTabs) Active(context.Context) (browser.Tab, error) { return f.active, nil }

func (f *fakeTabs) Create(_ context.Context, url string, active bool) (browser.Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return browser.Tab{}, f.createErr
	}
	f.created = append(f.created, url)
	return browser.Tab{ID: "tmp-" + url, URL: url}, nil
}

func (f *fakeTabs) Capture(_ context.Context, tab browser.Tab) (browser.Page, error) {
	page, ok := f.pages[tab.URL]
	if !ok {
		return browser.Page{}, browser.ErrAccessDenied
	}
	return page, nil
}

func (f *fakeTabs) WaitComplete(context.Context, browser.Tab) error { return f.waitErr }

func (f *fakeTabs) Remove(_ context.Context, tab browser.Tab) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, tab.ID)
	return nil
}

type fakeExtractor struct {
	results map[string]*extractor.Result
}

func (f *fakeExtractor) Extract(_ context.Context, page browser.Page) (*extractor.Result, error) {
	res, ok := f.results[page.URL]
	if !ok {
		return nil, extractor.ErrExtractionFailed
	}
	return res, nil
}

type recorder struct {
	shown []notify.Notification
}

func (r *recorder) Show(_ context.Context, n notify.Notification) error {
	r.shown = append(r.shown, n)
	return nil
}

type handoffs struct {
	tabs []browser.Tab
	tags [][]string
}

func (h *handoffs) SaveCurrentPage(tab browser.Tab, tags []string) {
	h.tabs = append(h.tabs, tab)
	h.tags = append(h.tags, tags)
}

const exampleURL = "https://example.com/post"

type harness struct {
	tabs  *fakeTabs
	ext   *fakeExtractor
	store *storage.Store
	notes *recorder
	p     *Pipeline
}

func newHarness(t *testing.T) *harness {
	kv, err := storage.NewFileKV(t.TempDir())
	require.NoError(t, err)
	h := &harness{
		tabs: &fakeTabs{
			active: browser.Tab{ID: "1", URL: exampleURL, Title: "Tab title"},
			pages: map[string]browser.Page{
				exampleURL: {URL: exampleURL, Title: "Doc title", HTML: "<html></html>"},
			},
		},
		ext: &fakeExtractor{results: map[string]*extractor.Result{
			exampleURL: {Title: "A Post", Content: "<p>hello</p>"},
		}},
		store: storage.New(kv),
		notes: &recorder{},
	}
	h.p = New(Config{
		Tabs:        h.tabs,
		Extractor:   h.ext,
		Store:       h.store,
		Notifier:    h.notes,
		Logger:      discard,
		SettleDelay: time.Millisecond,
		Now:         func() time.Time { return time.Date(2026, 3, 5, 14, 3, 9, 0, time.Local) },
	})
	return h
}

func TestSaveTab(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	res, err := h.p.SaveTab(ctx, h.tabs.active, exampleURL, []string{"go"})
	require.NoError(t, err)
	require.Equal(t, OutcomeSaved, res.Outcome)
	assert.Equal(t, "A Post", res.Article.Title)
	assert.Equal(t, []string{"go"}, res.Article.Tags)
	assert.Equal(t, storage.StatusUnread, res.Article.Status)
	assert.Equal(t, "5.03.2026, 14:03:09", res.Article.Date)

	require.Len(t, h.notes.shown, 1)
	n := h.notes.shown[0]
	assert.True(t, n.Interactive)
	assert.Equal(t, "Saved! Click here to read now: A Post", n.Message)
	assert.Equal(t, strconv.FormatInt(res.Article.ID, 10), n.ID)
	assert.Equal(t, time.Date(2026, 3, 5, 14, 3, 9, 0, time.Local).UnixMilli(), res.Article.ID)

	// Saving the same URL again is a no-op.
	res, err = h.p.SaveTab(ctx, h.tabs.active, exampleURL, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.Equal(t, "Already saved!", h.notes.shown[1].Message)

	count, err := h.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSaveTabTitleFallback(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name      string
		extracted string
		document  string
		want      string
	}{
		{"extracted", "Extracted", "Doc", "Extracted"},
		{"document", "", "Doc", "Doc"},
		{"untitled", "", "", storage.UntitledArticle},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.ext.results[exampleURL].Title = tc.extracted
			h.tabs.pages[exampleURL] = browser.Page{URL: exampleURL, Title: tc.document}
			res, err := h.p.SaveTab(ctx, h.tabs.active, exampleURL, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Article.Title)
		})
	}
}

func TestSaveTabFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	delete(h.ext.results, exampleURL)

	_, err := h.p.SaveTab(ctx, h.tabs.active, exampleURL, nil)
	require.ErrorIs(t, err, extractor.ErrExtractionFailed)
	require.Len(t, h.notes.shown, 1)
	assert.Equal(t, "Failed to save content. Site might be too restricted.", h.notes.shown[0].Message)
	assert.False(t, h.notes.shown[0].Interactive)

	count, err := h.store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSaveLink(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	res, err := h.p.SaveLink(ctx, exampleURL)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSaved, res.Outcome)
	assert.Empty(t, res.Article.Tags)
	assert.Equal(t, []string{exampleURL}, h.tabs.created)
	assert.Equal(t, []string{"tmp-" + exampleURL}, h.tabs.removed)
}

func TestSaveLinkRemovesTabOnFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.tabs.waitErr = browser.ErrTabClosed

	_, err := h.p.SaveLink(ctx, exampleURL)
	require.ErrorIs(t, err, ErrProcessing)
	assert.Equal(t, "Error processing link.", h.notes.shown[0].Message)
	assert.Len(t, h.tabs.removed, 1)
}

func TestSaveLinkCreateFailure(t *testing.T) {
	h := newHarness(t)
	h.tabs.createErr = errors.New("no window")

	_, err := h.p.SaveLink(context.Background(), exampleURL)
	require.ErrorIs(t, err, ErrProcessing)
	assert.Empty(t, h.tabs.removed)
}

func TestSaveLinkCancelledWhileSettling(t *testing.T) {
	h := newHarness(t)
	h.p.settleDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.p.SaveLink(ctx, exampleURL)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, h.tabs.removed, 1)

	count, err := h.store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSaverSaveActive(t *testing.T) {
	ctx := context.Background()

	t.Run("saved", func(t *testing.T) {
		h := newHarness(t)
		hand := &handoffs{}
		h.p.notifier = nil
		s := NewSaver(h.tabs, h.store, h.p, hand, discard)

		res, err := s.SaveActive(ctx, []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeSaved, res.Outcome)
		assert.Equal(t, []string{"a", "b"}, res.Article.Tags)
		assert.Empty(t, hand.tabs)
		assert.Empty(t, h.notes.shown)

		res, err = s.SaveActive(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, OutcomeDuplicate, res.Outcome)
	})

	t.Run("system page", func(t *testing.T) {
		h := newHarness(t)
		hand := &handoffs{}
		h.tabs.active = browser.Tab{ID: "1", URL: "about:newtab"}
		s := NewSaver(h.tabs, h.store, h.p, hand, discard)

		_, err := s.SaveActive(ctx, nil)
		require.ErrorIs(t, err, ErrSystemPage)
		assert.Empty(t, hand.tabs)
	})

	t.Run("handed off", func(t *testing.T) {
		h := newHarness(t)
		hand := &handoffs{}
		h.p.notifier = nil
		delete(h.tabs.pages, exampleURL)
		s := NewSaver(h.tabs, h.store, h.p, hand, discard)

		res, err := s.SaveActive(ctx, []string{"x"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeHandedOff, res.Outcome)
		require.Len(t, hand.tabs, 1)
		assert.Equal(t, exampleURL, hand.tabs[0].URL)
		assert.Equal(t, []string{"x"}, hand.tags[0])
	})
}
