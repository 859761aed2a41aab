package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/readlater/pkg/browser"
	"github.com/irfansharif/readlater/pkg/config"
	"github.com/irfansharif/readlater/pkg/pipeline"
	"github.com/irfansharif/readlater/pkg/storage"
)

const postPage = `<!DOCTYPE html>
<html>
<head><title>Field Notes</title></head>
<body>
<nav><a href="/">Home</a></nav>
<article>
<h1>Field Notes</h1>
<p>The quick brown fox jumps over the lazy dog, and then it keeps running for a
very long time through fields and forests, because readable content needs to be
long enough for the extraction heuristics to consider it an article at all.</p>
<p>Details follow here, written out at length so that the scoring algorithm sees
a healthy amount of text with commas, periods, and the other punctuation that it
rewards when deciding which node holds the main content of a page.</p>
<p>A third paragraph closes the notes, again long enough, with enough commas,
clauses, and sentences that the body clearly outweighs the navigation above it,
which is all the extraction step needs to pick it.</p>
</article>
</body>
</html>`

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

// testApp wires env against a temporary data directory, fetching pages over
// HTTP.
func testApp(t *testing.T) {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.Browser = config.BrowserHTTP
	cfg.SettleDelay = 10 * time.Millisecond
	cfg.LogFile = ""
	cfg.ReaderAddr = freeAddr(t)

	a, err := newApp(cfg, false)
	require.NoError(t, err)
	env = a
	t.Cleanup(func() {
		a.close()
		env = nil
	})
}

func testCommand(t *testing.T, flags func(*cobra.Command)) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cmd := &cobra.Command{}
	if flags != nil {
		flags(cmd)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cmd.SetContext(ctx)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	return cmd, &out
}

func postServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, postPage)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSaveLinkThroughMenu(t *testing.T) {
	testApp(t)
	srv := postServer(t)
	link := srv.URL + "/notes"

	cmd, out := testCommand(t, nil)
	require.NoError(t, runSaveLink(cmd, []string{link}))
	assert.Contains(t, out.String(), "Saved: ")

	articles, err := env.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, link, articles[0].URL)
	assert.Empty(t, articles[0].Tags)

	cmd, out = testCommand(t, nil)
	require.NoError(t, runSaveLink(cmd, []string{link}))
	assert.Contains(t, out.String(), "Already saved!")
}

func TestSavePageURLThroughMenu(t *testing.T) {
	testApp(t)
	srv := postServer(t)

	cmd, out := testCommand(t, savePageFlags)
	require.NoError(t, cmd.Flags().Set("url", srv.URL+"/page"))
	require.NoError(t, runSavePage(cmd, nil))
	assert.Contains(t, out.String(), "Saved: ")

	ok, err := env.store.ExistsByURL(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.True(t, ok)

	// Menu saves carry no tags.
	cmd, _ = testCommand(t, savePageFlags)
	require.NoError(t, cmd.Flags().Set("url", srv.URL+"/other"))
	require.NoError(t, cmd.Flags().Set("tags", "go"))
	require.Error(t, runSavePage(cmd, nil))

	cmd, _ = testCommand(t, savePageFlags)
	require.NoError(t, cmd.Flags().Set("url", "about:blank"))
	require.ErrorIs(t, runSavePage(cmd, nil), pipeline.ErrSystemPage)
}

func TestListStatus(t *testing.T) {
	testApp(t)
	ctx := context.Background()
	_, err := env.store.Insert(ctx, storage.Article{ID: 1, URL: "https://a.test/1", Title: "Unread One"})
	require.NoError(t, err)
	_, err = env.store.Insert(ctx, storage.Article{ID: 2, URL: "https://a.test/2", Title: "Archived Two", Status: storage.StatusArchived})
	require.NoError(t, err)

	cmd, out := testCommand(t, listFlags)
	require.NoError(t, runList(cmd, nil))
	assert.Contains(t, out.String(), "Unread One")
	assert.NotContains(t, out.String(), "Archived Two")

	cmd, out = testCommand(t, listFlags)
	require.NoError(t, cmd.Flags().Set("status", "archived"))
	require.NoError(t, runList(cmd, nil))
	assert.Contains(t, out.String(), "Archived Two")
	assert.NotContains(t, out.String(), "Unread One")

	cmd, _ = testCommand(t, listFlags)
	require.NoError(t, cmd.Flags().Set("status", "read"))
	require.Error(t, runList(cmd, nil))
}

type recordingOpener struct {
	opened chan string
}

func (o recordingOpener) Create(_ context.Context, url string, _ bool) (browser.Tab, error) {
	o.opened <- url
	return browser.Tab{URL: url}, nil
}

func TestOpenServesReader(t *testing.T) {
	testApp(t)
	opener := recordingOpener{opened: make(chan string, 1)}
	env.opener = opener
	a, err := env.store.Insert(context.Background(), storage.Article{ID: 7, URL: "https://a.test/7", Title: "Seven", Content: "<p>seven</p>"})
	require.NoError(t, err)

	cmd, out := testCommand(t, nil)
	ctx, cancel := context.WithCancel(cmd.Context())
	cmd.SetContext(ctx)
	done := make(chan error, 1)
	go func() { done <- runOpen(cmd, []string{"7"}) }()

	var url string
	select {
	case url = <-opener.opened:
	case <-time.After(5 * time.Second):
		t.Fatal("reader was never opened")
	}
	assert.Equal(t, env.readerURL(a.ID), url)

	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Seven")

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, out.String(), "Serving the reader")
}

func TestOpenUsesRunningReader(t *testing.T) {
	testApp(t)
	opener := recordingOpener{opened: make(chan string, 1)}
	env.opener = opener
	_, err := env.store.Insert(context.Background(), storage.Article{ID: 7, URL: "https://a.test/7", Title: "Seven"})
	require.NoError(t, err)

	// Someone else holds the reader address.
	ln, err := net.Listen("tcp", env.cfg.ReaderAddr)
	require.NoError(t, err)
	defer ln.Close()

	cmd, out := testCommand(t, nil)
	require.NoError(t, runOpen(cmd, []string{"7"}))
	assert.Equal(t, env.readerURL(7), <-opener.opened)
	assert.Empty(t, out.String())

	cmd, _ = testCommand(t, nil)
	require.ErrorIs(t, runOpen(cmd, []string{"8"}), storage.ErrNotFound)
}

func TestExecuteClosesOnFailure(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() {
		_ = listCmd.Flags().Set("status", string(storage.StatusUnread))
		configDir = ""
		env = nil
	})

	err := execute(context.Background(), []string{"--config-dir", dir, "list", "--status", "read"})
	require.Error(t, err)
	require.NotNil(t, env)
	assert.Nil(t, env.closers)
	assert.FileExists(t, filepath.Join(dir, "readlater.log"))
}
