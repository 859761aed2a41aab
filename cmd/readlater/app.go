package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/redis/go-redis/v9"

	"github.com/irfansharif/readlater/pkg/background"
	"github.com/irfansharif/readlater/pkg/browser"
	"github.com/irfansharif/readlater/pkg/config"
	"github.com/irfansharif/readlater/pkg/extractor"
	"github.com/irfansharif/readlater/pkg/fetch"
	"github.com/irfansharif/readlater/pkg/notify"
	"github.com/irfansharif/readlater/pkg/pipeline"
	"github.com/irfansharif/readlater/pkg/reader"
	"github.com/irfansharif/readlater/pkg/safari"
	"github.com/irfansharif/readlater/pkg/storage"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	store  *storage.Store

	// tabs is the user's browser, the unprivileged context.
	tabs   browser.Tabs
	opener background.Opener
	center *notify.Center

	saver  *pipeline.Saver
	worker *background.Worker

	closers []func() error
}

func newApp(cfg config.Config, verbose bool) (*app, error) {
	a := &app{cfg: cfg}

	logOut, err := openLog(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	if c, ok := logOut.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	var kv storage.KV
	switch cfg.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, client.Close)
		kv = storage.NewRedisKV(client)
	default:
		fkv, err := storage.NewFileKV(cfg.DataDir)
		if err != nil {
			a.close()
			return nil, err
		}
		kv = fkv
	}
	a.store = storage.New(kv)

	switch cfg.Browser {
	case config.BrowserSafari:
		st := safari.New()
		a.tabs, a.opener = st, st
	default:
		a.tabs, a.opener = fetch.New(a.logger), systemOpener{}
	}

	var banner notify.Banner
	if runtime.GOOS == "darwin" {
		banner = notify.OSABanner{}
	}
	a.center = notify.NewCenter(a.logger, banner)

	ext := extractor.New()
	// The background context fetches pages itself, so it can save pages the
	// browser won't let us read.
	privileged := pipeline.New(pipeline.Config{
		Tabs:        fetch.New(a.logger),
		Extractor:   ext,
		Store:       a.store,
		Notifier:    a.center,
		Logger:      a.logger.With("context", "background"),
		SettleDelay: cfg.SettleDelay,
	})
	a.worker = background.New(background.Config{
		Saver:  privileged,
		Opener: a.opener,
		Notes:  a.center,
		ReaderURL: func(id int64) string {
			return reader.URL(cfg.ReaderBase(), id)
		},
		Logger: a.logger.With("context", "background"),
	})
	a.center.OnClicked(a.worker.NotificationClicked)

	// The popup reports outcomes itself, so its pipeline has no notifier.
	popup := pipeline.New(pipeline.Config{
		Tabs:        a.tabs,
		Extractor:   ext,
		Store:       a.store,
		Logger:      a.logger.With("context", "popup"),
		SettleDelay: cfg.SettleDelay,
	})
	a.saver = pipeline.NewSaver(a.tabs, a.store, popup, a.worker, a.logger.With("context", "popup"))
	return a, nil
}

func (a *app) readerURL(id int64) string {
	return reader.URL(a.cfg.ReaderBase(), id)
}

// close releases the log file and store clients. It is safe to call twice.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

func openLog(path string) (io.Writer, error) {
	if path == "" {
		return io.Discard, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("could not create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	return f, nil
}

// systemOpener opens URLs with the desktop's default handler.
type systemOpener struct{}

func (systemOpener) Create(ctx context.Context, url string, _ bool) (browser.Tab, error) {
	name := "xdg-open"
	if runtime.GOOS == "darwin" {
		name = "open"
	}
	if out, err := exec.CommandContext(ctx, name, url).CombinedOutput(); err != nil {
		return browser.Tab{}, fmt.Errorf("%s %s: %w: %s", name, url, err, out)
	}
	return browser.Tab{URL: url}, nil
}
