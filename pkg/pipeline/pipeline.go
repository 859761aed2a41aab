// Package pipeline turns a browser tab into a saved article.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/irfansharif/readlater/pkg/browser"
	"github.com/irfansharif/readlater/pkg/extractor"
	"github.com/irfansharif/readlater/pkg/notify"
	"github.com/irfansharif/readlater/pkg/storage"
)

// DefaultSettleDelay is how long SaveLink waits after a page reports loaded,
// giving client-side rendering time to fill in content and title.
const DefaultSettleDelay = 1500 * time.Millisecond

// ErrProcessing is returned by SaveLink when the linked page could not be
// opened or loaded.
var ErrProcessing = errors.New("error processing link")

// User-facing notification messages.
const (
	msgSaved      = "Saved! Click here to read now: "
	msgDuplicate  = "Already saved!"
	msgFailed     = "Failed to save content. Site might be too restricted."
	msgProcessing = "Error processing link."
)

// Outcome is how a save attempt ended.
type Outcome int

const (
	// OutcomeSaved means a new article was stored.
	OutcomeSaved Outcome = iota
	// OutcomeDuplicate means the URL was already saved; nothing was written.
	OutcomeDuplicate
	// OutcomeHandedOff means the save was passed to the privileged context,
	// which reports on its own.
	OutcomeHandedOff
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSaved:
		return "saved"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeHandedOff:
		return "handed off"
	}
	return "unknown"
}

// Result describes a finished save attempt.
type Result struct {
	Outcome Outcome
	// Article is the stored article when Outcome is OutcomeSaved.
	Article storage.Article
}

// Notifier shows notifications to the user.
type Notifier interface {
	Show(ctx context.Context, n notify.Notification) error
}

// Config configures a Pipeline.
type Config struct {
	Tabs      browser.Tabs
	Extractor extractor.Extractor
	Store     *storage.Store
	// Notifier receives the outcome of every save. Nil means the caller
	// reports outcomes itself.
	Notifier    Notifier
	Logger      *slog.Logger
	SettleDelay time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Pipeline captures, extracts, deduplicates and stores pages.
type Pipeline struct {
	tabs        browser.Tabs
	extractor   extractor.Extractor
	store       *storage.Store
	notifier    Notifier
	logger      *slog.Logger
	settleDelay time.Duration
	now         func() time.Time
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		tabs:        cfg.Tabs,
		extractor:   cfg.Extractor,
		store:       cfg.Store,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
		settleDelay: cfg.SettleDelay,
		now:         cfg.Now,
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.settleDelay <= 0 {
		p.settleDelay = DefaultSettleDelay
	}
	return p
}

// SaveTab saves the page open in tab under url with the given tags.
func (p *Pipeline) SaveTab(ctx context.Context, tab browser.Tab, url string, tags []string) (Result, error) {
	res, err := p.save(ctx, tab, url, tags)
	if err != nil {
		p.logger.Warn("save failed", "url", url, "err", err)
		p.notify(ctx, notify.Notification{Message: msgFailed})
		return Result{}, err
	}

	switch res.Outcome {
	case OutcomeDuplicate:
		p.logger.Info("already saved", "url", url)
		p.notify(ctx, notify.Notification{Message: msgDuplicate})
	case OutcomeSaved:
		p.logger.Info("saved", "id", res.Article.ID, "url", url, "title", res.Article.Title)
		p.notify(ctx, notify.Notification{
			ID:          strconv.FormatInt(res.Article.ID, 10),
			Message:     msgSaved + res.Article.Title,
			Interactive: true,
		})
	}
	return res, nil
}

func (p *Pipeline) save(ctx context.Context, tab browser.Tab, url string, tags []string) (Result, error) {
	page, err := p.tabs.Capture(ctx, tab)
	if err != nil {
		return Result{}, fmt.Errorf("capturing %s: %w", url, err)
	}
	if page.URL == "" {
		page.URL = url
	}

	extracted, err := p.extractor.Extract(ctx, page)
	if err != nil {
		return Result{}, fmt.Errorf("extracting %s: %w", url, err)
	}
	if extracted == nil {
		return Result{}, fmt.Errorf("extracting %s: %w", url, extractor.ErrExtractionFailed)
	}

	exists, err := p.store.ExistsByURL(ctx, url)
	if err != nil {
		return Result{}, err
	}
	if exists {
		return Result{Outcome: OutcomeDuplicate}, nil
	}

	now := p.now()
	stored, err := p.store.Insert(ctx, storage.Article{
		ID:      now.UnixMilli(),
		URL:     url,
		Title:   firstNonEmpty(extracted.Title, page.Title, storage.UntitledArticle),
		Content: extracted.Content,
		Tags:    tags,
		Status:  storage.StatusUnread,
		Date:    storage.FormatDate(now),
	})
	var existsErr *storage.ErrArticleExists
	if errors.As(err, &existsErr) {
		return Result{Outcome: OutcomeDuplicate}, nil
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomeSaved, Article: stored}, nil
}

// SaveLink saves url without disturbing the user: the page is opened in a
// background tab, given time to settle after loading, saved and closed again.
// The settling delay is not cut short by anything but ctx.
func (p *Pipeline) SaveLink(ctx context.Context, url string) (Result, error) {
	tab, err := p.tabs.Create(ctx, url, false)
	if err != nil {
		p.notify(ctx, notify.Notification{Message: msgProcessing})
		return Result{}, fmt.Errorf("%w: opening %s: %v", ErrProcessing, url, err)
	}
	defer func() {
		if err := p.tabs.Remove(context.WithoutCancel(ctx), tab); err != nil {
			p.logger.Warn("closing tab", "url", url, "err", err)
		}
	}()

	if err := p.tabs.WaitComplete(ctx, tab); err != nil {
		p.notify(ctx, notify.Notification{Message: msgProcessing})
		return Result{}, fmt.Errorf("%w: loading %s: %v", ErrProcessing, url, err)
	}

	timer := time.NewTimer(p.settleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	return p.SaveTab(ctx, tab, url, nil)
}

func (p *Pipeline) notify(ctx context.Context, n notify.Notification) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Show(ctx, n); err != nil {
		p.logger.Warn("showing notification", "err", err)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
