package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/irfansharif/readlater/pkg/browser"
	"github.com/irfansharif/readlater/pkg/storage"
)

// ErrSystemPage is returned for pages that belong to the browser itself.
var ErrSystemPage = errors.New("cannot save browser system pages")

// Handoff passes a save to the privileged context. It must not block.
type Handoff interface {
	SaveCurrentPage(tab browser.Tab, tags []string)
}

// Saver saves the active tab from the unprivileged context, handing the work
// off when it can't be done here.
type Saver struct {
	tabs     browser.Tabs
	store    *storage.Store
	pipeline *Pipeline
	handoff  Handoff
	logger   *slog.Logger
}

// NewSaver creates a Saver. The pipeline should have no Notifier; the Saver's
// caller reports outcomes.
func NewSaver(tabs browser.Tabs, store *storage.Store, p *Pipeline, handoff Handoff, logger *slog.Logger) *Saver {
	return &Saver{tabs: tabs, store: store, pipeline: p, handoff: handoff, logger: logger}
}

// SaveActive saves the active tab with tags. If the save fails here the tab,
// its URL and the tags go to the privileged context and OutcomeHandedOff is
// returned right away.
func (s *Saver) SaveActive(ctx context.Context, tags []string) (Result, error) {
	tab, err := s.tabs.Active(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("finding active tab: %w", err)
	}
	if browser.IsSystemURL(tab.URL) {
		return Result{}, ErrSystemPage
	}

	exists, err := s.store.ExistsByURL(ctx, tab.URL)
	if err != nil {
		return Result{}, err
	}
	if exists {
		return Result{Outcome: OutcomeDuplicate}, nil
	}

	res, err := s.pipeline.SaveTab(ctx, tab, tab.URL, tags)
	if err != nil {
		s.logger.Info("saving here failed, handing off", "url", tab.URL, "err", err)
		s.handoff.SaveCurrentPage(tab, tags)
		return Result{Outcome: OutcomeHandedOff}, nil
	}
	return res, nil
}
