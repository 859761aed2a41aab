package background

import (
	"context"
	"fmt"

	"github.com/irfansharif/readlater/pkg/browser"
	"github.com/irfansharif/readlater/pkg/pipeline"
)

// Context menu entry ids.
const (
	MenuSaveLink = "rl-save-link"
	MenuSavePage = "rl-save-page"
)

// MenuContext says where a menu entry appears.
type MenuContext string

const (
	ContextLink MenuContext = "link"
	ContextPage MenuContext = "page"
)

// MenuEntry is a context menu item.
type MenuEntry struct {
	ID       string
	Title    string
	Contexts []MenuContext
}

// Menu returns the context menu entries, registered once at install.
func Menu() []MenuEntry {
	return []MenuEntry{
		{ID: MenuSaveLink, Title: "Save Linked Article", Contexts: []MenuContext{ContextLink}},
		{ID: MenuSavePage, Title: "Save Current Page", Contexts: []MenuContext{ContextPage}},
	}
}

// Click is a context menu activation.
type Click struct {
	MenuID  string
	LinkURL string
	Tab     browser.Tab
}

// MenuClicked runs the save the entry stands for. Page saves from the menu
// carry no tags.
func (w *Worker) MenuClicked(ctx context.Context, c Click) (pipeline.Result, error) {
	switch c.MenuID {
	case MenuSaveLink:
		if c.LinkURL == "" {
			return pipeline.Result{}, fmt.Errorf("%s: no link url", c.MenuID)
		}
		return w.saver.SaveLink(ctx, c.LinkURL)
	case MenuSavePage:
		if browser.IsSystemURL(c.Tab.URL) {
			return pipeline.Result{}, pipeline.ErrSystemPage
		}
		return w.saver.SaveTab(ctx, c.Tab, c.Tab.URL, nil)
	}
	return pipeline.Result{}, fmt.Errorf("unknown menu entry %q", c.MenuID)
}
