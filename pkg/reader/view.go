// Package reader renders saved articles for reading and applies the reader's
// controls: display settings, archive and delete.
package reader

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strconv"

	"github.com/irfansharif/readlater/pkg/storage"
)

// Display defaults used for preferences that were never saved.
const (
	DefaultTheme    = storage.ThemeLight
	DefaultFontSize = 20
	FontStep        = 2
)

// Settings are the effective display settings.
type Settings struct {
	Theme    storage.Theme `json:"theme"`
	FontSize int           `json:"fs"`
	Sans     bool          `json:"sans"`
}

// Resolve applies the saved preferences over the defaults.
func Resolve(p storage.Preferences) Settings {
	s := Settings{Theme: DefaultTheme, FontSize: DefaultFontSize}
	if p.Theme != "" {
		s.Theme = p.Theme
	}
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	s.Sans = p.Sans
	return s
}

func (s Settings) preferences() storage.Preferences {
	return storage.Preferences{Theme: s.Theme, FontSize: storage.FontSize(s.FontSize), Sans: s.Sans}
}

// Page is what the reader shows.
type Page struct {
	// Loading is set when there is no article to show. The page stays in its
	// loading state; there is no error screen.
	Loading  bool
	Article  storage.Article
	Content  template.HTML
	Settings Settings
}

// View serves reader pages from the store.
type View struct {
	store *storage.Store
}

// NewView creates a View.
func NewView(store *storage.Store) *View {
	return &View{store: store}
}

// Load builds the page for the id query parameter. A missing or malformed id,
// or one that isn't saved, yields a loading page.
func (v *View) Load(ctx context.Context, idParam string) (Page, error) {
	settings, err := v.Settings(ctx)
	if err != nil {
		return Page{}, err
	}
	page := Page{Loading: true, Settings: settings}

	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		return page, nil
	}
	article, err := v.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return page, nil
	}
	if err != nil {
		return Page{}, err
	}

	content, err := RewriteAnchors(article.Content)
	if err != nil {
		return Page{}, fmt.Errorf("rendering article %d: %w", id, err)
	}
	page.Loading = false
	page.Article = article
	// Content was sanitized when it was saved.
	page.Content = template.HTML(content)
	return page, nil
}

// Settings returns the effective display settings.
func (v *View) Settings(ctx context.Context) (Settings, error) {
	p, err := v.store.Preferences(ctx)
	if err != nil {
		return Settings{}, err
	}
	return Resolve(p), nil
}

// update applies fn to the current settings and saves the full record.
func (v *View) update(ctx context.Context, fn func(*Settings)) (Settings, error) {
	s, err := v.Settings(ctx)
	if err != nil {
		return Settings{}, err
	}
	fn(&s)
	if err := v.store.SavePreferences(ctx, s.preferences()); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// StepFont changes the font size by delta pixels. There is no bound.
func (v *View) StepFont(ctx context.Context, delta int) (Settings, error) {
	return v.update(ctx, func(s *Settings) { s.FontSize += delta })
}

// ToggleSans switches between the serif and sans-serif font stacks.
func (v *View) ToggleSans(ctx context.Context) (Settings, error) {
	return v.update(ctx, func(s *Settings) { s.Sans = !s.Sans })
}

// SetTheme selects a theme.
func (v *View) SetTheme(ctx context.Context, theme storage.Theme) (Settings, error) {
	return v.update(ctx, func(s *Settings) { s.Theme = theme })
}

// Archive marks the article archived. The reader closes afterwards.
func (v *View) Archive(ctx context.Context, id int64) error {
	return v.store.UpdateByID(ctx, id, storage.WithStatus(storage.StatusArchived))
}

// Delete removes the article if the user confirmed. It reports whether the
// article was deleted; the reader closes only then.
func (v *View) Delete(ctx context.Context, id int64, confirmed bool) (bool, error) {
	if !confirmed {
		return false, nil
	}
	if err := v.store.DeleteByID(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// URL returns the reader URL for an article.
func URL(base string, id int64) string {
	return fmt.Sprintf("%s/reader?id=%d", base, id)
}
