package storage

import (
	"context"
	"fmt"
)

// Theme is the reader color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeSepia Theme = "sepia"
	ThemeDark  Theme = "dark"
)

// ParseTheme parses a theme name.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeSepia, ThemeDark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// Preferences are the per-device reader display settings. Empty fields are
// unset; readers keep their own defaults for them. FontSize is a pointer so a
// saved size of 0 stays distinct from no size at all.
type Preferences struct {
	Theme    Theme `json:"theme,omitempty"`
	FontSize *int  `json:"fs,omitempty"`
	Sans     bool  `json:"sans,omitempty"`
}

// FontSize returns a font size preference.
func FontSize(px int) *int { return &px }

// Preferences loads the saved reader preferences. Nothing stored yields the
// zero value.
func (s *Store) Preferences(ctx context.Context) (Preferences, error) {
	var p Preferences
	if _, err := s.kv.Get(ctx, KeySettings, &p); err != nil {
		return Preferences{}, fmt.Errorf("loading settings: %w", err)
	}
	return p, nil
}

// SavePreferences replaces the saved reader preferences.
func (s *Store) SavePreferences(ctx context.Context, p Preferences) error {
	if err := s.kv.Set(ctx, KeySettings, p); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
