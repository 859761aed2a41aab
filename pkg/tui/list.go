package tui

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/irfansharif/readlater/pkg/listview"
)

// formatRelativeTime returns a human-readable relative time string.
func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "min")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24/7), "week")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/24/30), "month")
	default:
		return plural(int(diff.Hours()/24/365), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// truncateString truncates a string to the given width, adding ellipsis if needed.
func truncateString(s string, width int) string {
	if width <= 3 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// renderCard renders a single article card: title, then host, age and date,
// then the tag pills and the toggle action on the right.
func renderCard(card listview.Card, activeTag string, selected bool, width int, now time.Time, styles Styles) string {
	a := card.Article
	var sb strings.Builder

	title := truncateString(a.Title, width-4) // Account for selection marker and padding

	// IDs are creation times in milliseconds.
	desc := strings.Join([]string{
		hostOf(a.URL),
		formatRelativeTime(time.UnixMilli(a.ID), now),
		a.Date,
	}, " · ")

	var pills []string
	for _, t := range a.Tags {
		style := styles.Tag
		if t == activeTag {
			style = styles.ActiveTag
		}
		pills = append(pills, style.Render("#"+t))
	}
	pills = append(pills, styles.Muted.Render("["+card.ToggleLabel()+"]"))
	tagStr := strings.Join(pills, " ")

	titleStyle, descStyle := styles.ListItemTitle, styles.ListItemDesc
	if selected {
		titleStyle, descStyle = styles.SelectedTitle, styles.SelectedDesc
		sb.WriteString(styles.SelectionMarker.Render(""))
	} else {
		sb.WriteString("  ")
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n  ")

	lineWidth := width - 2 // usable width after 2-char indent
	pad := lineWidth - lipgloss.Width(desc) - lipgloss.Width(tagStr)
	if pad < 1 {
		pad = 1
	}
	sb.WriteString(descStyle.Render(desc))
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(tagStr)

	return sb.String()
}

// renderEmptyState renders the empty list message.
func renderEmptyState(styles Styles) string {
	return styles.Muted.Render("Empty.")
}
