// Package listview holds the list view's state and the pure functions that
// derive what it shows from the stored articles.
package listview

import (
	"sort"
	"strings"

	"github.com/irfansharif/readlater/pkg/storage"
)

// ViewModel is the list view's filter state. It lives only as long as the
// view does.
type ViewModel struct {
	Status storage.Status
	// Tag is the active tag filter; empty means none.
	Tag string
}

// NewViewModel returns the initial state: unread articles, no tag filter.
func NewViewModel() ViewModel {
	return ViewModel{Status: storage.StatusUnread}
}

// WithStatus switches the status view. The tag filter is kept.
func (vm ViewModel) WithStatus(s storage.Status) ViewModel {
	vm.Status = s
	return vm
}

// WithTag sets the tag filter.
func (vm ViewModel) WithTag(tag string) ViewModel {
	vm.Tag = tag
	return vm
}

// ClearTag removes the tag filter.
func (vm ViewModel) ClearTag() ViewModel {
	vm.Tag = ""
	return vm
}

// Filter returns the articles matching vm's status and, if set, its tag,
// newest first. The input is not modified.
func Filter(articles []storage.Article, vm ViewModel) []storage.Article {
	out := make([]storage.Article, 0, len(articles))
	for _, a := range articles {
		if a.Status != vm.Status {
			continue
		}
		if vm.Tag != "" && !a.HasTag(vm.Tag) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// ParseTags splits a comma separated tag list, trimming whitespace and
// dropping empty entries. Duplicates and case are kept as typed.
func ParseTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// JoinTags is the inverse of ParseTags, used to prefill the tag editor.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// Card is the rendered form of one article in the list.
type Card struct {
	Article storage.Article
}

// ToggleLabel names the status toggle action.
func (c Card) ToggleLabel() string {
	if c.Article.Status == storage.StatusArchived {
		return "Restore"
	}
	return "Archive"
}

// ToggleTarget is the status the toggle moves the article to.
func (c Card) ToggleTarget() storage.Status {
	return c.Article.Status.Opposite()
}

// Cards wraps articles for rendering.
func Cards(articles []storage.Article) []Card {
	cards := make([]Card, len(articles))
	for i, a := range articles {
		cards[i] = Card{Article: a}
	}
	return cards
}
