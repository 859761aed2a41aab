package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// Keys of the two top-level slots in the key-value store.
const (
	KeyArticles = "articles"
	KeySettings = "settings"
)

// UntitledArticle is the title of last resort for saved articles.
const UntitledArticle = "Untitled Article"

// Status is the reading status of an article.
type Status string

const (
	StatusUnread   Status = "unread"
	StatusArchived Status = "archived"
)

// Opposite returns the status an article toggles to.
func (s Status) Opposite() Status {
	if s == StatusArchived {
		return StatusUnread
	}
	return StatusArchived
}

// ParseStatus parses a status name.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusUnread, StatusArchived:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Article represents a saved article with its content.
type Article struct {
	ID      int64    `json:"id"`
	URL     string   `json:"url"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Status  Status   `json:"status"`
	Date    string   `json:"date"`
}

// HasTag reports whether the article carries the given tag.
func (a Article) HasTag(tag string) bool {
	return slices.Contains(a.Tags, tag)
}

// FormatDate renders a creation time the way it is shown next to articles.
func FormatDate(t time.Time) string {
	return t.Format("2.01.2006, 15:04:05")
}

// ErrNotFound is returned by Get when no article has the requested id.
var ErrNotFound = errors.New("article not found")

// ErrArticleExists is returned by Insert when the URL is already saved.
type ErrArticleExists struct {
	URL string
}

func (e *ErrArticleExists) Error() string {
	return fmt.Sprintf("article already saved: %s", e.URL)
}

// Update mutates a single article in place. See WithTags and WithStatus.
type Update func(*Article)

// WithTags replaces the article's tags wholesale.
func WithTags(tags []string) Update {
	return func(a *Article) {
		a.Tags = append([]string{}, tags...)
	}
}

// WithStatus sets the article's status.
func WithStatus(s Status) Update {
	return func(a *Article) {
		a.Status = s
	}
}

// Store manages article storage. Every operation reads the whole collection
// from the backing KV, computes the new collection and writes it back. There
// is no locking: concurrent writers race and the last write wins.
type Store struct {
	kv KV
}

// New creates a Store over the given key-value backend.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) load(ctx context.Context) ([]Article, error) {
	var articles []Article
	if _, err := s.kv.Get(ctx, KeyArticles, &articles); err != nil {
		return nil, fmt.Errorf("loading articles: %w", err)
	}
	if articles == nil {
		articles = []Article{}
	}
	return articles, nil
}

func (s *Store) save(ctx context.Context, articles []Article) error {
	if err := s.kv.Set(ctx, KeyArticles, articles); err != nil {
		return fmt.Errorf("saving articles: %w", err)
	}
	return nil
}

// List returns all articles in insertion order.
func (s *Store) List(ctx context.Context) ([]Article, error) {
	return s.load(ctx)
}

// Get retrieves an article by ID.
func (s *Store) Get(ctx context.Context, id int64) (Article, error) {
	articles, err := s.load(ctx)
	if err != nil {
		return Article{}, err
	}
	for _, a := range articles {
		if a.ID == id {
			return a, nil
		}
	}
	return Article{}, fmt.Errorf("%w: %d", ErrNotFound, id)
}

// ExistsByURL reports whether an article with exactly this URL is saved.
func (s *Store) ExistsByURL(ctx context.Context, url string) (bool, error) {
	articles, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return indexByURL(articles, url) >= 0, nil
}

// Insert appends an article. If the URL is already saved nothing is written
// and *ErrArticleExists is returned. An ID that collides with a saved article
// is moved past the largest saved ID; the stored article is returned.
func (s *Store) Insert(ctx context.Context, article Article) (Article, error) {
	articles, err := s.load(ctx)
	if err != nil {
		return Article{}, err
	}
	if indexByURL(articles, article.URL) >= 0 {
		return Article{}, &ErrArticleExists{URL: article.URL}
	}

	var maxID int64
	collides := false
	for _, a := range articles {
		maxID = max(maxID, a.ID)
		if a.ID == article.ID {
			collides = true
		}
	}
	if collides {
		article.ID = maxID + 1
	}
	if article.Status == "" {
		article.Status = StatusUnread
	}
	if article.Tags == nil {
		article.Tags = []string{}
	}

	articles = append(articles, article)
	if err := s.save(ctx, articles); err != nil {
		return Article{}, err
	}
	return article, nil
}

// UpdateByID applies updates to the article with the given ID. It is a no-op,
// and nothing is written, if no such article exists. The ID itself can't be
// changed by an update.
func (s *Store) UpdateByID(ctx context.Context, id int64, updates ...Update) error {
	articles, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := indexByID(articles, id)
	if idx < 0 {
		return nil
	}
	for _, u := range updates {
		u(&articles[idx])
	}
	articles[idx].ID = id
	return s.save(ctx, articles)
}

// DeleteByID removes the article with the given ID. It is a no-op if no such
// article exists.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	articles, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := indexByID(articles, id)
	if idx < 0 {
		return nil
	}
	articles = slices.Delete(articles, idx, idx+1)
	return s.save(ctx, articles)
}

// Count returns the total number of articles.
func (s *Store) Count(ctx context.Context) (int, error) {
	articles, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(articles), nil
}

// SavedURLs returns the set of saved URLs.
func (s *Store) SavedURLs(ctx context.Context) (map[string]bool, error) {
	articles, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	urls := make(map[string]bool, len(articles))
	for _, a := range articles {
		urls[a.URL] = true
	}
	return urls, nil
}

func indexByID(articles []Article, id int64) int {
	return slices.IndexFunc(articles, func(a Article) bool { return a.ID == id })
}

func indexByURL(articles []Article, url string) int {
	return slices.IndexFunc(articles, func(a Article) bool { return a.URL == url })
}
