package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/irfansharif/readlater/pkg/browser"
)

// ErrExtractionFailed is returned when no article could be found in a page.
var ErrExtractionFailed = errors.New("parsing failed")

// Result is the readable part of a page.
type Result struct {
	// Title is the article title, empty if none was found.
	Title string
	// Content is sanitized markup with absolute links and media URLs.
	Content string
}

// Extractor turns a captured page into an article.
type Extractor interface {
	Extract(ctx context.Context, page browser.Page) (*Result, error)
}

// Readability extracts articles with go-readability.
type Readability struct {
	policy *bluemonday.Policy
}

var _ Extractor = (*Readability)(nil)

// New creates a Readability extractor.
func New() *Readability {
	p := bluemonday.UGCPolicy()
	// Keep what the reader needs: anchor targets for in-page links and
	// embedded media.
	p.AllowAttrs("name").OnElements("a")
	p.AllowDataURIImages()
	p.AllowElements("video", "source", "iframe", "figure", "figcaption")
	p.AllowAttrs("src", "width", "height").OnElements("video", "source", "iframe")
	p.AllowAttrs("controls", "poster").OnElements("video")
	return &Readability{policy: p}
}

// Extract works on a copy of the page: relative URLs are made absolute
// against the page URL, readability picks out the article and the result is
// sanitized.
func (r *Readability) Extract(ctx context.Context, page browser.Page) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(page.URL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("invalid page URL %q", page.URL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	Absolutize(doc, base)
	html, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("rendering HTML: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(html), base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return nil, ErrExtractionFailed
	}

	content := strings.TrimSpace(r.policy.Sanitize(article.Content))
	if content == "" {
		return nil, ErrExtractionFailed
	}

	return &Result{
		Title:   strings.TrimSpace(article.Title),
		Content: content,
	}, nil
}
