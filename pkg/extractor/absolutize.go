package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// rewrites lists the URL-bearing attributes made absolute before extraction.
var rewrites = []struct {
	selector string
	attr     string
}{
	{"a", "href"},
	{"img", "src"},
	{"video", "src"},
	{"iframe", "src"},
}

// Absolutize resolves relative href and src attributes against base. Values
// starting with http, data: or # are left alone, as is anything that already
// carries a scheme (mailto:, tel:) or fails to parse.
func Absolutize(doc *goquery.Document, base *url.URL) {
	for _, rw := range rewrites {
		doc.Find(rw.selector).Each(func(_ int, s *goquery.Selection) {
			val, ok := s.Attr(rw.attr)
			if !ok || !isRelative(val) {
				return
			}
			ref, err := url.Parse(strings.TrimSpace(val))
			if err != nil || ref.IsAbs() {
				return
			}
			s.SetAttr(rw.attr, base.ResolveReference(ref).String())
		})
	}
}

func isRelative(val string) bool {
	if val == "" {
		return false
	}
	for _, prefix := range []string{"http", "data:", "#"} {
		if strings.HasPrefix(val, prefix) {
			return false
		}
	}
	return true
}
