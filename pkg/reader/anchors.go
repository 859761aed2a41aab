package reader

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RewriteAnchors prepares article HTML for the reader. Links to a fragment
// scroll within the page: they get the internal-link class and a
// data-scroll-target naming the element id or name to scroll to. Every other
// link opens in a new tab.
func RewriteAnchors(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", err
	}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if strings.HasPrefix(href, "#") {
			a.AddClass("internal-link")
			a.SetAttr("data-scroll-target", strings.TrimPrefix(href, "#"))
			return
		}
		a.SetAttr("target", "_blank")
		a.SetAttr("rel", "noopener")
	})
	return doc.Find("body").Html()
}
