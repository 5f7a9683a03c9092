package extractor

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// page is everything a probe may look at for one document.
type page struct {
	doc    *goquery.Document
	url    *url.URL
	meta   *readableMeta  // nil when readability could not parse the page
	jsonLD []gjson.Result // flattened JSON-LD objects
}

// readableMeta is the subset of the readability article used as a last resort.
type readableMeta struct {
	Title         string
	Byline        string
	Excerpt       string
	PublishedTime *time.Time
}

// probe looks for one value; ok is false when nothing matched.
type probe[T any] func(p *page) (v T, ok bool)

// firstPresent runs probes in priority order and returns the first value found.
func firstPresent[T any](p *page, probes ...probe[T]) (T, bool) {
	for _, pr := range probes {
		if v, ok := pr(p); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// exists probes for the presence of any element matching selector.
func exists(selector string) probe[bool] {
	return func(p *page) (bool, bool) {
		return true, p.doc.Find(selector).Length() > 0
	}
}

// textAt probes the first element matching selector for non-empty text.
func textAt(selector string) probe[string] {
	return func(p *page) (string, bool) {
		s := p.doc.Find(selector).First()
		if s.Length() == 0 {
			return "", false
		}
		t := nodeText(s)
		return t, t != ""
	}
}

// parsedAt probes the first element matching selector, preferring its
// machine-readable attributes over its text, and parses the result.
func parsedAt[T any](selector string, parse func(string) (T, bool)) probe[T] {
	return func(p *page) (T, bool) {
		var zero T
		s := p.doc.Find(selector).First()
		if s.Length() == 0 {
			return zero, false
		}
		return parse(attrOrText(s))
	}
}

// attrOrText returns the content (or datetime, href) attribute when present,
// otherwise the element text.
func attrOrText(s *goquery.Selection) string {
	for _, attr := range []string{"content", "datetime", "href"} {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return nodeText(s)
}

// blockElements get a separating space so adjacent blocks don't run together.
const blockElements = "address, article, aside, blockquote, br, dd, div, dl, dt, figcaption, figure, " +
	"h1, h2, h3, h4, h5, h6, hr, li, main, ol, p, pre, section, table, td, th, tr, ul"

// nodeText returns the whitespace-collapsed text of a selection without
// touching the document.
func nodeText(s *goquery.Selection) string {
	clone := s.Clone()
	clone.Find(blockElements).AfterHtml(" ")
	return collapseSpace(clone.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most max characters, ending with "..." when cut.
func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// clipRunes cuts s to at most max characters without a marker.
func clipRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
