package extractor

import (
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dtnitsch/smart-browse/models"
)

const wordsPerMinute = 200

var authorProbes = append(eachText([]string{
	`[itemprop="author"]`,
	`[rel="author"]`,
	`.author`,
	`.byline`,
	`[class*="author"]`,
}),
	ldValue(articleTypes, ldName("author"), nonEmpty),
	func(p *page) (string, bool) {
		if p.meta == nil {
			return "", false
		}
		return nonEmpty(p.meta.Byline)
	},
)

var publishDateSelectors = []string{
	`[itemprop="datePublished"]`,
	`time[datetime]`,
	`meta[property="article:published_time"]`,
	`.publish-date`,
	`.post-date`,
	`[class*="date"]`,
}

// dateAt prefers the datetime (or content) attribute over the element text.
func dateAt(selector string) probe[string] {
	return func(p *page) (string, bool) {
		s := p.doc.Find(selector).First()
		if s.Length() == 0 {
			return "", false
		}
		for _, attr := range []string{"datetime", "content"} {
			if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
				return v, true
			}
		}
		return nonEmpty(nodeText(s))
	}
}

func publishDateProbes() []probe[string] {
	probes := make([]probe[string], 0, len(publishDateSelectors)+1)
	for _, sel := range publishDateSelectors {
		probes = append(probes, dateAt(sel))
	}
	return append(probes, ldValue(articleTypes, ldPath("datePublished"), nonEmpty))
}

// readingTime is whole minutes at 200 words per minute, rounded up.
func readingTime(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / wordsPerMinute))
}

// parsePublished normalizes a free-form date string. Unparseable input
// leaves PublishedAt unset.
func parsePublished(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func extractArticle(p *page, text string) *models.ArticleInfo {
	info := &models.ArticleInfo{
		ReadingTime: readingTime(text),
	}
	info.Author, _ = firstPresent(p, authorProbes...)
	info.PublishDate, _ = firstPresent(p, publishDateProbes()...)
	info.PublishedAt = parsePublished(info.PublishDate)
	if info.PublishedAt == nil && p.meta != nil && p.meta.PublishedTime != nil {
		t := p.meta.PublishedTime.UTC()
		info.PublishedAt = &t
	}
	return info
}
