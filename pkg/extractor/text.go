package extractor

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/smart-browse/models"
)

// mainContentSelectors are tried in order; the first present container wins.
var mainContentSelectors = []string{
	"main",
	"article",
	`[role="main"]`,
	".main-content",
	".content",
	".post-content",
	".article-content",
	".entry-content",
	"#content",
	"#main",
}

// noiseSelector lists elements stripped from the chosen container.
const noiseSelector = `script, style, noscript, template, nav, header, footer, aside, ` +
	`.sidebar, .advertisement, .ad, .ads, [role="banner"], [role="navigation"], ` +
	`[role="complementary"], .comments, .comment-section, .social-share, .related-posts`

// mainContainer returns the first matching content container, or the body.
func mainContainer(doc *goquery.Document) *goquery.Selection {
	for _, sel := range mainContentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

// mainText returns the cleaned, bounded text of the page's main content.
// A page without content yields "".
func mainText(doc *goquery.Document) string {
	clone := mainContainer(doc).Clone()
	clone.Find(noiseSelector).Remove()
	clone.Find(blockElements).AfterHtml(" ")
	return truncateRunes(collapseSpace(clone.Text()), models.MaxTextLength)
}
