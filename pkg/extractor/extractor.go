// Package extractor turns an HTML document into a models.PageContent: it
// classifies the page, pulls its main text and fills the product or article
// sub-record. Extraction never fails on missing content; absent fields are
// left empty.
package extractor

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/smart-browse/models"
	"github.com/dtnitsch/smart-browse/pkg/detector"
	"github.com/go-shiori/go-readability"
)

// Extractor holds the options shared by every extraction.
type Extractor struct {
	now            func() time.Time
	detectLanguage bool
	logger         *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the time source used for ExtractedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithLanguageDetection toggles language detection on the main text.
func WithLanguageDetection(enabled bool) Option {
	return func(e *Extractor) { e.detectLanguage = enabled }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		now:            time.Now,
		detectLanguage: true,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromHTML parses rawHTML and extracts it as the page at pageURL. Only an
// unparseable URL or document is an error.
func (e *Extractor) FromHTML(rawHTML, pageURL string) (*models.PageContent, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	p := &page{doc: doc, url: u, jsonLD: collectJSONLD(doc)}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(rawHTML), u)
	if err != nil {
		e.logger.Debug("readability fallback unavailable", "url", pageURL, "error", err)
	} else {
		p.meta = &readableMeta{
			Title:         article.Title,
			Byline:        article.Byline,
			Excerpt:       article.Excerpt,
			PublishedTime: article.PublishedTime,
		}
	}

	return e.extract(p, pageURL), nil
}

// Extract runs extraction over an already parsed document. The readability
// fallbacks are not available on this path.
func (e *Extractor) Extract(doc *goquery.Document, pageURL string) *models.PageContent {
	u, err := url.Parse(pageURL)
	if err != nil {
		u = &url.URL{}
	}
	return e.extract(&page{doc: doc, url: u, jsonLD: collectJSONLD(doc)}, pageURL)
}

func (e *Extractor) extract(p *page, pageURL string) *models.PageContent {
	content := &models.PageContent{
		URL:         pageURL,
		Title:       orEmpty(firstPresent(p, titleProbes...)),
		Description: orEmpty(firstPresent(p, descriptionProbes...)),
		Text:        mainText(p.doc),
		PageType:    classify(p),
		ExtractedAt: e.now().UTC(),
	}

	if e.detectLanguage {
		content.Language, content.LanguageConfidence = detector.DetectLanguage(content.Text)
	}

	switch content.PageType {
	case models.PageTypeProduct:
		content.Product = extractProduct(p, content.Title)
	case models.PageTypeArticle:
		content.Article = extractArticle(p, content.Text)
	}

	e.logger.Debug("extracted page",
		"url", pageURL,
		"page_type", content.PageType,
		"text_length", content.TextLength(),
		"language", content.Language,
	)
	return content
}

func orEmpty(s string, _ bool) string { return s }

var titleProbes = []probe[string]{
	textAt("title"),
	parsedAt(`meta[property="og:title"]`, nonEmpty),
	func(p *page) (string, bool) {
		if p.meta == nil {
			return "", false
		}
		return nonEmpty(p.meta.Title)
	},
}

var descriptionProbes = []probe[string]{
	parsedAt(`meta[name="description"]`, nonEmpty),
	parsedAt(`meta[property="og:description"]`, nonEmpty),
	func(p *page) (string, bool) {
		if p.meta == nil {
			return "", false
		}
		return nonEmpty(p.meta.Excerpt)
	},
}
