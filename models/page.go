// Package models defines the records exchanged between the extractor, the
// API clients, the storage manager and the messaging surface.
package models

import (
	"strings"
	"time"
)

// PageType is the coarse classification of a page's purpose.
type PageType string

const (
	PageTypeProduct PageType = "product"
	PageTypeArticle PageType = "article"
	PageTypeSearch  PageType = "search"
	PageTypeOther   PageType = "other"
)

// Availability values reported for a product.
const (
	AvailabilityInStock    = "in_stock"
	AvailabilityOutOfStock = "out_of_stock"
	AvailabilityUnknown    = "unknown"
)

// MaxTextLength bounds PageContent.Text, in characters.
const MaxTextLength = 50000

// PageContent is the structured record produced by one extraction.
type PageContent struct {
	URL                string       `json:"url" yaml:"url"`
	Title              string       `json:"title" yaml:"title"`
	Description        string       `json:"description" yaml:"description"`
	Text               string       `json:"text" yaml:"text"`
	PageType           PageType     `json:"pageType" yaml:"page_type"`
	ExtractedAt        time.Time    `json:"extractedAt" yaml:"extracted_at"`
	Language           string       `json:"language,omitempty" yaml:"language,omitempty"`
	LanguageConfidence float64      `json:"languageConfidence,omitempty" yaml:"language_confidence,omitempty"`
	Product            *ProductInfo `json:"product,omitempty" yaml:"product,omitempty"`
	Article            *ArticleInfo `json:"article,omitempty" yaml:"article,omitempty"`
}

// ProductInfo is populated only for product pages.
type ProductInfo struct {
	Name         string   `json:"name" yaml:"name"`
	Price        *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Currency     string   `json:"currency" yaml:"currency"`
	Images       []string `json:"images" yaml:"images"`
	Description  string   `json:"description" yaml:"description"`
	Rating       *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	ReviewCount  *int     `json:"reviewCount,omitempty" yaml:"review_count,omitempty"`
	Availability string   `json:"availability" yaml:"availability"`
	Brand        string   `json:"brand" yaml:"brand"`
	Category     string   `json:"category" yaml:"category"`
}

// ArticleInfo is populated only for article pages.
type ArticleInfo struct {
	Author      string     `json:"author" yaml:"author"`
	PublishDate string     `json:"publishDate" yaml:"publish_date"`
	PublishedAt *time.Time `json:"publishedAt,omitempty" yaml:"published_at,omitempty"`
	ReadingTime int        `json:"readingTime" yaml:"reading_time"` // minutes at 200 wpm
}

// TextLength returns the length of the page text in characters, which is
// what the local model threshold is compared against.
func (p *PageContent) TextLength() int {
	if p == nil {
		return 0
	}
	return len([]rune(p.Text))
}

// Excerpt returns at most n characters of the page text.
func (p *PageContent) Excerpt(n int) string {
	r := []rune(p.Text)
	if len(r) <= n {
		return p.Text
	}
	return string(r[:n])
}

// ProductSummary renders the product fields the prompts quote.
func (pi *ProductInfo) ProductSummary() string {
	if pi == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("- Name: " + pi.Name + "\n")
	if pi.Price != nil {
		sb.WriteString("- Price: " + pi.Currency + " " + formatFloat(*pi.Price) + "\n")
	}
	if pi.Rating != nil {
		sb.WriteString("- Rating: " + formatFloat(*pi.Rating) + "/5")
		if pi.ReviewCount != nil {
			sb.WriteString(" (" + formatInt(*pi.ReviewCount) + " reviews)")
		}
		sb.WriteString("\n")
	}
	if pi.Brand != "" {
		sb.WriteString("- Brand: " + pi.Brand + "\n")
	}
	if pi.Availability != "" && pi.Availability != AvailabilityUnknown {
		sb.WriteString("- Availability: " + pi.Availability + "\n")
	}
	return sb.String()
}
