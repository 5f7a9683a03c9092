package extractor

import (
	"github.com/dtnitsch/smart-browse/models"
	"github.com/dtnitsch/smart-browse/pkg/detector"
)

// productSignals are checked in order; any hit classifies the page as a product.
var productSignals = []probe[bool]{
	func(p *page) (bool, bool) { return true, detector.HasProductPath(p.url) },
	exists(`[itemtype*="schema.org/Product"], [typeof="Product"]`),
	ldTyped(productTypes),
	exists(`[data-product-id]`),
	exists(`button[class*="cart"], button[class*="buy"], [id*="add-to-cart"]`),
	exists(`.product-price, .price, [class*="price"]`),
}

var articleSignals = []probe[bool]{
	exists(`article`),
	exists(`[itemtype*="schema.org/Article"], [itemtype*="schema.org/NewsArticle"], [itemtype*="schema.org/BlogPosting"]`),
	ldTyped(articleTypes),
	exists(`.article-content, .post-content, .entry-content`),
}

var searchSignals = []probe[bool]{
	func(p *page) (bool, bool) { return true, detector.IsSearchPage(p.url) },
}

// classify applies the first-match page type rules: product beats article
// beats search beats other. Categories are never combined or scored.
func classify(p *page) models.PageType {
	if _, ok := firstPresent(p, productSignals...); ok {
		return models.PageTypeProduct
	}
	if _, ok := firstPresent(p, articleSignals...); ok {
		return models.PageTypeArticle
	}
	if _, ok := firstPresent(p, searchSignals...); ok {
		return models.PageTypeSearch
	}
	return models.PageTypeOther
}
