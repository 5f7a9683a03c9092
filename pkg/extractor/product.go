package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/smart-browse/models"
	"github.com/tidwall/gjson"
)

const (
	maxProductImages      = 5
	maxProductDescription = 2000
	defaultCurrency       = "USD"
)

var (
	// numericToken is the first number in a string, thousands separators allowed.
	numericToken  = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	countToken    = regexp.MustCompile(`\d[\d,]*`)
	ratingToken   = regexp.MustCompile(`\d+(?:\.\d+)?`)
	breadcrumbSep = regexp.MustCompile(`\s*[>/›»]\s*`)
)

var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
}

// parsePrice extracts the first numeric token. Commas are treated as
// thousands separators only.
func parsePrice(s string) (float64, bool) {
	m := numericToken.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseRating accepts only values in (0,5].
func parseRating(s string) (float64, bool) {
	m := ratingToken.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || f <= 0 || f > 5 {
		return 0, false
	}
	return f, true
}

func parseCount(s string) (int, bool) {
	m := countToken.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseAvailability(s string) (string, bool) {
	l := strings.ToLower(s)
	switch {
	case strings.Contains(l, "out of stock"), strings.Contains(l, "outofstock"), strings.Contains(l, "soldout"):
		return models.AvailabilityOutOfStock, true
	case strings.Contains(l, "in stock"), strings.Contains(l, "instock"):
		return models.AvailabilityInStock, true
	}
	return "", false
}

func parseCurrencyCode(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return "", false
	}
	return s, true
}

// currencySymbol scans the first price-like element for a known symbol.
func currencySymbol(p *page) (string, bool) {
	text := p.doc.Find(`.price, [class*="price"]`).First().Text()
	for _, cs := range currencySymbols {
		if strings.Contains(text, cs.symbol) {
			return cs.code, true
		}
	}
	return "", false
}

func eachPrice[T any](selectors []string, parse func(string) (T, bool)) []probe[T] {
	probes := make([]probe[T], 0, len(selectors))
	for _, sel := range selectors {
		probes = append(probes, parsedAt(sel, parse))
	}
	return probes
}

func eachText(selectors []string) []probe[string] {
	probes := make([]probe[string], 0, len(selectors))
	for _, sel := range selectors {
		probes = append(probes, textAt(sel))
	}
	return probes
}

var productNameProbes = append(eachText([]string{
	`[itemprop="name"]`,
	`h1[class*="product"]`,
	`h1[class*="title"]`,
	`.product-title`,
	`.product-name`,
	`#productTitle`,
	`[data-testid="product-title"]`,
	`h1`,
}), ldValue(productTypes, ldPath("name"), nonEmpty))

var priceProbes = append(eachPrice([]string{
	`[itemprop="price"]`,
	`.price`,
	`.product-price`,
	`[class*="price"]`,
	`[data-testid*="price"]`,
	`#priceblock_ourprice`,
	`#priceblock_dealprice`,
	`.a-price .a-offscreen`,
}, parsePrice), ldValue(productTypes, func(n gjson.Result) gjson.Result { return ldOffer(n).Get("price") }, parsePrice))

var currencyProbes = []probe[string]{
	parsedAt(`[itemprop="priceCurrency"]`, parseCurrencyCode),
	ldValue(productTypes, func(n gjson.Result) gjson.Result { return ldOffer(n).Get("priceCurrency") }, parseCurrencyCode),
	currencySymbol,
}

var productDescriptionProbes = eachText([]string{
	`[itemprop="description"]`,
	`.product-description`,
	`.description`,
	`#productDescription`,
	`[data-testid="product-description"]`,
})

var ratingProbes = append(eachPrice([]string{
	`[itemprop="ratingValue"]`,
	`.rating`,
	`[class*="rating"]`,
	`[data-testid*="rating"]`,
}, parseRating), ldValue(productTypes, ldPath("aggregateRating.ratingValue"), parseRating))

var reviewCountProbes = append(eachPrice([]string{
	`[itemprop="reviewCount"]`,
	`.review-count`,
	`[class*="review"]`,
	`#acrCustomerReviewText`,
}, parseCount), ldValue(productTypes, ldPath("aggregateRating.reviewCount"), parseCount))

var availabilityProbes = append(eachPrice([]string{
	`[itemprop="availability"]`,
	`.availability`,
	`#availability`,
	`[data-testid*="availability"]`,
}, parseAvailability), ldValue(productTypes, func(n gjson.Result) gjson.Result { return ldOffer(n).Get("availability") }, parseAvailability))

var brandProbes = append(eachText([]string{
	`[itemprop="brand"]`,
	`.brand`,
	`[class*="brand"]`,
	`#bylineInfo`,
}), ldValue(productTypes, ldName("brand"), nonEmpty))

var categorySelectors = []string{
	`[itemprop="category"]`,
	`.breadcrumb`,
	`[class*="breadcrumb"]`,
	`nav[aria-label="Breadcrumb"]`,
}

// categoryAt renders a breadcrumb as "A > B > C".
func categoryAt(selector string) probe[string] {
	return func(p *page) (string, bool) {
		s := p.doc.Find(selector).First()
		if s.Length() == 0 {
			return "", false
		}
		if items := s.Find("li"); items.Length() > 0 {
			var parts []string
			items.Each(func(_ int, li *goquery.Selection) {
				if t := strings.Trim(breadcrumbSep.ReplaceAllString(nodeText(li), " "), " "); t != "" {
					parts = append(parts, t)
				}
			})
			if len(parts) > 0 {
				return strings.Join(parts, " > "), true
			}
		}
		t := strings.Trim(breadcrumbSep.ReplaceAllString(nodeText(s), " > "), " >")
		return t, t != ""
	}
}

// productImages collects up to five distinct image URLs, resolved against
// the page URL and skipping placeholders.
func productImages(p *page) []string {
	selectors := []string{
		`[itemprop="image"]`,
		`.product-image img`,
		`[class*="product"] img`,
		`[data-testid*="image"] img`,
		`#landingImage`,
	}

	images := []string{}
	seen := map[string]struct{}{}
	for _, sel := range selectors {
		p.doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src := s.AttrOr("src", "")
			if src == "" {
				src = s.AttrOr("data-src", "")
			}
			if src == "" {
				src = s.AttrOr("content", "")
			}
			if src == "" || strings.Contains(src, "placeholder") {
				return true
			}
			src = resolveURL(p, src)
			if _, dup := seen[src]; !dup {
				seen[src] = struct{}{}
				images = append(images, src)
			}
			return len(images) < maxProductImages
		})
		if len(images) >= maxProductImages {
			break
		}
	}
	return images
}

func resolveURL(p *page, ref string) string {
	if p.url == nil {
		return ref
	}
	u, err := p.url.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

// extractProduct runs every product field probe. Missing fields degrade to
// their zero or "unknown" values.
func extractProduct(p *page, title string) *models.ProductInfo {
	info := &models.ProductInfo{
		Name:         title,
		Currency:     defaultCurrency,
		Images:       productImages(p),
		Availability: models.AvailabilityUnknown,
	}

	if v, ok := firstPresent(p, productNameProbes...); ok {
		info.Name = v
	}
	if v, ok := firstPresent(p, currencyProbes...); ok {
		info.Currency = v
	}
	if v, ok := firstPresent(p, productDescriptionProbes...); ok {
		info.Description = clipRunes(v, maxProductDescription)
	}
	if v, ok := firstPresent(p, availabilityProbes...); ok {
		info.Availability = v
	}
	info.Brand, _ = firstPresent(p, brandProbes...)

	if v, ok := firstPresent(p, priceProbes...); ok {
		info.Price = &v
	}
	if v, ok := firstPresent(p, ratingProbes...); ok {
		info.Rating = &v
	}
	if v, ok := firstPresent(p, reviewCountProbes...); ok {
		info.ReviewCount = &v
	}

	categoryProbes := make([]probe[string], 0, len(categorySelectors))
	for _, sel := range categorySelectors {
		categoryProbes = append(categoryProbes, categoryAt(sel))
	}
	info.Category, _ = firstPresent(p, categoryProbes...)

	return info
}
