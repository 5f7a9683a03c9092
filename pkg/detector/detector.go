package detector

import (
	"net/url"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// productPathMarkers are path segments retailers use for product detail pages.
var productPathMarkers = []string{"/product/", "/item/", "/dp/", "/p/", "/pd/"}

// searchHosts are hostname fragments of well known search engines.
var searchHosts = []string{
	"google", "bing", "duckduckgo", "yahoo", "baidu", "yandex", "ecosia", "startpage",
}

// searchParams are query parameter names that carry a search query.
var searchParams = []string{"q", "query"}

// minLanguageRunes is the shortest text worth running language detection on.
const minLanguageRunes = 20

// HasProductPath reports whether the URL path looks like a product detail page.
func HasProductPath(u *url.URL) bool {
	if u == nil {
		return false
	}
	path := strings.ToLower(u.Path)
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	for _, marker := range productPathMarkers {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}

// IsSearchPage reports whether the URL belongs to a search results page:
// a known search engine host, a "search" path, or a q/query parameter.
func IsSearchPage(u *url.URL) bool {
	if u == nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range searchHosts {
		if strings.Contains(host, h) {
			return true
		}
	}

	if strings.Contains(strings.ToLower(u.Path), "search") {
		return true
	}

	query := u.Query()
	for _, p := range searchParams {
		if query.Has(p) {
			return true
		}
	}
	return false
}

var (
	languageDetector     lingua.LanguageDetector
	languageDetectorOnce sync.Once
)

// detectorLanguages keeps the model set small; building a detector over all
// 75 languages costs seconds and hundreds of MB.
var detectorLanguages = []lingua.Language{
	lingua.English, lingua.German, lingua.French, lingua.Spanish, lingua.Italian,
	lingua.Portuguese, lingua.Dutch, lingua.Swedish, lingua.Polish, lingua.Russian,
	lingua.Ukrainian, lingua.Turkish, lingua.Japanese, lingua.Chinese, lingua.Korean,
	lingua.Arabic, lingua.Hindi,
}

func getLanguageDetector() lingua.LanguageDetector {
	languageDetectorOnce.Do(func() {
		languageDetector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectorLanguages...).
			WithLowAccuracyMode().
			Build()
	})
	return languageDetector
}

// DetectLanguage returns the ISO-639-1 code of the text's language and the
// detector's confidence in it (0-1). Short or undecidable text yields "".
func DetectLanguage(text string) (string, float64) {
	if len([]rune(strings.TrimSpace(text))) < minLanguageRunes {
		return "", 0
	}

	d := getLanguageDetector()
	lang, ok := d.DetectLanguageOf(text)
	if !ok {
		return "", 0
	}
	confidence := d.ComputeLanguageConfidence(text, lang)
	return strings.ToLower(lang.IsoCode639_1().String()), confidence
}
