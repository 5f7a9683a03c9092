package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

var (
	productTypes = []string{"Product"}
	articleTypes = []string{"Article", "NewsArticle", "BlogPosting"}
)

// collectJSONLD flattens every JSON-LD block on the page into its objects,
// expanding top-level arrays and @graph members.
func collectJSONLD(doc *goquery.Document) []gjson.Result {
	var nodes []gjson.Result
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if !gjson.Valid(raw) {
			return
		}
		nodes = appendLDNodes(nodes, gjson.Parse(raw))
	})
	return nodes
}

func appendLDNodes(nodes []gjson.Result, r gjson.Result) []gjson.Result {
	switch {
	case r.IsArray():
		r.ForEach(func(_, v gjson.Result) bool {
			nodes = appendLDNodes(nodes, v)
			return true
		})
	case r.IsObject():
		nodes = append(nodes, r)
		if graph := ldKey(r, "@graph"); graph.Exists() {
			nodes = appendLDNodes(nodes, graph)
		}
	}
	return nodes
}

// hasLDType reports whether the node's @type (string or array) is one of types.
func hasLDType(node gjson.Result, types []string) bool {
	match := false
	check := func(v gjson.Result) {
		for _, t := range types {
			if v.String() == t {
				match = true
			}
		}
	}
	typ := ldKey(node, "@type")
	if typ.IsArray() {
		typ.ForEach(func(_, v gjson.Result) bool {
			check(v)
			return !match
		})
	} else {
		check(typ)
	}
	return match
}

// ldTyped probes for any JSON-LD node of the given types.
func ldTyped(types []string) probe[bool] {
	return func(p *page) (bool, bool) {
		for _, n := range p.jsonLD {
			if hasLDType(n, types) {
				return true, true
			}
		}
		return false, false
	}
}

// ldValue probes the first node of the given types for path, parsed by parse.
func ldValue[T any](types []string, path func(node gjson.Result) gjson.Result, parse func(string) (T, bool)) probe[T] {
	return func(p *page) (T, bool) {
		var zero T
		for _, n := range p.jsonLD {
			if !hasLDType(n, types) {
				continue
			}
			v := path(n)
			if !v.Exists() {
				continue
			}
			if out, ok := parse(v.String()); ok {
				return out, true
			}
		}
		return zero, false
	}
}

// ldOffer returns the first offer of a product node.
func ldOffer(node gjson.Result) gjson.Result {
	offers := node.Get("offers")
	if offers.IsArray() {
		return offers.Get("0")
	}
	return offers
}

// ldName returns a string field that may also be an object (or list of
// objects) carrying a name, as author and brand are.
func ldName(field string) func(gjson.Result) gjson.Result {
	return func(node gjson.Result) gjson.Result {
		v := node.Get(field)
		if v.IsArray() {
			v = v.Get("0")
		}
		if v.IsObject() {
			return v.Get("name")
		}
		return v
	}
}

// ldKey looks a key up literally; JSON-LD keys start with '@', which gjson
// paths reserve for modifiers.
func ldKey(node gjson.Result, key string) gjson.Result {
	var out gjson.Result
	node.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			out = v
			return false
		}
		return true
	})
	return out
}

func ldPath(path string) func(gjson.Result) gjson.Result {
	return func(node gjson.Result) gjson.Result {
		return node.Get(path)
	}
}

func nonEmpty(s string) (string, bool) {
	s = collapseSpace(s)
	return s, s != ""
}
