package apiclient

import (
	"github.com/dtnitsch/smart-browse/models"
	"github.com/tidwall/gjson"
)

// firstJSONObject returns the first balanced {...} in s, skipping braces
// inside string literals. ok is false when no object closes.
func firstJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func stringList(r gjson.Result) []string {
	out := []string{}
	r.ForEach(func(_, v gjson.Result) bool {
		out = append(out, v.String())
		return true
	})
	return out
}

// parseSummaryResponse reads the JSON object embedded in a model reply.
// Replies without a usable object become the summary verbatim.
func parseSummaryResponse(reply string) *models.SummaryResponse {
	fallback := &models.SummaryResponse{Summary: reply, KeyPoints: []string{}}

	obj, ok := firstJSONObject(reply)
	if !ok || !gjson.Valid(obj) {
		return fallback
	}
	r := gjson.Parse(obj)
	summary := r.Get("summary")
	if summary.Type != gjson.String {
		return fallback
	}

	points := r.Get("keyPoints")
	if !points.Exists() {
		points = r.Get("key_points")
	}

	resp := &models.SummaryResponse{
		Summary:   summary.String(),
		KeyPoints: stringList(points),
		Sentiment: r.Get("sentiment").String(),
	}
	if topics := r.Get("topics"); topics.IsArray() {
		resp.Topics = stringList(topics)
	}
	return resp
}
