package models

// SummaryResponse is transient; it is regenerated on demand and never stored.
type SummaryResponse struct {
	Summary   string   `json:"summary" yaml:"summary"`
	KeyPoints []string `json:"keyPoints" yaml:"key_points"`
	Sentiment string   `json:"sentiment,omitempty" yaml:"sentiment,omitempty"` // positive, negative, neutral
	Topics    []string `json:"topics,omitempty" yaml:"topics,omitempty"`
}

// ProductAlternative is a competing product found by the backend.
type ProductAlternative struct {
	Name     string   `json:"name" yaml:"name"`
	Price    *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Currency string   `json:"currency" yaml:"currency"`
	URL      string   `json:"url" yaml:"url"`
	Image    string   `json:"image,omitempty" yaml:"image,omitempty"`
	Rating   *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	Source   string   `json:"source" yaml:"source"`
}

type ProsCons struct {
	Pros []string `json:"pros" yaml:"pros"`
	Cons []string `json:"cons" yaml:"cons"`
}

type AlternativeProsCons struct {
	Name string   `json:"name" yaml:"name"`
	Pros []string `json:"pros" yaml:"pros"`
	Cons []string `json:"cons" yaml:"cons"`
}

type ProsConsAnalysis struct {
	Current      ProsCons              `json:"current" yaml:"current"`
	Alternatives []AlternativeProsCons `json:"alternatives" yaml:"alternatives"`
}

// ComparisonResponse is transient, like SummaryResponse.
type ComparisonResponse struct {
	CurrentProduct   ProductInfo          `json:"currentProduct" yaml:"current_product"`
	Alternatives     []ProductAlternative `json:"alternatives" yaml:"alternatives"`
	Verdict          string               `json:"verdict" yaml:"verdict"`
	ProsConsAnalysis ProsConsAnalysis     `json:"prosConsAnalysis" yaml:"pros_cons_analysis"`
	Recommendation   string               `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

// APIError is the error member of an Envelope.
type APIError struct {
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Envelope wraps every remote backend response and every response of the
// local messaging surface.
type Envelope[T any] struct {
	Success bool      `json:"success"`
	Data    *T        `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// StreamChunk is one element of a streamed chat reply.
type StreamChunk struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
}
