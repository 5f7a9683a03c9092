package fetch

import (
	"github.com/dtnitsch/smart-browse/models"
	"github.com/dtnitsch/smart-browse/pkg/mapreduce"
)

type Job struct {
	URL string
}

// Result holds the outcome of a processed job.
type Result struct {
	URL        string
	Content    *models.PageContent
	Error      error
	ErrorType  string
	WordCounts map[string]int
}

// ResultOutput is the structured output for a single URL.
type ResultOutput struct {
	URL       string              `json:"url" yaml:"url"`
	Status    string              `json:"status" yaml:"status"`
	Error     string              `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorType string              `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	PageType  models.PageType     `json:"page_type,omitempty" yaml:"page_type,omitempty"`
	Title     string              `json:"title,omitempty" yaml:"title,omitempty"`
	Content   *models.PageContent `json:"content,omitempty" yaml:"content,omitempty"`
}

// FinalOutput is the structured output for the entire run.
type FinalOutput struct {
	Status  string         `json:"status" yaml:"status"`
	Results []ResultOutput `json:"results" yaml:"results"`
	Stats   Stats          `json:"stats" yaml:"stats"`
}

// Stats provides summary statistics for the run.
type Stats struct {
	TotalURLs        int                     `json:"total_urls" yaml:"total_urls"`
	Successful       int                     `json:"successful" yaml:"successful"`
	Failed           int                     `json:"failed" yaml:"failed"`
	TotalTimeSeconds float64                 `json:"total_time_seconds" yaml:"total_time_seconds"`
	PageTypes        map[models.PageType]int `json:"page_types,omitempty" yaml:"page_types,omitempty"`
	TopKeywords      []string                `json:"top_keywords,omitempty" yaml:"top_keywords,omitempty"`
}

// buildOutput orders results as the input URLs and computes the stats,
// including the topN keywords across all pages. Full content is included
// only when withContent is set.
func buildOutput(urls []string, results []Result, withContent bool, topN int) *FinalOutput {
	byURL := make(map[string]Result, len(results))
	for _, r := range results {
		byURL[r.URL] = r
	}

	out := &FinalOutput{
		Status:  "success",
		Results: make([]ResultOutput, 0, len(urls)),
		Stats:   Stats{TotalURLs: len(urls), PageTypes: map[models.PageType]int{}},
	}
	for _, u := range urls {
		r := byURL[u]
		ro := ResultOutput{URL: u, Status: "success"}
		if r.Error != nil {
			ro.Status = "failed"
			ro.Error = r.Error.Error()
			ro.ErrorType = r.ErrorType
			out.Stats.Failed++
		} else if r.Content != nil {
			ro.PageType = r.Content.PageType
			ro.Title = r.Content.Title
			if withContent {
				ro.Content = r.Content
			}
			out.Stats.Successful++
			out.Stats.PageTypes[r.Content.PageType]++
		}
		out.Results = append(out.Results, ro)
	}

	intermediate := make([]map[string]int, 0, len(results))
	for _, r := range results {
		if r.WordCounts != nil {
			intermediate = append(intermediate, r.WordCounts)
		}
	}
	for _, k := range mapreduce.TopKeywords(mapreduce.Reduce(intermediate), topN) {
		out.Stats.TopKeywords = append(out.Stats.TopKeywords, k.String())
	}

	switch {
	case out.Stats.Failed == len(urls) && len(urls) > 0:
		out.Status = "failed"
	case out.Stats.Failed > 0:
		out.Status = "partial"
	}
	return out
}
