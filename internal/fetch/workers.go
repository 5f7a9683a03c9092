package fetch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dtnitsch/smart-browse/pkg/extractor"
	"github.com/dtnitsch/smart-browse/pkg/mapreduce"
	"github.com/dtnitsch/smart-browse/pkg/pagecache"
)

// run fetches and extracts urls with workerCount concurrent workers.
// Duplicate URLs are processed once.
func run(ctx context.Context, logger *slog.Logger, source pagecache.Source, ext *extractor.Extractor, urls []string, workerCount int) []Result {
	if workerCount < 1 {
		workerCount = 1
	}

	unique := make([]string, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}

	logger.Info("Starting concurrent fetch phase", "url_count", len(unique), "workers", workerCount)
	var wg sync.WaitGroup
	jobs := make(chan Job, len(unique))
	results := make(chan Result, len(unique))

	for w := 1; w <= workerCount; w++ {
		wg.Add(1)
		go worker(ctx, w, logger, source, ext, &wg, jobs, results)
	}

	for _, u := range unique {
		jobs <- Job{URL: u}
	}
	close(jobs)

	wg.Wait()
	close(results)
	logger.Info("All fetch workers finished")

	all := make([]Result, 0, len(unique))
	for result := range results {
		all = append(all, result)
	}
	return all
}

func worker(ctx context.Context, id int, logger *slog.Logger, source pagecache.Source, ext *extractor.Extractor, wg *sync.WaitGroup, jobs <-chan Job, results chan<- Result) {
	defer wg.Done()
	for job := range jobs {
		result := Result{URL: job.URL}
		if err := ctx.Err(); err != nil {
			result.Error = err
			result.ErrorType = "cancelled"
			results <- result
			continue
		}

		logger.Info("Worker started job", "worker_id", id, "url", job.URL)
		page, err := source.Fetch(ctx, job.URL)
		if err != nil {
			logger.Error("Error fetching HTML", "worker_id", id, "url", job.URL, "error", err)
			result.Error = err
			result.ErrorType = "fetch_error"
			results <- result
			continue
		}

		content, err := ext.FromHTML(string(page.HTML), page.URL)
		if err != nil {
			logger.Error("Error extracting content", "worker_id", id, "url", job.URL, "error", err)
			result.Error = err
			result.ErrorType = "extract_error"
			results <- result
			continue
		}

		result.Content = content
		result.WordCounts = mapreduce.Map(content.Text)
		results <- result
		logger.Info("Worker finished processing", "worker_id", id, "url", job.URL, "page_type", content.PageType)
	}
}
