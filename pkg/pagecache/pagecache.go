// Package pagecache keeps fetched HTML on disk so repeated extractions of the
// same URL skip the network.
package pagecache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dtnitsch/smart-browse/pkg/fetcher"
)

// Cache is a file-based HTML cache with a TTL.
type Cache struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

// New creates a Cache rooted at path, creating the directory if needed.
func New(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{path: path, ttl: ttl, now: time.Now}, nil
}

func (c *Cache) file(url, ext string) string {
	return filepath.Join(c.path, fmt.Sprintf("%x%s", sha256.Sum256([]byte(url)), ext))
}

// Get returns the cached page for url if present and younger than the TTL.
// The page carries the URL it was finally served from.
func (c *Cache) Get(url string) (*fetcher.Page, bool) {
	path := c.file(url, ".html")
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if c.now().Sub(info.ModTime()) > c.ttl {
		return nil, false
	}
	html, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	finalURL := url
	if data, err := os.ReadFile(c.file(url, ".url")); err == nil && len(data) > 0 {
		finalURL = string(data)
	}
	return &fetcher.Page{URL: finalURL, StatusCode: 200, HTML: html}, true
}

// Set stores page under the requested url, recording page.URL alongside it.
func (c *Cache) Set(url string, page *fetcher.Page) error {
	if err := os.WriteFile(c.file(url, ".url"), []byte(page.URL), 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.WriteFile(c.file(url, ".html"), page.HTML, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Source fetches a page from the network.
type Source interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
}

// CachedSource serves pages from the cache and fills it on a miss. A nil
// cache disables caching.
type CachedSource struct {
	Source Source
	Cache  *Cache
	Logger *slog.Logger
}

func (s *CachedSource) Fetch(ctx context.Context, url string) (*fetcher.Page, error) {
	if s.Cache != nil {
		if page, ok := s.Cache.Get(url); ok {
			s.logger().Debug("page cache hit", "url", url, "final_url", page.URL)
			return page, nil
		}
	}

	page, err := s.Source.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.Set(url, page); err != nil {
			s.logger().Warn("failed to cache page", "url", url, "error", err)
		}
	}
	return page, nil
}

func (s *CachedSource) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
