package common

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dtnitsch/smart-browse/models"
	"github.com/dtnitsch/smart-browse/pkg/extractor"
	"github.com/dtnitsch/smart-browse/pkg/fetcher"
	"github.com/dtnitsch/smart-browse/pkg/pagecache"
	"github.com/dtnitsch/smart-browse/pkg/router"
	"github.com/dtnitsch/smart-browse/pkg/storage"
	"github.com/dtnitsch/smart-browse/pkg/store"
	"github.com/urfave/cli/v2"
)

// Env is what every command needs: a logger, the opened store and the
// router over it.
type Env struct {
	Logger  *slog.Logger
	KV      store.KV
	Storage *storage.Manager
	Router  *router.Router
	Format  string
}

// Setup opens the store named by --store and builds the router from the
// persisted settings.
func Setup(c *cli.Context) (*Env, error) {
	logger := NewLogger(c.Bool("quiet"))

	kv, err := store.Open(c.Context, c.String("store"))
	if err != nil {
		return nil, Fail(logger, "failed to open store", err)
	}
	manager := storage.NewManager(kv)

	r, err := router.New(c.Context, manager, router.DefaultFactory(), logger)
	if err != nil {
		kv.Close()
		return nil, Fail(logger, "failed to initialize router", err)
	}

	return &Env{
		Logger:  logger,
		KV:      kv,
		Storage: manager,
		Router:  r,
		Format:  c.String("format"),
	}, nil
}

func (e *Env) Close() {
	if err := e.KV.Close(); err != nil {
		e.Logger.Warn("failed to close store", "error", err)
	}
}

// Print writes v to stdout in the --format encoding.
func (e *Env) Print(v any) error {
	return Output(os.Stdout, e.Format, v)
}

// UsageError exits with status 1.
func UsageError(format string, a ...any) error {
	return cli.Exit("Error: "+fmt.Sprintf(format, a...), 1)
}

// Fail logs err and exits with status 2.
func Fail(logger *slog.Logger, msg string, err error) error {
	logger.Error(msg, "error", err)
	return cli.Exit(fmt.Sprintf("Error: %s: %v", msg, err), 2)
}

// PageFlags select the page a command works on.
func PageFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "page URL (fetched unless --file is given)"},
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "read page HTML from `FILE` instead of fetching; --url sets its address"},
	}, FetchFlags()...)
}

// FetchFlags configure fetching and extraction.
func FetchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "cache-dir", Value: "smart-browse-cache", EnvVars: []string{"SMART_BROWSE_CACHE_DIR"}, Usage: "directory for cached HTML (empty disables caching)"},
		&cli.StringFlag{Name: "max-age", Value: "1h", Usage: "reuse cached HTML younger than this"},
		&cli.BoolFlag{Name: "force-fetch", Usage: "bypass the HTML cache"},
		&cli.BoolFlag{Name: "no-language", Usage: "skip language detection"},
	}
}

// NewExtractor builds an extractor honouring --no-language.
func NewExtractor(c *cli.Context, logger *slog.Logger) *extractor.Extractor {
	return extractor.New(
		extractor.WithLanguageDetection(!c.Bool("no-language")),
		extractor.WithLogger(logger),
	)
}

// NewPageSource returns the fetcher behind the HTML cache configured by
// --cache-dir and --max-age.
func NewPageSource(c *cli.Context, logger *slog.Logger) (*pagecache.CachedSource, error) {
	src := &pagecache.CachedSource{Source: fetcher.NewFetcher(), Logger: logger}
	if c.Bool("force-fetch") || c.String("cache-dir") == "" {
		return src, nil
	}

	maxAge, err := time.ParseDuration(c.String("max-age"))
	if err != nil {
		return nil, UsageError("invalid --max-age %q: %v", c.String("max-age"), err)
	}
	cache, err := pagecache.New(c.String("cache-dir"), maxAge)
	if err != nil {
		return nil, Fail(logger, "failed to initialize page cache", err)
	}
	src.Cache = cache
	return src, nil
}

// LoadPage extracts the page selected by PageFlags.
func (e *Env) LoadPage(c *cli.Context) (*models.PageContent, error) {
	ext := NewExtractor(c, e.Logger)
	pageURL := c.String("url")

	if path := c.String("file"); path != "" {
		html, err := os.ReadFile(path)
		if err != nil {
			return nil, Fail(e.Logger, "failed to read HTML file", err)
		}
		content, err := ext.FromHTML(string(html), pageURL)
		if err != nil {
			return nil, UsageError("%v", err)
		}
		return content, nil
	}

	if pageURL == "" {
		return nil, UsageError("--url or --file is required")
	}
	sanitized, invalid := SanitizeAndValidateURLs([]string{pageURL})
	if len(invalid) > 0 {
		return nil, UsageError("invalid URL: %s", pageURL)
	}

	source, err := NewPageSource(c, e.Logger)
	if err != nil {
		return nil, err
	}
	page, err := source.Fetch(c.Context, sanitized[0])
	if err != nil {
		return nil, Fail(e.Logger, "failed to fetch page", err)
	}
	content, err := ext.FromHTML(string(page.HTML), page.URL)
	if err != nil {
		return nil, Fail(e.Logger, "failed to extract page", err)
	}
	return content, nil
}
