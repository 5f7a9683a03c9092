package fetch

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dtnitsch/smart-browse/internal/common"
	"github.com/urfave/cli/v2"
)

// FetchAction extracts many pages concurrently and prints one result per URL.
func FetchAction(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"))
	startTime := time.Now()

	rawURLs := common.SplitList(c.String("urls"))
	if len(rawURLs) == 0 {
		return common.UsageError("--urls is required")
	}
	urls, invalid := common.SanitizeAndValidateURLs(rawURLs)
	if len(invalid) > 0 {
		fmt.Fprintf(os.Stderr, "Error: invalid URLs: %s\n", strings.Join(invalid, ", "))
		fmt.Fprintln(os.Stderr, "URLs must start with http:// or https:// and have a valid host")
		return cli.Exit("", 1)
	}

	source, err := common.NewPageSource(c, logger)
	if err != nil {
		return err
	}
	ext := common.NewExtractor(c, logger)

	results := run(c.Context, logger, source, ext, urls, c.Int("workers"))
	output := buildOutput(urls, results, c.Bool("content"), c.Int("keywords"))
	output.Stats.TotalTimeSeconds = time.Since(startTime).Seconds()

	if err := common.Output(os.Stdout, c.String("format"), output); err != nil {
		return common.Fail(logger, "failed to write output", err)
	}
	if output.Status == "failed" {
		return cli.Exit("", 2)
	}
	return nil
}
