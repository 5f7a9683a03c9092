package analyze

import (
	"github.com/dtnitsch/smart-browse/internal/common"
	"github.com/dtnitsch/smart-browse/models"
	"github.com/urfave/cli/v2"
)

// ExtractAction prints the structured content of one page.
func ExtractAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	content, err := env.LoadPage(c)
	if err != nil {
		return err
	}
	if c.Bool("no-text") {
		content.Text = ""
	}
	return env.Print(content)
}

// SummarizeAction extracts a page and summarizes it through the router.
func SummarizeAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	content, err := env.LoadPage(c)
	if err != nil {
		return err
	}
	env.Logger.Info("summarizing page", "url", content.URL, "page_type", content.PageType, "chars", content.TextLength())

	summary, err := env.Router.Summarize(c.Context, content)
	if err != nil {
		return common.Fail(env.Logger, "failed to summarize page", err)
	}
	return env.Print(summary)
}

// CompareAction asks the backend for alternatives to a product page.
func CompareAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	content, err := env.LoadPage(c)
	if err != nil {
		return err
	}
	if content.PageType != models.PageTypeProduct && !c.Bool("any-page") {
		return common.UsageError("%s is a %s page, not a product page (use --any-page to compare anyway)", content.URL, content.PageType)
	}

	comparison, err := env.Router.Compare(c.Context, content.URL, content)
	if err != nil {
		return common.Fail(env.Logger, "failed to compare product", err)
	}
	return env.Print(comparison)
}
