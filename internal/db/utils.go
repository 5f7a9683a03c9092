package db

import (
	"fmt"
	"os"

	"github.com/dtnitsch/smart-browse/internal/common"
	"github.com/dtnitsch/smart-browse/models"
	"github.com/urfave/cli/v2"
)

// sessionIDOrCurrent returns the session ID from args, or the current session
// if none is given.
func sessionIDOrCurrent(c *cli.Context, env *common.Env) (string, error) {
	if c.NArg() > 0 {
		return c.Args().First(), nil
	}
	id, err := env.Storage.GetCurrentSessionID(c.Context)
	if err != nil {
		return "", common.Fail(env.Logger, "failed to read current session", err)
	}
	if id == "" {
		return "", common.UsageError("no current session. Run 'smart-browse chat --url \"...\" --question \"...\"' first")
	}
	return id, nil
}

// settingsPatch collects the settings flags that were given on the command line.
func settingsPatch(c *cli.Context) models.SettingsPatch {
	var p models.SettingsPatch
	if c.IsSet("backend-url") {
		v := c.String("backend-url")
		p.BackendURL = &v
	}
	if c.IsSet("local-llm-url") {
		v := c.String("local-llm-url")
		p.LocalLLMURL = &v
	}
	if c.IsSet("local-model") {
		v := c.String("local-model")
		p.LocalModel = &v
	}
	if c.IsSet("use-local-llm") {
		v := c.Bool("use-local-llm")
		p.UseLocalLLM = &v
	}
	if c.IsSet("threshold") {
		v := c.Int("threshold")
		p.LocalLLMThreshold = &v
	}
	if c.IsSet("theme") {
		v := c.String("theme")
		p.Theme = &v
	}
	if c.IsSet("max-history") {
		v := c.Int("max-history")
		p.MaxHistoryLength = &v
	}
	if c.IsSet("auto-summarize") {
		v := c.Bool("auto-summarize")
		p.AutoSummarize = &v
	}
	return p
}

// SettingsFlags are the flags of `settings set`.
func SettingsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "backend-url", Usage: "remote backend base URL"},
		&cli.StringFlag{Name: "local-llm-url", Usage: "local OpenAI-compatible server base URL"},
		&cli.StringFlag{Name: "local-model", Usage: "model name sent to the local server"},
		&cli.BoolFlag{Name: "use-local-llm", Usage: "try the local model first for short pages"},
		&cli.IntFlag{Name: "threshold", Usage: "pages shorter than this many characters go to the local model"},
		&cli.StringFlag{Name: "theme", Usage: "light, dark or system"},
		&cli.IntFlag{Name: "max-history", Usage: "maximum number of chat sessions kept"},
		&cli.BoolFlag{Name: "auto-summarize", Usage: "summarize pages when they are opened"},
	}
}

// writeTo prints v in the --format encoding to --file, or stdout without it.
func writeTo(c *cli.Context, env *common.Env, v any) error {
	path := c.String("file")
	if path == "" {
		return env.Print(v)
	}
	f, err := os.Create(path)
	if err != nil {
		return common.Fail(env.Logger, "failed to create export file", err)
	}
	defer f.Close()

	format := env.Format
	if !c.IsSet("format") {
		format = common.FormatForPath(path)
	}
	if err := common.Output(f, format, v); err != nil {
		return common.Fail(env.Logger, "failed to write export file", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}

// readFrom decodes --file into v.
func readFrom(c *cli.Context, env *common.Env, v any) error {
	path := c.String("file")
	if path == "" {
		return common.UsageError("--file is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return common.Fail(env.Logger, "failed to open import file", err)
	}
	defer f.Close()

	if err := common.Decode(path, f, v); err != nil {
		return common.UsageError("%v", err)
	}
	return nil
}
