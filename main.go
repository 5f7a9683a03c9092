package main

import (
	"fmt"
	"os"

	"github.com/dtnitsch/smart-browse/internal/analyze"
	"github.com/dtnitsch/smart-browse/internal/chat"
	"github.com/dtnitsch/smart-browse/internal/common"
	"github.com/dtnitsch/smart-browse/internal/db"
	"github.com/dtnitsch/smart-browse/internal/fetch"
	"github.com/dtnitsch/smart-browse/internal/serve"
	"github.com/dtnitsch/smart-browse/pkg/help"
	"github.com/urfave/cli/v2"
)

// globalFlags are accepted by every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "store",
			Usage:   "SQLite path, :memory: or redis:// URL (default: smart-browse.db next to the binary)",
			EnvVars: []string{"SMART_BROWSE_STORE"},
		},
		&cli.StringFlag{
			Name:    "format",
			Value:   common.FormatJSON,
			Usage:   "output format: json or yaml",
			EnvVars: []string{"SMART_BROWSE_FORMAT"},
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "only log errors",
			EnvVars: []string{"SMART_BROWSE_QUIET"},
		},
	}
}

func withGlobal(flags ...[]cli.Flag) []cli.Flag {
	out := globalFlags()
	for _, f := range flags {
		out = append(out, f...)
	}
	return out
}

func main() {
	app := &cli.App{
		Name:  "smart-browse",
		Usage: "Extract, summarize, compare and chat about web pages with a local or remote LLM",
		Commands: []*cli.Command{
			{
				Name:   "extract",
				Usage:  "Extract structured content from a page",
				Flags:  withGlobal(common.PageFlags(), []cli.Flag{&cli.BoolFlag{Name: "no-text", Usage: "omit the page text"}}),
				Action: analyze.ExtractAction,
			},
			{
				Name:  "fetch",
				Usage: "Extract many pages concurrently",
				Flags: withGlobal(common.FetchFlags(), []cli.Flag{
					&cli.StringFlag{Name: "urls", Usage: "comma-separated list of URLs", Required: true},
					&cli.IntFlag{Name: "workers", Value: 4, Usage: "number of concurrent workers"},
					&cli.BoolFlag{Name: "content", Usage: "include the extracted content of each page"},
					&cli.IntFlag{Name: "keywords", Value: 10, Usage: "number of top keywords to report across all pages"},
				}),
				Action: fetch.FetchAction,
			},
			{
				Name:   "summarize",
				Usage:  "Summarize a page",
				Flags:  withGlobal(common.PageFlags()),
				Action: analyze.SummarizeAction,
			},
			{
				Name:  "compare",
				Usage: "Find alternatives to a product page",
				Flags: withGlobal(common.PageFlags(), []cli.Flag{
					&cli.BoolFlag{Name: "any-page", Usage: "compare even if the page is not classified as a product"},
				}),
				Action: analyze.CompareAction,
			},
			{
				Name:      "chat",
				Usage:     "Ask a question about a page",
				ArgsUsage: "[question]",
				Flags: withGlobal(common.PageFlags(), []cli.Flag{
					&cli.StringFlag{Name: "question", Usage: "the question to ask"},
					&cli.BoolFlag{Name: "stream", Usage: "print the reply as it arrives (not saved to the session)"},
					&cli.BoolFlag{Name: "session", Usage: "print the whole session instead of the reply"},
				}),
				Action: chat.ChatAction,
			},
			{
				Name:   "health",
				Usage:  "Check the local model and the backend",
				Flags:  globalFlags(),
				Action: serve.HealthAction,
			},
			{
				Name:  "serve",
				Usage: "Run the local messaging server for the browser extension",
				Flags: withGlobal(common.FetchFlags(), []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: "127.0.0.1:8765", Usage: "listen address", EnvVars: []string{"SMART_BROWSE_ADDR"}},
				}),
				Action: serve.ServeAction,
			},
			{
				Name:  "settings",
				Usage: "Show and change settings",
				Subcommands: []*cli.Command{
					{Name: "show", Usage: "Print the current settings", Flags: globalFlags(), Action: db.SettingsShowAction},
					{Name: "set", Usage: "Change settings", Flags: withGlobal(db.SettingsFlags()), Action: db.SettingsSetAction},
					{Name: "reset", Usage: "Restore the default settings", Flags: globalFlags(), Action: db.SettingsResetAction},
					{Name: "import", Usage: "Merge settings from a JSON or YAML file", Flags: withGlobal(fileFlag()), Action: db.SettingsImportAction},
					{Name: "export", Usage: "Write the settings to stdout or a file", Flags: withGlobal(fileFlag()), Action: db.SettingsExportAction},
				},
			},
			{
				Name:  "sessions",
				Usage: "Manage chat sessions",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "List chat sessions", Flags: globalFlags(), Action: db.SessionsAction},
					{Name: "show", Usage: "Show a session (default: the current one)", ArgsUsage: "[id]", Flags: globalFlags(), Action: db.SessionAction},
					{Name: "delete", Usage: "Delete a session", ArgsUsage: "<id>", Flags: globalFlags(), Action: db.DeleteSessionAction},
					{Name: "clear", Usage: "Delete every session", Flags: globalFlags(), Action: db.ClearSessionsAction},
					{Name: "export", Usage: "Write settings and sessions to stdout or a file", Flags: withGlobal(fileFlag()), Action: db.ExportAction},
					{Name: "import", Usage: "Import settings and sessions from a file", Flags: withGlobal(fileFlag()), Action: db.ImportAction},
					{Name: "info", Usage: "Report storage usage", Flags: globalFlags(), Action: db.InfoAction},
				},
			},
			{
				Name:  "quickstart",
				Usage: "Print a quick start guide",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func fileFlag() []cli.Flag {
	return []cli.Flag{&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "`PATH` of the JSON or YAML file"}}
}
