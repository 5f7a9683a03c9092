package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dtnitsch/smart-browse/internal/common"
	"github.com/dtnitsch/smart-browse/models"
	"github.com/dtnitsch/smart-browse/pkg/storage"
	"github.com/urfave/cli/v2"
)

func SettingsShowAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	settings, err := env.Router.GetSettings(c.Context)
	if err != nil {
		return common.Fail(env.Logger, "failed to read settings", err)
	}
	return env.Print(settings)
}

// SettingsSetAction merges the given flags into the stored settings.
func SettingsSetAction(c *cli.Context) error {
	patch := settingsPatch(c)
	if patch == (models.SettingsPatch{}) {
		return common.UsageError("no settings given; see 'smart-browse settings set --help'")
	}

	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	settings, err := env.Router.UpdateSettings(c.Context, patch)
	if err != nil {
		return common.UsageError("%v", err)
	}
	return env.Print(settings)
}

func SettingsResetAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Storage.SetDefaultSettings(c.Context); err != nil {
		return common.Fail(env.Logger, "failed to reset settings", err)
	}
	return env.Print(models.DefaultSettings())
}

// SettingsImportAction merges a JSON or YAML settings document.
func SettingsImportAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	var patch models.SettingsPatch
	if err := readFrom(c, env, &patch); err != nil {
		return err
	}
	settings, err := env.Router.UpdateSettings(c.Context, patch)
	if err != nil {
		return common.UsageError("%v", err)
	}
	return env.Print(settings)
}

func SettingsExportAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	settings, err := env.Router.GetSettings(c.Context)
	if err != nil {
		return common.Fail(env.Logger, "failed to read settings", err)
	}
	return writeTo(c, env, settings)
}

// SessionsAction lists chat sessions as a table, or encoded with --format.
func SessionsAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	sessions, err := env.Storage.GetChatSessions(c.Context)
	if err != nil {
		return common.Fail(env.Logger, "failed to list sessions", err)
	}
	if c.IsSet("format") {
		return env.Print(sessions)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found")
		return nil
	}

	current, err := env.Storage.GetCurrentSessionID(c.Context)
	if err != nil {
		env.Logger.Warn("failed to read current session", "error", err)
	}

	fmt.Printf("%-2s %-36s %-20s %-5s %-40s\n", "", "ID", "Updated", "Msgs", "Page")
	fmt.Println(strings.Repeat("-", 110))
	for _, s := range sessions {
		marker := ""
		if s.ID == current {
			marker = "*"
		}
		fmt.Printf("%-2s %-36s %-20s %-5d %-40s\n",
			marker,
			s.ID,
			s.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
			len(s.Messages),
			pageLabel(s),
		)
	}

	fmt.Printf("\nTotal: %d sessions\n", len(sessions))
	fmt.Printf("\nTip: Use 'smart-browse sessions show <id>' to see the messages\n")
	return nil
}

func pageLabel(s models.ChatSession) string {
	label := s.PageTitle
	if label == "" {
		label = s.PageURL
	}
	if r := []rune(label); len(r) > 40 {
		label = string(r[:37]) + "..."
	}
	return label
}

// SessionAction shows one session, the current one by default.
func SessionAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := sessionIDOrCurrent(c, env)
	if err != nil {
		return err
	}
	session, err := env.Storage.GetChatSession(c.Context, id)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return common.UsageError("session %s not found", id)
	}
	if err != nil {
		return common.Fail(env.Logger, "failed to read session", err)
	}
	return env.Print(session)
}

func DeleteSessionAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return common.UsageError("a session ID is required")
	}
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	id := c.Args().First()
	if err := env.Storage.DeleteChatSession(c.Context, id); err != nil {
		return common.Fail(env.Logger, "failed to delete session", err)
	}

	current, err := env.Storage.GetCurrentSessionID(c.Context)
	if err == nil && current == id {
		if err := env.Storage.SetCurrentSessionID(c.Context, ""); err != nil {
			env.Logger.Warn("failed to clear current session", "error", err)
		}
	}
	fmt.Printf("Deleted session %s\n", id)
	return nil
}

func ClearSessionsAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Storage.ClearChatSessions(c.Context); err != nil {
		return common.Fail(env.Logger, "failed to clear sessions", err)
	}
	if err := env.Storage.SetCurrentSessionID(c.Context, ""); err != nil {
		return common.Fail(env.Logger, "failed to clear current session", err)
	}
	fmt.Println("Cleared all sessions")
	return nil
}

// ExportAction writes settings and every session.
func ExportAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	data, err := env.Storage.ExportData(c.Context)
	if err != nil {
		return common.Fail(env.Logger, "failed to export data", err)
	}
	return writeTo(c, env, data)
}

// ImportAction merges imported settings and replaces the session list.
func ImportAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	var data storage.ImportData
	if err := readFrom(c, env, &data); err != nil {
		return err
	}
	if err := env.Storage.ImportData(c.Context, data); err != nil {
		return common.Fail(env.Logger, "failed to import data", err)
	}
	env.Logger.Info("imported data", "sessions", len(data.Sessions), "settings", data.Settings != nil)
	return nil
}

func InfoAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	info, err := env.Storage.StorageInfo(c.Context)
	if err != nil {
		return common.Fail(env.Logger, "failed to measure storage", err)
	}
	return env.Print(info)
}
