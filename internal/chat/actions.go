package chat

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dtnitsch/smart-browse/internal/common"
	"github.com/dtnitsch/smart-browse/models"
	"github.com/urfave/cli/v2"
)

// ChatAction asks one question about a page. By default the turn is kept in
// the page's chat session; --stream prints the reply as it arrives and keeps
// nothing.
func ChatAction(c *cli.Context) error {
	question := strings.TrimSpace(c.String("question"))
	if question == "" && c.NArg() > 0 {
		question = strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	}
	if question == "" {
		return common.UsageError("a question is required (--question or trailing arguments)")
	}

	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	content, err := env.LoadPage(c)
	if err != nil {
		return err
	}

	if c.Bool("stream") {
		return stream(c, env, content, question)
	}

	session, err := env.Router.Ask(c.Context, content, question)
	if err != nil {
		return common.Fail(env.Logger, "failed to get a reply", err)
	}
	if c.Bool("session") {
		return env.Print(session)
	}
	return env.Print(session.Messages[len(session.Messages)-1])
}

func stream(c *cli.Context, env *common.Env, content *models.PageContent, question string) error {
	messages := []models.ChatMessage{models.NewChatMessage(models.RoleUser, question)}
	s, err := env.Router.StreamChat(c.Context, messages, content)
	if err != nil {
		return common.Fail(env.Logger, "failed to start reply stream", err)
	}
	defer s.Close()

	for {
		chunk, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(os.Stdout)
			return common.Fail(env.Logger, "reply stream failed", err)
		}
		if chunk.Done {
			fmt.Fprintln(os.Stdout)
			return nil
		}
		fmt.Fprint(os.Stdout, chunk.Content)
	}
}
