package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtnitsch/smart-browse/models"
)

// ErrEmptyQuestion is returned by Ask for a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// Ask runs one persisted chat turn about content: the question is appended
// to the page's session, the whole history is sent through Chat and the
// reply is appended too. When Chat fails the question stays in the session
// so the turn can be retried.
func (r *Router) Ask(ctx context.Context, content *models.PageContent, question string) (*models.ChatSession, error) {
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	session, err := r.store.GetOrCreateSessionForURL(ctx, content.URL, content.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat session: %w", err)
	}
	if err := r.store.SetCurrentSessionID(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to set current session: %w", err)
	}

	session, err = r.store.AddMessageToSession(ctx, session.ID, models.NewChatMessage(models.RoleUser, question))
	if err != nil {
		return nil, fmt.Errorf("failed to save question: %w", err)
	}

	reply, err := r.Chat(ctx, session.Messages, content)
	if err != nil {
		return session, err
	}

	session, err = r.store.AddMessageToSession(ctx, session.ID, *reply)
	if err != nil {
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}
	return session, nil
}
