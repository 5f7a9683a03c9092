package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is immutable once created.
type ChatMessage struct {
	ID        string    `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewChatMessage stamps a message with a fresh id and the current time.
func NewChatMessage(role Role, content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// ChatSession is the ordered chat history for one page URL.
type ChatSession struct {
	ID        string        `json:"id" yaml:"id"`
	PageURL   string        `json:"pageUrl" yaml:"page_url"`
	PageTitle string        `json:"pageTitle" yaml:"page_title"`
	Messages  []ChatMessage `json:"messages" yaml:"messages"`
	CreatedAt time.Time     `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" yaml:"updated_at"`
}
