package apiclient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dtnitsch/smart-browse/models"
	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
)

const (
	defaultTemperature = 0.7
	summaryMaxTokens   = 1000
	chatMaxTokens      = 2000
)

// Local talks to an OpenAI-compatible server such as LM Studio.
type Local struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

// NewLocal builds a client for the server at baseURL (without /v1).
func NewLocal(baseURL, model string, opts ...Option) *Local {
	o := collectOptions(opts)
	cfg := openai.DefaultConfig("")
	cfg.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"
	if o.httpClient != nil {
		cfg.HTTPClient = o.httpClient
	}
	return &Local{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		now:    o.now,
	}
}

func (l *Local) complete(ctx context.Context, op string, messages []openai.ChatCompletionMessage, maxTokens int) (string, error) {
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       l.model,
		Messages:    messages,
		Temperature: defaultTemperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", localError(op, err)
	}
	if len(resp.Choices) == 0 {
		return "", &StatusError{Op: op, Err: errors.New("no choices in response")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Summarize asks the local model for a JSON summary. An unparseable reply
// still succeeds with the raw text as the summary.
func (l *Local) Summarize(ctx context.Context, content *models.PageContent) (*models.SummaryResponse, error) {
	reply, err := l.complete(ctx, "local summarize", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: buildSummaryPrompt(content)},
	}, summaryMaxTokens)
	if err != nil {
		return nil, err
	}
	return parseSummaryResponse(reply), nil
}

func chatMessages(messages []models.ChatMessage, content *models.PageContent) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	out = append(out, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: buildChatSystemPrompt(content),
	})
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// Chat returns the assistant's reply to the conversation about content.
func (l *Local) Chat(ctx context.Context, messages []models.ChatMessage, content *models.PageContent) (*models.ChatMessage, error) {
	reply, err := l.complete(ctx, "local chat", chatMessages(messages, content), chatMaxTokens)
	if err != nil {
		return nil, err
	}
	return &models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: l.now(),
	}, nil
}

// StreamChat starts a streamed chat completion. The caller must Close the
// stream; stopping early is allowed.
func (l *Local) StreamChat(ctx context.Context, messages []models.ChatMessage, content *models.PageContent) (*Stream, error) {
	s, err := l.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       l.model,
		Messages:    chatMessages(messages, content),
		Temperature: defaultTemperature,
		MaxTokens:   chatMaxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, localError("local stream", err)
	}
	return &Stream{stream: s}, nil
}

// Health lists the server's models within the health timeout.
func (l *Local) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()
	_, err := l.client.ListModels(ctx)
	return err == nil
}
