// Package router decides per request whether the local model or the remote
// backend serves it. Local is tried first only when enabled and the page
// text is shorter than the configured threshold; a local failure is logged
// and followed by exactly one remote call.
package router

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dtnitsch/smart-browse/models"
	"github.com/dtnitsch/smart-browse/pkg/apiclient"
)

// LocalModel is the local OpenAI-compatible endpoint.
type LocalModel interface {
	Summarize(ctx context.Context, content *models.PageContent) (*models.SummaryResponse, error)
	Chat(ctx context.Context, messages []models.ChatMessage, content *models.PageContent) (*models.ChatMessage, error)
	StreamChat(ctx context.Context, messages []models.ChatMessage, content *models.PageContent) (*apiclient.Stream, error)
	Health(ctx context.Context) bool
}

// Backend is the remote smart-browse backend.
type Backend interface {
	Summarize(ctx context.Context, content *models.PageContent) (*models.SummaryResponse, error)
	Compare(ctx context.Context, url string, content *models.PageContent) (*models.ComparisonResponse, error)
	Chat(ctx context.Context, messages []models.ChatMessage, content *models.PageContent) (*models.ChatMessage, error)
	Health(ctx context.Context) bool
}

// Store is the part of the storage manager the router uses.
type Store interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error)
	GetOrCreateSessionForURL(ctx context.Context, url, title string) (*models.ChatSession, error)
	AddMessageToSession(ctx context.Context, sessionID string, msg models.ChatMessage) (*models.ChatSession, error)
	SetCurrentSessionID(ctx context.Context, id string) error
}

// ClientFactory builds the two endpoints from a settings snapshot.
type ClientFactory func(models.Settings) (LocalModel, Backend)

// DefaultFactory builds apiclient clients with opts.
func DefaultFactory(opts ...apiclient.Option) ClientFactory {
	return func(s models.Settings) (LocalModel, Backend) {
		c := apiclient.New(s, opts...)
		return c.Local, c.Remote
	}
}

type Router struct {
	store   Store
	factory ClientFactory
	logger  *slog.Logger

	mu     sync.RWMutex
	local  LocalModel
	remote Backend
}

// New reads the current settings and builds the clients from them.
func New(ctx context.Context, store Store, factory ClientFactory, logger *slog.Logger) (*Router, error) {
	if logger == nil {
		logger = slog.Default()
	}
	settings, err := store.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	r := &Router{store: store, factory: factory, logger: logger}
	r.local, r.remote = factory(settings)
	return r, nil
}

func (r *Router) clients() (LocalModel, Backend) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.local, r.remote
}

// preferLocal is the routing rule: local enabled and text length strictly
// below the threshold, both in characters.
func preferLocal(s models.Settings, content *models.PageContent) bool {
	return s.UseLocalLLM && content.TextLength() < s.LocalLLMThreshold
}

func (r *Router) useLocal(ctx context.Context, content *models.PageContent) (bool, error) {
	settings, err := r.store.GetSettings(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load settings: %w", err)
	}
	return preferLocal(settings, content), nil
}

func (r *Router) Summarize(ctx context.Context, content *models.PageContent) (*models.SummaryResponse, error) {
	local, remote := r.clients()
	tryLocal, err := r.useLocal(ctx, content)
	if err != nil {
		return nil, err
	}
	if tryLocal {
		resp, err := local.Summarize(ctx, content)
		if err == nil {
			return resp, nil
		}
		r.logger.Warn("local model failed, falling back to backend", "op", "summarize", "url", content.URL, "error", err)
	}
	return remote.Summarize(ctx, content)
}

func (r *Router) Chat(ctx context.Context, messages []models.ChatMessage, content *models.PageContent) (*models.ChatMessage, error) {
	local, remote := r.clients()
	tryLocal, err := r.useLocal(ctx, content)
	if err != nil {
		return nil, err
	}
	if tryLocal {
		reply, err := local.Chat(ctx, messages, content)
		if err == nil {
			return reply, nil
		}
		r.logger.Warn("local model failed, falling back to backend", "op", "chat", "url", content.URL, "error", err)
	}
	return remote.Chat(ctx, messages, content)
}

// Compare always goes to the backend; there is no local comparison.
func (r *Router) Compare(ctx context.Context, url string, content *models.PageContent) (*models.ComparisonResponse, error) {
	_, remote := r.clients()
	return remote.Compare(ctx, url, content)
}

// ChunkStream is a streamed chat reply.
type ChunkStream interface {
	Recv() (models.StreamChunk, error)
	Close() error
}

// StreamChat streams from the local model when the routing rule allows it.
// Otherwise, or when the local stream cannot be opened, the backend reply
// is delivered as a single chunk.
func (r *Router) StreamChat(ctx context.Context, messages []models.ChatMessage, content *models.PageContent) (ChunkStream, error) {
	local, remote := r.clients()
	tryLocal, err := r.useLocal(ctx, content)
	if err != nil {
		return nil, err
	}
	if tryLocal {
		stream, err := local.StreamChat(ctx, messages, content)
		if err == nil {
			return stream, nil
		}
		r.logger.Warn("local model failed, falling back to backend", "op", "stream", "url", content.URL, "error", err)
	}
	reply, err := remote.Chat(ctx, messages, content)
	if err != nil {
		return nil, err
	}
	return &replyStream{content: reply.Content}, nil
}

// replyStream replays one complete reply as a content chunk and a done chunk.
type replyStream struct {
	content string
	sent    int
}

func (s *replyStream) Recv() (models.StreamChunk, error) {
	defer func() { s.sent++ }()
	switch s.sent {
	case 0:
		return models.StreamChunk{Content: s.content}, nil
	case 1:
		return models.StreamChunk{Done: true}, nil
	}
	return models.StreamChunk{}, io.EOF
}

func (s *replyStream) Close() error {
	s.sent = 2
	return nil
}

// UpdateSettings persists patch and rebuilds both clients from the result.
func (r *Router) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	settings, err := r.store.UpdateSettings(ctx, patch)
	if err != nil {
		return settings, err
	}
	local, remote := r.factory(settings)

	r.mu.Lock()
	r.local, r.remote = local, remote
	r.mu.Unlock()

	r.logger.Debug("settings updated", "backend_url", settings.BackendURL, "local_llm_url", settings.LocalLLMURL)
	return settings, nil
}

func (r *Router) GetSettings(ctx context.Context) (models.Settings, error) {
	return r.store.GetSettings(ctx)
}

// HealthStatus reports reachability of both endpoints.
type HealthStatus struct {
	Local   bool `json:"local" yaml:"local"`
	Backend bool `json:"backend" yaml:"backend"`
}

func (r *Router) Health(ctx context.Context) HealthStatus {
	local, remote := r.clients()
	return HealthStatus{
		Local:   local.Health(ctx),
		Backend: remote.Health(ctx),
	}
}
