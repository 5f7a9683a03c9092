// Package storage is the storage manager: settings and per-URL chat sessions
// kept as whole JSON documents in a key-value store.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dtnitsch/smart-browse/models"
	"github.com/dtnitsch/smart-browse/pkg/store"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Persisted keys.
const (
	KeySettings       = "settings"
	KeyChatSessions   = "chat_sessions"
	KeyCurrentSession = "current_session"
)

// DefaultQuota is the nominal capacity reported by StorageInfo.
const DefaultQuota = 10 * 1024 * 1024

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("chat session not found")

// Manager reads and writes settings and chat sessions. Calls on one Manager
// are serialised; separate processes sharing a store race and the last
// writer wins.
type Manager struct {
	kv       store.KV
	validate *validator.Validate
	now      func() time.Time
	newID    func() string

	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

func NewManager(kv store.KV, opts ...Option) *Manager {
	m := &Manager{
		kv:       kv,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ExportData is the full user state, as written by ExportData.
type ExportData struct {
	Settings models.Settings      `json:"settings" yaml:"settings"`
	Sessions []models.ChatSession `json:"sessions" yaml:"sessions"`
}

// ImportData is a partial user state; nil members are left untouched.
type ImportData struct {
	Settings *models.SettingsPatch `json:"settings,omitempty" yaml:"settings,omitempty"`
	Sessions []models.ChatSession  `json:"sessions,omitempty" yaml:"sessions,omitempty"`
}

// Info reports store usage.
type Info struct {
	BytesUsed int64 `json:"bytesUsed" yaml:"bytes_used"`
	Quota     int64 `json:"quota" yaml:"quota"`
}

func (m *Manager) readJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := m.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Manager) writeJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return m.kv.Set(ctx, key, raw)
}

// GetSettings returns the stored settings merged over the defaults.
func (m *Manager) GetSettings(ctx context.Context) (models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings(ctx)
}

func (m *Manager) settings(ctx context.Context) (models.Settings, error) {
	s := models.DefaultSettings()
	if _, err := m.readJSON(ctx, KeySettings, &s); err != nil {
		return models.DefaultSettings(), err
	}
	return s, nil
}

// UpdateSettings merges patch into the current settings, validates and
// persists the result.
func (m *Manager) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateSettings(ctx, patch)
}

func (m *Manager) updateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	current, err := m.settings(ctx)
	if err != nil {
		return current, err
	}
	updated := patch.Apply(current)
	if err := m.validate.Struct(updated); err != nil {
		return current, fmt.Errorf("invalid settings: %w", err)
	}
	if err := m.writeJSON(ctx, KeySettings, updated); err != nil {
		return current, err
	}
	return updated, nil
}

// SetDefaultSettings overwrites the stored settings with the defaults.
func (m *Manager) SetDefaultSettings(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeJSON(ctx, KeySettings, models.DefaultSettings())
}

// GetChatSessions returns every stored session in list order.
func (m *Manager) GetChatSessions(ctx context.Context) ([]models.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions(ctx)
}

func (m *Manager) sessions(ctx context.Context) ([]models.ChatSession, error) {
	sessions := []models.ChatSession{}
	if _, err := m.readJSON(ctx, KeyChatSessions, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetChatSession returns the session with the given id.
func (m *Manager) GetChatSession(ctx context.Context, id string) (*models.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session(ctx, id)
}

func (m *Manager) session(ctx context.Context, id string) (*models.ChatSession, error) {
	sessions, err := m.sessions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID == id {
			return &sessions[i], nil
		}
	}
	return nil, ErrSessionNotFound
}

// GetOrCreateSessionForURL returns the first session whose page URL equals
// url exactly, creating and persisting a new one when there is none.
func (m *Manager) GetOrCreateSessionForURL(ctx context.Context, url, title string) (*models.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, err := m.sessions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].PageURL == url {
			return &sessions[i], nil
		}
	}

	now := m.now()
	session := &models.ChatSession{
		ID:        m.newID(),
		PageURL:   url,
		PageTitle: title,
		Messages:  []models.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SaveChatSession upserts session by id and refreshes its UpdatedAt. New
// sessions go to the front of the list, existing ones keep their position.
// The list is then capped at maxHistoryLength.
func (m *Manager) SaveChatSession(ctx context.Context, session *models.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveSession(ctx, session)
}

func (m *Manager) saveSession(ctx context.Context, session *models.ChatSession) error {
	sessions, err := m.sessions(ctx)
	if err != nil {
		return err
	}
	settings, err := m.settings(ctx)
	if err != nil {
		return err
	}

	session.UpdatedAt = m.now()
	if session.Messages == nil {
		session.Messages = []models.ChatMessage{}
	}

	found := false
	for i := range sessions {
		if sessions[i].ID == session.ID {
			sessions[i] = *session
			found = true
			break
		}
	}
	if !found {
		sessions = append([]models.ChatSession{*session}, sessions...)
	}

	return m.writeJSON(ctx, KeyChatSessions, capSessions(sessions, settings.MaxHistoryLength))
}

// capSessions drops the least recently updated sessions beyond limit. The
// survivors keep their list order. Equal timestamps favour the earlier entry.
func capSessions(sessions []models.ChatSession, limit int) []models.ChatSession {
	if limit < 1 || len(sessions) <= limit {
		return sessions
	}

	order := make([]int, len(sessions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sessions[order[a]].UpdatedAt.After(sessions[order[b]].UpdatedAt)
	})

	keep := make(map[int]bool, limit)
	for _, i := range order[:limit] {
		keep[i] = true
	}

	kept := make([]models.ChatSession, 0, limit)
	for i, s := range sessions {
		if keep[i] {
			kept = append(kept, s)
		}
	}
	return kept
}

// AddMessageToSession appends msg to the session and saves it.
func (m *Manager) AddMessageToSession(ctx context.Context, sessionID string, msg models.ChatMessage) (*models.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Messages = append(session.Messages, msg)
	if err := m.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteChatSession removes the session if present.
func (m *Manager) DeleteChatSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, err := m.sessions(ctx)
	if err != nil {
		return err
	}
	filtered := sessions[:0]
	for _, s := range sessions {
		if s.ID != id {
			filtered = append(filtered, s)
		}
	}
	return m.writeJSON(ctx, KeyChatSessions, filtered)
}

func (m *Manager) ClearChatSessions(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeJSON(ctx, KeyChatSessions, []models.ChatSession{})
}

// GetCurrentSessionID returns the last active session id, or "".
func (m *Manager) GetCurrentSessionID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var id string
	if _, err := m.readJSON(ctx, KeyCurrentSession, &id); err != nil {
		return "", err
	}
	return id, nil
}

// SetCurrentSessionID records the active session; "" clears it.
func (m *Manager) SetCurrentSessionID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		return m.kv.Delete(ctx, KeyCurrentSession)
	}
	return m.writeJSON(ctx, KeyCurrentSession, id)
}

func (m *Manager) ExportData(ctx context.Context) (*ExportData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	settings, err := m.settings(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := m.sessions(ctx)
	if err != nil {
		return nil, err
	}
	return &ExportData{Settings: settings, Sessions: sessions}, nil
}

// ImportData merges imported settings and replaces the session list. The
// imported sessions are capped to the resulting maxHistoryLength.
func (m *Manager) ImportData(ctx context.Context, data ImportData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if data.Settings != nil {
		if _, err := m.updateSettings(ctx, *data.Settings); err != nil {
			return err
		}
	}
	if data.Sessions != nil {
		settings, err := m.settings(ctx)
		if err != nil {
			return err
		}
		if err := m.writeJSON(ctx, KeyChatSessions, capSessions(data.Sessions, settings.MaxHistoryLength)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) StorageInfo(ctx context.Context) (Info, error) {
	used, err := m.kv.Size(ctx)
	if err != nil {
		return Info{Quota: DefaultQuota}, err
	}
	return Info{BytesUsed: used, Quota: DefaultQuota}, nil
}
