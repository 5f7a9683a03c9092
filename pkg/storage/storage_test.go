package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dtnitsch/smart-browse/models"
	"github.com/dtnitsch/smart-browse/pkg/store"
)

// setupTestManager returns a Manager over an in-memory SQLite store with a
// clock that advances one second per call and sequential ids.
func setupTestManager(t *testing.T) (*Manager, store.KV) {
	t.Helper()

	kv, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	ids := 0
	m := NewManager(kv,
		WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
		WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("session-%d", ids)
		}),
	)
	return m, kv
}

func ptr[T any](v T) *T { return &v }

func TestGetSettingsDefaults(t *testing.T) {
	m, _ := setupTestManager(t)
	got, err := m.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got != models.DefaultSettings() {
		t.Errorf("GetSettings() = %+v, want defaults", got)
	}
}

func TestGetSettingsMergesStoredFields(t *testing.T) {
	m, kv := setupTestManager(t)
	ctx := context.Background()

	if err := kv.Set(ctx, KeySettings, []byte(`{"theme":"dark","localLLMThreshold":1000}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := m.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got.Theme != "dark" || got.LocalLLMThreshold != 1000 {
		t.Errorf("stored fields not applied: %+v", got)
	}
	if got.BackendURL != "http://localhost:8000" || got.MaxHistoryLength != 50 {
		t.Errorf("defaults not merged: %+v", got)
	}
}

func TestUpdateSettings(t *testing.T) {
	tests := []struct {
		name    string
		patch   models.SettingsPatch
		check   func(models.Settings) bool
		wantErr bool
	}{
		{
			name:  "theme",
			patch: models.SettingsPatch{Theme: ptr("dark")},
			check: func(s models.Settings) bool { return s.Theme == "dark" && s.UseLocalLLM },
		},
		{
			name:  "disable local",
			patch: models.SettingsPatch{UseLocalLLM: ptr(false)},
			check: func(s models.Settings) bool { return !s.UseLocalLLM },
		},
		{
			name:    "invalid theme",
			patch:   models.SettingsPatch{Theme: ptr("neon")},
			wantErr: true,
		},
		{
			name:    "invalid backend url",
			patch:   models.SettingsPatch{BackendURL: ptr("not a url")},
			wantErr: true,
		},
		{
			name:    "zero history length",
			patch:   models.SettingsPatch{MaxHistoryLength: ptr(0)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := setupTestManager(t)
			ctx := context.Background()

			got, err := m.UpdateSettings(ctx, tt.patch)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UpdateSettings() error = %v, wantErr %v", err, tt.wantErr)
			}

			stored, err := m.GetSettings(ctx)
			if err != nil {
				t.Fatalf("GetSettings() error = %v", err)
			}
			if tt.wantErr {
				if stored != models.DefaultSettings() {
					t.Errorf("invalid update was persisted: %+v", stored)
				}
				return
			}
			if !tt.check(got) || !tt.check(stored) {
				t.Errorf("UpdateSettings() = %+v, stored %+v", got, stored)
			}
		})
	}
}

func TestSetDefaultSettings(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	if _, err := m.UpdateSettings(ctx, models.SettingsPatch{Theme: ptr("light")}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if err := m.SetDefaultSettings(ctx); err != nil {
		t.Fatalf("SetDefaultSettings() error = %v", err)
	}
	got, _ := m.GetSettings(ctx)
	if got != models.DefaultSettings() {
		t.Errorf("GetSettings() = %+v, want defaults", got)
	}
}

func TestGetOrCreateSessionForURL(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	first, err := m.GetOrCreateSessionForURL(ctx, "https://example.com/a", "A")
	if err != nil {
		t.Fatalf("GetOrCreateSessionForURL() error = %v", err)
	}
	second, err := m.GetOrCreateSessionForURL(ctx, "https://example.com/a", "A again")
	if err != nil {
		t.Fatalf("GetOrCreateSessionForURL() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("same URL returned ids %q and %q", first.ID, second.ID)
	}
	if second.PageTitle != "A" {
		t.Errorf("PageTitle = %q, want original title", second.PageTitle)
	}

	// no normalization: a trailing slash is a different page
	other, err := m.GetOrCreateSessionForURL(ctx, "https://example.com/a/", "A slash")
	if err != nil {
		t.Fatalf("GetOrCreateSessionForURL() error = %v", err)
	}
	if other.ID == first.ID {
		t.Error("different URL returned the same session")
	}

	sessions, _ := m.GetChatSessions(ctx)
	if len(sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(sessions))
	}
	if sessions[0].ID != other.ID {
		t.Errorf("newest session not at front: %q", sessions[0].ID)
	}
}

func TestAddMessageToSession(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	session, err := m.GetOrCreateSessionForURL(ctx, "https://example.com/a", "A")
	if err != nil {
		t.Fatalf("GetOrCreateSessionForURL() error = %v", err)
	}

	const n = 5
	for i := 0; i < n; i++ {
		msg := models.ChatMessage{ID: fmt.Sprintf("m%d", i), Role: models.RoleUser, Content: fmt.Sprintf("message %d", i)}
		if _, err := m.AddMessageToSession(ctx, session.ID, msg); err != nil {
			t.Fatalf("AddMessageToSession() error = %v", err)
		}
	}

	got, err := m.GetChatSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetChatSession() error = %v", err)
	}
	if len(got.Messages) != n {
		t.Fatalf("len(Messages) = %d, want %d", len(got.Messages), n)
	}
	for i, msg := range got.Messages {
		if msg.ID != fmt.Sprintf("m%d", i) {
			t.Errorf("Messages[%d].ID = %q, want m%d", i, msg.ID, i)
		}
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("UpdatedAt %v not after CreatedAt %v", got.UpdatedAt, got.CreatedAt)
	}

	if _, err := m.AddMessageToSession(ctx, "missing", models.ChatMessage{}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("AddMessageToSession() on unknown id error = %v, want ErrSessionNotFound", err)
	}
}

func TestSaveChatSessionKeepsPosition(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	a, _ := m.GetOrCreateSessionForURL(ctx, "https://example.com/a", "A")
	b, _ := m.GetOrCreateSessionForURL(ctx, "https://example.com/b", "B")

	if _, err := m.AddMessageToSession(ctx, a.ID, models.NewChatMessage(models.RoleUser, "hi")); err != nil {
		t.Fatalf("AddMessageToSession() error = %v", err)
	}

	sessions, _ := m.GetChatSessions(ctx)
	if len(sessions) != 2 || sessions[0].ID != b.ID || sessions[1].ID != a.ID {
		t.Errorf("order changed on update: %v", sessionIDs(sessions))
	}
}

func TestSessionRetentionCap(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	if _, err := m.UpdateSettings(ctx, models.SettingsPatch{MaxHistoryLength: ptr(3)}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}

	var created []*models.ChatSession
	for i := 0; i < 3; i++ {
		s, err := m.GetOrCreateSessionForURL(ctx, fmt.Sprintf("https://example.com/%d", i), "")
		if err != nil {
			t.Fatalf("GetOrCreateSessionForURL() error = %v", err)
		}
		created = append(created, s)
	}

	// touch the oldest so the middle one becomes least recently updated
	if _, err := m.AddMessageToSession(ctx, created[0].ID, models.NewChatMessage(models.RoleUser, "still here")); err != nil {
		t.Fatalf("AddMessageToSession() error = %v", err)
	}

	if _, err := m.GetOrCreateSessionForURL(ctx, "https://example.com/new", ""); err != nil {
		t.Fatalf("GetOrCreateSessionForURL() error = %v", err)
	}

	sessions, _ := m.GetChatSessions(ctx)
	want := []string{"session-4", "session-3", "session-1"}
	got := sessionIDs(sessions)
	if len(got) != len(want) {
		t.Fatalf("sessions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sessions = %v, want %v", got, want)
			break
		}
	}
}

func TestCapSessions(t *testing.T) {
	at := func(sec int) time.Time { return time.Unix(int64(sec), 0) }
	sessions := []models.ChatSession{
		{ID: "a", UpdatedAt: at(5)},
		{ID: "b", UpdatedAt: at(1)},
		{ID: "c", UpdatedAt: at(3)},
		{ID: "d", UpdatedAt: at(3)},
	}

	tests := []struct {
		limit int
		want  []string
	}{
		{limit: 10, want: []string{"a", "b", "c", "d"}},
		{limit: 3, want: []string{"a", "c", "d"}},
		{limit: 2, want: []string{"a", "c"}},
		{limit: 1, want: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.limit), func(t *testing.T) {
			got := sessionIDs(capSessions(append([]models.ChatSession(nil), sessions...), tt.limit))
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("capSessions(limit=%d) = %v, want %v", tt.limit, got, tt.want)
			}
		})
	}
}

func TestDeleteAndClearSessions(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	a, _ := m.GetOrCreateSessionForURL(ctx, "https://example.com/a", "A")
	b, _ := m.GetOrCreateSessionForURL(ctx, "https://example.com/b", "B")

	if err := m.DeleteChatSession(ctx, a.ID); err != nil {
		t.Fatalf("DeleteChatSession() error = %v", err)
	}
	if _, err := m.GetChatSession(ctx, a.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetChatSession() after delete error = %v", err)
	}
	if _, err := m.GetChatSession(ctx, b.ID); err != nil {
		t.Errorf("GetChatSession() of kept session error = %v", err)
	}

	if err := m.ClearChatSessions(ctx); err != nil {
		t.Fatalf("ClearChatSessions() error = %v", err)
	}
	sessions, _ := m.GetChatSessions(ctx)
	if len(sessions) != 0 {
		t.Errorf("sessions after clear = %v", sessionIDs(sessions))
	}
}

func TestCurrentSessionID(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	if id, err := m.GetCurrentSessionID(ctx); err != nil || id != "" {
		t.Fatalf("GetCurrentSessionID() = (%q, %v), want empty", id, err)
	}
	if err := m.SetCurrentSessionID(ctx, "abc"); err != nil {
		t.Fatalf("SetCurrentSessionID() error = %v", err)
	}
	if id, _ := m.GetCurrentSessionID(ctx); id != "abc" {
		t.Errorf("GetCurrentSessionID() = %q, want abc", id)
	}
	if err := m.SetCurrentSessionID(ctx, ""); err != nil {
		t.Fatalf("SetCurrentSessionID(\"\") error = %v", err)
	}
	if id, _ := m.GetCurrentSessionID(ctx); id != "" {
		t.Errorf("GetCurrentSessionID() after clear = %q", id)
	}
}

func TestExportImport(t *testing.T) {
	src, _ := setupTestManager(t)
	ctx := context.Background()

	if _, err := src.UpdateSettings(ctx, models.SettingsPatch{Theme: ptr("dark")}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	s, _ := src.GetOrCreateSessionForURL(ctx, "https://example.com/a", "A")
	if _, err := src.AddMessageToSession(ctx, s.ID, models.NewChatMessage(models.RoleUser, "hello")); err != nil {
		t.Fatalf("AddMessageToSession() error = %v", err)
	}

	data, err := src.ExportData(ctx)
	if err != nil {
		t.Fatalf("ExportData() error = %v", err)
	}

	dst, _ := setupTestManager(t)
	patch := models.SettingsPatch{Theme: &data.Settings.Theme}
	if err := dst.ImportData(ctx, ImportData{Settings: &patch, Sessions: data.Sessions}); err != nil {
		t.Fatalf("ImportData() error = %v", err)
	}

	settings, _ := dst.GetSettings(ctx)
	if settings.Theme != "dark" {
		t.Errorf("imported Theme = %q", settings.Theme)
	}
	got, err := dst.GetChatSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetChatSession() error = %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "hello" {
		t.Errorf("imported messages = %+v", got.Messages)
	}
}

func TestImportCapsSessions(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	at := func(sec int) time.Time { return time.Unix(int64(sec), 0) }
	sessions := []models.ChatSession{
		{ID: "a", PageURL: "https://example.com/a", UpdatedAt: at(1)},
		{ID: "b", PageURL: "https://example.com/b", UpdatedAt: at(4)},
		{ID: "c", PageURL: "https://example.com/c", UpdatedAt: at(2)},
		{ID: "d", PageURL: "https://example.com/d", UpdatedAt: at(3)},
	}

	if err := m.ImportData(ctx, ImportData{Settings: &models.SettingsPatch{MaxHistoryLength: ptr(2)}, Sessions: sessions}); err != nil {
		t.Fatalf("ImportData() error = %v", err)
	}

	got, _ := m.GetChatSessions(ctx)
	if want := []string{"b", "d"}; fmt.Sprint(sessionIDs(got)) != fmt.Sprint(want) {
		t.Errorf("sessions after import = %v, want %v", sessionIDs(got), want)
	}
}

func TestStorageInfo(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	before, err := m.StorageInfo(ctx)
	if err != nil {
		t.Fatalf("StorageInfo() error = %v", err)
	}
	if before.Quota != DefaultQuota {
		t.Errorf("Quota = %d", before.Quota)
	}
	if _, err := m.GetOrCreateSessionForURL(ctx, "https://example.com/a", "A"); err != nil {
		t.Fatalf("GetOrCreateSessionForURL() error = %v", err)
	}
	after, _ := m.StorageInfo(ctx)
	if after.BytesUsed <= before.BytesUsed {
		t.Errorf("BytesUsed did not grow: %d -> %d", before.BytesUsed, after.BytesUsed)
	}
}

func sessionIDs(sessions []models.ChatSession) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}
