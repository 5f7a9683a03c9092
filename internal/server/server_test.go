package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dtnitsch/smart-browse/models"
	"github.com/dtnitsch/smart-browse/pkg/extractor"
	"github.com/dtnitsch/smart-browse/pkg/fetcher"
	"github.com/dtnitsch/smart-browse/pkg/pagecache"
	"github.com/dtnitsch/smart-browse/pkg/router"
	"github.com/dtnitsch/smart-browse/pkg/storage"
	"github.com/dtnitsch/smart-browse/pkg/store"
)

const productHTML = `<html><head><title>Widget Pro</title>
<meta name="description" content="The best widget">
</head><body>
<div itemscope itemtype="https://schema.org/Product">
<h1 itemprop="name">Widget Pro</h1>
<span itemprop="price" content="19.99">$19.99</span>
</div>
<main><p>A widget for every workshop.</p></main>
</body></html>`

// fakeBackend answers like the remote backend: every response is an envelope.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/summarize", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, `{"success":true,"data":{"summary":"backend summary","keyPoints":["one"]}}`)
	})
	mux.HandleFunc("/api/compare", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, `{"success":false,"error":{"message":"no alternatives","code":"NOT_FOUND"}}`)
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, `{"success":true,"data":{"message":{"id":"m1","role":"assistant","content":"remote reply","timestamp":"2026-01-01T00:00:00Z"}}}`)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeTestJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, body)
}

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	kv, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	manager := storage.NewManager(kv)

	backend := fakeBackend(t)
	useLocal := false
	if _, err := manager.UpdateSettings(ctx, models.SettingsPatch{BackendURL: &backend.URL, UseLocalLLM: &useLocal}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}

	r, err := router.New(ctx, manager, router.DefaultFactory(), logger)
	if err != nil {
		t.Fatalf("router.New() error = %v", err)
	}
	pages := &pagecache.CachedSource{Source: fetcher.NewFetcher(), Logger: logger}
	ext := extractor.New(extractor.WithLanguageDetection(false), extractor.WithLogger(logger))

	srv := httptest.NewServer(New(r, manager, pages, ext, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *models.APIError `json:"error"`
}

func postMessage(t *testing.T, srv *httptest.Server, msgType models.MessageType, payload any) (int, envelope) {
	t.Helper()
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to encode message: %v", err)
	}
	resp, err := http.Post(srv.URL+"/message", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /message error = %v", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, decodeEnvelope(t, resp.Body)
}

func decodeEnvelope(t *testing.T, r io.Reader) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	return env
}

func testContent() models.PageContent {
	return models.PageContent{
		URL:      "https://shop.example.com/product/1",
		Title:    "Widget Pro",
		Text:     "A widget for every workshop.",
		PageType: models.PageTypeProduct,
	}
}

func TestMessageErrors(t *testing.T) {
	srv := setupTestServer(t)

	tests := []struct {
		name     string
		msgType  models.MessageType
		payload  any
		status   int
		code     string
		contains string
	}{
		{"unknown type", "SHUTDOWN", nil, http.StatusBadRequest, "UNKNOWN_MESSAGE", "SHUTDOWN"},
		{"missing payload", models.MsgSummarize, nil, http.StatusBadRequest, "INVALID_PAYLOAD", "requires a payload"},
		{"invalid settings", models.MsgUpdateSettings, map[string]any{"theme": "neon"}, http.StatusBadRequest, "INVALID_SETTINGS", "invalid settings"},
		{"invalid url", models.MsgGetPageContent, map[string]any{"url": "not a url"}, http.StatusBadRequest, "INVALID_URL", "invalid url"},
		{"empty html", models.MsgExtractContent, map[string]any{"url": "https://example.com"}, http.StatusBadRequest, "INVALID_PAYLOAD", "html is required"},
		{"chat without context", models.MsgChat, map[string]any{"question": "hi"}, http.StatusBadRequest, "INVALID_PAYLOAD", "context is required"},
		{"backend failure", models.MsgCompareProduct, map[string]any{"content": testContent()}, http.StatusBadGateway, "UPSTREAM_FAILED", "no alternatives"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := postMessage(t, srv, tt.msgType, tt.payload)
			if status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			if env.Success {
				t.Fatal("Success = true, want false")
			}
			if env.Error == nil {
				t.Fatal("Error = nil")
			}
			if env.Error.Code != tt.code {
				t.Errorf("Code = %q, want %q", env.Error.Code, tt.code)
			}
			if !strings.Contains(env.Error.Message, tt.contains) {
				t.Errorf("Message = %q, want it to contain %q", env.Error.Message, tt.contains)
			}
		})
	}
}

func TestMessageMalformedBody(t *testing.T) {
	srv := setupTestServer(t)

	resp, err := http.Post(srv.URL+"/message", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("POST /message error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if env := decodeEnvelope(t, resp.Body); env.Error == nil || env.Error.Code != "INVALID_MESSAGE" {
		t.Errorf("Error = %+v, want INVALID_MESSAGE", env.Error)
	}
}

func TestMessageSettings(t *testing.T) {
	srv := setupTestServer(t)

	status, env := postMessage(t, srv, models.MsgUpdateSettings, map[string]any{"theme": "dark", "maxHistoryLength": 10})
	if status != http.StatusOK || !env.Success {
		t.Fatalf("UPDATE_SETTINGS status = %d, error = %+v", status, env.Error)
	}

	_, env = postMessage(t, srv, models.MsgGetSettings, nil)
	var settings models.Settings
	if err := json.Unmarshal(env.Data, &settings); err != nil {
		t.Fatalf("failed to decode settings: %v", err)
	}
	if settings.Theme != "dark" {
		t.Errorf("Theme = %q, want dark", settings.Theme)
	}
	if settings.MaxHistoryLength != 10 {
		t.Errorf("MaxHistoryLength = %d, want 10", settings.MaxHistoryLength)
	}
	if settings.UseLocalLLM {
		t.Error("UseLocalLLM = true, want false")
	}
}

func TestMessageSummarize(t *testing.T) {
	srv := setupTestServer(t)

	status, env := postMessage(t, srv, models.MsgSummarize, testContent())
	if status != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", status, env.Error)
	}
	var summary models.SummaryResponse
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if summary.Summary != "backend summary" {
		t.Errorf("Summary = %q, want backend summary", summary.Summary)
	}
	if len(summary.KeyPoints) != 1 {
		t.Errorf("KeyPoints = %v, want one point", summary.KeyPoints)
	}
}

func TestMessageExtractContent(t *testing.T) {
	srv := setupTestServer(t)

	status, env := postMessage(t, srv, models.MsgExtractContent, models.PageRequest{
		URL:  "https://shop.example.com/widget",
		HTML: productHTML,
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", status, env.Error)
	}
	var content models.PageContent
	if err := json.Unmarshal(env.Data, &content); err != nil {
		t.Fatalf("failed to decode content: %v", err)
	}
	if content.PageType != models.PageTypeProduct {
		t.Errorf("PageType = %q, want product", content.PageType)
	}
	if content.Product == nil || content.Product.Price == nil || *content.Product.Price != 19.99 {
		t.Errorf("Product = %+v, want price 19.99", content.Product)
	}
}

func TestMessageGetPageContent(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, productHTML)
	}))
	defer site.Close()
	srv := setupTestServer(t)

	status, env := postMessage(t, srv, models.MsgGetPageContent, models.PageRequest{URL: site.URL + "/widget"})
	if status != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", status, env.Error)
	}
	var content models.PageContent
	if err := json.Unmarshal(env.Data, &content); err != nil {
		t.Fatalf("failed to decode content: %v", err)
	}
	if content.Title != "Widget Pro" {
		t.Errorf("Title = %q, want Widget Pro", content.Title)
	}
	if content.URL != site.URL+"/widget" {
		t.Errorf("URL = %q, want %q", content.URL, site.URL+"/widget")
	}
}

func TestMessageOpenSidePanel(t *testing.T) {
	srv := setupTestServer(t)

	status, env := postMessage(t, srv, models.MsgOpenSidePanel, nil)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, success = %v", status, env.Success)
	}
}

func TestChatSessionsLifecycle(t *testing.T) {
	srv := setupTestServer(t)
	content := testContent()

	status, env := postMessage(t, srv, models.MsgChat, models.ChatRequest{Context: &content, Question: "Is it durable?"})
	if status != http.StatusOK {
		t.Fatalf("CHAT status = %d, error = %+v", status, env.Error)
	}
	var session models.ChatSession
	if err := json.Unmarshal(env.Data, &session); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	if len(session.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(session.Messages))
	}
	if session.Messages[1].Content != "remote reply" {
		t.Errorf("reply = %q, want remote reply", session.Messages[1].Content)
	}

	resp, err := http.Get(srv.URL + "/sessions")
	if err != nil {
		t.Fatalf("GET /sessions error = %v", err)
	}
	var sessions []models.ChatSession
	if err := json.Unmarshal(decodeEnvelope(t, resp.Body).Data, &sessions); err != nil {
		t.Fatalf("failed to decode sessions: %v", err)
	}
	resp.Body.Close()
	if len(sessions) != 1 || sessions[0].ID != session.ID {
		t.Fatalf("sessions = %+v, want the one session", sessions)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/"+session.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("DELETE status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/sessions/" + session.ID)
	if err != nil {
		t.Fatalf("GET session error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET deleted session status = %d, want 404", resp.StatusCode)
	}
	if env := decodeEnvelope(t, resp.Body); env.Error == nil || env.Error.Code != "SESSION_NOT_FOUND" {
		t.Errorf("Error = %+v, want SESSION_NOT_FOUND", env.Error)
	}
}

func TestStatelessChat(t *testing.T) {
	srv := setupTestServer(t)
	content := testContent()

	messages := []models.ChatMessage{models.NewChatMessage(models.RoleUser, "hello")}
	status, env := postMessage(t, srv, models.MsgChat, models.ChatRequest{Context: &content, Messages: messages})
	if status != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", status, env.Error)
	}
	var reply models.ChatMessage
	if err := json.Unmarshal(env.Data, &reply); err != nil {
		t.Fatalf("failed to decode reply: %v", err)
	}
	if reply.Role != models.RoleAssistant || reply.Content != "remote reply" {
		t.Errorf("reply = %+v", reply)
	}

	resp, err := http.Get(srv.URL + "/sessions")
	if err != nil {
		t.Fatalf("GET /sessions error = %v", err)
	}
	defer resp.Body.Close()
	var sessions []models.ChatSession
	if err := json.Unmarshal(decodeEnvelope(t, resp.Body).Data, &sessions); err != nil {
		t.Fatalf("failed to decode sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("len(sessions) = %d, want 0 for a stateless chat", len(sessions))
	}
}

func TestChatStream(t *testing.T) {
	srv := setupTestServer(t)
	content := testContent()

	body, _ := json.Marshal(models.ChatRequest{
		Context:  &content,
		Messages: []models.ChatMessage{models.NewChatMessage(models.RoleUser, "hello")},
	})
	resp, err := http.Post(srv.URL+"/chat/stream", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /chat/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	raw, _ := io.ReadAll(resp.Body)
	want := "data: {\"content\":\"remote reply\",\"done\":false}\n\ndata: {\"content\":\"\",\"done\":true}\n\n"
	if string(raw) != want {
		t.Errorf("stream = %q, want %q", raw, want)
	}
}

func TestChatStreamBackendDown(t *testing.T) {
	srv := setupTestServer(t)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	if status, env := postMessage(t, srv, models.MsgUpdateSettings, map[string]any{"backendUrl": down.URL}); status != http.StatusOK {
		t.Fatalf("UPDATE_SETTINGS status = %d, error = %+v", status, env.Error)
	}

	content := testContent()
	body, _ := json.Marshal(models.ChatRequest{
		Context:  &content,
		Messages: []models.ChatMessage{models.NewChatMessage(models.RoleUser, "hello")},
	})
	resp, err := http.Post(srv.URL+"/chat/stream", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /chat/stream error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadGateway)
	}
	env := decodeEnvelope(t, resp.Body)
	if env.Success || env.Error == nil || env.Error.Code != "UPSTREAM_FAILED" {
		t.Errorf("envelope = %+v, want UPSTREAM_FAILED error", env)
	}
}

func TestHealth(t *testing.T) {
	srv := setupTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	defer resp.Body.Close()

	var health router.HealthStatus
	if err := json.Unmarshal(decodeEnvelope(t, resp.Body).Data, &health); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	if !health.Backend {
		t.Error("Backend = false, want true")
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := setupTestServer(t)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"chrome-extension://abcdef", true},
		{"moz-extension://1234", true},
		{"http://localhost:3000", true},
		{"https://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/message", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("OPTIONS error = %v", err)
			}
			resp.Body.Close()

			got := resp.Header.Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.origin)
			}
			if !tt.allowed && got != "" {
				t.Errorf("Allow-Origin = %q, want none", got)
			}
		})
	}
}
