// Package server is the local messaging surface the browser extension talks
// to. Every request is a typed message; every response is an envelope.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dtnitsch/smart-browse/models"
	"github.com/dtnitsch/smart-browse/pkg/extractor"
	"github.com/dtnitsch/smart-browse/pkg/fetcher"
	"github.com/dtnitsch/smart-browse/pkg/router"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// maxMessageBytes bounds a request body; EXTRACT_CONTENT carries whole pages.
const maxMessageBytes = 20 << 20

// AllowedOrigins are the extension and localhost origins granted CORS.
var AllowedOrigins = []string{
	"chrome-extension://*",
	"moz-extension://*",
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// PageSource fetches a page by URL.
type PageSource interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
}

// Sessions is the part of the storage manager exposed over HTTP.
type Sessions interface {
	GetChatSessions(ctx context.Context) ([]models.ChatSession, error)
	GetChatSession(ctx context.Context, id string) (*models.ChatSession, error)
	DeleteChatSession(ctx context.Context, id string) error
}

type Server struct {
	router    *router.Router
	sessions  Sessions
	pages     PageSource
	extractor *extractor.Extractor
	logger    *slog.Logger
}

func New(r *router.Router, sessions Sessions, pages PageSource, ext *extractor.Extractor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		router:    r,
		sessions:  sessions,
		pages:     pages,
		extractor: ext,
		logger:    logger,
	}
}

// Handler returns the routed handler wrapped in CORS.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/message", s.handleMessage).Methods(http.MethodPost)
	r.HandleFunc("/chat/stream", s.handleStream).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins: AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg models.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&msg); err != nil {
		s.respondError(w, badRequest("INVALID_MESSAGE", fmt.Errorf("failed to decode message: %w", err)))
		return
	}

	data, err := s.dispatch(r.Context(), msg)
	if err != nil {
		s.logger.Error("message failed", "type", msg.Type, "error", err)
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.router.Health(r.Context()))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.GetChatSessions(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.GetChatSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.sessions.DeleteChatSession(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// handleStream relays a streamed chat reply as server-sent events, one
// StreamChunk per event.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		s.respondError(w, badRequest("INVALID_PAYLOAD", fmt.Errorf("failed to decode chat request: %w", err)))
		return
	}
	if req.Context == nil {
		s.respondError(w, badRequest("INVALID_PAYLOAD", errors.New("context is required")))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, errors.New("streaming unsupported"))
		return
	}

	stream, err := s.router.StreamChat(r.Context(), req.Messages, req.Context)
	if err != nil {
		s.logger.Error("stream failed", "url", req.Context.URL, "error", err)
		s.respondError(w, &statusError{status: http.StatusBadGateway, code: "UPSTREAM_FAILED", err: err})
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for {
		chunk, err := stream.Recv()
		if err != nil {
			if !isEOF(err) {
				s.logger.Error("stream failed", "url", req.Context.URL, "error", err)
				writeEvent(w, "error", models.APIError{Message: err.Error(), Code: "STREAM_FAILED"})
				flusher.Flush()
			}
			return
		}
		writeEvent(w, "", chunk)
		flusher.Flush()
		if chunk.Done {
			return
		}
	}
}
