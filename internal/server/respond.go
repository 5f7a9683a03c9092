package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dtnitsch/smart-browse/models"
	"github.com/dtnitsch/smart-browse/pkg/storage"
)

// statusError carries the HTTP status and error code a failure maps to.
type statusError struct {
	status int
	code   string
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func badRequest(code string, err error) error {
	return &statusError{status: http.StatusBadRequest, code: code, err: err}
}

// respondJSON sends a successful envelope.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(models.Envelope[any]{Success: true, Data: &data}); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondError sends a failure envelope with the status mapped from err.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	var se *statusError
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
		status, code = http.StatusNotFound, "SESSION_NOT_FOUND"
	case errors.As(err, &se):
		status, code = se.status, se.code
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := models.Envelope[any]{
		Success: false,
		Error:   &models.APIError{Message: err.Error(), Code: code},
	}
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		s.logger.Error("failed to encode error response", "error", encErr)
	}
}

// writeEvent writes one server-sent event; an empty name is the default
// "message" event.
func writeEvent(w io.Writer, name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if name != "" {
		fmt.Fprintf(w, "event: %s\n", name)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
