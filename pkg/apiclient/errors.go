package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// StatusError is a transport failure: the request could not be made or the
// server answered with a non-2xx status. StatusCode is 0 when no response
// was received.
type StatusError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s failed: %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s failed: %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
}

func (e *StatusError) Unwrap() error { return e.Err }

// BackendError is a well-formed backend response reporting failure.
type BackendError struct {
	Message string
	Code    string
}

func (e *BackendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

// localError maps go-openai errors onto StatusError so callers see the HTTP
// status the local server returned.
func localError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Op: op, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &StatusError{Op: op, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return &StatusError{Op: op, Err: err}
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
