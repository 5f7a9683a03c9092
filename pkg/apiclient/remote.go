package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dtnitsch/smart-browse/models"
)

// Remote talks to the smart-browse backend. Every response is an
// Envelope; success=false or a missing data member is a BackendError.
type Remote struct {
	baseURL string
	http    *http.Client
}

func NewRemote(baseURL string, opts ...Option) *Remote {
	o := collectOptions(opts)
	client := o.httpClient
	if client == nil {
		client = &http.Client{}
	}
	return &Remote{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

// post sends body to path and decodes the envelope's data into T.
func post[T any](ctx context.Context, r *Remote, op, path, fallback string, body any) (*T, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, &StatusError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	var env models.Envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	if !env.Success || env.Data == nil {
		be := &BackendError{Message: fallback}
		if env.Error != nil {
			if env.Error.Message != "" {
				be.Message = env.Error.Message
			}
			be.Code = env.Error.Code
		}
		return nil, be
	}
	return env.Data, nil
}

func (r *Remote) Summarize(ctx context.Context, content *models.PageContent) (*models.SummaryResponse, error) {
	return post[models.SummaryResponse](ctx, r, "backend summarize", "/api/summarize", "Summarization failed",
		models.SummarizeRequest{Content: content})
}

func (r *Remote) Compare(ctx context.Context, url string, content *models.PageContent) (*models.ComparisonResponse, error) {
	return post[models.ComparisonResponse](ctx, r, "backend compare", "/api/compare", "Comparison failed",
		models.CompareRequest{URL: url, Content: content})
}

func (r *Remote) Chat(ctx context.Context, messages []models.ChatMessage, content *models.PageContent) (*models.ChatMessage, error) {
	reply, err := post[models.ChatReply](ctx, r, "backend chat", "/api/chat", "Chat failed",
		models.ChatRequest{Messages: messages, Context: content})
	if err != nil {
		return nil, err
	}
	return &reply.Message, nil
}

// Health reports whether GET /health answers 2xx within the health timeout.
func (r *Remote) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return isSuccess(resp.StatusCode)
}
