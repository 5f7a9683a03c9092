package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dtnitsch/smart-browse/internal/common"
	"github.com/dtnitsch/smart-browse/models"
)

// dispatch routes one message to its handler and returns the envelope data.
func (s *Server) dispatch(ctx context.Context, msg models.Message) (any, error) {
	switch msg.Type {
	case models.MsgGetPageContent:
		var req models.PageRequest
		if err := decodePayload(msg, &req); err != nil {
			return nil, err
		}
		return s.pageContent(ctx, req.URL)

	case models.MsgExtractContent:
		var req models.PageRequest
		if err := decodePayload(msg, &req); err != nil {
			return nil, err
		}
		if strings.TrimSpace(req.HTML) == "" {
			return nil, badRequest("INVALID_PAYLOAD", errors.New("html is required"))
		}
		content, err := s.extractor.FromHTML(req.HTML, req.URL)
		if err != nil {
			return nil, badRequest("INVALID_PAYLOAD", err)
		}
		return content, nil

	case models.MsgSummarize:
		var content models.PageContent
		if err := decodePayload(msg, &content); err != nil {
			return nil, err
		}
		return upstream(s.router.Summarize(ctx, &content))

	case models.MsgCompareProduct:
		var req models.CompareRequest
		if err := decodePayload(msg, &req); err != nil {
			return nil, err
		}
		if req.Content == nil {
			return nil, badRequest("INVALID_PAYLOAD", errors.New("content is required"))
		}
		url := req.URL
		if url == "" {
			url = req.Content.URL
		}
		return upstream(s.router.Compare(ctx, url, req.Content))

	case models.MsgChat:
		var req models.ChatRequest
		if err := decodePayload(msg, &req); err != nil {
			return nil, err
		}
		if req.Context == nil {
			return nil, badRequest("INVALID_PAYLOAD", errors.New("context is required"))
		}
		if req.Question != "" {
			return upstream(s.router.Ask(ctx, req.Context, req.Question))
		}
		return upstream(s.router.Chat(ctx, req.Messages, req.Context))

	case models.MsgGetSettings:
		return s.router.GetSettings(ctx)

	case models.MsgUpdateSettings:
		var patch models.SettingsPatch
		if err := decodePayload(msg, &patch); err != nil {
			return nil, err
		}
		settings, err := s.router.UpdateSettings(ctx, patch)
		if err != nil {
			return nil, badRequest("INVALID_SETTINGS", err)
		}
		return settings, nil

	case models.MsgOpenSidePanel:
		return map[string]bool{"acknowledged": true}, nil
	}

	return nil, badRequest("UNKNOWN_MESSAGE", fmt.Errorf("unknown message type %q", msg.Type))
}

// pageContent fetches url (through the page cache when configured) and
// extracts it.
func (s *Server) pageContent(ctx context.Context, rawURL string) (*models.PageContent, error) {
	sanitized, invalid := common.SanitizeAndValidateURLs([]string{rawURL})
	if len(invalid) > 0 || len(sanitized) == 0 {
		return nil, badRequest("INVALID_URL", fmt.Errorf("invalid url %q", rawURL))
	}

	page, err := s.pages.Fetch(ctx, sanitized[0])
	if err != nil {
		return nil, &statusError{status: http.StatusBadGateway, code: "FETCH_FAILED", err: err}
	}
	content, err := s.extractor.FromHTML(string(page.HTML), page.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", page.URL, err)
	}
	return content, nil
}

func decodePayload(msg models.Message, v any) error {
	if len(msg.Payload) == 0 {
		return badRequest("INVALID_PAYLOAD", fmt.Errorf("%s requires a payload", msg.Type))
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return badRequest("INVALID_PAYLOAD", fmt.Errorf("failed to decode %s payload: %w", msg.Type, err))
	}
	return nil
}

// upstream marks model and backend failures so they map to 502. The session
// returned alongside a failed Ask is dropped; the question is already saved.
func upstream[T any](v T, err error) (any, error) {
	if err != nil {
		return nil, &statusError{status: http.StatusBadGateway, code: "UPSTREAM_FAILED", err: err}
	}
	return v, nil
}
