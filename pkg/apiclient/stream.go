package apiclient

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/dtnitsch/smart-browse/models"
	"github.com/sashabaranov/go-openai"
)

// Stream yields the fragments of a streamed reply. After the final chunk
// (Done set) Recv returns io.EOF. A Stream cannot be restarted.
type Stream struct {
	stream *openai.ChatCompletionStream
	done   bool
}

// Recv blocks for the next non-empty fragment. Frames that are not valid
// JSON are skipped.
func (s *Stream) Recv() (models.StreamChunk, error) {
	if s.done {
		return models.StreamChunk{}, io.EOF
	}
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			return models.StreamChunk{Done: true}, nil
		}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			continue
		}
		if err != nil {
			return models.StreamChunk{}, localError("local stream", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if content := resp.Choices[0].Delta.Content; content != "" {
			return models.StreamChunk{Content: content}, nil
		}
	}
}

func (s *Stream) Close() error {
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
	s.done = true
	return nil
}
