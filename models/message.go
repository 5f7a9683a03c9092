package models

import "encoding/json"

// MessageType names a request on the messaging surface.
type MessageType string

const (
	MsgGetPageContent MessageType = "GET_PAGE_CONTENT"
	MsgExtractContent MessageType = "EXTRACT_CONTENT"
	MsgSummarize      MessageType = "SUMMARIZE"
	MsgCompareProduct MessageType = "COMPARE_PRODUCT"
	MsgChat           MessageType = "CHAT"
	MsgGetSettings    MessageType = "GET_SETTINGS"
	MsgUpdateSettings MessageType = "UPDATE_SETTINGS"
	MsgOpenSidePanel  MessageType = "OPEN_SIDE_PANEL"
)

// Message is one request on the messaging surface. Payload is decoded
// according to Type by the dispatcher.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PageRequest is the payload of GET_PAGE_CONTENT and EXTRACT_CONTENT.
type PageRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html,omitempty"`
}

// CompareRequest is the payload of COMPARE_PRODUCT and the body of
// POST /api/compare on the remote backend.
type CompareRequest struct {
	URL     string       `json:"url"`
	Content *PageContent `json:"content"`
}

// ChatRequest is the payload of CHAT and the body of POST /api/chat. When
// Question is set the turn is persisted in the page's chat session.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages,omitempty"`
	Context  *PageContent  `json:"context"`
	Question string        `json:"question,omitempty"`
}

// ChatReply is the data member of a POST /api/chat response.
type ChatReply struct {
	Message ChatMessage `json:"message"`
}

// SummarizeRequest is the body of POST /api/summarize.
type SummarizeRequest struct {
	Content *PageContent `json:"content"`
}
