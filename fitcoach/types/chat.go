package types

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

const (
	PartTypeText       = "text"
	PartTypeReasoning  = "reasoning"
	PartTypeToolCall   = "tool-call"
	PartTypeToolResult = "tool-result"
)

const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type Attachment struct {
	Name        string `json:"name,omitempty"`
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
}

type IncomingMessage struct {
	ID          string        `json:"id"`
	Role        string        `json:"role"`
	Content     string        `json:"content"`
	Parts       []MessagePart `json:"parts"`
	Attachments []Attachment  `json:"attachments,omitempty"`
}

type ChatStreamRequest struct {
	ID                     string          `json:"id"`
	Message                IncomingMessage `json:"message"`
	SelectedChatModel      string          `json:"selectedChatModel"`
	SelectedVisibilityType string          `json:"selectedVisibilityType"`
}

var ErrNoMessage = errors.New("message or messages array is required")

// NormalizeChatStreamRequest maps the two accepted client payload shapes
// (a single "message" object, or a "messages" array whose last entry is the
// new user turn) onto one canonical request before validation.
func NormalizeChatStreamRequest(data []byte) (ChatStreamRequest, error) {
	var envelope struct {
		ID                     string            `json:"id"`
		Message                *IncomingMessage  `json:"message"`
		Messages               []IncomingMessage `json:"messages"`
		SelectedChatModel      string            `json:"selectedChatModel"`
		SelectedVisibilityType string            `json:"selectedVisibilityType"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ChatStreamRequest{}, err
	}

	req := ChatStreamRequest{
		ID:                     envelope.ID,
		SelectedChatModel:      envelope.SelectedChatModel,
		SelectedVisibilityType: envelope.SelectedVisibilityType,
	}

	switch {
	case envelope.Message != nil:
		req.Message = *envelope.Message
	case len(envelope.Messages) > 0:
		req.Message = envelope.Messages[len(envelope.Messages)-1]
	default:
		return ChatStreamRequest{}, ErrNoMessage
	}

	if req.Message.ID == "" {
		req.Message.ID = uuid.New().String()
	}
	if len(req.Message.Parts) == 0 && req.Message.Content != "" {
		req.Message.Parts = []MessagePart{{Type: PartTypeText, Text: req.Message.Content}}
	}
	if req.SelectedVisibilityType == "" {
		req.SelectedVisibilityType = VisibilityPrivate
	}
	return req, nil
}

// Validate returns the list of schema violations, empty when the request is
// acceptable: exactly one user-authored message carrying at least one
// non-empty text part.
func (r ChatStreamRequest) Validate() []string {
	var issues []string
	if r.ID == "" {
		issues = append(issues, "id is required")
	}
	if r.Message.Role != "user" {
		issues = append(issues, "message.role must be \"user\"")
	}
	if r.TextContent() == "" {
		issues = append(issues, "message must contain a non-empty text part")
	}
	if r.SelectedChatModel == "" {
		issues = append(issues, "selectedChatModel is required")
	}
	if r.SelectedVisibilityType != VisibilityPrivate && r.SelectedVisibilityType != VisibilityPublic {
		issues = append(issues, "selectedVisibilityType must be \"private\" or \"public\"")
	}
	return issues
}

// TextContent joins the text parts of the message, falling back to the flat
// content field for clients that never send parts.
func (r ChatStreamRequest) TextContent() string {
	var out string
	for _, part := range r.Message.Parts {
		if part.Type == PartTypeText {
			out += part.Text
		}
	}
	if out == "" {
		out = r.Message.Content
	}
	return out
}

// For the chats panel
type ChatSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Visibility string `json:"visibility"`
	CreatedAt  string `json:"created_at"`
}
