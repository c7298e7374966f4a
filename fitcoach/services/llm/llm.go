// Streaming model adapter. The orchestrator consumes generation events one by
// one over a channel and never touches the provider wire format directly.
package llm

import (
	"context"
	"encoding/json"
)

type EventType string

const (
	EventTextDelta  EventType = "text-delta"
	EventReasoning  EventType = "reasoning"
	EventToolCall   EventType = "tool-call"
	EventToolResult EventType = "tool-result"
	EventError      EventType = "error"
	EventFinish     EventType = "finish"
)

type Event struct {
	Type       EventType       `json:"type"`
	Text       string          `json:"text,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateRequest struct {
	Model    string
	System   string
	Messages []Message
	// MaxSteps bounds sequential model/tool round trips for one turn.
	MaxSteps int
	// DisableTools suppresses the tool set entirely (reasoning models).
	DisableTools bool
}

// Generator produces the asynchronous event sequence for one model
// invocation. Implementations close the channel after the final finish or
// error event.
type Generator interface {
	StreamChat(ctx context.Context, req GenerateRequest) (<-chan Event, error)
}

type TitleGenerator interface {
	GenerateTitle(ctx context.Context, message string) (string, error)
}

// Provider is the full model surface the orchestrator consumes.
type Provider interface {
	Generator
	TitleGenerator
	// ResolveModel maps a logical model id to the provider model name and
	// reports whether it is a reasoning variant.
	ResolveModel(id string) (string, bool)
}
