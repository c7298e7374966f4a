package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"fitcoach/fitcoach/config"
	"fitcoach/fitcoach/utils/logging"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Logical model ids selectable by clients, mapped onto provider model names
// from config.
const (
	ModelChat      = "chat-model"
	ModelReasoning = "chat-model-reasoning"
	ModelTitle     = "title-model"
)

type OpenAIClient struct {
	client *openai.Client
	cfg    config.Config
	tools  []Tool
}

func NewOpenAIClient(cfg config.Config) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		tools:  []Tool{NewWeatherTool()},
	}
}

// ResolveModel maps a logical model id to the configured provider model name
// and reports whether it is the reasoning variant.
func (c *OpenAIClient) ResolveModel(id string) (string, bool) {
	switch id {
	case ModelReasoning:
		return c.cfg.ReasoningModel, true
	case ModelTitle:
		return c.cfg.TitleModel, false
	default:
		return c.cfg.ChatModel, false
	}
}

// StreamChat drives the completion stream, executing requested tools between
// rounds up to req.MaxSteps. Adapter failures after streaming has started are
// surfaced as an error event on the channel, never as a returned error.
func (c *OpenAIClient) StreamChat(ctx context.Context, req GenerateRequest) (<-chan Event, error) {
	defer logging.LogDuration(ctx, "llm_stream_chat")()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	var toolDefs []openai.Tool
	if !req.DisableTools {
		for _, t := range c.tools {
			toolDefs = append(toolDefs, t.Definition())
		}
	}

	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 1
	}

	ch := make(chan Event)
	go func() {
		defer close(ch)
		for step := 0; step < maxSteps; step++ {
			toolCalls, finishReason, err := c.streamOnce(ctx, req.Model, messages, toolDefs, ch)
			if err != nil {
				logging.ErrorLogger.Error("llm stream error", zap.Error(err))
				// ctx may already be done (timed-out turn); the terminal
				// error event must still reach the relay so the client can
				// tell a failed turn from a drained one.
				emitFinal(ch, Event{Type: EventError, Error: "Oops, an error occurred!"})
				return
			}
			if finishReason != openai.FinishReasonToolCalls || len(toolCalls) == 0 {
				emit(ctx, ch, Event{Type: EventFinish})
				return
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				ToolCalls: toolCalls,
			})
			for _, call := range toolCalls {
				result := c.invokeTool(ctx, call, ch)
				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					ToolCallID: call.ID,
					Name:       call.Function.Name,
					Content:    string(result),
				})
			}
		}
		// Tool budget exhausted; close the turn rather than looping forever.
		emit(ctx, ch, Event{Type: EventFinish})
	}()
	return ch, nil
}

// streamOnce runs a single completion round, relaying deltas as events and
// accumulating any streamed tool-call fragments.
func (c *OpenAIClient) streamOnce(
	ctx context.Context,
	model string,
	messages []openai.ChatCompletionMessage,
	toolDefs []openai.Tool,
	ch chan<- Event,
) ([]openai.ToolCall, openai.FinishReason, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		Tools:    toolDefs,
		Stream:   true,
	})
	if err != nil {
		return nil, "", err
	}
	defer stream.Close()

	pending := map[int]*openai.ToolCall{}
	var order []int
	finishReason := openai.FinishReasonStop

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]
		if choice.FinishReason != "" {
			finishReason = choice.FinishReason
		}
		if choice.Delta.ReasoningContent != "" {
			emit(ctx, ch, Event{Type: EventReasoning, Text: choice.Delta.ReasoningContent})
		}
		if choice.Delta.Content != "" {
			emit(ctx, ch, Event{Type: EventTextDelta, Text: choice.Delta.Content})
		}
		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			acc, ok := pending[idx]
			if !ok {
				call := tc
				pending[idx] = &call
				order = append(order, idx)
				continue
			}
			if tc.ID != "" {
				acc.ID = tc.ID
			}
			if tc.Function.Name != "" {
				acc.Function.Name = tc.Function.Name
			}
			acc.Function.Arguments += tc.Function.Arguments
		}
	}

	calls := make([]openai.ToolCall, 0, len(order))
	for _, idx := range order {
		calls = append(calls, *pending[idx])
	}
	return calls, finishReason, nil
}

func (c *OpenAIClient) invokeTool(ctx context.Context, call openai.ToolCall, ch chan<- Event) json.RawMessage {
	args := json.RawMessage(call.Function.Arguments)
	emit(ctx, ch, Event{
		Type:       EventToolCall,
		ToolCallID: call.ID,
		ToolName:   call.Function.Name,
		Args:       args,
	})

	var result json.RawMessage
	var err error
	found := false
	for _, t := range c.tools {
		if t.Definition().Function.Name == call.Function.Name {
			found = true
			result, err = t.Invoke(ctx, args)
			break
		}
	}
	if !found {
		err = errors.New("unknown tool: " + call.Function.Name)
	}
	if err != nil {
		logging.ErrorLogger.Error("tool invocation failed",
			zap.String("tool", call.Function.Name), zap.Error(err))
		result, _ = json.Marshal(map[string]string{"error": err.Error()})
	}

	emit(ctx, ch, Event{
		Type:       EventToolResult,
		ToolCallID: call.ID,
		ToolName:   call.Function.Name,
		Result:     result,
	})
	return result
}

func emit(ctx context.Context, ch chan<- Event, ev Event) {
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}

// emitFinal delivers a terminal event without the ctx guard, since it is
// used exactly when ctx may already be cancelled. Timer-bounded in case the
// consumer is gone too.
func emitFinal(ch chan<- Event, ev Event) {
	select {
	case ch <- ev:
	case <-time.After(time.Second):
	}
}

const titleSystemPrompt = `ユーザーの最初のメッセージから短いチャットタイトルを生成してください。
- 80文字以内
- 引用符やコロンは使わない
- 要約のみを返す`

// GenerateTitle derives a chat title from the first user message. Callers
// fall back to a truncated message on error.
func (c *OpenAIClient) GenerateTitle(ctx context.Context, message string) (string, error) {
	defer logging.LogDuration(ctx, "llm_generate_title")()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.TitleModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: titleSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
