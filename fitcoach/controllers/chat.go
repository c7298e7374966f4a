package controllers

import (
	"context"
	"encoding/json"
	"time"

	"fitcoach/fitcoach/entitlements"
	"fitcoach/fitcoach/services/llm"
	"fitcoach/fitcoach/services/prompts"
	"fitcoach/fitcoach/services/stream"
	"fitcoach/fitcoach/sources/psql/dao"
	"fitcoach/fitcoach/sources/psql/models"
	"fitcoach/fitcoach/types"
	"fitcoach/fitcoach/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	quotaWindow = 24 * time.Hour
	// At most 5 sequential model/tool round trips per turn.
	maxToolSteps = 5
)

type ChatController struct {
	chatDAO     *dao.ChatDAO
	streamDAO   *dao.StreamDAO
	profileDAO  *dao.ProfileDAO
	trainingDAO *dao.TrainingDAO
	provider    llm.Provider
	// streams may be nil when registry initialization failed at startup;
	// turns then run non-resumable instead of failing.
	streams *stream.Registry
	ents    entitlements.Entitlements
	timeout time.Duration
}

func NewChatController(
	chatDAO *dao.ChatDAO,
	streamDAO *dao.StreamDAO,
	profileDAO *dao.ProfileDAO,
	trainingDAO *dao.TrainingDAO,
	provider llm.Provider,
	streams *stream.Registry,
	ents entitlements.Entitlements,
	timeout time.Duration,
) *ChatController {
	return &ChatController{
		chatDAO:     chatDAO,
		streamDAO:   streamDAO,
		profileDAO:  profileDAO,
		trainingDAO: trainingDAO,
		provider:    provider,
		streams:     streams,
		ents:        ents,
		timeout:     timeout,
	}
}

// StreamChat drives one chat turn: validation, quota, chat bootstrap, durable
// user message, model invocation and live relay. The returned channel closes
// after the sentinel finish event; the caller going away does not stop the
// underlying production or the persistence of the assistant turn.
func (c *ChatController) StreamChat(ctx context.Context, caller Caller, req types.ChatStreamRequest) (<-chan llm.Event, error) {
	defer logging.LogDuration(ctx, "chat_stream_turn")()

	if issues := req.Validate(); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	ent := c.ents.For(caller.UserType)
	if !ent.AllowsModel(req.SelectedChatModel) {
		return nil, ErrModelNotAllowed
	}
	count, err := c.chatDAO.CountRecentUserMessages(ctx, caller.UserID, quotaWindow)
	if err != nil {
		return nil, err
	}
	if count >= int64(ent.MaxMessagesPerDay) {
		return nil, ErrQuotaExceeded
	}

	userText := req.TextContent()

	chat, err := c.chatDAO.GetChatByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		title := c.generateTitle(ctx, userText)
		createErr := c.chatDAO.SaveChat(ctx, &models.Chat{
			ID:         req.ID,
			UserID:     caller.UserID,
			Title:      title,
			Visibility: req.SelectedVisibilityType,
		})
		if createErr != nil {
			// Lost a first-message race: another request created the chat.
			// Non-fatal as long as the row exists now.
			chat, err = c.chatDAO.GetChatByID(ctx, req.ID)
			if err != nil || chat == nil {
				return nil, createErr
			}
			logging.AppLogger.Info("chat already exists, creation skipped",
				zap.String("chat_id", req.ID))
		}
	}
	if chat != nil && chat.UserID != caller.UserID {
		return nil, ErrForbidden
	}

	prior, err := c.chatDAO.GetMessagesByChatID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	// The user's input is durable before any model token is requested.
	userMsg, err := buildUserMessage(req)
	if err != nil {
		return nil, err
	}
	if err := c.chatDAO.SaveMessages(ctx, []models.Message{userMsg}); err != nil {
		return nil, err
	}

	system := c.composeSystemPrompt(ctx, caller.UserID, userText)

	history := historyFromMessages(prior)
	history = append(history, llm.Message{Role: "user", Content: userText})

	modelName, reasoning := c.provider.ResolveModel(req.SelectedChatModel)
	genReq := llm.GenerateRequest{
		Model:        modelName,
		System:       system,
		Messages:     history,
		MaxSteps:     maxToolSteps,
		DisableTools: reasoning,
	}

	streamID := uuid.New().String()
	resumable := c.streams != nil
	if err := c.streamDAO.CreateStreamID(ctx, streamID, req.ID); err != nil {
		// The turn proceeds without resumability rather than failing.
		logging.ErrorLogger.Error("failed to create stream id",
			zap.String("chat_id", req.ID), zap.Error(err))
		resumable = false
	}

	produce := c.producer(req.ID, genReq)

	if resumable {
		ch, runErr := c.streams.Run(ctx, streamID, produce)
		if runErr == nil {
			return ch, nil
		}
		logging.ErrorLogger.Error("resumable stream registration failed",
			zap.String("stream_id", streamID), zap.Error(runErr))
	}
	return stream.Detached(ctx, c.timeout, produce), nil
}

// producer invokes the model once and, after the adapter signals completion,
// persists the assembled assistant message. Persistence failure is logged and
// swallowed: the client already received the content.
func (c *ChatController) producer(chatID string, genReq llm.GenerateRequest) stream.Producer {
	return func(prodCtx context.Context, emit func(llm.Event)) {
		events, err := c.provider.StreamChat(prodCtx, genReq)
		if err != nil {
			logging.ErrorLogger.Error("model invocation failed",
				zap.String("chat_id", chatID), zap.Error(err))
			emit(llm.Event{Type: llm.EventError, Error: "Oops, an error occurred!"})
			return
		}

		var assembled turnAssembler
		for ev := range events {
			emit(ev)
			assembled.observe(ev)
		}

		if !assembled.finished {
			// Adapter never signalled completion; no partial assistant
			// message is persisted.
			return
		}

		msg, err := assembled.message(chatID)
		if err != nil {
			logging.ErrorLogger.Error("failed to assemble assistant message",
				zap.String("chat_id", chatID), zap.Error(err))
			return
		}
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.chatDAO.SaveMessages(saveCtx, []models.Message{msg}); err != nil {
			logging.ErrorLogger.Error("failed to save assistant message",
				zap.String("chat_id", chatID), zap.Error(err))
		}
	}
}

// ResumeChat re-attaches the caller to the chat's most recent stream without
// re-invoking the model. A stream unknown to the in-process registry yields
// an immediately-completed empty stream.
func (c *ChatController) ResumeChat(ctx context.Context, caller Caller, chatID string) (<-chan llm.Event, error) {
	chat, err := c.chatDAO.GetChatByID(ctx, chatID)
	if err != nil || chat == nil {
		return nil, ErrNotFound
	}
	if chat.Visibility == types.VisibilityPrivate && chat.UserID != caller.UserID {
		return nil, ErrForbidden
	}

	streams, err := c.streamDAO.GetStreamIDsByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if len(streams) == 0 {
		return nil, ErrNoStreams
	}
	recent := streams[len(streams)-1]
	if recent.ID == "" {
		return nil, ErrNoRecentStream
	}

	if c.streams == nil {
		return stream.Empty(), nil
	}
	ch, ok := c.streams.Resume(ctx, recent.ID)
	if !ok {
		return stream.Empty(), nil
	}
	return ch, nil
}

// DeleteChat removes an owned chat with its messages and stream
// registrations.
func (c *ChatController) DeleteChat(ctx context.Context, caller Caller, chatID string) error {
	chat, err := c.chatDAO.GetChatByID(ctx, chatID)
	if err != nil {
		return err
	}
	if chat == nil {
		return ErrNotFound
	}
	if chat.UserID != caller.UserID {
		return ErrForbidden
	}
	return c.chatDAO.DeleteChatByID(ctx, chatID)
}

func (c *ChatController) ListChats(ctx context.Context, caller Caller) ([]types.ChatSummary, error) {
	chats, err := c.chatDAO.ListChatsByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	summaries := make([]types.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summaries = append(summaries, types.ChatSummary{
			ID:         chat.ID,
			Title:      chat.Title,
			Visibility: chat.Visibility,
			CreatedAt:  chat.CreatedAt.Format(time.RFC3339),
		})
	}
	return summaries, nil
}

// GetChatMessages returns the transcript for the owner, or for anyone when
// the chat is public.
func (c *ChatController) GetChatMessages(ctx context.Context, caller Caller, chatID string) ([]models.Message, error) {
	chat, err := c.chatDAO.GetChatByID(ctx, chatID)
	if err != nil || chat == nil {
		return nil, ErrNotFound
	}
	if chat.Visibility == types.VisibilityPrivate && chat.UserID != caller.UserID {
		return nil, ErrForbidden
	}
	return c.chatDAO.GetMessagesByChatID(ctx, chatID)
}

func (c *ChatController) generateTitle(ctx context.Context, userText string) string {
	title, err := c.provider.GenerateTitle(ctx, userText)
	if err != nil || title == "" {
		logging.AppLogger.Info("title generation failed, using message excerpt",
			zap.Error(err))
		return truncateRunes(userText, 80)
	}
	return title
}

func (c *ChatController) composeSystemPrompt(ctx context.Context, userID, userText string) string {
	profile, err := c.profileDAO.GetUserProfile(ctx, userID)
	if err != nil {
		logging.ErrorLogger.Error("failed to load profile", zap.Error(err))
		profile = nil
	}
	menu, err := c.trainingDAO.GetActiveTrainingDays(ctx, userID)
	if err != nil {
		logging.ErrorLogger.Error("failed to load training menu", zap.Error(err))
		menu = nil
	}
	return prompts.GeneratePersonalizedPrompt(profile, userText, menu)
}

func buildUserMessage(req types.ChatStreamRequest) (models.Message, error) {
	parts, err := json.Marshal(req.Message.Parts)
	if err != nil {
		return models.Message{}, err
	}
	attachments := req.Message.Attachments
	if attachments == nil {
		attachments = []types.Attachment{}
	}
	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		return models.Message{}, err
	}
	id := req.Message.ID
	if id == "" {
		id = uuid.New().String()
	}
	return models.Message{
		ID:          id,
		ChatID:      req.ID,
		Role:        "user",
		Parts:       string(parts),
		Attachments: string(attachmentsJSON),
		CreatedAt:   time.Now(),
	}, nil
}

// historyFromMessages flattens stored transcript rows into model input:
// text parts concatenated, non-text parts JSON-encoded inline.
func historyFromMessages(messages []models.Message) []llm.Message {
	history := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		history = append(history, llm.Message{
			Role:    msg.Role,
			Content: flattenParts(msg.Parts),
		})
	}
	return history
}

func flattenParts(partsJSON string) string {
	var parts []types.MessagePart
	if err := json.Unmarshal([]byte(partsJSON), &parts); err != nil {
		return partsJSON
	}
	var content string
	for _, part := range parts {
		if part.Type == types.PartTypeText {
			content += part.Text
			continue
		}
		encoded, err := json.Marshal(part)
		if err != nil {
			continue
		}
		content += string(encoded)
	}
	return content
}

// turnAssembler folds the event sequence into the durable assistant message.
type turnAssembler struct {
	text      string
	reasoning string
	toolParts []types.MessagePart
	finished  bool
}

func (a *turnAssembler) observe(ev llm.Event) {
	switch ev.Type {
	case llm.EventTextDelta:
		a.text += ev.Text
	case llm.EventReasoning:
		a.reasoning += ev.Text
	case llm.EventToolCall, llm.EventToolResult:
		encoded, err := json.Marshal(ev)
		if err != nil {
			return
		}
		a.toolParts = append(a.toolParts, types.MessagePart{
			Type: string(ev.Type),
			Text: string(encoded),
		})
	case llm.EventFinish:
		a.finished = true
	}
}

func (a *turnAssembler) message(chatID string) (models.Message, error) {
	var parts []types.MessagePart
	if a.reasoning != "" {
		parts = append(parts, types.MessagePart{Type: types.PartTypeReasoning, Text: a.reasoning})
	}
	parts = append(parts, a.toolParts...)
	parts = append(parts, types.MessagePart{Type: types.PartTypeText, Text: a.text})

	partsJSON, err := json.Marshal(parts)
	if err != nil {
		return models.Message{}, err
	}
	return models.Message{
		ID:          uuid.New().String(),
		ChatID:      chatID,
		Role:        "assistant",
		Parts:       string(partsJSON),
		Attachments: "[]",
		CreatedAt:   time.Now(),
	}, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
