package controllers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"fitcoach/fitcoach/entitlements"
	"fitcoach/fitcoach/services/llm"
	"fitcoach/fitcoach/services/stream"
	"fitcoach/fitcoach/sources/psql"
	"fitcoach/fitcoach/sources/psql/dao"
	"fitcoach/fitcoach/sources/psql/models"
	"fitcoach/fitcoach/types"
	"fitcoach/fitcoach/utils/logging"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeProvider scripts the event sequence of a model turn and counts
// invocations.
type fakeProvider struct {
	mu       sync.Mutex
	calls    int
	lastReq  llm.GenerateRequest
	events   []llm.Event
	onStream func()
	release  chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		events: []llm.Event{
			{Type: llm.EventTextDelta, Text: "スクワットは"},
			{Type: llm.EventTextDelta, Text: "週2回が目安です"},
			{Type: llm.EventFinish},
		},
	}
}

func (f *fakeProvider) StreamChat(ctx context.Context, req llm.GenerateRequest) (<-chan llm.Event, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	hook := f.onStream
	events := f.events
	release := f.release
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	ch := make(chan llm.Event)
	go func() {
		defer close(ch)
		if release != nil {
			select {
			case <-release:
			case <-ctx.Done():
				return
			}
		}
		for _, ev := range events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (f *fakeProvider) GenerateTitle(ctx context.Context, message string) (string, error) {
	return "今日のトレーニング", nil
}

func (f *fakeProvider) ResolveModel(id string) (string, bool) {
	return "fake-model", id == "chat-model-reasoning"
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeProvider) lastRequest() llm.GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

type chatTestEnv struct {
	ctrl     *ChatController
	db       *gorm.DB
	provider *fakeProvider
	streams  *stream.Registry
	chatDAO  *dao.ChatDAO
}

func newChatTestEnv(t *testing.T) *chatTestEnv {
	t.Helper()
	logging.InitLogger()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// A second connection would see its own empty in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := psql.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	provider := newFakeProvider()
	streams := stream.NewRegistry(5*time.Second, 64)
	chatDAO := dao.NewChatDAO(db)
	ctrl := NewChatController(
		chatDAO,
		dao.NewStreamDAO(db),
		dao.NewProfileDAO(db),
		dao.NewTrainingDAO(db),
		provider,
		streams,
		entitlements.Defaults(),
		5*time.Second,
	)
	return &chatTestEnv{ctrl: ctrl, db: db, provider: provider, streams: streams, chatDAO: chatDAO}
}

func chatRequest(chatID, text string) types.ChatStreamRequest {
	return types.ChatStreamRequest{
		ID: chatID,
		Message: types.IncomingMessage{
			ID:    uuid.New().String(),
			Role:  "user",
			Parts: []types.MessagePart{{Type: types.PartTypeText, Text: text}},
		},
		SelectedChatModel:      "chat-model",
		SelectedVisibilityType: types.VisibilityPrivate,
	}
}

func drainEvents(t *testing.T, ch <-chan llm.Event) []llm.Event {
	t.Helper()
	var events []llm.Event
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-deadline:
			t.Fatal("timed out draining events")
		}
	}
}

func countMessages(t *testing.T, db *gorm.DB, chatID, role string) int64 {
	t.Helper()
	var count int64
	err := db.Model(&models.Message{}).
		Where("chat_id = ? AND role = ?", chatID, role).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count messages: %v", err)
	}
	return count
}

func TestStreamChatValidationRejectsBeforeAnyWrite(t *testing.T) {
	env := newChatTestEnv(t)
	caller := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}

	req := chatRequest(uuid.New().String(), "ベンチプレスについて")
	req.SelectedChatModel = ""
	req.Message.Role = "assistant"

	_, err := env.ctrl.StreamChat(context.Background(), caller, req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(verr.Issues) != 2 {
		t.Errorf("issues = %v, want model and role violations", verr.Issues)
	}

	var chats int64
	env.db.Model(&models.Chat{}).Count(&chats)
	if chats != 0 {
		t.Error("validation failure must not create a chat")
	}
	if n := countMessages(t, env.db, req.ID, "user"); n != 0 {
		t.Errorf("validation failure persisted %d messages", n)
	}
}

func TestStreamChatPersistsUserMessageBeforeModelCall(t *testing.T) {
	env := newChatTestEnv(t)
	caller := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}
	req := chatRequest(uuid.New().String(), "腹筋を割りたい")

	persistedAtCall := make(chan int64, 1)
	env.provider.onStream = func() {
		var n int64
		env.db.Model(&models.Message{}).
			Where("chat_id = ? AND role = ?", req.ID, "user").
			Count(&n)
		persistedAtCall <- n
	}

	ch, err := env.ctrl.StreamChat(context.Background(), caller, req)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	drainEvents(t, ch)
	env.streams.Wait()

	select {
	case n := <-persistedAtCall:
		if n != 1 {
			t.Errorf("user messages at model call time = %d, want 1", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("model adapter was never invoked")
	}
}

func TestStreamChatPersistsAssistantMessageOnce(t *testing.T) {
	env := newChatTestEnv(t)
	caller := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}
	req := chatRequest(uuid.New().String(), "スクワットの頻度は？")

	ch, err := env.ctrl.StreamChat(context.Background(), caller, req)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	events := drainEvents(t, ch)
	env.streams.Wait()

	if events[len(events)-1].Type != llm.EventFinish {
		t.Errorf("last relayed event = %s, want finish", events[len(events)-1].Type)
	}
	if n := countMessages(t, env.db, req.ID, "assistant"); n != 1 {
		t.Fatalf("assistant messages = %d, want exactly 1", n)
	}

	var msg models.Message
	if err := env.db.Where("chat_id = ? AND role = ?", req.ID, "assistant").First(&msg).Error; err != nil {
		t.Fatalf("load assistant message: %v", err)
	}
	if !strings.Contains(msg.Parts, "スクワットは週2回が目安です") {
		t.Errorf("assistant parts missing assembled text: %s", msg.Parts)
	}

	var chat models.Chat
	if err := env.db.Where("id = ?", req.ID).First(&chat).Error; err != nil {
		t.Fatalf("chat row missing: %v", err)
	}
	if chat.Title != "今日のトレーニング" {
		t.Errorf("chat title = %q", chat.Title)
	}
	if chat.UserID != caller.UserID {
		t.Errorf("chat owner = %q, want caller", chat.UserID)
	}
}

func TestStreamChatNoFinishEventNoAssistantPersisted(t *testing.T) {
	env := newChatTestEnv(t)
	env.provider.events = []llm.Event{
		{Type: llm.EventTextDelta, Text: "途中で"},
	}
	caller := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}
	req := chatRequest(uuid.New().String(), "続けて")

	ch, err := env.ctrl.StreamChat(context.Background(), caller, req)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	drainEvents(t, ch)
	env.streams.Wait()

	if n := countMessages(t, env.db, req.ID, "assistant"); n != 0 {
		t.Errorf("incomplete turn persisted %d assistant messages", n)
	}
	if n := countMessages(t, env.db, req.ID, "user"); n != 1 {
		t.Errorf("user message count = %d, want 1", n)
	}
}

func TestStreamChatQuotaExceeded(t *testing.T) {
	env := newChatTestEnv(t)
	caller := Caller{UserID: uuid.New().String(), UserType: models.UserTypeGuest}

	chatID := uuid.New().String()
	if err := env.chatDAO.SaveChat(context.Background(), &models.Chat{
		ID: chatID, UserID: caller.UserID, Title: "既存", Visibility: types.VisibilityPrivate,
	}); err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	seed := make([]models.Message, 0, 10)
	for i := 0; i < 10; i++ {
		seed = append(seed, models.Message{
			ID: uuid.New().String(), ChatID: chatID, Role: "user",
			Parts: `[{"type":"text","text":"q"}]`, Attachments: "[]",
			CreatedAt: time.Now().Add(-time.Hour),
		})
	}
	if err := env.chatDAO.SaveMessages(context.Background(), seed); err != nil {
		t.Fatalf("seed messages: %v", err)
	}

	_, err := env.ctrl.StreamChat(context.Background(), caller, chatRequest(chatID, "もう一回"))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	if n := countMessages(t, env.db, chatID, "user"); n != 10 {
		t.Errorf("rejected turn changed message count to %d", n)
	}
	if env.provider.callCount() != 0 {
		t.Error("rejected turn must not invoke the model")
	}
}

func TestStreamChatQuotaIgnoresOldAndAssistantMessages(t *testing.T) {
	env := newChatTestEnv(t)
	caller := Caller{UserID: uuid.New().String(), UserType: models.UserTypeGuest}

	chatID := uuid.New().String()
	if err := env.chatDAO.SaveChat(context.Background(), &models.Chat{
		ID: chatID, UserID: caller.UserID, Title: "既存", Visibility: types.VisibilityPrivate,
	}); err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	seed := make([]models.Message, 0, 20)
	for i := 0; i < 10; i++ {
		// Outside the 24h window.
		seed = append(seed, models.Message{
			ID: uuid.New().String(), ChatID: chatID, Role: "user",
			Parts: "[]", Attachments: "[]", CreatedAt: time.Now().Add(-25 * time.Hour),
		})
		// Wrong role inside the window.
		seed = append(seed, models.Message{
			ID: uuid.New().String(), ChatID: chatID, Role: "assistant",
			Parts: "[]", Attachments: "[]", CreatedAt: time.Now().Add(-time.Hour),
		})
	}
	if err := env.chatDAO.SaveMessages(context.Background(), seed); err != nil {
		t.Fatalf("seed messages: %v", err)
	}

	ch, err := env.ctrl.StreamChat(context.Background(), caller, chatRequest(chatID, "今日は？"))
	if err != nil {
		t.Fatalf("old or assistant messages counted against the quota: %v", err)
	}
	drainEvents(t, ch)
	env.streams.Wait()
}

func TestStreamChatReasoningModelDisablesTools(t *testing.T) {
	env := newChatTestEnv(t)
	caller := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}

	req := chatRequest(uuid.New().String(), "じっくり考えて")
	req.SelectedChatModel = "chat-model-reasoning"
	ch, err := env.ctrl.StreamChat(context.Background(), caller, req)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	drainEvents(t, ch)
	env.streams.Wait()

	got := env.provider.lastRequest()
	if !got.DisableTools {
		t.Error("reasoning model turn must suppress the tool set")
	}
	if got.Model != "fake-model" {
		t.Errorf("resolved model = %q", got.Model)
	}

	plain := chatRequest(uuid.New().String(), "普通に答えて")
	ch, err = env.ctrl.StreamChat(context.Background(), caller, plain)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	drainEvents(t, ch)
	env.streams.Wait()

	if env.provider.lastRequest().DisableTools {
		t.Error("default model turn must keep tools enabled")
	}
}

func TestStreamChatModelNotAllowedForTier(t *testing.T) {
	env := newChatTestEnv(t)
	guest := Caller{UserID: uuid.New().String(), UserType: models.UserTypeGuest}

	req := chatRequest(uuid.New().String(), "推論モデルで")
	req.SelectedChatModel = "chat-model-reasoning"
	_, err := env.ctrl.StreamChat(context.Background(), guest, req)
	if !errors.Is(err, ErrModelNotAllowed) {
		t.Fatalf("err = %v, want ErrModelNotAllowed", err)
	}
	if env.provider.callCount() != 0 {
		t.Error("rejected turn must not invoke the model")
	}
	if n := countMessages(t, env.db, req.ID, "user"); n != 0 {
		t.Errorf("rejected turn persisted %d messages", n)
	}

	// The same model is fine for the regular tier.
	regular := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}
	ch, err := env.ctrl.StreamChat(context.Background(), regular, req)
	if err != nil {
		t.Fatalf("regular tier err = %v", err)
	}
	drainEvents(t, ch)
	env.streams.Wait()
}

func TestStreamChatForbiddenOnForeignChat(t *testing.T) {
	env := newChatTestEnv(t)
	owner := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}
	intruder := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}

	chatID := uuid.New().String()
	if err := env.chatDAO.SaveChat(context.Background(), &models.Chat{
		ID: chatID, UserID: owner.UserID, Title: "本人のみ", Visibility: types.VisibilityPublic,
	}); err != nil {
		t.Fatalf("seed chat: %v", err)
	}

	_, err := env.ctrl.StreamChat(context.Background(), intruder, chatRequest(chatID, "乗っ取り"))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if n := countMessages(t, env.db, chatID, "user"); n != 0 {
		t.Error("forbidden turn must not persist the message")
	}
}

func TestStreamChatSubscriberCancelDoesNotLoseAssistantTurn(t *testing.T) {
	env := newChatTestEnv(t)
	env.provider.release = make(chan struct{})
	caller := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}
	req := chatRequest(uuid.New().String(), "切断テスト")

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := env.ctrl.StreamChat(ctx, caller, req)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	// Client goes away before the model has produced anything.
	cancel()
	drainEvents(t, ch)
	close(env.provider.release)
	env.streams.Wait()

	if n := countMessages(t, env.db, req.ID, "assistant"); n != 1 {
		t.Fatalf("assistant messages after disconnect = %d, want 1", n)
	}
}

func TestResumeChatNotFound(t *testing.T) {
	env := newChatTestEnv(t)
	caller := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}

	_, err := env.ctrl.ResumeChat(context.Background(), caller, uuid.New().String())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResumeChatNoStreams(t *testing.T) {
	env := newChatTestEnv(t)
	caller := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}

	chatID := uuid.New().String()
	if err := env.chatDAO.SaveChat(context.Background(), &models.Chat{
		ID: chatID, UserID: caller.UserID, Title: "空", Visibility: types.VisibilityPrivate,
	}); err != nil {
		t.Fatalf("seed chat: %v", err)
	}

	_, err := env.ctrl.ResumeChat(context.Background(), caller, chatID)
	if !errors.Is(err, ErrNoStreams) {
		t.Fatalf("err = %v, want ErrNoStreams", err)
	}
}

func TestResumeChatForbiddenForPrivateChat(t *testing.T) {
	env := newChatTestEnv(t)
	owner := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}
	other := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}

	req := chatRequest(uuid.New().String(), "非公開の話")
	ch, err := env.ctrl.StreamChat(context.Background(), owner, req)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	drainEvents(t, ch)
	env.streams.Wait()

	if _, err := env.ctrl.ResumeChat(context.Background(), other, req.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if _, err := env.ctrl.ResumeChat(context.Background(), owner, req.ID); err != nil {
		t.Fatalf("owner resume failed: %v", err)
	}
}

func TestResumeChatReplaysWithoutReinvokingModel(t *testing.T) {
	env := newChatTestEnv(t)
	caller := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}
	req := chatRequest(uuid.New().String(), "再開テスト")

	ch, err := env.ctrl.StreamChat(context.Background(), caller, req)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	live := drainEvents(t, ch)
	env.streams.Wait()

	resumed, err := env.ctrl.ResumeChat(context.Background(), caller, req.ID)
	if err != nil {
		t.Fatalf("ResumeChat: %v", err)
	}
	replay := drainEvents(t, resumed)

	if len(replay) != len(live) {
		t.Fatalf("replay delivered %d events, live delivered %d", len(replay), len(live))
	}
	if env.provider.callCount() != 1 {
		t.Fatalf("model invoked %d times, resume must never re-invoke", env.provider.callCount())
	}
}

func TestResumeChatUnknownRegistryIDYieldsEmptyStream(t *testing.T) {
	env := newChatTestEnv(t)
	caller := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}

	chatID := uuid.New().String()
	if err := env.chatDAO.SaveChat(context.Background(), &models.Chat{
		ID: chatID, UserID: caller.UserID, Title: "前世代", Visibility: types.VisibilityPrivate,
	}); err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	// Stream registered durably by an earlier process generation.
	streamDAO := dao.NewStreamDAO(env.db)
	if err := streamDAO.CreateStreamID(context.Background(), uuid.New().String(), chatID); err != nil {
		t.Fatalf("seed stream: %v", err)
	}

	ch, err := env.ctrl.ResumeChat(context.Background(), caller, chatID)
	if err != nil {
		t.Fatalf("ResumeChat: %v", err)
	}
	if events := drainEvents(t, ch); len(events) != 0 {
		t.Fatalf("unknown stream id replayed %d events, want empty completed stream", len(events))
	}
}

func TestStreamChatWorksWithoutRegistry(t *testing.T) {
	env := newChatTestEnv(t)
	// Degraded startup: no resumption registry available.
	env.ctrl.streams = nil
	caller := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}
	req := chatRequest(uuid.New().String(), "縮退運転")

	ch, err := env.ctrl.StreamChat(context.Background(), caller, req)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	events := drainEvents(t, ch)
	if events[len(events)-1].Type != llm.EventFinish {
		t.Errorf("degraded turn still relays the full sequence, got %+v", events)
	}
}

func TestDeleteChatRemovesMessagesAndStreams(t *testing.T) {
	env := newChatTestEnv(t)
	caller := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}
	req := chatRequest(uuid.New().String(), "消すテスト")

	ch, err := env.ctrl.StreamChat(context.Background(), caller, req)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	drainEvents(t, ch)
	env.streams.Wait()

	other := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}
	if err := env.ctrl.DeleteChat(context.Background(), other, req.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign delete err = %v, want ErrForbidden", err)
	}

	if err := env.ctrl.DeleteChat(context.Background(), caller, req.ID); err != nil {
		t.Fatalf("DeleteChat: %v", err)
	}

	var chats, messages, streams int64
	env.db.Model(&models.Chat{}).Where("id = ?", req.ID).Count(&chats)
	env.db.Model(&models.Message{}).Where("chat_id = ?", req.ID).Count(&messages)
	env.db.Model(&models.Stream{}).Where("chat_id = ?", req.ID).Count(&streams)
	if chats != 0 || messages != 0 || streams != 0 {
		t.Errorf("delete left rows behind: chats=%d messages=%d streams=%d", chats, messages, streams)
	}

	if err := env.ctrl.DeleteChat(context.Background(), caller, req.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestGetChatMessagesVisibility(t *testing.T) {
	env := newChatTestEnv(t)
	owner := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}
	other := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}

	req := chatRequest(uuid.New().String(), "公開の話")
	req.SelectedVisibilityType = types.VisibilityPublic
	ch, err := env.ctrl.StreamChat(context.Background(), owner, req)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	drainEvents(t, ch)
	env.streams.Wait()

	msgs, err := env.ctrl.GetChatMessages(context.Background(), other, req.ID)
	if err != nil {
		t.Fatalf("public transcript read failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("public transcript has %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("transcript order wrong: %s, %s", msgs[0].Role, msgs[1].Role)
	}

	private := chatRequest(uuid.New().String(), "非公開の話")
	ch, err = env.ctrl.StreamChat(context.Background(), owner, private)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	drainEvents(t, ch)
	env.streams.Wait()

	if _, err := env.ctrl.GetChatMessages(context.Background(), other, private.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("private transcript err = %v, want ErrForbidden", err)
	}
}

func TestListChatsOnlyOwn(t *testing.T) {
	env := newChatTestEnv(t)
	alice := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}
	bob := Caller{UserID: uuid.New().String(), UserType: models.UserTypeRegular}

	for _, c := range []Caller{alice, alice, bob} {
		req := chatRequest(uuid.New().String(), "一覧テスト")
		ch, err := env.ctrl.StreamChat(context.Background(), c, req)
		if err != nil {
			t.Fatalf("StreamChat: %v", err)
		}
		drainEvents(t, ch)
	}
	env.streams.Wait()

	summaries, err := env.ctrl.ListChats(context.Background(), alice)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("alice sees %d chats, want 2", len(summaries))
	}
	for _, s := range summaries {
		if s.Title == "" || s.Visibility != types.VisibilityPrivate {
			t.Errorf("summary incomplete: %+v", s)
		}
	}
}
