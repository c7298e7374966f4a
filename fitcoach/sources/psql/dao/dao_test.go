package dao

import (
	"context"
	"testing"
	"time"

	"fitcoach/fitcoach/sources/psql"
	"fitcoach/fitcoach/sources/psql/models"
	"fitcoach/fitcoach/types"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := psql.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func intP(n int) *int           { return &n }
func floatP(f float64) *float64 { return &f }

func TestSaveTrainingMenuDeactivatesPriorPlan(t *testing.T) {
	db := newTestDB(t)
	trainingDAO := NewTrainingDAO(db)
	ctx := context.Background()
	userID := uuid.New().String()

	first := []types.TrainingDayInput{
		{DayNumber: 1, Name: "胸", Exercises: []types.TrainingExerciseInput{
			{ExerciseName: "ベンチプレス", TargetMuscle: "大胸筋", Weight: floatP(60), Sets: intP(3), Reps: intP(10)},
		}},
	}
	if err := trainingDAO.SaveTrainingMenu(ctx, userID, first); err != nil {
		t.Fatalf("first SaveTrainingMenu: %v", err)
	}

	second := []types.TrainingDayInput{
		{DayNumber: 1, Name: "脚", Exercises: []types.TrainingExerciseInput{
			{ExerciseName: "スクワット", TargetMuscle: "大腿四頭筋"},
		}},
		{DayNumber: 2, Name: "休息", IsRestDay: true},
	}
	if err := trainingDAO.SaveTrainingMenu(ctx, userID, second); err != nil {
		t.Fatalf("second SaveTrainingMenu: %v", err)
	}

	var active int64
	db.Model(&models.TrainingPlan{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&active)
	if active != 1 {
		t.Fatalf("active plans = %d, want exactly 1", active)
	}

	days, err := trainingDAO.GetActiveTrainingDays(ctx, userID)
	if err != nil {
		t.Fatalf("GetActiveTrainingDays: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("active menu has %d days, want 2", len(days))
	}
	if days[0].Name != "脚" || len(days[0].Exercises) != 1 {
		t.Errorf("day 1 = %+v", days[0])
	}
	if !days[1].IsRestDay || len(days[1].Exercises) != 0 {
		t.Errorf("rest day = %+v", days[1])
	}
}

func TestGetActiveTrainingDaysExerciseOrdering(t *testing.T) {
	db := newTestDB(t)
	trainingDAO := NewTrainingDAO(db)
	ctx := context.Background()
	userID := uuid.New().String()

	input := []types.TrainingDayInput{
		{DayNumber: 1, Name: "背中", Exercises: []types.TrainingExerciseInput{
			{ExerciseName: "懸垂", TargetMuscle: "広背筋", Order: intP(2)},
			{ExerciseName: "デッドリフト", TargetMuscle: "脊柱起立筋", Order: intP(1)},
		}},
	}
	if err := trainingDAO.SaveTrainingMenu(ctx, userID, input); err != nil {
		t.Fatalf("SaveTrainingMenu: %v", err)
	}

	days, err := trainingDAO.GetActiveTrainingDays(ctx, userID)
	if err != nil {
		t.Fatalf("GetActiveTrainingDays: %v", err)
	}
	exercises := days[0].Exercises
	if exercises[0].ExerciseName != "デッドリフト" || exercises[1].ExerciseName != "懸垂" {
		t.Errorf("exercises not ordered by explicit order: %+v", exercises)
	}
}

func TestGetActiveTrainingDaysNoPlan(t *testing.T) {
	db := newTestDB(t)
	trainingDAO := NewTrainingDAO(db)

	days, err := trainingDAO.GetActiveTrainingDays(context.Background(), uuid.New().String())
	if err != nil {
		t.Fatalf("GetActiveTrainingDays: %v", err)
	}
	if len(days) != 0 {
		t.Errorf("user without a plan got %d days", len(days))
	}
}

func TestUpsertUserProfileInsertThenUpdate(t *testing.T) {
	db := newTestDB(t)
	profileDAO := NewProfileDAO(db)
	ctx := context.Background()
	userID := uuid.New().String()

	created, err := profileDAO.UpsertUserProfile(ctx, userID, types.ProfileRequest{
		Age:   intP(30),
		Goals: []string{"筋力向上", "ダイエット"},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if created.Goals == nil || *created.Goals != `["筋力向上","ダイエット"]` {
		t.Errorf("goals column = %v", created.Goals)
	}

	updated, err := profileDAO.UpsertUserProfile(ctx, userID, types.ProfileRequest{
		Age:   intP(31),
		Goals: []string{"健康維持"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != created.ID {
		t.Error("upsert must keep the existing row id")
	}

	var rows int64
	db.Model(&models.UserProfile{}).Where("user_id = ?", userID).Count(&rows)
	if rows != 1 {
		t.Fatalf("profile rows = %d, want 1", rows)
	}

	loaded, err := profileDAO.GetUserProfile(ctx, userID)
	if err != nil {
		t.Fatalf("GetUserProfile: %v", err)
	}
	if loaded.Age == nil || *loaded.Age != 31 {
		t.Errorf("age = %v, want 31", loaded.Age)
	}
}

func TestCountRecentUserMessagesWindow(t *testing.T) {
	db := newTestDB(t)
	chatDAO := NewChatDAO(db)
	ctx := context.Background()
	userID := uuid.New().String()

	chatID := uuid.New().String()
	if err := chatDAO.SaveChat(ctx, &models.Chat{
		ID: chatID, UserID: userID, Title: "窓", Visibility: types.VisibilityPrivate,
	}); err != nil {
		t.Fatalf("SaveChat: %v", err)
	}

	messages := []models.Message{
		{ID: uuid.New().String(), ChatID: chatID, Role: "user", Parts: "[]", Attachments: "[]",
			CreatedAt: time.Now().Add(-time.Hour)},
		{ID: uuid.New().String(), ChatID: chatID, Role: "assistant", Parts: "[]", Attachments: "[]",
			CreatedAt: time.Now().Add(-time.Hour)},
		{ID: uuid.New().String(), ChatID: chatID, Role: "user", Parts: "[]", Attachments: "[]",
			CreatedAt: time.Now().Add(-30 * time.Hour)},
	}
	if err := chatDAO.SaveMessages(ctx, messages); err != nil {
		t.Fatalf("SaveMessages: %v", err)
	}

	count, err := chatDAO.CountRecentUserMessages(ctx, userID, 24*time.Hour)
	if err != nil {
		t.Fatalf("CountRecentUserMessages: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (assistant and stale rows excluded)", count)
	}

	other, err := chatDAO.CountRecentUserMessages(ctx, uuid.New().String(), 24*time.Hour)
	if err != nil {
		t.Fatalf("CountRecentUserMessages other user: %v", err)
	}
	if other != 0 {
		t.Errorf("other user's count = %d, want 0", other)
	}
}

func TestStreamIDsOrderedOldestFirst(t *testing.T) {
	db := newTestDB(t)
	streamDAO := NewStreamDAO(db)
	chatDAO := NewChatDAO(db)
	ctx := context.Background()

	chatID := uuid.New().String()
	if err := chatDAO.SaveChat(ctx, &models.Chat{
		ID: chatID, UserID: uuid.New().String(), Title: "順", Visibility: types.VisibilityPrivate,
	}); err != nil {
		t.Fatalf("SaveChat: %v", err)
	}

	first := uuid.New().String()
	second := uuid.New().String()
	if err := streamDAO.CreateStreamID(ctx, first, chatID); err != nil {
		t.Fatalf("CreateStreamID: %v", err)
	}
	// created_at granularity on sqlite needs a measurable gap.
	time.Sleep(10 * time.Millisecond)
	if err := streamDAO.CreateStreamID(ctx, second, chatID); err != nil {
		t.Fatalf("CreateStreamID: %v", err)
	}

	streams, err := streamDAO.GetStreamIDsByChatID(ctx, chatID)
	if err != nil {
		t.Fatalf("GetStreamIDsByChatID: %v", err)
	}
	if len(streams) != 2 {
		t.Fatalf("streams = %d, want 2", len(streams))
	}
	if streams[0].ID != first || streams[1].ID != second {
		t.Errorf("streams out of creation order: %s, %s", streams[0].ID, streams[1].ID)
	}
}

func TestGetUserByEmailMissingIsNil(t *testing.T) {
	db := newTestDB(t)
	userDAO := NewUserDAO(db)

	user, err := userDAO.GetUserByEmail(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user != nil {
		t.Errorf("missing user = %+v, want nil", user)
	}
}
