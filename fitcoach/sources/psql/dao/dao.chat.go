package dao

import (
	"context"
	"time"

	"fitcoach/fitcoach/sources/psql/models"

	"gorm.io/gorm"
)

type ChatDAO struct {
	DB *gorm.DB
}

func NewChatDAO(db *gorm.DB) *ChatDAO {
	return &ChatDAO{DB: db}
}

func (dao *ChatDAO) GetChatByID(ctx context.Context, id string) (*models.Chat, error) {
	var chat models.Chat
	err := dao.DB.WithContext(ctx).Where("id = ?", id).First(&chat).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (dao *ChatDAO) SaveChat(ctx context.Context, chat *models.Chat) error {
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}
	return dao.DB.WithContext(ctx).Create(chat).Error
}

// DeleteChatByID removes the chat plus its messages and stream registrations
// in one transaction.
func (dao *ChatDAO) DeleteChatByID(ctx context.Context, id string) error {
	return dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", id).Delete(&models.Stream{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Chat{}).Error
	})
}

func (dao *ChatDAO) ListChatsByUserID(ctx context.Context, userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// GetMessagesByChatID returns the transcript oldest-first, the order model
// input history is reconstructed in.
func (dao *ChatDAO) GetMessagesByChatID(ctx context.Context, chatID string) ([]models.Message, error) {
	var messages []models.Message
	err := dao.DB.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (dao *ChatDAO) SaveMessages(ctx context.Context, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	for i := range messages {
		if messages[i].CreatedAt.IsZero() {
			messages[i].CreatedAt = time.Now()
		}
	}
	return dao.DB.WithContext(ctx).Create(&messages).Error
}

// CountRecentUserMessages counts role=user messages a user authored within
// the trailing window. Point-in-time read, no locking against concurrent
// submissions from the same user.
func (dao *ChatDAO) CountRecentUserMessages(ctx context.Context, userID string, window time.Duration) (int64, error) {
	var count int64
	since := time.Now().Add(-window)
	err := dao.DB.WithContext(ctx).
		Model(&models.Message{}).
		Joins("JOIN chats ON chats.id = messages.chat_id").
		Where("chats.user_id = ? AND messages.role = ? AND messages.created_at > ?", userID, "user", since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
