package dao

import (
	"context"
	"time"

	"fitcoach/fitcoach/sources/psql/models"

	"gorm.io/gorm"
)

type StreamDAO struct {
	DB *gorm.DB
}

func NewStreamDAO(db *gorm.DB) *StreamDAO {
	return &StreamDAO{DB: db}
}

func (dao *StreamDAO) CreateStreamID(ctx context.Context, streamID, chatID string) error {
	stream := models.Stream{
		ID:        streamID,
		ChatID:    chatID,
		CreatedAt: time.Now(),
	}
	return dao.DB.WithContext(ctx).Create(&stream).Error
}

// GetStreamIDsByChatID returns registrations oldest-first; the last entry is
// the only resumable one.
func (dao *StreamDAO) GetStreamIDsByChatID(ctx context.Context, chatID string) ([]models.Stream, error) {
	var streams []models.Stream
	err := dao.DB.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&streams).Error
	if err != nil {
		return nil, err
	}
	return streams, nil
}
