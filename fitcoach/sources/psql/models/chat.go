package models

import "time"

type Chat struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     string    `json:"user_id" gorm:"type:uuid;not null;index"`
	User       User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Title      string    `json:"title" gorm:"type:text;not null"`
	Visibility string    `json:"visibility" gorm:"type:varchar(10);not null;default:private"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null"`
}

// Message rows are append-only. Parts and Attachments hold the JSON-encoded
// fragment lists exactly as received/produced; they are never rewritten after
// creation.
type Message struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	ChatID      string    `json:"chat_id" gorm:"type:uuid;not null;index"`
	Chat        Chat      `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnDelete:CASCADE"`
	Role        string    `json:"role" gorm:"type:varchar(50);not null"`
	Parts       string    `json:"parts" gorm:"type:text;not null"`
	Attachments string    `json:"attachments" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;index"`
}

// Stream registers one model invocation against a chat; only the most
// recently created row per chat is resumable.
type Stream struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	ChatID    string    `json:"chat_id" gorm:"type:uuid;not null;index"`
	Chat      Chat      `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}
