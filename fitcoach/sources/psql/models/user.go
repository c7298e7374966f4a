package models

import "time"

const (
	UserTypeGuest   = "guest"
	UserTypeRegular = "regular"
)

type User struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(64);not null;uniqueIndex"`
	Password  string    `json:"-" gorm:"type:varchar(255)"`
	UserType  string    `json:"user_type" gorm:"type:varchar(16);not null;default:regular"`
	CreatedAt time.Time `json:"created_at"`
}
