package models

import "time"

// UserProfile keeps Goals and CurrentHabits as JSON-encoded text. Historical
// write paths re-serialized these fields more than once, so readers must not
// assume a fixed encoding depth.
type UserProfile struct {
	ID                    string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID                string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	User                  User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Gender                *string   `json:"gender,omitempty" gorm:"type:varchar(10)"`
	Occupation            *string   `json:"occupation,omitempty" gorm:"type:varchar(20)"`
	Age                   *int      `json:"age,omitempty"`
	Height                *int      `json:"height,omitempty"`
	Weight                *float64  `json:"weight,omitempty"`
	FitnessLevel          *string   `json:"fitness_level,omitempty" gorm:"type:varchar(20)"`
	Goals                 *string   `json:"goals,omitempty" gorm:"type:text"`
	TrainingFrequency     *int      `json:"training_frequency,omitempty"`
	PreferredTrainingTime *string   `json:"preferred_training_time,omitempty" gorm:"type:varchar(20)"`
	DietaryRestrictions   *string   `json:"dietary_restrictions,omitempty" gorm:"type:text"`
	DailyCalories         *int      `json:"daily_calories,omitempty"`
	ProteinGoal           *float64  `json:"protein_goal,omitempty"`
	CurrentHabits         *string   `json:"current_habits,omitempty" gorm:"type:text"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
