package models

import "time"

// A user has at most one active plan; saving a new plan flips IsActive off on
// the prior ones instead of deleting them.
type TrainingPlan struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TrainingDay struct {
	ID        string       `json:"id" gorm:"type:uuid;primaryKey"`
	PlanID    string       `json:"plan_id" gorm:"type:uuid;not null;index"`
	Plan      TrainingPlan `json:"-" gorm:"foreignKey:PlanID;references:ID;constraint:OnDelete:CASCADE"`
	DayNumber int          `json:"day_number" gorm:"not null"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	IsRestDay bool         `json:"is_rest_day" gorm:"not null;default:false"`
	CreatedAt time.Time    `json:"created_at"`
}

type TrainingExercise struct {
	ID           string      `json:"id" gorm:"type:uuid;primaryKey"`
	DayID        string      `json:"day_id" gorm:"type:uuid;not null;index"`
	Day          TrainingDay `json:"-" gorm:"foreignKey:DayID;references:ID;constraint:OnDelete:CASCADE"`
	ExerciseName string      `json:"exercise_name" gorm:"type:text;not null"`
	TargetMuscle string      `json:"target_muscle" gorm:"type:text;not null"`
	Weight       *float64    `json:"weight,omitempty"`
	Sets         *int        `json:"sets,omitempty"`
	Reps         *int        `json:"reps,omitempty"`
	Purpose      string      `json:"purpose,omitempty" gorm:"type:text"`
	Order        int         `json:"order" gorm:"column:exercise_order;not null"`
	CreatedAt    time.Time   `json:"created_at"`
}
