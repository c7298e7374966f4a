package dao

import (
	"context"
	"encoding/json"
	"time"

	"fitcoach/fitcoach/sources/psql/models"
	"fitcoach/fitcoach/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileDAO struct {
	DB *gorm.DB
}

func NewProfileDAO(db *gorm.DB) *ProfileDAO {
	return &ProfileDAO{DB: db}
}

func (dao *ProfileDAO) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := dao.DB.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpsertUserProfile updates the existing profile row or inserts a fresh one.
// Goals and CurrentHabits are stored JSON-encoded into their text columns.
func (dao *ProfileDAO) UpsertUserProfile(ctx context.Context, userID string, req types.ProfileRequest) (*models.UserProfile, error) {
	now := time.Now()

	existing, err := dao.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := models.UserProfile{
		UserID:                userID,
		Gender:                req.Gender,
		Occupation:            req.Occupation,
		Age:                   req.Age,
		Height:                req.Height,
		Weight:                req.Weight,
		FitnessLevel:          req.FitnessLevel,
		Goals:                 encodeList(req.Goals),
		TrainingFrequency:     req.TrainingFrequency,
		PreferredTrainingTime: req.PreferredTrainingTime,
		DietaryRestrictions:   req.DietaryRestrictions,
		DailyCalories:         req.DailyCalories,
		ProteinGoal:           req.ProteinGoal,
		CurrentHabits:         encodeList(req.CurrentHabits),
		UpdatedAt:             now,
	}

	if existing != nil {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
		if err := dao.DB.WithContext(ctx).Save(&profile).Error; err != nil {
			return nil, err
		}
		return &profile, nil
	}

	profile.ID = uuid.New().String()
	profile.CreatedAt = now
	if err := dao.DB.WithContext(ctx).Create(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func encodeList(items []string) *string {
	if items == nil {
		return nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	encoded := string(data)
	return &encoded
}
