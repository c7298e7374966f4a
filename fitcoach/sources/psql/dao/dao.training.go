package dao

import (
	"context"
	"time"

	"fitcoach/fitcoach/sources/psql/models"
	"fitcoach/fitcoach/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrainingDAO struct {
	DB *gorm.DB
}

func NewTrainingDAO(db *gorm.DB) *TrainingDAO {
	return &TrainingDAO{DB: db}
}

// GetActiveTrainingDays returns the days of the user's active plan with their
// exercises, ordered by day number then exercise order. An empty slice means
// no active plan.
func (dao *TrainingDAO) GetActiveTrainingDays(ctx context.Context, userID string) ([]types.TrainingDayView, error) {
	var plan models.TrainingPlan
	err := dao.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&plan).Error
	if err == gorm.ErrRecordNotFound {
		return []types.TrainingDayView{}, nil
	}
	if err != nil {
		return nil, err
	}

	var days []models.TrainingDay
	err = dao.DB.WithContext(ctx).
		Where("plan_id = ?", plan.ID).
		Order("day_number ASC").
		Find(&days).Error
	if err != nil {
		return nil, err
	}

	views := make([]types.TrainingDayView, 0, len(days))
	for _, day := range days {
		var exercises []models.TrainingExercise
		err = dao.DB.WithContext(ctx).
			Where("day_id = ?", day.ID).
			Order("exercise_order ASC").
			Find(&exercises).Error
		if err != nil {
			return nil, err
		}

		view := types.TrainingDayView{
			ID:        day.ID,
			DayNumber: day.DayNumber,
			Name:      day.Name,
			IsRestDay: day.IsRestDay,
			Exercises: make([]types.TrainingExerciseView, 0, len(exercises)),
		}
		for _, ex := range exercises {
			view.Exercises = append(view.Exercises, types.TrainingExerciseView{
				ID:           ex.ID,
				ExerciseName: ex.ExerciseName,
				TargetMuscle: ex.TargetMuscle,
				Weight:       ex.Weight,
				Sets:         ex.Sets,
				Reps:         ex.Reps,
				Purpose:      ex.Purpose,
				Order:        ex.Order,
			})
		}
		views = append(views, view)
	}
	return views, nil
}

// SaveTrainingMenu deactivates the user's prior plans, then inserts a new
// active plan with its days and exercises. Rest days carry no exercises.
func (dao *TrainingDAO) SaveTrainingMenu(ctx context.Context, userID string, days []types.TrainingDayInput) error {
	now := time.Now()
	return dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.TrainingPlan{}).
			Where("user_id = ?", userID).
			Update("is_active", false).Error
		if err != nil {
			return err
		}

		plan := models.TrainingPlan{
			ID:        uuid.New().String(),
			UserID:    userID,
			Name:      "メインプログラム",
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&plan).Error; err != nil {
			return err
		}

		for _, dayInput := range days {
			day := models.TrainingDay{
				ID:        uuid.New().String(),
				PlanID:    plan.ID,
				DayNumber: dayInput.DayNumber,
				Name:      dayInput.Name,
				IsRestDay: dayInput.IsRestDay,
				CreatedAt: now,
			}
			if day.DayNumber == 0 {
				day.DayNumber = 1
			}
			if err := tx.Create(&day).Error; err != nil {
				return err
			}

			if dayInput.IsRestDay || len(dayInput.Exercises) == 0 {
				continue
			}
			exercises := make([]models.TrainingExercise, 0, len(dayInput.Exercises))
			for i, exInput := range dayInput.Exercises {
				order := i
				if exInput.Order != nil {
					order = *exInput.Order
				}
				exercises = append(exercises, models.TrainingExercise{
					ID:           uuid.New().String(),
					DayID:        day.ID,
					ExerciseName: exInput.ExerciseName,
					TargetMuscle: exInput.TargetMuscle,
					Weight:       exInput.Weight,
					Sets:         exInput.Sets,
					Reps:         exInput.Reps,
					Purpose:      exInput.Purpose,
					Order:        order,
					CreatedAt:    now,
				})
			}
			if err := tx.Create(&exercises).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
