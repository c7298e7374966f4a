package controllers

import (
	"context"
	"errors"

	"fitcoach/fitcoach/sources/psql/dao"
	"fitcoach/fitcoach/types"
)

var ErrInvalidTrainingDays = errors.New("invalid training days data")

type TrainingController struct {
	trainingDAO *dao.TrainingDAO
}

func NewTrainingController(trainingDAO *dao.TrainingDAO) *TrainingController {
	return &TrainingController{trainingDAO: trainingDAO}
}

func (c *TrainingController) GetTrainingMenu(ctx context.Context, caller Caller) (types.TrainingMenuResponse, error) {
	days, err := c.trainingDAO.GetActiveTrainingDays(ctx, caller.UserID)
	if err != nil {
		return types.TrainingMenuResponse{}, err
	}
	return types.TrainingMenuResponse{TrainingDays: days}, nil
}

// SaveTrainingMenu replaces the user's active plan; earlier plans are
// deactivated, not deleted.
func (c *TrainingController) SaveTrainingMenu(ctx context.Context, caller Caller, req types.SaveTrainingMenuRequest) error {
	if req.TrainingDays == nil {
		return ErrInvalidTrainingDays
	}
	return c.trainingDAO.SaveTrainingMenu(ctx, caller.UserID, req.TrainingDays)
}
