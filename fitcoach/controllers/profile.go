package controllers

import (
	"context"

	"fitcoach/fitcoach/sources/psql/dao"
	"fitcoach/fitcoach/sources/psql/models"
	"fitcoach/fitcoach/types"
)

type ProfileController struct {
	profileDAO *dao.ProfileDAO
}

func NewProfileController(profileDAO *dao.ProfileDAO) *ProfileController {
	return &ProfileController{profileDAO: profileDAO}
}

// GetProfile returns nil when the user has not completed profile setup.
func (c *ProfileController) GetProfile(ctx context.Context, caller Caller) (*models.UserProfile, error) {
	return c.profileDAO.GetUserProfile(ctx, caller.UserID)
}

func (c *ProfileController) SaveProfile(ctx context.Context, caller Caller, req types.ProfileRequest) (*models.UserProfile, error) {
	return c.profileDAO.UpsertUserProfile(ctx, caller.UserID, req)
}
