package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitcoach/fitcoach/config"
	"fitcoach/fitcoach/sources/psql/dao"
	"fitcoach/fitcoach/sources/psql/models"
	"fitcoach/fitcoach/types"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type AuthController struct {
	userDAO *dao.UserDAO
	cfg     config.Config
}

func NewAuthController(userDAO *dao.UserDAO, cfg config.Config) *AuthController {
	return &AuthController{userDAO: userDAO, cfg: cfg}
}

func (c *AuthController) Register(ctx context.Context, email, password string) (types.TokenResponse, error) {
	existing, err := c.userDAO.GetUserByEmail(ctx, email)
	if err != nil {
		return types.TokenResponse{}, err
	}
	if existing != nil {
		return types.TokenResponse{}, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.TokenResponse{}, err
	}
	user, err := c.userDAO.CreateUser(ctx, email, string(hash), models.UserTypeRegular)
	if err != nil {
		return types.TokenResponse{}, err
	}
	return c.issueToken(user)
}

func (c *AuthController) Login(ctx context.Context, email, password string) (types.TokenResponse, error) {
	user, err := c.userDAO.GetUserByEmail(ctx, email)
	if err != nil {
		return types.TokenResponse{}, err
	}
	if user == nil {
		return types.TokenResponse{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return types.TokenResponse{}, ErrInvalidCredentials
	}
	return c.issueToken(user)
}

// GuestLogin creates a throwaway guest-tier account and issues its token.
func (c *AuthController) GuestLogin(ctx context.Context) (types.TokenResponse, error) {
	email := fmt.Sprintf("guest-%s@fitcoach.local", uuid.New().String()[:8])
	user, err := c.userDAO.CreateUser(ctx, email, "", models.UserTypeGuest)
	if err != nil {
		return types.TokenResponse{}, err
	}
	return c.issueToken(user)
}

func (c *AuthController) issueToken(user *models.User) (types.TokenResponse, error) {
	claims := jwt.MapClaims{
		"user_id":   user.ID,
		"user_type": user.UserType,
		"exp":       time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.cfg.JWTSecret))
	if err != nil {
		return types.TokenResponse{}, err
	}
	return types.TokenResponse{
		Token:    signed,
		UserID:   user.ID,
		UserType: user.UserType,
	}, nil
}
