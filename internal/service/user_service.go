package service

import (
	"context"
	"time"

	"editorial/internal/middleware"
	"editorial/internal/models"
	"editorial/internal/repository"
)

type UserService struct {
	users     repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

// TokenResponse is returned on a successful staff login.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

func NewUserService(users repository.UserRepository, jwtSecret string, tokenTTL time.Duration) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &UserService{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Login checks staff credentials and issues an admin token.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if !user.CheckPassword(password) || !user.IsStaff {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	token, err := middleware.NewStaffToken(s.jwtSecret, user.ID, s.tokenTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &TokenResponse{Token: token, ExpiresIn: int64(s.tokenTTL.Seconds())}, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// Delete removes a user who authored no posts.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.users.Delete(ctx, id)
}
