package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/treyarte/messagely/internal/model"
	"github.com/treyarte/messagely/internal/repository"
)

// UserService serves user listings and profile detail.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// List returns the public profile of every registered user.
func (s *UserService) List(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing users: %w", err)
	}
	return users, nil
}

// Get returns the full profile for a username, including join_at and
// last_login_at. The password hash stays inside the model and is excluded
// from serialization by its `json:"-"` tag. Unknown username → ErrNotFound.
func (s *UserService) Get(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return user, nil
}
