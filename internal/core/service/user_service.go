package service

import (
	"context"

	"github.com/pkg/errors"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var ErrUserNotFound = errors.WithMessage(domain.ErrNotFound, "user not found")

type UserService struct {
	users port.UserRepository
	demo  domain.User
}

func NewUserService(users port.UserRepository, demo domain.User) *UserService {
	return &UserService{users: users, demo: demo}
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// SeedDemoUser creates the demo user unless its email is already registered.
func (s *UserService) SeedDemoUser(ctx context.Context) (*domain.User, error) {
	user, err := s.users.UpsertUserByEmail(ctx, s.demo)
	if err != nil {
		return nil, errors.Wrap(err, "seed demo user")
	}
	return user, nil
}
