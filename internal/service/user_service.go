package service

import (
	"context"
	"errors"
	"strings"

	"characterai/backend/internal/models"
	"characterai/backend/internal/repository"
	"characterai/backend/pkg/logger"
)

// UserService handles registration
type UserService struct {
	users repository.UserRepository
	log   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, log *logger.Logger) *UserService {
	return &UserService{users: users, log: log.WithComponent("users")}
}

// Register validates the request, hashes the password and stores the user.
// A taken email is reported as a validation error.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    email,
		Password: hash,
		Avatar:   req.Avatar,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailTaken()
		}
		return nil, err
	}

	s.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

func emailTaken() error {
	verr := &models.ValidationError{}
	verr.Add("email", "is already registered")
	return verr
}
