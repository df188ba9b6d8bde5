package service

import (
	"context"
	"errors"
	"fmt"
	"go-music-api/logger"
	"go-music-api/model"
	"go-music-api/repository"
)

// UserService handles account registration.
type UserService struct {
	userRepo repository.IUserRepository
	hasher   *PasswordHasher
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.IUserRepository, hasher *PasswordHasher) *UserService {
	return &UserService{userRepo: userRepo, hasher: hasher}
}

// Register hashes the password before the user is first written.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: %w", err)
	}

	user := &model.User{
		Username: req.Username,
		Fullname: req.Fullname,
		Email:    req.Email,
		Password: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("could not create user: %w", err)
	}

	logger.Log.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}
