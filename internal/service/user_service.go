package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"yatube-backend/internal/model"
	"yatube-backend/internal/policy"
	"yatube-backend/internal/utils"
)

// UserService manages accounts.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Create registers a user. Input problems come back as *policy.ValidationError.
func (s *UserService) Create(ctx context.Context, username, password string, isStaff bool) (*model.User, error) {
	if utils.IsUsernameInvalid(username) {
		return nil, policy.NewValidationError("username",
			"Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	if len(password) < utils.PASSWORD_MIN_LEN {
		return nil, policy.NewValidationError("password",
			fmt.Sprintf("This password is too short. It must contain at least %d characters.", utils.PASSWORD_MIN_LEN))
	}
	hash, err := utils.Encode(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Username: username, Password: hash, IsStaff: isStaff}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, policy.NewValidationError("username", "A user with that username already exists.")
		}
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user when password matches, else ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	ok, err := utils.Matches(user.Password, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}
