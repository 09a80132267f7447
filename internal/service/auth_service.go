package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	config "contentfactory/configs"
	"contentfactory/internal/models"
	"contentfactory/internal/repository"
	"contentfactory/pkg/utils"
	"golang.org/x/crypto/bcrypt"
)

const tokenDuration = 5 * 24 * time.Hour

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	Info(ctx context.Context, userID int64) (*models.User, error)
}

type authService struct {
	cfg   config.Config
	users repository.UserRepository
}

func NewAuthService(cfg config.Config, users repository.UserRepository) AuthService {
	return &authService{cfg: cfg, users: users}
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		slog.Warn("failed login attempt, user not found", "email", email)
		return "", nil, ErrInvalidCredentials
	}

	match := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
	if !match {
		// Legacy rows may still hold a plain-text password.
		match = user.PasswordHash == password
	}
	if !match {
		slog.Warn("failed login attempt, wrong password", "email", email)
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(s.cfg.JWTSecret, fmt.Sprintf("%d", user.ID), tokenDuration)
	if err != nil {
		return "", nil, err
	}

	slog.Info("user logged in", "email", email)
	return token, user, nil
}

func (s *authService) Info(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
