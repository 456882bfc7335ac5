package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ArowuTest/daily-lottery-backend/internal/models"
	"github.com/ArowuTest/daily-lottery-backend/internal/repositories"
	"github.com/ArowuTest/daily-lottery-backend/pkg/jwt"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error)
}

type authService struct {
	userRepo repositories.UserRepository
	tokens   *jwt.TokenService
	log      logrus.FieldLogger
}

// NewAuthService creates a new AuthService implementation
func NewAuthService(userRepo repositories.UserRepository, tokens *jwt.TokenService, log logrus.FieldLogger) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		log:      log.WithField("component", "auth_service"),
	}
}

// Register handles user registration
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	_, err := s.userRepo.FindByUsername(ctx, req.Username)
	switch {
	case err == nil:
		return nil, &ConflictError{Message: fmt.Sprintf("Username:'%s' is already taken!", req.Username)}
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("look up user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		Username:     req.Username,
		FullName:     req.FullName,
		PasswordHash: string(hashedPassword),
		EmailAddress: req.EmailAddress,
		PhoneNumber:  req.PhoneNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The lookup above races with concurrent registrations; the store's
	// unique index is the final word.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, &ConflictError{Message: fmt.Sprintf("Username:'%s' is already taken!", req.Username)}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.WithField("username", user.Username).Info("user registered")
	return user, nil
}

// Login checks credentials and issues a bearer token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.log.WithField("username", req.Username).Warn("failed login attempt")
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &models.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}
