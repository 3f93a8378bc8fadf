package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/cotisations/internal/auth"
	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/storage"
)

// AuthService handles staff login and account bootstrap.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
	logger        *slog.Logger
}

// LoginResult is a session token and the user it belongs to.
type LoginResult struct {
	Token string
	User  *models.User
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users storage.UserStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		logger:        logger,
	}
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	s.logger.Info("Login request", "username", username)

	if username == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	user, err := s.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		s.logger.Warn("Login failed", "username", username, "error", err)
		return nil, auth.ErrInvalidCredentials
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, err
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "username", user.Username)
	return &LoginResult{Token: token, User: user}, nil
}

// EnsureAdmin creates the initial staff account when no account exists yet.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := s.users.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	user, err := s.authenticator.Register(ctx, username, password)
	if err != nil {
		return false, fmt.Errorf("failed to create initial account: %w", err)
	}

	s.logger.Warn("Created initial staff account, change its password", "username", user.Username)
	return true, nil
}

// SetPassword changes a staff password, creating the account if it does not exist.
func (s *AuthService) SetPassword(ctx context.Context, username, password string) error {
	s.logger.Info("SetPassword request", "username", username)

	err := s.authenticator.SetCredential(ctx, username, password)
	if errors.Is(err, models.ErrNotFound) {
		_, err = s.authenticator.Register(ctx, username, password)
	}
	if err != nil {
		s.logger.Error("SetPassword failed", "username", username, "error", err)
		return err
	}
	return nil
}
