// Package service holds the business rules of the API.
//
// Services sit between the HTTP handlers and the stores:
//
//	UserHandler  (HTTP) → AuthService, UserService (rules) → UserRepository (DB)
//	PhotoHandler (HTTP) → PhotoService (rules)             → PhotoRepository (DB)
//	                                                        ↘ storage.ImageStore
//
// Services never see HTTP: they take plain values plus the caller identity the
// Auth Gate resolved, and return model types or *apperror.AppError values.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/reactgram/internal/apperror"
	"github.com/sakif/reactgram/internal/auth"
	"github.com/sakif/reactgram/internal/model"
	"github.com/sakif/reactgram/internal/repository"
)

// AuthService registers users and logs them in.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → issue JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued token so the handler
// can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// RegisterInput is an already shape-validated registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates the account and issues its first token.
//
// FLOW:
//  1. Hash the password (bcrypt)
//  2. Insert; the store's UNIQUE constraint decides duplicate emails and
//     reports them as apperror.ErrConflict ("email already in use")
//  3. Issue a token for the new id
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		// Length limits are enforced by request validation, so this is a fault.
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for %s: %w", user.ID, err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	user.PasswordHash = ""
	return &AuthResult{User: user, Token: token}, nil
}

// Login checks email and password and issues a token.
//
// OUTCOMES:
//   - unknown email     → apperror.ErrNotFound ("user not found", 404)
//   - wrong password    → apperror.ErrInvalidCredentials (422, generic message)
//   - success           → the user (no hash) and a fresh token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetCredentialsByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("user not found")
		}
		return nil, fmt.Errorf("service/auth: looking up credentials: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Info("login rejected", slog.String("userID", user.ID))
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for %s: %w", user.ID, err)
	}

	user.PasswordHash = ""
	return &AuthResult{User: user, Token: token}, nil
}
