// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// Services accept primitives and return domain errors (apperror kinds) —
// they know nothing about HTTP, so the same rules would hold behind a gRPC
// surface or a CLI. Handlers translate the error kinds to status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/treyarte/messagely/internal/apperror"
	"github.com/treyarte/messagely/internal/auth"
	"github.com/treyarte/messagely/internal/model"
	"github.com/treyarte/messagely/internal/repository"
)

// AuthService handles registration, credential checks and token issuance.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → sign/verify session tokens
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
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

// RegisterRequest carries the fields of a registration.
type RegisterRequest struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// AuthResult bundles the user record and the issued token so the handler
// can respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account and logs it in.
//
// Rules:
//   - username and password are required (→ ErrValidation, a 400)
//   - the password is stored only as a bcrypt hash
//   - a duplicate username surfaces as ErrDuplicate, raised by the store's
//     uniqueness constraint so concurrent registrations can't race past it
//   - the new account is immediately logged in: last_login_at is set and a
//     session token is issued, exactly like Login
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if req.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password for %q: %w", username, err)
	}

	user := &model.User{
		Username:  username,
		Password:  hash,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
	}

	// The repository stamps JoinAt/LastLoginAt and reports duplicates.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("username", user.Username))

	token, err := s.tokens.Generate(user.Username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %q: %w", user.Username, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Authenticate reports whether the username/password pair is valid.
//
// An unknown username and a wrong password both return (false, nil) — a bad
// credential is a normal outcome, never an error. Errors are reserved for
// infrastructure failures (store unreachable, corrupt hash).
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	ok, err := s.passwords.Verify(user.Password, password)
	if err != nil {
		return false, fmt.Errorf("service/auth: verifying password for %q: %w", username, err)
	}
	return ok, nil
}

// Login validates credentials and issues a session token.
//
// Both fields are required (→ ErrValidation). A failed authentication —
// whether the user doesn't exist or the password is wrong — yields the one
// identical ErrInvalidCredentials response, so the API never reveals which
// usernames are registered.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, apperror.ValidationFailed("credentials", "username and password are required")
	}

	ok, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.InvalidCredentials()
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, username, now); err != nil {
		return nil, fmt.Errorf("service/auth: updating last login for %q: %w", username, err)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: reloading %q after login: %w", username, err)
	}

	s.logger.Info("user logged in", slog.String("username", username))

	token, err := s.tokens.Generate(username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %q: %w", username, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}
