// Package service contains the business logic layer:
//
//	Handler (HTTP) → Service (business rules) → Repository (DB)
//
// Services accept primitives and return domain errors from
// internal/apperror — they know nothing about HTTP, and the handlers know
// nothing about SQL. The session store and view controller consume the same
// services through the contracts they define (session.Provider,
// app.CourseBrowser), so one implementation backs both the HTTP API and the
// in-process client.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/ighodev/learnhub/internal/apperror"
	"github.com/ighodev/learnhub/internal/auth"
	"github.com/ighodev/learnhub/internal/model"
	"github.com/ighodev/learnhub/internal/repository"
	"github.com/ighodev/learnhub/internal/session"
)

// MinPasswordLength is the weakest password sign-up accepts.
const MinPasswordLength = 8

// AuthService owns every authentication rule: credential validation,
// account creation, password verification, and session token issue/restore.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// AuthService is the session store's provider — the compile-time check
// keeps the two packages' contracts from drifting apart.
var _ session.Provider = (*AuthService)(nil)

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

// SignUp registers a new email/password account and signs the user in,
// returning the created user and a session token.
//
// Failure modes map onto the auth error taxonomy: a malformed email is
// ErrValidation, a short password ErrWeakPassword, a taken email
// ErrEmailInUse, and a storage failure ErrUnavailable.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*model.User, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, "", err
	}

	if len(password) < MinPasswordLength {
		return nil, "", apperror.WeakPassword(MinPasswordLength)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrEmailInUse) {
			return nil, "", err
		}
		s.logger.Error("sign-up failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, "", apperror.Unavailable("sign-up", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return user, token, nil
}

// SignIn authenticates an existing email/password account.
//
// An unknown email and a wrong password both return ErrInvalidCredentials —
// the two cases are deliberately indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*model.User, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, "", apperror.InvalidCredentials()
		}
		s.logger.Error("sign-in lookup failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, "", apperror.Unavailable("sign-in", err)
	}

	// OAuth-only accounts have no password hash; they can't sign in with
	// a password at all.
	if user.PasswordHash == "" {
		return nil, "", apperror.InvalidCredentials()
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, "", apperror.InvalidCredentials()
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user signed in", slog.String("userID", user.ID))

	return user, token, nil
}

// SignOut invalidates a session. Tokens are stateless JWTs, so there is
// nothing to revoke server-side; the call exists for the session store's
// best-effort contract and always succeeds.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if userID, err := s.tokens.Validate(token); err == nil {
		s.logger.Info("user signed out", slog.String("userID", userID))
	}
	return nil
}

// Restore resolves a saved session token back into a user — this is the
// "already signed in from a previous visit" path the session store runs at
// startup. An invalid or expired token is a plain error; the store treats
// it as an anonymous start, not a failure.
func (s *AuthService) Restore(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: restoring session for user %s: %w", userID, err)
	}

	return user, nil
}

// GetUserByID returns the user for the given internal ID. Used by the
// /api/me handler after the middleware validates the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}

// LoginOrRegisterGitHub handles the OAuth callback: upsert the user keyed
// by GitHub ID (insert on first login, refresh email on later ones) and
// issue a session token.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*model.User, string, error) {
	if ghUser == nil {
		return nil, "", fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID: ghUser.ID,
		Email:    ghUser.Email,
	}
	// GitHub lets users hide their email; fall back to the noreply form so
	// the unique email column is always populated.
	if user.Email == "" {
		user.Email = fmt.Sprintf("%d+%s@users.noreply.github.com", ghUser.ID, ghUser.Login)
	}

	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		s.logger.Error("GitHub upsert failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		return nil, "", apperror.Unavailable("sign-in", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.Int64("githubID", ghUser.ID),
	)

	return user, token, nil
}

// normalizeEmail lowercases, trims, and syntax-checks an email address.
// The provider-side check is intentionally shallow — net/mail accepts
// anything RFC 5322 accepts.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperror.ValidationFailed("email", "email address is not valid")
	}
	return email, nil
}
