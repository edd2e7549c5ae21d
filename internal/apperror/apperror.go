package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")

	// Authentication failures surfaced to the auth screens.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrWeakPassword       = errors.New("weak password")

	// ErrUnavailable covers transient backend/network failures. Callers
	// log it and degrade to an empty view — it is never fatal and is
	// never retried automatically.
	ErrUnavailable = errors.New("backend unavailable")
)

type AppError struct {
	Err     error  // sentinel the error wraps
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// InvalidCredentials deliberately carries the same message for an unknown
// email and a wrong password, so a caller can't probe which emails exist.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid email or password",
	}
}

func EmailInUse(email string) *AppError {
	return &AppError{
		Err:     ErrEmailInUse,
		Message: fmt.Sprintf("an account with email %s already exists", email),
		Field:   "email",
	}
}

func WeakPassword(minLength int) *AppError {
	return &AppError{
		Err:     ErrWeakPassword,
		Message: fmt.Sprintf("password must be at least %d characters", minLength),
		Field:   "password",
	}
}

// Unavailable wraps a lower-level failure (network, database) as a
// transient backend error. The underlying cause stays reachable through
// errors.Is/As via the Err chain.
func Unavailable(op string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %v", ErrUnavailable, op, cause),
		Message: fmt.Sprintf("%s is temporarily unavailable", op),
	}
}
