package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("course", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("email", "email is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "InvalidCredentials wraps ErrInvalidCredentials",
			err:       InvalidCredentials(),
			target:    ErrInvalidCredentials,
			wantMatch: true,
		},
		{
			name:      "EmailInUse wraps ErrEmailInUse",
			err:       EmailInUse("a@x.com"),
			target:    ErrEmailInUse,
			wantMatch: true,
		},
		{
			name:      "WeakPassword wraps ErrWeakPassword",
			err:       WeakPassword(8),
			target:    ErrWeakPassword,
			wantMatch: true,
		},
		{
			name:      "Unavailable wraps ErrUnavailable",
			err:       Unavailable("course catalog", errors.New("connection refused")),
			target:    ErrUnavailable,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("course", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "InvalidCredentials does NOT match ErrEmailInUse",
			err:       InvalidCredentials(),
			target:    ErrEmailInUse,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

// Wrapped errors must stay matchable — services wrap repository errors with
// fmt.Errorf("...: %w", err) and handlers still need errors.Is to work.
func TestErrorsIs_ThroughWrapping(t *testing.T) {
	inner := NotFound("course", "missing-id")
	wrapped := fmt.Errorf("loading course detail: %w", inner)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("errors.Is should find ErrNotFound through a fmt.Errorf wrap")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should extract *AppError through a fmt.Errorf wrap")
	}
	if appErr.Message != "course not found with id missing-id" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound includes resource and id",
			err:         NotFound("course", "c1"),
			wantMessage: "course not found with id c1",
		},
		{
			name:        "EmailInUse includes the email",
			err:         EmailInUse("a@x.com"),
			wantMessage: "an account with email a@x.com already exists",
		},
		{
			name:        "WeakPassword includes the minimum length",
			err:         WeakPassword(8),
			wantMessage: "password must be at least 8 characters",
		},
		{
			name:        "InvalidCredentials does not name the failing field",
			err:         InvalidCredentials(),
			wantMessage: "invalid email or password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestValidationFailed_KeepsField(t *testing.T) {
	err := ValidationFailed("email", "email is required")
	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
}
