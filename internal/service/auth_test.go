package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/ighodev/learnhub/internal/apperror"
	"github.com/ighodev/learnhub/internal/auth"
	"github.com/ighodev/learnhub/internal/model"
)

// mockUserRepo is an in-memory UserRepository keyed by ID, email, and
// GitHub ID, mirroring the database's uniqueness rules.
type mockUserRepo struct {
	seq     int
	byID    map[string]*model.User
	failure error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byID: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.failure != nil {
		return m.failure
	}
	for _, existing := range m.byID {
		if existing.Email == user.Email {
			return apperror.EmailInUse(user.Email)
		}
	}
	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	copied := *user
	m.byID[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.failure != nil {
		return nil, m.failure
	}
	for _, u := range m.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.failure != nil {
		return nil, m.failure
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) UpsertGitHub(ctx context.Context, user *model.User) error {
	if m.failure != nil {
		return m.failure
	}
	for _, existing := range m.byID {
		if existing.GitHubID == user.GitHubID {
			existing.Email = user.Email
			user.ID = existing.ID
			return nil
		}
	}
	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	copied := *user
	m.byID[user.ID] = &copied
	return nil
}

func newTestAuthService(t *testing.T, users *mockUserRepo) *AuthService {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(users, tokens, passwords, logger)
}

func TestSignUp_CreatesUserAndIssuesToken(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(t, users)

	user, token, err := svc.SignUp(context.Background(), "New@Example.com ", "password1")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if user.Email != "new@example.com" {
		t.Errorf("email not normalized: got %q", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "password1" {
		t.Error("password must be stored hashed")
	}
	if token == "" {
		t.Error("SignUp() should issue a session token")
	}
}

func TestSignUp_RejectsWeakPassword(t *testing.T) {
	svc := newTestAuthService(t, newMockUserRepo())

	_, _, err := svc.SignUp(context.Background(), "a@example.com", "short")
	if !errors.Is(err, apperror.ErrWeakPassword) {
		t.Fatalf("err = %v, want ErrWeakPassword", err)
	}
}

func TestSignUp_RejectsBadEmail(t *testing.T) {
	svc := newTestAuthService(t, newMockUserRepo())

	for _, email := range []string{"", "   ", "not-an-email", "missing@domain@twice"} {
		_, _, err := svc.SignUp(context.Background(), email, "password1")
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("SignUp(%q): err = %v, want ErrValidation", email, err)
		}
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(t, users)

	if _, _, err := svc.SignUp(context.Background(), "dup@example.com", "password1"); err != nil {
		t.Fatalf("first SignUp() error = %v", err)
	}

	_, _, err := svc.SignUp(context.Background(), "dup@example.com", "password2")
	if !errors.Is(err, apperror.ErrEmailInUse) {
		t.Fatalf("err = %v, want ErrEmailInUse", err)
	}
}

func TestSignUp_StorageFailureIsUnavailable(t *testing.T) {
	users := newMockUserRepo()
	users.failure = errors.New("disk on fire")
	svc := newTestAuthService(t, users)

	_, _, err := svc.SignUp(context.Background(), "a@example.com", "password1")
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestSignIn_RoundTrip(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(t, users)

	created, _, err := svc.SignUp(context.Background(), "a@example.com", "password1")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	user, token, err := svc.SignIn(context.Background(), "a@example.com", "password1")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("signed-in user = %q, want %q", user.ID, created.ID)
	}
	if token == "" {
		t.Error("SignIn() should issue a session token")
	}
}

func TestSignIn_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(t, users)

	if _, _, err := svc.SignUp(context.Background(), "a@example.com", "password1"); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	_, _, errWrongPw := svc.SignIn(context.Background(), "a@example.com", "wrong-password")
	_, _, errNoUser := svc.SignIn(context.Background(), "nobody@example.com", "password1")

	if !errors.Is(errWrongPw, apperror.ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", errWrongPw)
	}
	if !errors.Is(errNoUser, apperror.ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", errNoUser)
	}
	if errWrongPw.Error() != errNoUser.Error() {
		t.Errorf("the two failures must be indistinguishable: %q vs %q",
			errWrongPw.Error(), errNoUser.Error())
	}
}

func TestSignIn_OAuthOnlyAccountHasNoPassword(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(t, users)

	gh := &auth.GitHubUser{ID: 99, Login: "octocat", Email: "octo@example.com"}
	if _, _, err := svc.LoginOrRegisterGitHub(context.Background(), gh); err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}

	_, _, err := svc.SignIn(context.Background(), "octo@example.com", "anything12")
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(t, users)

	created, token, err := svc.SignUp(context.Background(), "a@example.com", "password1")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	user, err := svc.Restore(context.Background(), token)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("restored user = %q, want %q", user.ID, created.ID)
	}
}

func TestRestore_RejectsGarbageToken(t *testing.T) {
	svc := newTestAuthService(t, newMockUserRepo())

	if _, err := svc.Restore(context.Background(), "not.a.token"); err == nil {
		t.Fatal("Restore() should reject a malformed token")
	}
}

func TestSignOut_AlwaysSucceeds(t *testing.T) {
	svc := newTestAuthService(t, newMockUserRepo())

	if err := svc.SignOut(context.Background(), "whatever"); err != nil {
		t.Fatalf("SignOut() error = %v, want nil", err)
	}
}

func TestLoginOrRegisterGitHub_UpsertKeepsID(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(t, users)

	gh := &auth.GitHubUser{ID: 7, Login: "octocat", Email: "old@example.com"}
	first, _, err := svc.LoginOrRegisterGitHub(context.Background(), gh)
	if err != nil {
		t.Fatalf("first login error = %v", err)
	}

	gh.Email = "new@example.com"
	second, _, err := svc.LoginOrRegisterGitHub(context.Background(), gh)
	if err != nil {
		t.Fatalf("second login error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("internal ID changed across logins: %q vs %q", first.ID, second.ID)
	}
	if second.Email != "new@example.com" {
		t.Errorf("email not refreshed: got %q", second.Email)
	}
}

func TestLoginOrRegisterGitHub_HiddenEmailFallsBack(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(t, users)

	gh := &auth.GitHubUser{ID: 42, Login: "ghost"}
	user, _, err := svc.LoginOrRegisterGitHub(context.Background(), gh)
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}

	want := "42+ghost@users.noreply.github.com"
	if user.Email != want {
		t.Errorf("fallback email = %q, want %q", user.Email, want)
	}
}
