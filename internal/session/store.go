// Package session holds the application's authentication state.
//
// The Store is an explicit, injectable object — not a global — that owns
// the current Session snapshot and publishes every transition to its
// subscribers. Its state machine is small and strict:
//
//	Unknown(loading) → Authenticated | Anonymous   (first resolution, once)
//	Anonymous        → Authenticated               (sign-in / sign-up)
//	Authenticated    → Anonymous                   (sign-out)
//
// Nothing leaves Unknown except the first resolution in Start, and while
// the session is loading the identity is not authoritative — mutating calls
// are rejected so no consumer can act on a half-resolved session.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ighodev/learnhub/internal/model"
)

// ErrLoading is returned by mutating calls made before Start has resolved
// the initial session.
var ErrLoading = errors.New("session: still resolving")

// Session is an immutable snapshot of the authentication state.
// Loading=true means the identity fields are not yet authoritative.
type Session struct {
	UserID        string
	Authenticated bool
	Loading       bool
}

// Provider is the external authentication capability the store drives.
// AuthService implements it in-process; a remote client could equally.
//
// SignIn and SignUp return the authenticated user and a session token the
// caller may persist for later Restore. SignOut is best-effort — the store
// clears local state regardless of its outcome.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*model.User, string, error)
	SignUp(ctx context.Context, email, password string) (*model.User, string, error)
	SignOut(ctx context.Context, token string) error
	Restore(ctx context.Context, token string) (*model.User, error)
}

// Store holds the current session and notifies subscribers on every
// authentication-state transition.
type Store struct {
	provider Provider
	logger   *slog.Logger

	mu        sync.Mutex
	current   Session
	token     string
	resolved  bool
	nextSubID int
	listeners map[int]func(Session)
}

// NewStore creates a Store in the Unknown state (loading). Call Start to
// resolve it.
func NewStore(provider Provider, logger *slog.Logger) *Store {
	return &Store{
		provider:  provider,
		logger:    logger,
		current:   Session{Loading: true},
		listeners: make(map[int]func(Session)),
	}
}

// Start resolves the initial session exactly once. A non-empty savedToken
// from a previous visit is restored through the provider; a missing or
// rejected token resolves to Anonymous. Subscribers receive exactly one
// emission when loading flips to false.
func (s *Store) Start(ctx context.Context, savedToken string) {
	s.mu.Lock()
	if s.resolved {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	next := Session{}
	var token string

	if savedToken != "" {
		user, err := s.provider.Restore(ctx, savedToken)
		if err != nil {
			// A stale token is a normal anonymous start, not a failure.
			s.logger.Debug("session restore rejected", slog.String("error", err.Error()))
		} else {
			next = Session{UserID: user.ID, Authenticated: true}
			token = savedToken
		}
	}

	s.mu.Lock()
	if s.resolved {
		s.mu.Unlock()
		return
	}
	s.resolved = true
	s.current = next
	s.token = token
	s.mu.Unlock()

	s.emit(next)
}

// Current returns the session snapshot. Synchronous and always safe to
// call; check Loading before trusting the identity.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Token returns the current session token, empty when anonymous. Callers
// persist it to restore the session on the next start.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Subscribe registers a listener invoked with a snapshot on every
// transition. The returned function unsubscribes it.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// SignIn authenticates with email/password and transitions to
// Authenticated on success. Fails with ErrLoading before the initial
// resolution; provider errors (invalid credentials etc.) pass through.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	return s.authenticate(ctx, email, password, s.provider.SignIn)
}

// SignUp registers a new account and transitions to Authenticated on
// success.
func (s *Store) SignUp(ctx context.Context, email, password string) error {
	return s.authenticate(ctx, email, password, s.provider.SignUp)
}

func (s *Store) authenticate(
	ctx context.Context,
	email, password string,
	op func(context.Context, string, string) (*model.User, string, error),
) error {
	s.mu.Lock()
	if !s.resolved {
		s.mu.Unlock()
		return ErrLoading
	}
	s.mu.Unlock()

	user, token, err := op(ctx, email, password)
	if err != nil {
		return err
	}

	next := Session{UserID: user.ID, Authenticated: true}

	s.mu.Lock()
	s.current = next
	s.token = token
	s.mu.Unlock()

	s.emit(next)
	return nil
}

// SignOut always clears local state and emits the Anonymous snapshot; the
// provider-side invalidation is best-effort and never surfaced as blocking.
// A no-op while loading or already anonymous.
func (s *Store) SignOut(ctx context.Context) {
	s.mu.Lock()
	if !s.resolved || !s.current.Authenticated {
		s.mu.Unlock()
		return
	}
	token := s.token
	next := Session{}
	s.current = next
	s.token = ""
	s.mu.Unlock()

	s.emit(next)

	if err := s.provider.SignOut(ctx, token); err != nil {
		s.logger.Warn("remote sign-out failed", slog.String("error", err.Error()))
	}
}

// emit delivers the snapshot to all listeners outside the store lock, so a
// listener may call back into the store.
func (s *Store) emit(snapshot Session) {
	s.mu.Lock()
	fns := make([]func(Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}
