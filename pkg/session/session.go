package session

import (
	"errors"
	"fmt"
	"sync"

	"roundbuy/pkg/logger"
	"roundbuy/pkg/models"
)

// State is the session lifecycle position. The only legal moves are
// init -> authenticated, init -> unauthenticated,
// authenticated <-> unauthenticated, and any state -> disposed.
type State string

const (
	StateInit            State = "init"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
	StateDisposed        State = "disposed"
)

var (
	ErrDisposed          = errors.New("session disposed")
	ErrInvalidTransition = errors.New("invalid session transition")
)

// Session is an explicit auth-state object injected into consumers,
// replacing ambient global auth context. All methods are safe for
// concurrent use.
type Session struct {
	mu    sync.Mutex
	state State
	store *Store
	user  *models.User
}

// New wraps a credential store in a session starting at StateInit.
func New(store *Store) *Session {
	return &Session{state: StateInit, store: store}
}

// Store exposes the underlying credential store (it doubles as the
// transport token source).
func (s *Session) Store() *Store { return s.store }

// Restore moves out of StateInit based on persisted credentials:
// a stored token plus cached profile resumes an authenticated
// session, anything less lands unauthenticated.
func (s *Session) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return ErrDisposed
	}
	if s.state != StateInit {
		return fmt.Errorf("%w: restore from %s", ErrInvalidTransition, s.state)
	}

	tok, err := s.store.AccessToken()
	if err != nil {
		return err
	}
	user, err := s.store.User()
	if err != nil {
		return err
	}
	if tok != "" && user != nil {
		s.user = user
		s.state = StateAuthenticated
		logger.Info("session_restored", "user", user.ID)
	} else {
		s.state = StateUnauthenticated
	}
	return nil
}

// Authenticate records a successful login.
func (s *Session) Authenticate(u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateDisposed:
		return ErrDisposed
	case StateInit, StateUnauthenticated, StateAuthenticated:
		s.user = &u
		s.state = StateAuthenticated
		return nil
	default:
		return fmt.Errorf("%w: authenticate from %s", ErrInvalidTransition, s.state)
	}
}

// Invalidate drops the authenticated user and clears stored
// credentials. Used for logout and for RequireLogin failures.
func (s *Session) Invalidate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return ErrDisposed
	}
	s.user = nil
	s.state = StateUnauthenticated
	return s.store.Clear()
}

// Dispose closes the store; the session is unusable afterwards.
func (s *Session) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return nil
	}
	s.state = StateDisposed
	s.user = nil
	return s.store.Close()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool {
	return s.State() == StateAuthenticated
}

// User returns the signed-in user, or nil.
func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}
