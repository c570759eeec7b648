// Package session tracks who is signed in on the client side.
package session

import (
	"errors"
	"sync"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
)

type State int

const (
	StateLoading State = iota
	StateAnonymous
	StateAuthenticated
)

var (
	ErrSessionLoading = errors.New("session is still loading")
	ErrSignInRequired = errors.New("sign in required")
)

type Session struct {
	mu    sync.RWMutex
	state State
	user  model.User
	token string
}

// New returns a session whose auth state is not resolved yet.
func New() *Session {
	return &Session{state: StateLoading}
}

func NewAuthenticated(user model.User, token string) *Session {
	s := New()
	s.Authenticate(user, token)
	return s
}

func NewAnonymous() *Session {
	s := New()
	s.SignOut()
	return s
}

func (s *Session) Authenticate(user model.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticated
	s.user = user
	s.token = token
}

func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAnonymous
	s.user = model.User{}
	s.token = ""
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the signed-in user. While the session is loading it returns
// ErrSessionLoading rather than ErrSignInRequired.
func (s *Session) User() (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.state {
	case StateLoading:
		return model.User{}, ErrSessionLoading
	case StateAnonymous:
		return model.User{}, ErrSignInRequired
	}
	return s.user, nil
}

// IsAuthor reports whether the signed-in user wrote c.
func (s *Session) IsAuthor(c model.Comment) bool {
	u, err := s.User()
	return err == nil && u.ID != "" && u.ID == c.UserID
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}
