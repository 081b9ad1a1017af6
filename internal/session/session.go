// Package session holds the in-memory user session behind the settings
// screen's placeholder login. There is no real authentication: nothing
// is verified, nothing is persisted. Explicitly out of scope.
package session

import (
	"sync"

	"github.com/avolkov/orderledger/internal/models"
)

// Session swaps a single in-memory user value.
type Session struct {
	mu   sync.Mutex
	user *models.User
}

// New creates an empty, logged-out session.
func New() *Session {
	return &Session{}
}

// Login stores a session user for the given email. The password is
// accepted unchecked and discarded.
func (s *Session) Login(email, _ string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := models.User{Email: email, Authenticated: true}
	s.user = &user
	return user
}

// Logout clears the session user.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}

// Current returns the session user, or nil when logged out.
func (s *Session) Current() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}
