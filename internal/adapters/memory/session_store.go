// Package memory provides an in-process SessionPersister, used by tests and
// by short-lived commands that should not leave a session behind.
package memory

import (
	"context"
	"slices"
	"sync"

	domainauth "github.com/target/crud-console/internal/domain/auth"
	"github.com/target/crud-console/internal/ports"
)

// SessionStore keeps the token and its metadata under one lock.
type SessionStore struct {
	mu    sync.RWMutex
	token string
	info  *domainauth.Info
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Save(_ context.Context, token string, info domainauth.Info) error {
	info.Roles = slices.Clone(info.Roles)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.info = &info
	return nil
}

func (s *SessionStore) Load(_ context.Context) (string, domainauth.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.info == nil {
		return "", domainauth.Info{}, ports.ErrNoSession
	}
	info := *s.info
	info.Roles = slices.Clone(info.Roles)
	return s.token, info, nil
}

func (s *SessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.info = nil
	return nil
}
