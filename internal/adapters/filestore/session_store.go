// Package filestore persists the console session in a single JSON file in
// the user's config directory.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	domainauth "github.com/target/crud-console/internal/domain/auth"
	"github.com/target/crud-console/internal/ports"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

// document is the on-disk shape. Both pieces live in one file so a rename
// replaces them together.
type document struct {
	Token    string          `json:"token"`
	UserData json.RawMessage `json:"userData"`
}

// SessionStore is a file-backed SessionPersister.
type SessionStore struct {
	mu   sync.Mutex
	path string
}

// NewSessionStore returns a store writing to path. The parent directory is
// created on first Save.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// DefaultPath is the session file under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "crudctl", "session.json"), nil
}

// Path returns the file the store writes to.
func (s *SessionStore) Path() string { return s.path }

func (s *SessionStore) Save(_ context.Context, token string, info domainauth.Info) error {
	userData, err := domainauth.MarshalInfo(info)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	data, err := json.Marshal(document{Token: token, UserData: userData})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), dirMode); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		return errors.Join(fmt.Errorf("write temp session file: %w", err), tmp.Close(), os.Remove(tmpPath))
	}
	if err := tmp.Chmod(fileMode); err != nil {
		return errors.Join(fmt.Errorf("chmod temp session file: %w", err), tmp.Close(), os.Remove(tmpPath))
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(fmt.Errorf("close temp session file: %w", err), os.Remove(tmpPath))
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return errors.Join(fmt.Errorf("replace session file: %w", err), os.Remove(tmpPath))
	}
	return nil
}

// Load returns ErrNoSession when the file is missing. A file holding only one
// of the two pieces, or one that cannot be decoded, is removed first.
func (s *SessionStore) Load(_ context.Context) (string, domainauth.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", domainauth.Info{}, ports.ErrNoSession
	}
	if err != nil {
		return "", domainauth.Info{}, fmt.Errorf("read session file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil || doc.Token == "" || isEmptyJSON(doc.UserData) {
		return "", domainauth.Info{}, s.discard()
	}
	info, err := domainauth.UnmarshalInfo(doc.UserData)
	if err != nil {
		return "", domainauth.Info{}, s.discard()
	}
	return doc.Token, info, nil
}

func (s *SessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove()
}

func (s *SessionStore) discard() error {
	if err := s.remove(); err != nil {
		return errors.Join(ports.ErrNoSession, err)
	}
	return ports.ErrNoSession
}

func (s *SessionStore) remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
