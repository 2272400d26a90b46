// Package session persists the operator's bearer token between console
// invocations and enforces the login requirement before authenticated
// commands run.
package session

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/slopewatch/slopewatch-go/internal/errors"
	"github.com/slopewatch/slopewatch-go/internal/logging"
)

var sessionLogger *slog.Logger

func init() {
	sessionLogger = logging.ForService("session")
}

// ErrNotLoggedIn is returned when an authenticated command starts without
// a stored token.
var ErrNotLoggedIn = errors.NewStd("not logged in, run `slopewatch login` first")

// Store holds the session token, backed by a single file. One logical
// writer (the operator) but safe for concurrent reads from request hooks.
type Store struct {
	mu    sync.RWMutex
	path  string
	token string
}

// NewStore creates a store backed by the given file path. The file is not
// read until Load is called.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the token file into memory. A missing file is not an error;
// it just means no session.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.token = ""
			return nil
		}
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "load_token").
			Build()
	}
	s.token = strings.TrimSpace(string(data))
	return nil
}

// Save stores a new token in memory and on disk. The file is owner-only:
// it is a credential.
func (s *Store) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "save_token").
			Build()
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "save_token").
			Build()
	}
	s.token = token
	return nil
}

// Clear removes the session token from memory and disk. Used by explicit
// logout and by the global 401 handler.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		sessionLogger.Warn("failed to remove token file", "path", s.path, "error", err)
	}
}

// Token returns the current token, empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Require returns ErrNotLoggedIn when no token is stored. Authenticated
// commands call this before doing anything else.
func (s *Store) Require() error {
	if s.Token() == "" {
		return errors.New(ErrNotLoggedIn).
			Category(errors.CategoryAuth).
			Build()
	}
	return nil
}
