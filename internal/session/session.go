// Package session persists the bearer token between runs.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EnvToken overrides the token file when set.
const EnvToken = "PROJECTDESK_TOKEN"

// Store holds the current token in memory and mirrors it to a file.
// It is safe for concurrent use: the API client reads it from command
// goroutines while the unauthorized callback may clear it.
type Store struct {
	mu    sync.RWMutex
	path  string
	token string
	now   func() time.Time
}

// Open loads the token using precedence: env var > file > empty.
// A JWT whose exp claim is already in the past is treated as absent.
// A missing file is not an error.
func Open(path string) (*Store, error) {
	s := &Store{path: path, now: time.Now}
	if tok := strings.TrimSpace(os.Getenv(EnvToken)); tok != "" {
		s.token = tok
	} else {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("session.Open: %w", err)
		}
		s.token = strings.TrimSpace(string(data))
	}
	if s.token != "" && Expired(s.token, s.now()) {
		s.token = ""
	}
	return s, nil
}

// Path is the token file location.
func (s *Store) Path() string {
	return s.path
}

// Token returns the current token, or "" when there is no session.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// LoggedIn reports whether a token is held.
func (s *Store) LoggedIn() bool {
	return s.Token() != ""
}

// Save stores tok and writes it to the token file with 0600 permissions.
func (s *Store) Save(tok string) error {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return errors.New("session.Save: empty token")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("session.Save: create dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(tok), 0600); err != nil {
		return fmt.Errorf("session.Save: %w", err)
	}
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
	return nil
}

// Clear drops the in-memory token and removes the token file.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session.Clear: %w", err)
	}
	return nil
}

// Expired peeks at the exp claim of a JWT without verifying its signature.
// The server remains the authority; this only avoids a request that is
// certain to fail. Tokens that are not JWTs, or carry no exp, never expire.
func Expired(tok string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}
