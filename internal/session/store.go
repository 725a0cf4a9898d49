package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	tokenFile = "token"
	nameFile  = "username"
)

// Store persists the session credential and display name under the state
// directory, one file per key. Every read goes to disk so a logout performed
// by another process is observed immediately.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create state dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Login persists the bearer token and display name. Subsequent
// IsAuthenticated calls return true until Logout.
func (s *Store) Login(token, displayName string) error {
	if token == "" {
		return fmt.Errorf("empty token")
	}
	if err := s.write(tokenFile, token); err != nil {
		return err
	}
	return s.write(nameFile, displayName)
}

// Logout removes both keys. Missing files are not an error.
func (s *Store) Logout() error {
	var firstErr error
	for _, name := range []string{tokenFile, nameFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// IsAuthenticated reports whether a token is present at call time. No expiry
// check happens here; a stale token surfaces as a per-operation API error.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Token returns the stored bearer token, or "" when logged out.
func (s *Store) Token() string {
	return s.read(tokenFile)
}

// DisplayName returns the stored display name, best effort.
func (s *Store) DisplayName() string {
	return s.read(nameFile)
}

func (s *Store) read(name string) string {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func (s *Store) write(name, value string) error {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(value), 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
