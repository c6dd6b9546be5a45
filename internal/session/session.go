// Package session stores the signed-in user's tokens between CLI runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/erazemk/invman/internal/auth"
	"github.com/erazemk/invman/internal/model"
)

// User is the profile returned at login.
type User struct {
	Email      string     `json:"email"`
	Username   string     `json:"username"`
	Privileges model.Role `json:"privileges"`
}

// Session is what a provider persists.
type Session struct {
	Tokens auth.TokenPair `json:"tokens"`
	User   User           `json:"user"`
}

// AccessExpired reports whether the access token has expired at now. A token
// that cannot be decoded counts as expired.
func (s *Session) AccessExpired(now time.Time) bool {
	return tokenExpired(s.Tokens.AccessToken, now)
}

// RefreshExpired reports whether the refresh token has expired at now.
func (s *Session) RefreshExpired(now time.Time) bool {
	return tokenExpired(s.Tokens.RefreshToken, now)
}

func tokenExpired(token string, now time.Time) bool {
	if token == "" {
		return true
	}
	claims, err := auth.ParseUnverified(token)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// Provider gets, sets and clears the current session. Get returns nil when
// nobody is signed in.
type Provider interface {
	Get() (*Session, error)
	Set(*Session) error
	Clear() error
}

// Memory keeps the session in process memory.
type Memory struct {
	mu sync.Mutex
	s  *Session
}

// Get returns a copy of the stored session.
func (m *Memory) Get() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, nil
	}
	s := *m.s
	return &s, nil
}

// Set stores a copy of s.
func (m *Memory) Set(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *s
	m.s = &c
	return nil
}

// Clear forgets the session.
func (m *Memory) Clear() error {
	m.mu.Lock()
	m.s = nil
	m.mu.Unlock()
	return nil
}

// File keeps the session as JSON in a file readable only by the owner.
type File struct {
	Path string
	mu   sync.Mutex
}

// NewFile returns a provider backed by path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Get reads the session file.
func (f *File) Get() (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &s, nil
}

// Set writes the session file, creating its directory.
func (f *File) Set(s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Clear removes the session file.
func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
