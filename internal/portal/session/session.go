// Package session holds the portal's signed-in state. It is passed
// explicitly to the API client and persisted to a small file so CLI
// invocations share one login.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// User is the signed-in account as the portal sees it.
type User struct {
	ID    string `mapstructure:"id" json:"id"`
	Name  string `mapstructure:"name" json:"name"`
	Email string `mapstructure:"email" json:"email"`
	Role  string `mapstructure:"role" json:"role"`
}

// State is a snapshot of the session.
type State struct {
	Token     string
	User      User
	ExpiresAt time.Time
}

// Authenticated reports whether the state holds an unexpired token.
func (s State) Authenticated(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Session is the shared, observable session. The zero value is not usable;
// call New.
type Session struct {
	mu     sync.RWMutex
	path   string
	state  State
	nextID int
	subs   map[int]func(State)
}

// New creates a session persisted at path and loads any saved state. An
// empty path keeps the session in memory only.
func New(path string) (*Session, error) {
	s := &Session{path: path, subs: make(map[int]func(State))}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// DefaultPath returns the session file under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "freightdesk", "session.yaml"), nil
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token returns the bearer token, or "".
func (s *Session) Token() string {
	return s.State().Token
}

// Set stores a new login, persists it and notifies subscribers.
func (s *Session) Set(token string, user User, expiresAt time.Time) error {
	s.mu.Lock()
	s.state = State{Token: token, User: user, ExpiresAt: expiresAt}
	err := s.save()
	s.mu.Unlock()

	s.notify()
	return err
}

// Clear drops the login, removes the saved file and notifies subscribers.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.state = State{}
	var err error
	if s.path != "" {
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = fmt.Errorf("remove session file: %w", rmErr)
		}
	}
	s.mu.Unlock()

	s.notify()
	return err
}

// Refresh reloads the saved state, picking up logins made by another
// process, and notifies subscribers.
func (s *Session) Refresh() error {
	if err := s.load(); err != nil {
		return err
	}
	s.notify()
	return nil
}

// Subscribe registers fn for every change. The returned func unsubscribes.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) notify() {
	s.mu.RLock()
	state := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(state)
	}
}

func (s *Session) load() error {
	if s.path == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.mu.Lock()
			s.state = State{}
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read session file: %w", err)
	}

	var user User
	if err := v.UnmarshalKey("user", &user); err != nil {
		return fmt.Errorf("decode session user: %w", err)
	}

	s.mu.Lock()
	s.state = State{
		Token:     v.GetString("token"),
		User:      user,
		ExpiresAt: v.GetTime("expires_at"),
	}
	s.mu.Unlock()
	return nil
}

// save must be called with s.mu held.
func (s *Session) save() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("token", s.state.Token)
	v.Set("expires_at", s.state.ExpiresAt.UTC().Format(time.RFC3339))
	v.Set("user", map[string]any{
		"id":    s.state.User.ID,
		"name":  s.state.User.Name,
		"email": s.state.User.Email,
		"role":  s.state.User.Role,
	})
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open session file: %w", err)
	}
	if err := v.WriteConfigTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	// A file left by an older build may still be world-readable.
	return os.Chmod(s.path, 0o600)
}
