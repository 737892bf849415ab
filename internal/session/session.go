// Package session persists the logged-in user's bearer token between
// invocations. Commands load a Session once and pass its token explicitly
// to every authenticated API call.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dedene/socialthread-cli/internal/api"
)

// ErrNotLoggedIn is returned when a command needs a session and none exists.
var ErrNotLoggedIn = errors.New("not logged in; run 'socialthread login' first")

// Session is a stored login.
type Session struct {
	Token     string    `json:"token"`
	User      *api.User `json:"user,omitempty"`
	APIURL    string    `json:"api_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LoggedIn reports whether s carries a token.
func (s *Session) LoggedIn() bool {
	return s != nil && s.Token != ""
}

// Email returns the logged-in user's email, or "" when unknown.
func (s *Session) Email() string {
	if s == nil || s.User == nil {
		return ""
	}

	return s.User.Email
}

// Load reads the session file at path. A missing or corrupt file yields
// (nil, nil): the user simply has to log in again.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is internal state, not untrusted input
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, nil //nolint:nilerr
	}

	if !s.LoggedIn() {
		return nil, nil
	}

	return &s, nil
}

// Save writes s to path with owner-only permissions.
func Save(path string, s *Session) error {
	if !s.LoggedIn() {
		return errors.New("refusing to save session without token")
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	return atomicWrite(path, append(data, '\n'))
}

// Clear removes the session file. Removing a missing file is not an error.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}

	return nil
}

// atomicWrite writes data to path via temp-file + rename. CreateTemp
// creates the file with mode 0600.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	tmpPath = ""

	return nil
}

type ctxKey struct{}

// WithSession stores s in the context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext retrieves the Session from the context, or nil.
func FromContext(ctx context.Context) *Session {
	if v := ctx.Value(ctxKey{}); v != nil {
		if s, ok := v.(*Session); ok {
			return s
		}
	}

	return nil
}

// Require returns the context's session or ErrNotLoggedIn.
func Require(ctx context.Context) (*Session, error) {
	s := FromContext(ctx)
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}

	return s, nil
}
