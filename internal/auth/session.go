package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnvSessionFile overrides where the session is persisted. Used by tests
// and by deployments that keep state out of the user config dir.
const EnvSessionFile = "EMBER_SESSION_FILE"

// Session is the persisted anonymous (or upgraded) session. It is what
// lets an identity survive app restarts.
type Session struct {
	UserID  string    `json:"user_id"`
	Email   string    `json:"email,omitempty"`
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

func sessionPath() (string, error) {
	if p := os.Getenv(EnvSessionFile); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "ember", "session.json"), nil
}

// loadSession reads the persisted session. A missing file is not an
// error; it just means no session exists yet.
func loadSession() (*Session, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return &s, nil
}

// saveSession writes the session atomically (temp file + rename) so a
// crash mid-write cannot corrupt the stored token.
func saveSession(s *Session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	s.SavedAt = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// clearSession removes the persisted session if one exists.
func clearSession() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
