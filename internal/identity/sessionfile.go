package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// SessionFile keeps the current session token on disk between runs.
type SessionFile struct {
	path string
}

type sessionState struct {
	Token string `json:"token"`
	Email string `json:"email,omitempty"`
}

func NewSessionFile(path string) *SessionFile {
	return &SessionFile{path: strings.TrimSpace(path)}
}

// Load returns the stored token, or "" when there is none.
func (f *SessionFile) Load() (string, error) {
	if f.path == "" {
		return "", nil
	}
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", nil
	}
	var state sessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return "", err
	}
	return strings.TrimSpace(state.Token), nil
}

func (f *SessionFile) Save(sess Session) error {
	if f.path == "" {
		return nil
	}
	dir := filepath.Dir(f.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	payload, err := json.MarshalIndent(sessionState{Token: sess.Token, Email: sess.Account.Email}, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *SessionFile) Clear() error {
	if f.path == "" {
		return nil
	}
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
