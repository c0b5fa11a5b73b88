package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/and161185/intakedesk/internal/model"
)

// ErrNoSession is returned by SessionFile.Load when no valid session is stored.
var ErrNoSession = errors.New("no valid session (login required)")

// ConfigDir is the client's configuration directory under XDG_CONFIG_HOME
// (or ~/.config when unset).
func ConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "intakedesk")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "intakedesk")
}

type sessionFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
}

// SessionFile persists the login session between runs.
type SessionFile struct {
	Path string
	now  func() time.Time
}

// NewSessionFile stores the session as session.json inside dir.
func NewSessionFile(dir string) *SessionFile {
	return &SessionFile{Path: filepath.Join(dir, "session.json"), now: time.Now}
}

// Save writes s with owner-only permissions.
func (f *SessionFile) Save(s model.Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	out, err := os.OpenFile(f.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(sessionFile{
		AccessToken: s.AccessToken,
		ExpiresAt:   s.ExpiresAt,
		UserID:      s.UserID,
		DisplayName: s.DisplayName,
		Email:       s.Email,
	})
}

// Load returns the stored session, or ErrNoSession when it is missing or expired.
func (f *SessionFile) Load() (*model.Session, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var sf sessionFile
	if err := json.Unmarshal(b, &sf); err != nil {
		return nil, err
	}
	if sf.AccessToken == "" || f.now().After(sf.ExpiresAt) {
		return nil, ErrNoSession
	}
	return &model.Session{
		Identity:    model.Identity{UserID: sf.UserID, DisplayName: sf.DisplayName, Email: sf.Email},
		AccessToken: sf.AccessToken,
		ExpiresAt:   sf.ExpiresAt,
	}, nil
}

// Clear removes the stored session; a missing file is not an error.
func (f *SessionFile) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
