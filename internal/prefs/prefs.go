// Package prefs loads and stores the intake shell's local preferences.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/and161185/intakedesk/internal/model"
)

// DefaultTab is the active tab of a fresh installation.
const DefaultTab = "job"

// Store reads and writes preferences at Path.
type Store struct {
	Path string
}

// New keeps preferences in prefs.yaml inside dir.
func New(dir string) *Store {
	return &Store{Path: filepath.Join(dir, "prefs.yaml")}
}

// Defaults returns the preferences used when no file exists.
func Defaults() model.Preferences {
	return model.Preferences{ActiveTab: DefaultTab}
}

// Load returns the stored preferences. Keys absent from the file keep their defaults.
func (s *Store) Load() (model.Preferences, error) {
	p := Defaults()
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Defaults(), fmt.Errorf("parse %s: %w", s.Path, err)
	}
	if p.ActiveTab == "" {
		p.ActiveTab = DefaultTab
	}
	return p, nil
}

// Save replaces the file with p.
func (s *Store) Save(p model.Preferences) error {
	raw, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, raw, 0o600)
}
