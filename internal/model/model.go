// Package model defines domain entities used by services, repositories and the client session.
package model

import (
	"maps"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry
}

// Equipment is one door's specification. It has no identity of its own:
// its position in Record.Equipment is its identity.
type Equipment map[string]string

// Clone returns an independent copy.
func (e Equipment) Clone() Equipment {
	if e == nil {
		return Equipment{}
	}
	return maps.Clone(e)
}

// Record is one customer/job intake entry.
type Record struct {
	ID        string            // assigned by the store on first persist; empty for unsaved records
	Fields    map[string]string // named scalar fields
	Equipment []Equipment       // door specs, ordered
	CreatedAt time.Time         // set once by the store
	EditedAt  time.Time         // set on every persist
	Tokens    []string          // derived search tokens, maintained by the store
}

// Get returns a field value or "" when absent.
func (r Record) Get(field string) string {
	return r.Fields[field]
}

// IsZero reports whether r carries no content at all (the "no draft" state).
func (r Record) IsZero() bool {
	return r.ID == "" && len(r.Fields) == 0 && r.Equipment == nil &&
		r.CreatedAt.IsZero() && r.EditedAt.IsZero() && len(r.Tokens) == 0
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	if r.Fields != nil {
		out.Fields = maps.Clone(r.Fields)
	}
	if r.Equipment != nil {
		out.Equipment = make([]Equipment, len(r.Equipment))
		for i, e := range r.Equipment {
			out.Equipment[i] = e.Clone()
		}
	}
	if r.Tokens != nil {
		out.Tokens = append([]string(nil), r.Tokens...)
	}
	return out
}

// User represents an account stored on the server.
type User struct {
	ID          uuid.UUID // PK
	Username    string    // unique
	DisplayName string
	Email       string
	PwdHash     string // encoded Argon2id hash
	CreatedAt   time.Time
}

// Identity is the authenticated user as seen by the client.
type Identity struct {
	UserID      string
	DisplayName string
	Email       string
}

// Session is an active client login. A nil *Session means logged out.
type Session struct {
	Identity
	AccessToken string
	ExpiresAt   time.Time
}

// Preferences are persisted local settings of the intake client.
type Preferences struct {
	DarkMode     bool   `yaml:"darkMode"`
	MapsAPIKey   string `yaml:"mapsApiKey"`
	ActiveTab    string `yaml:"activeTab"`
	KeepInitials bool   `yaml:"keepInitials"`
}
