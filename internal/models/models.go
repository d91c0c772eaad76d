// Package models holds the row types for the four backend tables.
// Fields mirror the columns one to one; server-assigned values (ids,
// timestamps) are never set by the client.
package models

import (
	"time"
)

// User is the profile row paired with an authenticated identity.
// Exactly one row exists per identity; its id IS the identity id.
// Email and PasswordHash stay empty until the identity is upgraded
// from anonymous to email+password.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // never exposed in JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Importance is the event priority enumeration. The backend constrains
// the column to these three values.
type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

// Valid reports whether i is one of the three allowed values.
func (i Importance) Valid() bool {
	switch i {
	case ImportanceLow, ImportanceMedium, ImportanceHigh:
		return true
	}
	return false
}

// Event is a dated or undated item on the Events screen.
// A nil Time means an untimed event.
type Event struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Type       string     `json:"type"`
	Time       *time.Time `json:"time,omitempty"`
	Importance Importance `json:"importance"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CheckIn is one mood/energy entry. Timestamp is when the check-in
// logically happened; CreatedAt is when the row was written. Energy is
// constrained to 1..10 by the backend, not pre-validated here.
type CheckIn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Mood      string    `json:"mood"`
	Energy    int       `json:"energy"`
	Emotions  []string  `json:"emotions"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// Reflection is a free-text journal entry. Content must be non-empty,
// enforced by the backend.
type Reflection struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
