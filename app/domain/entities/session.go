package entities

import (
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a session id is unknown or has expired.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists is returned when creating a session whose id is already taken.
var ErrSessionExists = errors.New("session already exists")

// Credential is what the proxy needs to call the helpdesk API on behalf of an agent.
type Credential struct {
	Email     string `json:"email"`
	APIToken  string `json:"-"`
	Subdomain string `json:"subdomain"`
}

// Session maps an opaque cookie value to a stored credential.
type Session struct {
	ID string
	Credential
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at t.
func (s *Session) Expired(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && !t.Before(s.ExpiresAt)
}

// User is the identity returned by the helpdesk "who am I" endpoint.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
