package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/marketconnect/helpdesk-proxy/app/domain/entities"
)

// DefaultTTL is the session and cookie lifetime used when none is configured.
const DefaultTTL = 8 * time.Hour

// idBytes is the amount of CSPRNG output behind a session id (256 bits).
const idBytes = 32

type Repository interface {
	Init() error
	Close() error
	CreateSession(sess *entities.Session) error
	GetSession(sessionID string) (*entities.Session, error)
	DeleteSession(sessionID string) error
	DeleteExpired(now time.Time) (int, error)
	CountSessions() (int, error)
}

type SessionManager struct {
	repository Repository
	ttl        time.Duration
	now        func() time.Time
}

// NewSessionManager creates a new SessionManager with the provided repository.
// Sessions expire ttl after creation; a zero ttl disables server-side expiry.
func NewSessionManager(repo Repository, ttl time.Duration) *SessionManager {
	return &SessionManager{
		repository: repo,
		ttl:        ttl,
		now:        time.Now,
	}
}

// TTL is the lifetime given to new sessions and their cookies.
func (sm *SessionManager) TTL() time.Duration {
	if sm.ttl <= 0 {
		return DefaultTTL
	}
	return sm.ttl
}

// Close closes the underlying repository connection if applicable.
func (sm *SessionManager) Close() error {
	if sm.repository != nil {
		return sm.repository.Close()
	}
	return nil
}

// Create stores the credential under a fresh unguessable id and returns the id.
func (sm *SessionManager) Create(email, apiToken, subdomain string) (string, error) {
	now := sm.now().UTC()
	sess := &entities.Session{
		Credential: entities.Credential{
			Email:     email,
			APIToken:  apiToken,
			Subdomain: subdomain,
		},
		CreatedAt: now,
	}
	if sm.ttl > 0 {
		sess.ExpiresAt = now.Add(sm.ttl)
	}

	// a collision on 256 random bits means the generator is broken; retry once anyway
	for attempt := 0; attempt < 2; attempt++ {
		id, err := newID()
		if err != nil {
			return "", err
		}
		sess.ID = id
		err = sm.repository.CreateSession(sess)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, entities.ErrSessionExists) {
			return "", err
		}
	}
	return "", fmt.Errorf("could not allocate a unique session id")
}

// Get resolves a session id to its credential.
func (sm *SessionManager) Get(sessionID string) (*entities.Credential, error) {
	if sessionID == "" {
		return nil, entities.ErrSessionNotFound
	}
	sess, err := sm.repository.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	return &sess.Credential, nil
}

// Delete forgets the session; unknown ids are not an error.
func (sm *SessionManager) Delete(sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return sm.repository.DeleteSession(sessionID)
}

// Count returns the number of stored sessions (for monitoring).
func (sm *SessionManager) Count() (int, error) {
	return sm.repository.CountSessions()
}

// PurgeExpired drops every session that has expired by now.
func (sm *SessionManager) PurgeExpired() (int, error) {
	return sm.repository.DeleteExpired(sm.now())
}

func newID() (string, error) {
	b := securecookie.GenerateRandomKey(idBytes)
	if b == nil {
		return "", errors.New("session: random source unavailable")
	}
	return hex.EncodeToString(b), nil
}
