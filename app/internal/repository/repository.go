package repository

import (
	"time"

	"github.com/marketconnect/helpdesk-proxy/app/domain/entities"
)

// Repository defines the interface for session storage.
// This allows for different storage backends (e.g., in-memory, SQLite).
type Repository interface {
	// Init performs any necessary initialization for the repository (e.g., DB connection, table creation).
	Init() error
	// Close performs cleanup tasks (e.g., closing DB connection).
	Close() error

	// CreateSession stores a new session. It never overwrites: an existing id yields entities.ErrSessionExists.
	CreateSession(sess *entities.Session) error
	// GetSession returns entities.ErrSessionNotFound for unknown and expired ids.
	GetSession(sessionID string) (*entities.Session, error)
	// DeleteSession is idempotent.
	DeleteSession(sessionID string) error
	// DeleteExpired removes sessions that expired at or before now and reports how many were removed.
	DeleteExpired(now time.Time) (int, error)
	CountSessions() (int, error)
}
