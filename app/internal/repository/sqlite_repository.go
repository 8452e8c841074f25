package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/marketconnect/helpdesk-proxy/app/domain/entities"
)

// SQLiteRepository implements the Repository interface using an SQLite database.
type SQLiteRepository struct {
	db  *sqlx.DB
	dsn string
	now func() time.Time
}

// sessionRow is the on-disk form of entities.Session. Times are unix seconds
// so expiry comparisons stay numeric.
type sessionRow struct {
	SessionID string `db:"session_id"`
	Email     string `db:"email"`
	APIToken  string `db:"api_token"`
	Subdomain string `db:"subdomain"`
	CreatedAt int64  `db:"created_at"`
	ExpiresAt int64  `db:"expires_at"`
}

func (row *sessionRow) toEntity() *entities.Session {
	sess := &entities.Session{
		ID: row.SessionID,
		Credential: entities.Credential{
			Email:     row.Email,
			APIToken:  row.APIToken,
			Subdomain: row.Subdomain,
		},
		CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
	}
	if row.ExpiresAt > 0 {
		sess.ExpiresAt = time.Unix(row.ExpiresAt, 0).UTC()
	}
	return sess
}

func newSessionRow(sess *entities.Session) sessionRow {
	row := sessionRow{
		SessionID: sess.ID,
		Email:     sess.Email,
		APIToken:  sess.APIToken,
		Subdomain: sess.Subdomain,
		CreatedAt: sess.CreatedAt.Unix(),
	}
	if !sess.ExpiresAt.IsZero() {
		row.ExpiresAt = sess.ExpiresAt.Unix()
	}
	return row
}

// NewSQLiteRepository opens and pings the database at dsn.
func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// a single writer avoids "database is locked" under concurrent logins
	db.SetMaxOpenConns(1)

	return &SQLiteRepository{db: db, dsn: dsn, now: time.Now}, nil
}

// Init creates the sessions table if it doesn't exist.
func (r *SQLiteRepository) Init() error {
	schema := `
    CREATE TABLE IF NOT EXISTS sessions (
        session_id TEXT PRIMARY KEY,
        email TEXT NOT NULL,
        api_token TEXT NOT NULL,
        subdomain TEXT NOT NULL,
        created_at INTEGER NOT NULL,
        expires_at INTEGER NOT NULL DEFAULT 0
    );
    CREATE INDEX IF NOT EXISTS sessions_expires_at ON sessions (expires_at);`

	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	log.Debug().Str("dsn", r.dsn).Msg("sqlite sessions table initialized")
	return nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateSession inserts sess. A primary key conflict maps to entities.ErrSessionExists.
func (r *SQLiteRepository) CreateSession(sess *entities.Session) error {
	query := `
    INSERT INTO sessions (session_id, email, api_token, subdomain, created_at, expires_at)
    VALUES (:session_id, :email, :api_token, :subdomain, :created_at, :expires_at);`

	if _, err := r.db.NamedExec(query, newSessionRow(sess)); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return entities.ErrSessionExists
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession retrieves an unexpired session for a given session ID.
func (r *SQLiteRepository) GetSession(sessionID string) (*entities.Session, error) {
	query := `SELECT session_id, email, api_token, subdomain, created_at, expires_at
              FROM sessions WHERE session_id = ? AND (expires_at = 0 OR expires_at > ?);`

	var row sessionRow
	if err := r.db.Get(&row, query, sessionID, r.now().Unix()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return row.toEntity(), nil
}

// DeleteSession removes the session row, if any.
func (r *SQLiteRepository) DeleteSession(sessionID string) error {
	if _, err := r.db.Exec(`DELETE FROM sessions WHERE session_id = ?;`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session that expired at or before now.
func (r *SQLiteRepository) DeleteExpired(now time.Time) (int, error) {
	res, err := r.db.Exec(`DELETE FROM sessions WHERE expires_at > 0 AND expires_at <= ?;`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return int(n), nil
}

// CountSessions returns the number of stored sessions, expired ones included
// until the next sweep.
func (r *SQLiteRepository) CountSessions() (int, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM sessions;`); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}
