package repository_test

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/marketconnect/helpdesk-proxy/app/domain/entities"
	"github.com/marketconnect/helpdesk-proxy/app/internal/repository"
)

func setupTestDB(t *testing.T) (*repository.SQLiteRepository, func()) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test_sessions.db")

	repo, err := repository.NewSQLiteRepository(dsn)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}

	if err := repo.Init(); err != nil {
		t.Fatalf("repo.Init() error = %v", err)
	}

	cleanup := func() {
		repo.Close()
	}
	return repo, cleanup
}

func TestSQLiteRepository_InitIsIdempotent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	if err := repo.Init(); err != nil {
		t.Errorf("second Init() error = %v", err)
	}
}

func TestSQLiteRepository_CreateGetSession(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	sess := newTestSession("test-sqlite-session-1", time.Now().Add(time.Hour).Truncate(time.Second).UTC())

	if err := repo.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	retrieved, err := repo.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if !reflect.DeepEqual(sess, retrieved) {
		t.Errorf("GetSession() retrieved = %+v, want %+v", retrieved, sess)
	}

	if err := repo.CreateSession(sess); !errors.Is(err, entities.ErrSessionExists) {
		t.Errorf("CreateSession() for existing ID error = %v, want %v", err, entities.ErrSessionExists)
	}
}

func TestSQLiteRepository_GetNonExistentSession(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetSession("non-existent-sqlite-session")
	if !errors.Is(err, entities.ErrSessionNotFound) {
		t.Errorf("GetSession() for non-existent ID error = %v, want %v", err, entities.ErrSessionNotFound)
	}
}

func TestSQLiteRepository_GetExpiredSession(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	if err := repo.CreateSession(newTestSession("old", time.Now().Add(-time.Minute))); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	_, err := repo.GetSession("old")
	if !errors.Is(err, entities.ErrSessionNotFound) {
		t.Errorf("GetSession() for expired ID error = %v, want %v", err, entities.ErrSessionNotFound)
	}
}

func TestSQLiteRepository_DeleteSession(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	repo.CreateSession(newTestSession("gone", time.Now().Add(time.Hour)))

	if err := repo.DeleteSession("gone"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := repo.GetSession("gone"); !errors.Is(err, entities.ErrSessionNotFound) {
		t.Errorf("GetSession() after delete error = %v, want %v", err, entities.ErrSessionNotFound)
	}
	if err := repo.DeleteSession("gone"); err != nil {
		t.Errorf("second DeleteSession() error = %v, want nil", err)
	}
}

func TestSQLiteRepository_DeleteExpiredAndCount(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	repo.CreateSession(newTestSession("s1", now.Add(-time.Hour)))
	repo.CreateSession(newTestSession("s2", now.Add(time.Hour)))
	repo.CreateSession(newTestSession("s3", time.Time{}))

	n, err := repo.CountSessions()
	if err != nil || n != 3 {
		t.Fatalf("CountSessions() = (%d, %v), want (3, nil)", n, err)
	}

	removed, err := repo.DeleteExpired(now)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("DeleteExpired() removed = %d, want 1", removed)
	}

	n, _ = repo.CountSessions()
	if n != 2 {
		t.Errorf("CountSessions() after sweep = %d, want 2", n)
	}
}

func TestSQLiteRepository_SurvivesReopen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "reopen.db")

	repo, err := repository.NewSQLiteRepository(dsn)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	if err := repo.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	repo.CreateSession(newTestSession("persisted", time.Now().Add(time.Hour)))
	repo.Close()

	repo, err = repository.NewSQLiteRepository(dsn)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer repo.Close()

	sess, err := repo.GetSession("persisted")
	if err != nil {
		t.Fatalf("GetSession() after reopen error = %v", err)
	}
	if sess.Subdomain != "acme" {
		t.Errorf("Subdomain = %q, want acme", sess.Subdomain)
	}
}
