package repository

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/marketconnect/helpdesk-proxy/app/domain/entities"
)

// MemoryRepository is an in-memory implementation of the Repository interface.
// Entries are dropped by the cache once ttl has elapsed; a zero ttl keeps them
// until they are deleted or their own ExpiresAt passes.
type MemoryRepository struct {
	sessions *expirable.LRU[string, entities.Session]
	// serializes CreateSession so the exists check and insert are atomic
	mu  sync.Mutex
	now func() time.Time
}

// NewMemoryRepository creates a new MemoryRepository with no size limit.
func NewMemoryRepository(ttl time.Duration) *MemoryRepository {
	return &MemoryRepository{
		sessions: expirable.NewLRU[string, entities.Session](0, nil, ttl),
		now:      time.Now,
	}
}

// Init initializes the memory repository (no-op for memory repository).
func (r *MemoryRepository) Init() error {
	return nil
}

// Close drops every stored session.
func (r *MemoryRepository) Close() error {
	r.sessions.Purge()
	return nil
}

// CreateSession stores sess under sess.ID.
func (r *MemoryRepository) CreateSession(sess *entities.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions.Peek(sess.ID); exists {
		return entities.ErrSessionExists
	}
	r.sessions.Add(sess.ID, *sess)
	return nil
}

// GetSession retrieves the session for a given session ID.
func (r *MemoryRepository) GetSession(sessionID string) (*entities.Session, error) {
	sess, exists := r.sessions.Get(sessionID)
	if !exists {
		return nil, entities.ErrSessionNotFound
	}
	if sess.Expired(r.now()) {
		r.sessions.Remove(sessionID)
		return nil, entities.ErrSessionNotFound
	}
	// sess is already a copy; callers cannot modify the stored value
	return &sess, nil
}

// DeleteSession removes the session if present.
func (r *MemoryRepository) DeleteSession(sessionID string) error {
	r.sessions.Remove(sessionID)
	return nil
}

// DeleteExpired removes sessions whose ExpiresAt has passed.
func (r *MemoryRepository) DeleteExpired(now time.Time) (int, error) {
	removed := 0
	for _, id := range r.sessions.Keys() {
		sess, ok := r.sessions.Peek(id)
		if ok && sess.Expired(now) {
			if r.sessions.Remove(id) {
				removed++
			}
		}
	}
	return removed, nil
}

// CountSessions returns the number of sessions currently held.
func (r *MemoryRepository) CountSessions() (int, error) {
	return r.sessions.Len(), nil
}
