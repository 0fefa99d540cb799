package cache

import (
	"context"
	"sync"
	"time"

	"github.com/matreq/backend/internal/domain/identity"
	"github.com/matreq/backend/internal/domain/shared"
)

// InMemorySessionStore implements identity.SessionStore using an in-memory map.
// It is suitable for single-instance deployments and testing. Expired
// sessions are removed by DeleteExpired, which the session service sweeps.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]identity.Session
}

// NewInMemorySessionStore creates an empty in-memory session store
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]identity.Session),
	}
}

// Save stores a copy of the session
func (s *InMemorySessionStore) Save(ctx context.Context, session *identity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = *session
	return nil
}

// Get returns a copy of the session or shared.ErrNotFound
func (s *InMemorySessionStore) Get(ctx context.Context, token string) (*identity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &sess, nil
}

// Delete removes a session. Missing tokens are ignored.
func (s *InMemorySessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// DeleteExpired removes every session expired at now
func (s *InMemorySessionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, sess := range s.sessions {
		if sess.IsExpired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op
func (s *InMemorySessionStore) Close() error {
	return nil
}

// Size returns the number of stored sessions
func (s *InMemorySessionStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

var _ identity.SessionStore = (*InMemorySessionStore)(nil)
