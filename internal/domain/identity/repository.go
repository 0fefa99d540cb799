package identity

import (
	"context"
	"time"
)

// SessionStore persists sessions keyed by token with a TTL.
// Get returns shared.ErrNotFound when no session exists for the token.
type SessionStore interface {
	// Save stores the session until its expiry
	Save(ctx context.Context, session *Session) error

	// Get returns the session for a token
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes a session; deleting a missing token is not an error
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes every session expired at now and returns the count
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	// Close closes the store and releases resources
	Close() error
}
