package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matreq/backend/internal/domain/shared"
)

// DefaultSessionLifetime is the absolute lifetime of a session
const DefaultSessionLifetime = 8 * time.Hour

const (
	// DefaultClient is the backend client used when the caller sends none
	DefaultClient = "100"
	// DefaultLanguage is the logon language used when the caller sends none
	DefaultLanguage = "EN"
)

// ClientContext carries per-logon backend parameters
type ClientContext struct {
	Client   string `json:"client"`
	Language string `json:"language"`
}

// Normalize fills in the defaults for empty values
func (c ClientContext) Normalize() ClientContext {
	c.Client = strings.TrimSpace(c.Client)
	c.Language = strings.ToUpper(strings.TrimSpace(c.Language))
	if c.Client == "" {
		c.Client = DefaultClient
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	return c
}

// Session is an authenticated, environment-scoped context of one user.
// Sessions are immutable after creation; they are only ever deleted.
type Session struct {
	Token               string        `json:"token"`
	User                string        `json:"user"`
	Environment         string        `json:"environment"`
	ClientContext       ClientContext `json:"client_context"`
	EncryptedCredential []byte        `json:"encrypted_credential"`
	KeyID               string        `json:"key_id"`
	CreatedAt           time.Time     `json:"created_at"`
	ExpiresAt           time.Time     `json:"expires_at"`
}

// NewSession creates a session that expires lifetime after now
func NewSession(user, environment string, cc ClientContext, encrypted []byte, keyID string, now time.Time, lifetime time.Duration) (*Session, error) {
	user = strings.ToUpper(strings.TrimSpace(user))
	environment = strings.ToUpper(strings.TrimSpace(environment))
	if user == "" {
		return nil, shared.NewDomainError("INVALID_USER", "User cannot be empty")
	}
	if environment == "" {
		return nil, shared.NewDomainError("INVALID_ENVIRONMENT", "Environment cannot be empty")
	}
	if len(encrypted) == 0 {
		return nil, shared.NewDomainError("INVALID_CREDENTIAL", "Encrypted credential cannot be empty")
	}
	if lifetime <= 0 {
		lifetime = DefaultSessionLifetime
	}

	return &Session{
		Token:               uuid.NewString(),
		User:                user,
		Environment:         environment,
		ClientContext:       cc.Normalize(),
		EncryptedCredential: encrypted,
		KeyID:               keyID,
		CreatedAt:           now,
		ExpiresAt:           now.Add(lifetime),
	}, nil
}

// IsExpired reports whether the session is no longer usable at now.
// A session is usable only while now is strictly before ExpiresAt.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// RemainingTTL returns how long the session stays valid after now
func (s *Session) RemainingTTL(now time.Time) time.Duration {
	if s.IsExpired(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}
