package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/matreq/backend/internal/domain/identity"
	"github.com/matreq/backend/internal/domain/integration"
	"github.com/matreq/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CredentialCipher encrypts the secret kept in a session
type CredentialCipher interface {
	KeyID() string
	Encrypt(plaintext string) ([]byte, error)
	Decrypt(blob []byte, keyID string) (string, error)
}

// SessionService manages login, validation and logout of sessions and binds
// sessions to their environment's gateway.
type SessionService struct {
	store     identity.SessionStore
	connector integration.Connector
	cipher    CredentialCipher
	lifetime  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(
	store identity.SessionStore,
	connector integration.Connector,
	cipher CredentialCipher,
	lifetime time.Duration,
	logger *zap.Logger,
) *SessionService {
	if lifetime <= 0 {
		lifetime = identity.DefaultSessionLifetime
	}
	return &SessionService{
		store:     store,
		connector: connector,
		cipher:    cipher,
		lifetime:  lifetime,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// Authenticate verifies the credentials with one gateway call and creates a
// session. Failures are terminal for the attempt and never retried.
func (s *SessionService) Authenticate(ctx context.Context, input AuthenticateInput) (*identity.Session, error) {
	envID := strings.ToUpper(strings.TrimSpace(input.Environment))
	user := strings.ToUpper(strings.TrimSpace(input.User))
	secret := input.Secret
	cc := input.ClientContext.Normalize()

	if envID == "" {
		return nil, shared.NewDomainError("INVALID_ENVIRONMENT", "Environment is required")
	}
	if user == "" {
		return nil, shared.NewDomainError("INVALID_USER", "User is required")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, shared.NewDomainError("INVALID_SECRET", "Secret is required")
	}

	if _, ok := s.connector.Environment(envID); !ok {
		return nil, identity.NewAuthError(identity.AuthUnknownEnvironment, "Unknown environment: "+envID, integration.ErrUnknownEnvironment)
	}

	creds := integration.Credentials{User: user, Secret: secret, Client: cc.Client, Language: cc.Language}
	if err := s.connector.Authenticate(ctx, envID, creds); err != nil {
		return nil, s.authError(envID, user, err)
	}

	encrypted, err := s.cipher.Encrypt(secret)
	if err != nil {
		return nil, err
	}

	session, err := identity.NewSession(user, envID, cc, encrypted, s.cipher.KeyID(), s.now(), s.lifetime)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Session created",
		zap.String("user", session.User),
		zap.String("environment", session.Environment),
		zap.Time("expires_at", session.ExpiresAt),
	)
	return session, nil
}

func (s *SessionService) authError(envID, user string, err error) error {
	switch {
	case errors.Is(err, integration.ErrInvalidCredentials):
		s.logger.Info("Login rejected", zap.String("user", user), zap.String("environment", envID))
		return identity.NewAuthError(identity.AuthInvalidCredentials, "Invalid credentials", err)
	case errors.Is(err, integration.ErrUnknownEnvironment):
		return identity.NewAuthError(identity.AuthUnknownEnvironment, "Unknown environment: "+envID, err)
	default:
		s.logger.Warn("Login failed on gateway",
			zap.String("user", user),
			zap.String("environment", envID),
			zap.Error(err),
		)
		return identity.NewAuthError(identity.AuthTransport, "Enterprise system unavailable", err)
	}
}

// Validate returns the session for a token. Expired sessions and sessions
// encrypted under a rotated key are deleted and reported as expired.
func (s *SessionService) Validate(ctx context.Context, token string) (*identity.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, identity.ErrSessionNotFound
	}

	session, err := s.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, identity.ErrSessionNotFound
		}
		return nil, err
	}

	if session.IsExpired(s.now()) || session.KeyID != s.cipher.KeyID() {
		if err := s.store.Delete(ctx, token); err != nil {
			s.logger.Warn("Failed to delete stale session", zap.Error(err))
		}
		s.connector.Release(token)
		return nil, identity.ErrSessionExpired
	}
	return session, nil
}

// Invalidate deletes a session. Unknown tokens are ignored.
func (s *SessionService) Invalidate(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	s.connector.Release(token)
	return s.store.Delete(ctx, token)
}

// Connect decrypts the session's credentials and returns its gateway binding
func (s *SessionService) Connect(ctx context.Context, session *identity.Session) (integration.Connection, error) {
	secret, err := s.cipher.Decrypt(session.EncryptedCredential, session.KeyID)
	if err != nil {
		s.logger.Warn("Session credential cannot be decrypted",
			zap.String("user", session.User),
			zap.Error(err),
		)
		return nil, identity.ErrSessionExpired
	}
	creds := integration.Credentials{
		User:     session.User,
		Secret:   secret,
		Client:   session.ClientContext.Client,
		Language: session.ClientContext.Language,
	}
	return s.connector.Connect(session.Token, session.Environment, creds)
}

// Environments returns the inventory in configured order
func (s *SessionService) Environments() []EnvironmentResponse {
	envs := s.connector.Environments()
	out := make([]EnvironmentResponse, 0, len(envs))
	for _, env := range envs {
		out = append(out, EnvironmentResponse{ID: env.ID, Description: env.Description})
	}
	return out
}

// CleanupExpired removes expired sessions from the store
func (s *SessionService) CleanupExpired(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Expired sessions removed", zap.Int("count", n))
	}
	return n, nil
}

// RunCleanup sweeps expired sessions every interval until ctx is done
func (s *SessionService) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupExpired(ctx); err != nil {
				s.logger.Warn("Session cleanup failed", zap.Error(err))
			}
		}
	}
}
