package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matreq/backend/internal/domain/identity"
	"github.com/matreq/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultSessionKeyPrefix = "matreq:session:"

// RedisSessionStore implements identity.SessionStore using Redis.
// Each session is a JSON value whose key expires with the session, so
// multiple instances share sessions and Redis evicts them natively.
type RedisSessionStore struct {
	client    *redis.Client
	keyPrefix string
	now       func() time.Time
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisSessionStore connects to Redis and creates a session store
func NewRedisSessionStore(cfg RedisConfig) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisSessionStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisSessionStoreWithClient creates a store with an existing Redis client
func NewRedisSessionStoreWithClient(client *redis.Client, keyPrefix string) *RedisSessionStore {
	if keyPrefix == "" {
		keyPrefix = defaultSessionKeyPrefix
	}
	return &RedisSessionStore{
		client:    client,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

// Save writes the session with a TTL equal to its remaining lifetime. A
// session with no lifetime left is rejected.
func (s *RedisSessionStore) Save(ctx context.Context, session *identity.Session) error {
	ttl := session.RemainingTTL(s.now())
	if ttl <= 0 {
		return fmt.Errorf("failed to save session: %w", identity.ErrSessionExpired)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+session.Token, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get returns the session or shared.ErrNotFound
func (s *RedisSessionStore) Get(ctx context.Context, token string) (*identity.Session, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess identity.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// Delete removes a session. Missing keys are ignored.
func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: keys expire with their TTL
func (s *RedisSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// Ping checks the Redis connection
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

var _ identity.SessionStore = (*RedisSessionStore)(nil)
