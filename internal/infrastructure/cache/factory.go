package cache

import (
	"fmt"

	"github.com/matreq/backend/internal/domain/identity"
	"github.com/matreq/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SessionStoreFactory creates session stores based on configuration
type SessionStoreFactory struct {
	sessionConfig         config.SessionConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SessionStoreFactoryOption is a functional option for configuring the factory
type SessionStoreFactoryOption func(*SessionStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SessionStoreFactoryOption {
	return func(f *SessionStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is configured but unavailable. Default is false.
func WithInMemoryFallback(allow bool) SessionStoreFactoryOption {
	return func(f *SessionStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSessionStoreFactory creates a new factory
func NewSessionStoreFactory(sessionCfg config.SessionConfig, redisCfg config.RedisConfig, opts ...SessionStoreFactoryOption) *SessionStoreFactory {
	f := &SessionStoreFactory{
		sessionConfig: sessionCfg,
		redisConfig:   redisCfg,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore creates the configured session store
func (f *SessionStoreFactory) CreateStore() (identity.SessionStore, error) {
	if f.sessionConfig.Store != "redis" {
		f.logger.Info("using in-memory session store")
		return NewInMemorySessionStore(), nil
	}

	store, err := NewRedisSessionStore(RedisConfig{
		Host:      f.redisConfig.Host,
		Port:      f.redisConfig.Port,
		Password:  f.redisConfig.Password,
		DB:        f.redisConfig.DB,
		KeyPrefix: f.redisConfig.KeyPrefix,
	})
	if err == nil {
		f.logger.Info("using Redis session store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("failed to create Redis session store: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory session store. "+
		"Sessions will not be shared across instances.",
		zap.Error(err),
	)
	return NewInMemorySessionStore(), nil
}
