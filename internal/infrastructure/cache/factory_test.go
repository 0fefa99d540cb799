package cache

import (
	"testing"

	"github.com/matreq/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSessionStoreFactory_CreateStore(t *testing.T) {
	unreachable := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	t.Run("memory store", func(t *testing.T) {
		f := NewSessionStoreFactory(config.SessionConfig{Store: "memory"}, unreachable)
		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemorySessionStore{}, store)
	})

	t.Run("redis unavailable without fallback", func(t *testing.T) {
		f := NewSessionStoreFactory(config.SessionConfig{Store: "redis"}, unreachable)
		_, err := f.CreateStore()
		assert.Error(t, err)
	})

	t.Run("redis unavailable with fallback", func(t *testing.T) {
		f := NewSessionStoreFactory(config.SessionConfig{Store: "redis"}, unreachable,
			WithLogger(zap.NewNop()), WithInMemoryFallback(true))
		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemorySessionStore{}, store)
	})
}
