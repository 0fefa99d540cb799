package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/matreq/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Live(t *testing.T) {
	srv := newTestServer(t, 0)

	w := srv.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "matreq-backend", resp.Service)
	assert.Equal(t, "test", resp.Version)
}

func TestHealthHandler_Ready(t *testing.T) {
	srv := newTestServer(t, 0)
	srv.health.AddCheck("database", func(context.Context) error { return nil })

	w := srv.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ReadinessResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]string{"database": "ok"}, resp.Checks)

	t.Run("failing check", func(t *testing.T) {
		srv.health.AddCheck("session_store", func(context.Context) error {
			return errors.New("connection refused")
		})

		w := srv.do(t, http.MethodGet, "/health/ready", "", nil)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp ReadinessResponse
		env := decodeData(t, w, &resp)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeServiceUnavailable, env.Error.Code)
		assert.Equal(t, "unavailable", resp.Status)
		assert.Equal(t, "ok", resp.Checks["database"])
		assert.Equal(t, "connection refused", resp.Checks["session_store"])
	})
}
