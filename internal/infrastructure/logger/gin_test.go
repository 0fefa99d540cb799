package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(GinRequestIDKey, "test-req-123")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/test", func(c *gin.Context) {
		assert.Equal(t, "test-req-123", GetRequestID(c.Request.Context()))
		c.Set(GinSessionUserKey, "JDOE")
		c.Set(GinEnvironmentKey, "PRD")
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test?x=1", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	logs := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.InfoLevel, logs[0].Level)
	fields := logs[0].ContextMap()
	assert.Equal(t, "test-req-123", fields["request_id"])
	assert.Equal(t, "JDOE", fields["user"])
	assert.Equal(t, "PRD", fields["environment"])
	assert.Equal(t, "x=1", fields["query"])
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusUnauthorized, zapcore.WarnLevel},
		{http.StatusBadGateway, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			router := gin.New()
			router.Use(GinMiddleware(zap.New(core)))
			router.GET("/x", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/x", nil)
			router.ServeHTTP(w, req)

			logs := recorded.FilterMessage("HTTP Request").All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)
		})
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.ErrorLevel)
	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/panic", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Equal(t, 1, recorded.FilterMessage("Panic recovered").Len())
}

func TestGetGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))

	l := zap.NewExample()
	c.Set(GinLoggerKey, l)
	assert.Same(t, l, GetGinLogger(c))
}
