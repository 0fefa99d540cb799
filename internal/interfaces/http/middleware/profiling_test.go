package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/matreq/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
)

func requestLabels(c *gin.Context) map[string]string {
	labels := map[string]string{}
	pprof.ForLabels(c.Request.Context(), func(key, value string) bool {
		labels[key] = value
		return true
	})
	return labels
}

func TestProfiling_LabelsMatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Profiling())

	var got map[string]string
	r.GET("/api/v1/submissions/:id", func(c *gin.Context) {
		got = requestLabels(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/42", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{
		telemetry.ProfilingLabelMethod:     http.MethodGet,
		telemetry.ProfilingLabelRoute:      "/api/v1/submissions/:id",
		telemetry.ProfilingLabelController: "submissions",
	}, got)
}

func TestProfiling_SkipsHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Profiling())

	var got map[string]string
	r.GET("/health", func(c *gin.Context) {
		got = requestLabels(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, got)
}

func TestProfiling_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ProfilingWithConfig(ProfilingConfig{Enabled: false}))

	called := false
	r.GET("/api/v1/locations", func(c *gin.Context) {
		called = true
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/locations", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, called)
}

func TestControllerFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/rows/upload":     "rows",
		"/api/v2/orders":          "orders",
		"/api/v1/submissions/:id": "submissions",
		"/health":                 "health",
		"":                        "",
		"/api/v1":                 "",
	}
	for route, want := range tests {
		assert.Equal(t, want, controllerFromRoute(route), route)
	}
}
