package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/matreq/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	Enabled          bool
	SkipPaths        []string
	SkipPathPrefixes []string
}

// DefaultProfilingConfig returns default profiling middleware configuration.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:          true,
		SkipPaths:        []string{"/health", "/health/ready"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

// Profiling returns profiling middleware with default configuration.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig tags the request goroutine with pyroscope labels for
// the HTTP method, the matched route pattern and the resource segment of
// that route. Requests without a matched route carry no route labels.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func profilingLabels(c *gin.Context) map[string]string {
	labels := make(map[string]string, 3)
	if c.Request.Method != "" {
		labels[telemetry.ProfilingLabelMethod] = c.Request.Method
	}
	route := c.FullPath()
	if route != "" {
		labels[telemetry.ProfilingLabelRoute] = route
	}
	if controller := controllerFromRoute(route); controller != "" {
		labels[telemetry.ProfilingLabelController] = controller
	}
	return labels
}

// controllerFromRoute returns the first resource segment of a route pattern,
// e.g. "/api/v1/submissions/:id" -> "submissions".
func controllerFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
