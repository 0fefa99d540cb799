package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matreq/backend/internal/interfaces/http/dto"
)

// BodyLimitOption customizes BodyLimit
type BodyLimitOption func(map[string]int64)

// WithRouteLimit sets a different limit for one route pattern, for example
// the upload endpoint
func WithRouteLimit(fullPath string, maxBytes int64) BodyLimitOption {
	return func(limits map[string]int64) {
		limits[fullPath] = maxBytes
	}
}

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64, opts ...BodyLimitOption) gin.HandlerFunc {
	routeLimits := make(map[string]int64)
	for _, opt := range opts {
		opt(routeLimits)
	}

	return func(c *gin.Context) {
		limit := maxBytes
		if l, ok := routeLimits[c.FullPath()]; ok {
			limit = l
		}
		if limit <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > limit {
			abortWithError(c, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
			return
		}

		// Streaming bodies without a length are cut off by the reader
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
