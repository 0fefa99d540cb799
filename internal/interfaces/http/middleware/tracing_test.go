package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/matreq/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(previous)
	})

	return sr
}

func findSpan(spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	for _, span := range spans {
		if span.Name() == name {
			return span
		}
	}
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, attr := range span.Attributes() {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false, ServiceName: "test-service"}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestSessionSpanAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(RequestID())
	router.Use(TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "test-service"}))
	router.Use(func(c *gin.Context) {
		c.Set(logger.GinSessionUserKey, "JDOE")
		c.Set(logger.GinEnvironmentKey, "QAS")
		c.Next()
	})
	router.Use(SessionSpanAttributes())
	router.GET("/orders", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set(HeaderRequestID, "test-request-id-123")
	router.ServeHTTP(w, req)

	span := findSpan(sr.Ended(), "GET /orders")
	require.NotNil(t, span, "HTTP span not found")

	v, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "test-request-id-123", v.AsString())

	v, ok = spanAttr(span, "session.user")
	require.True(t, ok)
	assert.Equal(t, "JDOE", v.AsString())

	v, ok = spanAttr(span, "session.environment")
	require.True(t, ok)
	assert.Equal(t, "QAS", v.AsString())
}

func TestSpanErrorMarker(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "test-service"}))
	router.Use(SpanErrorMarker())
	router.GET("/fail", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})
	router.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusUnauthorized)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	failed := findSpan(sr.Ended(), "GET /fail")
	require.NotNil(t, failed)
	assert.Equal(t, codes.Error, failed.Status().Code)

	unauthorized := findSpan(sr.Ended(), "GET /missing")
	require.NotNil(t, unauthorized)
	v, ok := spanAttr(unauthorized, "http.status_code")
	require.True(t, ok)
	assert.Equal(t, int64(http.StatusUnauthorized), v.AsInt64())
}
