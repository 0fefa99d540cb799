package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey      contextKey = "logger"
	requestIDKey   contextKey = "request_id"
	sessionUserKey contextKey = "session_user"
	environmentKey contextKey = "environment"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds the request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithSession adds the session user and environment to context
func WithSession(ctx context.Context, user, environment string) context.Context {
	ctx = context.WithValue(ctx, sessionUserKey, user)
	return context.WithValue(ctx, environmentKey, environment)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// GetSessionUser retrieves the session user from context
func GetSessionUser(ctx context.Context) string {
	v, _ := ctx.Value(sessionUserKey).(string)
	return v
}

// GetEnvironment retrieves the session environment from context
func GetEnvironment(ctx context.Context) string {
	v, _ := ctx.Value(environmentKey).(string)
	return v
}

// GetTraceID extracts the trace ID from the context's span.
// Returns an empty string if no valid span exists.
func GetTraceID(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// L returns base enriched with the trace, request and session fields
// carried by ctx. Use it inside services that receive a context:
//
//	logger.L(ctx, s.logger).Info("orders submitted", zap.Int("groups", n))
func L(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = FromContext(ctx)
	}

	fields := make([]zap.Field, 0, 5)
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, zap.String("request_id", v))
	}
	if v := GetSessionUser(ctx); v != "" {
		fields = append(fields, zap.String("user", v))
	}
	if v := GetEnvironment(ctx); v != "" {
		fields = append(fields, zap.String("environment", v))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
