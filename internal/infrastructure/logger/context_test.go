package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}

func TestSessionValues(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithSession(ctx, "JDOE", "PRD")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "JDOE", GetSessionUser(ctx))
	assert.Equal(t, "PRD", GetEnvironment(ctx))
	assert.Empty(t, GetTraceID(ctx))
}

func TestL(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithRequestID(ctx, "req-9")
	ctx = WithSession(ctx, "JDOE", "QAS")

	L(ctx, base).Info("enriched")

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", fields["trace_id"])
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "JDOE", fields["user"])
	assert.Equal(t, "QAS", fields["environment"])
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", GetTraceID(ctx))
}

func TestL_NoFields(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, L(context.Background(), base))
}
