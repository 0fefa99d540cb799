package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func TestStartSpan(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartSpan(context.Background(), "rfc.call",
		WithSpanKind(trace.SpanKindClient),
		WithAttribute(SpanAttrFunction, "BAPI_EQUI_DETAILS"),
	)
	SetAttributes(span, SpanAttrRowCount, 3, "ignored")
	RecordError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "rfc.call", spans[0].Name())
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "BAPI_EQUI_DETAILS", attrs[SpanAttrFunction])
	assert.Equal(t, "3", attrs[SpanAttrRowCount])
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("x"))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, mp.Meter("x"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}
