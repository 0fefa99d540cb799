package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))

	previous := otel.GetTracerProvider()
	tp.EnableSpanProfiles()
	assert.Equal(t, previous, otel.GetTracerProvider())

	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestTracerProvider_EnableSpanProfiles(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	sr := tracetest.NewSpanRecorder()
	tp := &TracerProvider{
		provider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)),
		logger:   zap.NewNop(),
		config:   Config{Enabled: true, ServiceName: "matreq-test"},
	}

	tp.EnableSpanProfiles()
	wrapped := otel.GetTracerProvider()
	_, unwrapped := wrapped.(*sdktrace.TracerProvider)
	assert.False(t, unwrapped)

	tp.EnableSpanProfiles()
	assert.Equal(t, wrapped, otel.GetTracerProvider())

	_, span := otel.Tracer("test").Start(context.Background(), "enrich")
	span.End()
	assert.Len(t, sr.Ended(), 1)
}

func TestNewSampler(t *testing.T) {
	assert.Equal(t, sdktrace.ParentBased(sdktrace.AlwaysSample()).Description(), newSampler(1.0).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), newSampler(0).Description())
}
