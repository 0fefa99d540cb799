package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Gateway call outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
)

// PipelineMetrics counts rows and orders moving through the pipeline and
// times remote calls.
type PipelineMetrics struct {
	rowsProcessed   *Counter
	ordersSubmitted *Counter
	gatewayCalls    *Histogram
}

// NewPipelineMetrics registers the pipeline instruments on meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	rows, err := NewCounter(meter, "matreq_rows_processed_total",
		"Rows processed by enrichment, by resulting status", "{rows}")
	if err != nil {
		return nil, err
	}
	orders, err := NewCounter(meter, "matreq_orders_submitted_total",
		"Order groups submitted, by outcome", "{orders}")
	if err != nil {
		return nil, err
	}
	calls, err := NewHistogram(meter, "matreq_gateway_call_duration_seconds",
		"Duration of remote gateway calls", "s", GatewayDurationBuckets)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		rowsProcessed:   rows,
		ordersSubmitted: orders,
		gatewayCalls:    calls,
	}, nil
}

// RecordRow counts one enriched or failed row.
func (m *PipelineMetrics) RecordRow(ctx context.Context, environment, status string) {
	if m == nil {
		return
	}
	m.rowsProcessed.Inc(ctx, AttrEnvironment.String(environment), AttrRowStatus.String(status))
}

// RecordOrder counts one submitted group.
func (m *PipelineMetrics) RecordOrder(ctx context.Context, environment string, created bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !created {
		outcome = OutcomeFailure
	}
	m.ordersSubmitted.Inc(ctx, AttrEnvironment.String(environment), AttrOutcome.String(outcome))
}

// RecordGatewayCall times one remote call.
func (m *PipelineMetrics) RecordGatewayCall(ctx context.Context, environment, function, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.gatewayCalls.RecordDuration(ctx, d,
		AttrEnvironment.String(environment),
		AttrFunction.String(function),
		AttrOutcome.String(outcome),
	)
}
