package telemetry

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const defaultPoolStatsInterval = 15 * time.Second

// AttrPoolState labels connection pool gauges.
var AttrPoolState = attribute.Key("state")

// DBMetrics samples the ledger connection pool.
type DBMetrics struct {
	connections    *Gauge
	connectionsMax *Gauge
	waitCount      *Gauge

	sqlDB    *sql.DB
	interval time.Duration
	logger   *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBMetrics registers the pool gauges on meter. interval defaults to 15s.
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB, interval time.Duration, logger *zap.Logger) (*DBMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if interval <= 0 {
		interval = defaultPoolStatsInterval
	}

	connections, err := NewGauge(meter, "matreq_db_pool_connections",
		"Ledger connections by state", "{connection}")
	if err != nil {
		return nil, err
	}
	connectionsMax, err := NewGauge(meter, "matreq_db_pool_connections_max",
		"Maximum open ledger connections", "{connection}")
	if err != nil {
		return nil, err
	}
	waitCount, err := NewGauge(meter, "matreq_db_pool_wait_total",
		"Ledger connections waited for", "{wait}")
	if err != nil {
		return nil, err
	}

	return &DBMetrics{
		connections:    connections,
		connectionsMax: connectionsMax,
		waitCount:      waitCount,
		sqlDB:          sqlDB,
		interval:       interval,
		logger:         logger,
		stopCh:         make(chan struct{}),
	}, nil
}

// Start samples the pool immediately and then on every interval until Stop
// is called or ctx is done.
func (m *DBMetrics) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.Collect(ctx)
		for {
			select {
			case <-ticker.C:
				m.Collect(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	m.logger.Info("Database pool metrics started", zap.Duration("interval", m.interval))
}

// Collect records the current pool statistics.
func (m *DBMetrics) Collect(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.connectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.connections.Record(ctx, int64(stats.InUse), AttrPoolState.String("in_use"))
	m.connections.Record(ctx, int64(stats.Idle), AttrPoolState.String("idle"))
	m.waitCount.Record(ctx, stats.WaitCount)
}

// Stop ends sampling. It is safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}
