package rfc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/matreq/backend/internal/domain/integration"
	"github.com/matreq/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Environment modes
const (
	ModeRFC     = "rfc"
	ModeSandbox = "sandbox"
)

const (
	defaultCallTimeout        = 30 * time.Second
	defaultMaxConcurrentCalls = 4
)

// ConnectorOptions configures gateway bindings
type ConnectorOptions struct {
	CallTimeout        time.Duration
	MaxConcurrentCalls int
	Transport          http.RoundTripper
	InsecureSkipVerify bool
}

// Connector owns one gateway per environment and binds sessions to them.
// Each bound session may run at most MaxConcurrentCalls calls at a time and
// every call is limited to CallTimeout.
type Connector struct {
	envs     []integration.Environment
	gateways map[string]integration.Gateway
	opts     ConnectorOptions
	logger   *zap.Logger
	metrics  *telemetry.PipelineMetrics

	mu    sync.Mutex
	slots map[string]*semaphore.Weighted
}

// NewConnector builds gateways for the environment inventory
func NewConnector(envs []integration.Environment, opts ConnectorOptions, logger *zap.Logger) (*Connector, error) {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.MaxConcurrentCalls <= 0 {
		opts.MaxConcurrentCalls = defaultMaxConcurrentCalls
	}

	c := &Connector{
		envs:     append([]integration.Environment(nil), envs...),
		gateways: make(map[string]integration.Gateway, len(envs)),
		opts:     opts,
		logger:   logger,
		slots:    make(map[string]*semaphore.Weighted),
	}

	for _, env := range envs {
		switch env.Mode {
		case ModeSandbox:
			c.gateways[env.ID] = NewDemoSandbox()
		case ModeRFC, "":
			gw, err := NewGateway(env, ClientOptions{
				Transport:          opts.Transport,
				InsecureSkipVerify: opts.InsecureSkipVerify,
			})
			if err != nil {
				return nil, err
			}
			c.gateways[env.ID] = gw
		default:
			return nil, fmt.Errorf("rfc: unknown mode %q for environment %s", env.Mode, env.ID)
		}
		logger.Info("Registered gateway environment",
			zap.String("environment", env.ID),
			zap.String("mode", env.Mode),
		)
	}
	return c, nil
}

// SetPipelineMetrics enables gateway call metrics
func (c *Connector) SetPipelineMetrics(m *telemetry.PipelineMetrics) {
	c.metrics = m
}

// RegisterGateway replaces the gateway of an environment
func (c *Connector) RegisterGateway(environmentID string, gw integration.Gateway) {
	c.gateways[environmentID] = gw
}

// Environments returns the inventory in configured order
func (c *Connector) Environments() []integration.Environment {
	return append([]integration.Environment(nil), c.envs...)
}

// Environment looks up one environment
func (c *Connector) Environment(id string) (integration.Environment, bool) {
	for _, env := range c.envs {
		if env.ID == id {
			return env, true
		}
	}
	return integration.Environment{}, false
}

// Authenticate verifies credentials with a single call. It is not retried.
func (c *Connector) Authenticate(ctx context.Context, environmentID string, creds integration.Credentials) error {
	gw, ok := c.gateways[environmentID]
	if !ok {
		return integration.ErrUnknownEnvironment
	}
	return c.timed(ctx, environmentID, FnPing, func(ctx context.Context) error {
		return gw.Authenticate(ctx, creds)
	})
}

// Connect binds a session to its environment's gateway
func (c *Connector) Connect(sessionID, environmentID string, creds integration.Credentials) (integration.Connection, error) {
	gw, ok := c.gateways[environmentID]
	if !ok {
		return nil, integration.ErrUnknownEnvironment
	}
	return &connection{
		connector:   c,
		gateway:     gw,
		environment: environmentID,
		creds:       creds,
		slots:       c.sessionSlots(sessionID),
	}, nil
}

// Release drops the concurrency slots of a session
func (c *Connector) Release(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.slots, sessionID)
}

func (c *Connector) sessionSlots(sessionID string) *semaphore.Weighted {
	c.mu.Lock()
	defer c.mu.Unlock()
	sem, ok := c.slots[sessionID]
	if !ok {
		sem = semaphore.NewWeighted(int64(c.opts.MaxConcurrentCalls))
		c.slots[sessionID] = sem
	}
	return sem
}

// timed runs one remote call under the per-call timeout inside a span
func (c *Connector) timed(ctx context.Context, environment, function string, call func(context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, "rfc."+function,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrFunction, function),
		telemetry.WithAttribute(telemetry.SpanAttrEnvironment, environment),
	)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()

	start := time.Now()
	err := call(callCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = integration.ErrTimeout
	}

	outcome := telemetry.OutcomeSuccess
	switch {
	case errors.Is(err, integration.ErrTimeout):
		outcome = telemetry.OutcomeTimeout
	case err != nil:
		outcome = telemetry.OutcomeFailure
	}
	c.metrics.RecordGatewayCall(ctx, environment, function, outcome, time.Since(start))

	if err != nil && !errors.Is(err, integration.ErrNotFound) {
		telemetry.RecordError(span, err)
		c.logger.Debug("Gateway call failed",
			zap.String("environment", environment),
			zap.String("function", function),
			zap.Error(err),
		)
	}
	return err
}

// connection is a gateway bound to one session
type connection struct {
	connector   *Connector
	gateway     integration.Gateway
	environment string
	creds       integration.Credentials
	slots       *semaphore.Weighted
}

func (c *connection) Environment() string { return c.environment }

func (c *connection) User() string { return c.creds.User }

func (c *connection) acquire(ctx context.Context) (func(), error) {
	if err := c.slots.Acquire(ctx, 1); err != nil {
		return nil, &integration.TransportError{Op: "acquire connection slot", Err: err}
	}
	return func() { c.slots.Release(1) }, nil
}

func (c *connection) LookupEquipment(ctx context.Context, equipmentID string) (*integration.Equipment, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var eq *integration.Equipment
	err = c.connector.timed(ctx, c.environment, FnEquipmentDetails, func(ctx context.Context) error {
		var err error
		eq, err = c.gateway.LookupEquipment(ctx, c.creds, equipmentID)
		return err
	})
	return eq, err
}

func (c *connection) LookupCostCenter(ctx context.Context, query integration.CostCenterQuery) (*integration.CostCenter, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var cc *integration.CostCenter
	err = c.connector.timed(ctx, c.environment, FnCostCenter, func(ctx context.Context) error {
		var err error
		cc, err = c.gateway.LookupCostCenter(ctx, c.creds, query)
		return err
	})
	return cc, err
}

func (c *connection) LookupShipToLocations(ctx context.Context, soldTo string) ([]integration.Location, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var locations []integration.Location
	err = c.connector.timed(ctx, c.environment, FnCustomerList, func(ctx context.Context) error {
		var err error
		locations, err = c.gateway.LookupShipToLocations(ctx, c.creds, soldTo)
		return err
	})
	return locations, err
}

// SubmitOrder runs begin, create and commit while holding one slot. Any
// failure after begin rolls the transaction back.
func (c *connection) SubmitOrder(ctx context.Context, req integration.OrderRequest) (string, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	var tx integration.Transaction
	err = c.connector.timed(ctx, c.environment, "BEGIN", func(ctx context.Context) error {
		var err error
		tx, err = c.gateway.Begin(ctx, c.creds)
		return err
	})
	if err != nil {
		return "", err
	}

	var doc string
	err = c.connector.timed(ctx, c.environment, FnSalesOrderCreate, func(ctx context.Context) error {
		var err error
		doc, err = tx.CreateOrder(ctx, req)
		return err
	})
	if err != nil {
		c.rollback(ctx, tx)
		return "", err
	}

	err = c.connector.timed(ctx, c.environment, FnTransactionCommit, func(ctx context.Context) error {
		return tx.Commit(ctx)
	})
	if err != nil {
		c.rollback(ctx, tx)
		return "", &integration.CommitError{Err: err}
	}
	return doc, nil
}

func (c *connection) rollback(ctx context.Context, tx integration.Transaction) {
	err := c.connector.timed(context.WithoutCancel(ctx), c.environment, FnTransactionRollback, func(ctx context.Context) error {
		return tx.Rollback(ctx)
	})
	if err != nil {
		c.connector.logger.Warn("Rollback failed",
			zap.String("environment", c.environment),
			zap.Error(err),
		)
	}
}

var (
	_ integration.Connector  = (*Connector)(nil)
	_ integration.Connection = (*connection)(nil)
)
