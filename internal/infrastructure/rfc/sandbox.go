package rfc

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/matreq/backend/internal/domain/integration"
)

// Sandbox is an in-memory gateway for sandbox environments and tests.
// With no registered users it accepts any user with a non-empty secret.
type Sandbox struct {
	mu          sync.Mutex
	users       map[string]string
	equipment   map[string]integration.Equipment
	costCenters map[string]integration.CostCenter
	locations   map[string][]integration.Location
	orders      map[string]integration.OrderRequest
	nextDoc     int
	latency     time.Duration
	createErr   error
	commitErr   error
}

// NewSandbox creates an empty sandbox gateway
func NewSandbox() *Sandbox {
	return &Sandbox{
		users:       make(map[string]string),
		equipment:   make(map[string]integration.Equipment),
		costCenters: make(map[string]integration.CostCenter),
		locations:   make(map[string][]integration.Location),
		orders:      make(map[string]integration.OrderRequest),
		nextDoc:     4700000000,
	}
}

// NewDemoSandbox returns a sandbox seeded with a small master data set for
// the default plants
func NewDemoSandbox() *Sandbox {
	s := NewSandbox()
	s.AddEquipment("10000001", integration.Equipment{Plant: "US01", CostCenter: "4711", CompanyCode: "1000"})
	s.AddEquipment("10000002", integration.Equipment{Plant: "US01", CostCenter: "4712", CompanyCode: "1000"})
	s.AddEquipment("10000003", integration.Equipment{Plant: "US65", CostCenter: "4711", CompanyCode: "6500"})
	s.AddCostCenter("4711", integration.CostCenter{OrderReason: "Z01", Text: "Maintenance"})
	s.AddCostCenter("4712", integration.CostCenter{OrderReason: "Z02", Text: "Repairs"})
	s.AddLocations("166", integration.Location{Partner: "M0001001E", Name: "Main Warehouse", City: "Houston"})
	s.AddLocations("1", integration.Location{Partner: "M0001001XI", Name: "Field Depot", City: "Dallas"})
	return s
}

// AddUser registers a user and secret
func (s *Sandbox) AddUser(user, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToUpper(user)] = secret
}

// AddEquipment registers an equipment record
func (s *Sandbox) AddEquipment(id string, eq integration.Equipment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.equipment[integration.NormalizeEquipmentID(id)] = eq
}

// AddCostCenter registers cost center data
func (s *Sandbox) AddCostCenter(costCenter string, cc integration.CostCenter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costCenters[integration.NormalizeCostCenter(costCenter)] = cc
}

// AddLocations registers ship-to locations of a sold-to party
func (s *Sandbox) AddLocations(soldTo string, locations ...integration.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := integration.FormatPartner(soldTo)
	s.locations[key] = append(s.locations[key], locations...)
}

// SetLatency delays every call by d
func (s *Sandbox) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

// FailCreate makes every order create fail with err
func (s *Sandbox) FailCreate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createErr = err
}

// FailCommit makes every commit fail with err
func (s *Sandbox) FailCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

// Orders returns the committed orders by document number
func (s *Sandbox) Orders() map[string]integration.OrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]integration.OrderRequest, len(s.orders))
	for k, v := range s.orders {
		out[k] = v
	}
	return out
}

func (s *Sandbox) wait(ctx context.Context) error {
	s.mu.Lock()
	d := s.latency
	s.mu.Unlock()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Authenticate checks the registered users
func (s *Sandbox) Authenticate(ctx context.Context, creds integration.Credentials) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if creds.Secret == "" {
		return integration.ErrInvalidCredentials
	}
	if len(s.users) == 0 {
		return nil
	}
	if secret, ok := s.users[strings.ToUpper(creds.User)]; !ok || secret != creds.Secret {
		return integration.ErrInvalidCredentials
	}
	return nil
}

// LookupEquipment returns registered equipment or ErrNotFound
func (s *Sandbox) LookupEquipment(ctx context.Context, creds integration.Credentials, equipmentID string) (*integration.Equipment, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	eq, ok := s.equipment[integration.NormalizeEquipmentID(equipmentID)]
	if !ok {
		return nil, integration.ErrNotFound
	}
	return &eq, nil
}

// LookupCostCenter returns registered cost center data or ErrNotFound
func (s *Sandbox) LookupCostCenter(ctx context.Context, creds integration.Credentials, query integration.CostCenterQuery) (*integration.CostCenter, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cc, ok := s.costCenters[integration.NormalizeCostCenter(query.CostCenter)]
	if !ok {
		return nil, integration.ErrNotFound
	}
	return &cc, nil
}

// LookupShipToLocations returns registered locations
func (s *Sandbox) LookupShipToLocations(ctx context.Context, creds integration.Credentials, soldTo string) ([]integration.Location, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]integration.Location(nil), s.locations[integration.FormatPartner(soldTo)]...), nil
}

// Begin opens a sandbox transaction
func (s *Sandbox) Begin(ctx context.Context, creds integration.Credentials) (integration.Transaction, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return &sandboxTx{sandbox: s}, nil
}

type sandboxTx struct {
	sandbox *Sandbox
	doc     string
	pending integration.OrderRequest
	done    bool
}

func (t *sandboxTx) CreateOrder(ctx context.Context, req integration.OrderRequest) (string, error) {
	s := t.sandbox
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.done {
		return "", ErrTransactionClosed
	}
	if s.createErr != nil {
		return "", s.createErr
	}
	if len(req.Items) == 0 {
		return "", &integration.CallError{Function: FnSalesOrderCreate, Type: "E", Message: "No items in order"}
	}
	s.nextDoc++
	t.doc = fmt.Sprintf("%010d", s.nextDoc)
	t.pending = req
	return t.doc, nil
}

func (t *sandboxTx) Commit(ctx context.Context) error {
	s := t.sandbox
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.done {
		return ErrTransactionClosed
	}
	t.done = true
	if s.commitErr != nil {
		return s.commitErr
	}
	if t.doc != "" {
		s.orders[t.doc] = t.pending
	}
	return nil
}

func (t *sandboxTx) Rollback(ctx context.Context) error {
	t.sandbox.mu.Lock()
	defer t.sandbox.mu.Unlock()
	t.done = true
	t.doc = ""
	return nil
}

var _ integration.Gateway = (*Sandbox)(nil)
