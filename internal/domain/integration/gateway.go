package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Gateway Errors
// ---------------------------------------------------------------------------

var (
	ErrNotFound           = errors.New("integration: record not found")
	ErrInvalidCredentials = errors.New("integration: invalid credentials")
	ErrUnknownEnvironment = errors.New("integration: unknown environment")
	ErrTimeout            = errors.New("integration: call timed out")
	ErrNoDocumentNumber   = errors.New("integration: no sales order number returned")
)

// CallError is returned when a remote function reports an error message
// (return type E or A).
type CallError struct {
	Function string
	Type     string
	Message  string
}

// Error implements the error interface
func (e *CallError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed", e.Function)
	}
	return e.Message
}

// TransportError wraps a connectivity failure to the gateway.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// CommitError is returned when an order was created but its commit failed.
// The transaction has been rolled back.
type CommitError struct {
	Err error
}

// Error implements the error interface
func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *CommitError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a connectivity failure or timeout.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te) || errors.Is(err, ErrTimeout)
}

// ---------------------------------------------------------------------------
// Value objects
// ---------------------------------------------------------------------------

// Credentials identifies the caller on the enterprise backend.
type Credentials struct {
	User     string
	Secret   string
	Client   string
	Language string
}

// Equipment is the master data needed from an equipment record.
type Equipment struct {
	Plant       string
	CostCenter  string
	CompanyCode string
}

// CostCenterQuery keys a cost-center lookup.
type CostCenterQuery struct {
	CostCenter      string
	SalesOrg        string
	DistChannel     string
	Division        string
	ControllingArea string
	LanguageKey     string
}

// CostCenter carries the order reason derived from a cost center.
type CostCenter struct {
	OrderReason string
	Text        string
}

// Location is a ship-to address of a sold-to party.
type Location struct {
	Partner string
	Name    string
	City    string
}

// OrderHeader is the header of a sales order create-request.
type OrderHeader struct {
	DocType          string
	SalesOrg         string
	DistChannel      string
	Division         string
	PurchaseOrderRef string
	OrderReason      string
	SoldTo           string
	ShipTo           string
}

// OrderItem is one line of a sales order create-request.
type OrderItem struct {
	ItemNumber   string
	Material     string
	Plant        string
	Quantity     decimal.Decimal
	Batch        string
	Reference    string
	ScheduleLine string
}

// OrderRequest is a complete sales order create-request.
type OrderRequest struct {
	Header OrderHeader
	Items  []OrderItem
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// Gateway is the remote-call interface of one environment.
// Implementations must be safe for concurrent use.
type Gateway interface {
	// Authenticate verifies credentials by opening and closing a connection
	Authenticate(ctx context.Context, creds Credentials) error

	// LookupEquipment returns equipment master data or ErrNotFound
	LookupEquipment(ctx context.Context, creds Credentials, equipmentID string) (*Equipment, error)

	// LookupCostCenter returns cost-center data or ErrNotFound
	LookupCostCenter(ctx context.Context, creds Credentials, query CostCenterQuery) (*CostCenter, error)

	// LookupShipToLocations lists ship-to locations of a sold-to party
	LookupShipToLocations(ctx context.Context, creds Credentials, soldTo string) ([]Location, error)

	// Begin opens a unit of work for create and commit calls
	Begin(ctx context.Context, creds Credentials) (Transaction, error)
}

// Transaction is one unit of work on the gateway. CreateOrder is not
// persisted until Commit succeeds.
type Transaction interface {
	CreateOrder(ctx context.Context, req OrderRequest) (string, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is a gateway bound to one session.
type Connection interface {
	Environment() string
	User() string

	LookupEquipment(ctx context.Context, equipmentID string) (*Equipment, error)
	LookupCostCenter(ctx context.Context, query CostCenterQuery) (*CostCenter, error)
	LookupShipToLocations(ctx context.Context, soldTo string) ([]Location, error)

	// SubmitOrder creates and commits one order as a single indivisible call
	// and returns its document number.
	SubmitOrder(ctx context.Context, req OrderRequest) (string, error)
}

// Environment describes one configured backend system.
type Environment struct {
	ID           string
	Description  string
	Host         string
	SystemNumber string
	URL          string
	Mode         string
}

// Connector resolves environments and binds sessions to gateways.
type Connector interface {
	// Environments returns the inventory in configured order
	Environments() []Environment

	// Environment looks up one environment by id
	Environment(id string) (Environment, bool)

	// Authenticate verifies credentials against an environment
	Authenticate(ctx context.Context, environmentID string, creds Credentials) error

	// Connect binds a session to its environment's gateway
	Connect(sessionID, environmentID string, creds Credentials) (Connection, error)

	// Release drops per-session resources held by the connector
	Release(sessionID string)
}
