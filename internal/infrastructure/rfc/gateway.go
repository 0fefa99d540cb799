package rfc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/matreq/backend/internal/domain/integration"
)

// ErrTransactionClosed is returned for calls on a finished transaction
var ErrTransactionClosed = errors.New("rfc: transaction already finished")

// Gateway implements integration.Gateway over the RFC bridge
type Gateway struct {
	client *Client
}

// NewGateway creates a gateway for one environment
func NewGateway(env integration.Environment, opts ClientOptions) (*Gateway, error) {
	client, err := NewClient(env, opts)
	if err != nil {
		return nil, err
	}
	return &Gateway{client: client}, nil
}

// Authenticate opens and closes a logon by pinging the backend
func (g *Gateway) Authenticate(ctx context.Context, creds integration.Credentials) error {
	return g.client.invoke(ctx, nil, creds, FnPing, struct{}{}, nil)
}

// LookupEquipment reads equipment master data
func (g *Gateway) LookupEquipment(ctx context.Context, creds integration.Credentials, equipmentID string) (*integration.Equipment, error) {
	var out equipmentDetailsOut
	in := equipmentDetailsIn{Equipment: integration.NormalizeEquipmentID(equipmentID)}
	if err := g.client.invoke(ctx, nil, creds, FnEquipmentDetails, in, &out); err != nil {
		return nil, err
	}
	if out.Return.isError() {
		return nil, fmt.Errorf("%w: %s", integration.ErrNotFound, out.Return.callError(FnEquipmentDetails).Message)
	}
	return out.equipment(), nil
}

// LookupCostCenter reads the order reason of a cost center
func (g *Gateway) LookupCostCenter(ctx context.Context, creds integration.Credentials, query integration.CostCenterQuery) (*integration.CostCenter, error) {
	var out costCenterOut
	in := costCenterIn{
		CostCenter:      integration.NormalizeCostCenter(query.CostCenter),
		SalesOrg:        query.SalesOrg,
		DistChannel:     query.DistChannel,
		Division:        query.Division,
		ControllingArea: query.ControllingArea,
		Language:        query.LanguageKey,
	}
	if err := g.client.invoke(ctx, nil, creds, FnCostCenter, in, &out); err != nil {
		return nil, err
	}
	if len(out.Rows) == 0 {
		return nil, integration.ErrNotFound
	}
	return &integration.CostCenter{
		OrderReason: strings.TrimSpace(out.Rows[0].OrderReason),
		Text:        strings.TrimSpace(out.Rows[0].Text),
	}, nil
}

// LookupShipToLocations lists the addresses registered for a sold-to party
func (g *Gateway) LookupShipToLocations(ctx context.Context, creds integration.Credentials, soldTo string) ([]integration.Location, error) {
	var out customerListOut
	in := customerListIn{IDRange: []rangeRow{{Sign: "I", Option: "EQ", Low: integration.FormatPartner(soldTo)}}}
	if err := g.client.invoke(ctx, nil, creds, FnCustomerList, in, &out); err != nil {
		return nil, err
	}
	if out.Return.isError() {
		return nil, out.Return.callError(FnCustomerList)
	}

	locations := make([]integration.Location, 0, len(out.Addresses))
	for _, a := range out.Addresses {
		locations = append(locations, integration.Location{
			Partner: strings.TrimSpace(a.Customer),
			Name:    strings.TrimSpace(a.Name),
			City:    strings.TrimSpace(a.City),
		})
	}
	return locations, nil
}

// Begin opens a stateful bridge context for create and commit calls
func (g *Gateway) Begin(ctx context.Context, creds integration.Credentials) (integration.Transaction, error) {
	return &transaction{
		client: g.client,
		http:   g.client.newStatefulClient(),
		creds:  creds,
	}, nil
}

type transaction struct {
	client *Client
	http   *http.Client
	creds  integration.Credentials

	mu   sync.Mutex
	done bool
}

func (t *transaction) CreateOrder(ctx context.Context, req integration.OrderRequest) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return "", ErrTransactionClosed
	}

	var out salesOrderCreateOut
	if err := t.client.invoke(ctx, t.http, t.creds, FnSalesOrderCreate, newSalesOrderCreateIn(req), &out); err != nil {
		return "", err
	}
	if callErr := firstError(FnSalesOrderCreate, out.Return); callErr != nil {
		return "", callErr
	}
	doc := strings.TrimSpace(out.SalesDocument)
	if doc == "" {
		return "", integration.ErrNoDocumentNumber
	}
	return doc, nil
}

func (t *transaction) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTransactionClosed
	}
	t.done = true

	var out commitOut
	if err := t.client.invoke(ctx, t.http, t.creds, FnTransactionCommit, commitIn{Wait: "X"}, &out); err != nil {
		return err
	}
	if out.Return.isError() {
		return out.Return.callError(FnTransactionCommit)
	}
	return nil
}

func (t *transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	return t.client.invoke(ctx, t.http, t.creds, FnTransactionRollback, struct{}{}, nil)
}

var _ integration.Gateway = (*Gateway)(nil)
