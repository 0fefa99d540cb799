package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/matreq/backend/internal/domain/integration"
	"github.com/matreq/backend/internal/domain/shared"
	"github.com/matreq/backend/internal/domain/trade"
	"github.com/stretchr/testify/mock"
)

// MockConnection is a mock implementation of integration.Connection
type MockConnection struct {
	mock.Mock
	env  string
	user string
}

func newMockConnection() *MockConnection {
	return &MockConnection{env: "PRD", user: "JDOE"}
}

func (m *MockConnection) Environment() string { return m.env }

func (m *MockConnection) User() string { return m.user }

func (m *MockConnection) LookupEquipment(ctx context.Context, equipmentID string) (*integration.Equipment, error) {
	args := m.Called(ctx, equipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Equipment), args.Error(1)
}

func (m *MockConnection) LookupCostCenter(ctx context.Context, query integration.CostCenterQuery) (*integration.CostCenter, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CostCenter), args.Error(1)
}

func (m *MockConnection) LookupShipToLocations(ctx context.Context, soldTo string) ([]integration.Location, error) {
	args := m.Called(ctx, soldTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Location), args.Error(1)
}

func (m *MockConnection) SubmitOrder(ctx context.Context, req integration.OrderRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockSubmissionRepository is a mock implementation of trade.SubmissionRepository
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Save(ctx context.Context, submission *trade.OrderSubmission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.OrderSubmission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.OrderSubmission), args.Error(1)
}

func (m *MockSubmissionRepository) FindAll(ctx context.Context, filter trade.SubmissionFilter) (shared.Paginated[*trade.OrderSubmission], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[*trade.OrderSubmission]), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
