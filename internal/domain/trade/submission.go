package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/matreq/backend/internal/domain/shared"
)

// SubmissionStatus is the outcome of one group submission
type SubmissionStatus string

const (
	SubmissionCreated SubmissionStatus = "created"
	SubmissionFailed  SubmissionStatus = "failed"
)

// OrderSubmission records the outcome of submitting one group.
type OrderSubmission struct {
	ID             uuid.UUID
	Environment    string
	User           string
	OrderReason    string
	SoldTo         string
	ShipTo         string
	SalesOrg       string
	Status         SubmissionStatus
	DocumentNumber string
	Reason         string
	RowNumbers     []int
	ItemCount      int
	SubmittedAt    time.Time
	Duration       time.Duration
}

// NewOrderSubmission creates a ledger entry for a group
func NewOrderSubmission(environment, user string, g *Group, itemCount int, submittedAt time.Time) *OrderSubmission {
	salesOrg := ""
	if len(g.Rows) > 0 {
		salesOrg = g.Rows[0].SalesOrg
	}
	return &OrderSubmission{
		ID:          uuid.New(),
		Environment: environment,
		User:        user,
		OrderReason: g.Key.OrderReason,
		SoldTo:      g.Key.SoldTo,
		ShipTo:      g.Key.ShipTo,
		SalesOrg:    salesOrg,
		RowNumbers:  g.RowNumbers(),
		ItemCount:   itemCount,
		SubmittedAt: submittedAt,
	}
}

// Succeed records the returned document number
func (s *OrderSubmission) Succeed(documentNumber string, d time.Duration) {
	s.Status = SubmissionCreated
	s.DocumentNumber = documentNumber
	s.Reason = ""
	s.Duration = d
}

// Fail records the failure reason
func (s *OrderSubmission) Fail(reason string, d time.Duration) {
	s.Status = SubmissionFailed
	s.DocumentNumber = ""
	s.Reason = reason
	s.Duration = d
}

// SubmissionFilter narrows a ledger query
type SubmissionFilter struct {
	shared.Filter
	Environment string
	User        string
	Status      SubmissionStatus
}

// SubmissionRepository persists the submission ledger
type SubmissionRepository interface {
	Save(ctx context.Context, submission *OrderSubmission) error
	FindByID(ctx context.Context, id uuid.UUID) (*OrderSubmission, error)
	FindAll(ctx context.Context, filter SubmissionFilter) (shared.Paginated[*OrderSubmission], error)
}

// EventTypeOrderSubmitted is the type of OrderSubmittedEvent
const EventTypeOrderSubmitted = "OrderSubmitted"

// OrderSubmittedEvent is raised after every group submission
type OrderSubmittedEvent struct {
	shared.BaseDomainEvent
	SubmissionID   uuid.UUID        `json:"submission_id"`
	Environment    string           `json:"environment"`
	User           string           `json:"user"`
	Status         SubmissionStatus `json:"status"`
	DocumentNumber string           `json:"document_number,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	OrderReason    string           `json:"order_reason"`
	SoldTo         string           `json:"sold_to"`
	ShipTo         string           `json:"ship_to"`
	RowNumbers     []int            `json:"row_numbers"`
	ItemCount      int              `json:"item_count"`
}

// NewOrderSubmittedEvent creates the event for a finished submission
func NewOrderSubmittedEvent(s *OrderSubmission) *OrderSubmittedEvent {
	aggID := s.DocumentNumber
	if aggID == "" {
		aggID = s.ID.String()
	}
	return &OrderSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderSubmitted, "OrderSubmission", aggID, s.SubmittedAt.Add(s.Duration)),
		SubmissionID:    s.ID,
		Environment:     s.Environment,
		User:            s.User,
		Status:          s.Status,
		DocumentNumber:  s.DocumentNumber,
		Reason:          s.Reason,
		OrderReason:     s.OrderReason,
		SoldTo:          s.SoldTo,
		ShipTo:          s.ShipTo,
		RowNumbers:      s.RowNumbers,
		ItemCount:       s.ItemCount,
	}
}
