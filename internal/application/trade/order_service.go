package trade

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matreq/backend/internal/domain/integration"
	"github.com/matreq/backend/internal/domain/shared"
	"github.com/matreq/backend/internal/domain/trade"
	"github.com/matreq/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultOrderWorkers bounds concurrent group submissions
const DefaultOrderWorkers = 4

// Failure reasons stamped on rows
const (
	ReasonNoValidItems   = "NoValidItems"
	ReasonInvalidItem    = "InvalidItem"
	ReasonNoDocument     = "No sales order number returned"
	ReasonTimeout        = "Timeout"
	reasonCommitPrefix   = "CommitFailed: "
	maxReasonDescription = 220
)

// CreateOrdersResult is the outcome of one CreateOrders call
type CreateOrdersResult struct {
	Rows    []*trade.Row
	Created int
	Failed  int
	Groups  int
}

// OrderService groups enriched rows and submits one order per group
type OrderService struct {
	rules       *trade.RuleBook
	workers     int
	submissions trade.SubmissionRepository
	publisher   shared.EventPublisher
	logger      *zap.Logger
	metrics     *telemetry.PipelineMetrics
	now         func() time.Time
}

// NewOrderService creates a new OrderService. submissions and publisher may
// be nil.
func NewOrderService(
	rules *trade.RuleBook,
	workers int,
	submissions trade.SubmissionRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *OrderService {
	if rules == nil {
		rules = trade.NewRuleBook(nil)
	}
	if workers <= 0 {
		workers = DefaultOrderWorkers
	}
	return &OrderService{
		rules:       rules,
		workers:     workers,
		submissions: submissions,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// SetPipelineMetrics enables order metrics
func (s *OrderService) SetPipelineMetrics(m *telemetry.PipelineMetrics) {
	s.metrics = m
}

// CreateOrders submits every group of eligible rows as one order. Rows that
// are not Enriched or already carry a document number pass through unchanged.
// Groups already started finish even if ctx is cancelled; groups not yet
// started are left untouched.
func (s *OrderService) CreateOrders(ctx context.Context, conn integration.Connection, rows []*trade.Row) (*CreateOrdersResult, error) {
	if len(rows) == 0 {
		return nil, shared.ErrNoRowsSelected
	}
	seen := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		if r == nil {
			return nil, shared.NewDomainError("INVALID_ROWS", "Rows cannot be empty")
		}
		if _, dup := seen[r.RowNumber]; dup {
			return nil, shared.NewDomainError("INVALID_ROWS", "Row numbers must be unique")
		}
		seen[r.RowNumber] = struct{}{}
	}

	ctx, span := telemetry.StartSpan(ctx, "orders.create",
		telemetry.WithAttribute(telemetry.SpanAttrEnvironment, conn.Environment()),
		telemetry.WithAttribute(telemetry.SpanAttrRowCount, len(rows)),
	)
	defer span.End()

	ws := trade.NewWorkspace()
	ws.Replace(rows)
	locked := 0
	for _, r := range rows {
		if err := ws.Select(r.RowNumber); errors.Is(err, trade.ErrRowLocked) {
			locked++
		}
	}
	if locked > 0 {
		s.logger.Debug("Rows with a document number left out of the selection",
			zap.String("environment", conn.Environment()),
			zap.Int("rows", locked),
		)
	}
	groups, _ := trade.PartitionGroups(ws.Selected())
	telemetry.SetAttributes(span, telemetry.SpanAttrGroupCount, len(groups))

	detached := context.WithoutCancel(ctx)

	var (
		mu      sync.Mutex
		result  = &CreateOrdersResult{}
		g       errgroup.Group
		skipped atomic.Int32
	)
	g.SetLimit(s.workers)

	for _, group := range groups {
		g.Go(func() error {
			if ctx.Err() != nil {
				skipped.Add(1)
				return nil
			}
			created := s.submitGroup(detached, conn, group)
			ws.ApplyUpdates(group.Rows)

			mu.Lock()
			result.Groups++
			if created {
				result.Created++
			} else {
				result.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if n := skipped.Load(); n > 0 {
		s.logger.Warn("Order creation cancelled before all groups were dispatched",
			zap.String("environment", conn.Environment()),
			zap.Int32("groups_skipped", n),
		)
	}

	result.Rows = ws.Rows()
	s.logger.Info("Orders processed",
		zap.String("environment", conn.Environment()),
		zap.String("user", conn.User()),
		zap.Int("groups", result.Groups),
		zap.Int("created", result.Created),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// submitGroup creates one order for the group and stamps every row with the
// outcome. Rows that produced no item never carry the document number. It
// reports whether the order was created.
func (s *OrderService) submitGroup(ctx context.Context, conn integration.Connection, group *trade.Group) bool {
	ctx, span := telemetry.StartSpan(ctx, "orders.submit_group",
		telemetry.WithAttribute(telemetry.SpanAttrGroupKey, group.Key.String()),
		telemetry.WithAttribute(telemetry.SpanAttrRowCount, len(group.Rows)),
	)
	defer span.End()

	req := group.BuildOrderRequest(s.rules, conn.User())
	telemetry.SetAttributes(span, telemetry.SpanAttrItemCount, len(req.Items))

	start := s.now()
	submission := trade.NewOrderSubmission(conn.Environment(), conn.User(), group, len(req.Items), start)

	var (
		doc string
		err error
	)
	if len(req.Items) == 0 {
		err = errNoValidItems
	} else {
		labels := telemetry.OperationLabels(telemetry.OperationCreateOrder, conn.Environment())
		telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
			doc, err = conn.SubmitOrder(ctx, req)
		})
	}
	elapsed := s.now().Sub(start)

	if err != nil {
		reason := FailureReason(err)
		for _, row := range group.Rows {
			row.MarkCreateFailed(reason)
		}
		submission.Fail(reason, elapsed)
		telemetry.RecordError(span, err)
		s.logger.Warn("Order creation failed",
			zap.String("environment", conn.Environment()),
			zap.String("group_key", group.Key.String()),
			zap.Ints("rows", group.RowNumbers()),
			zap.String("reason", reason),
		)
	} else {
		for _, row := range group.Rows {
			if row.HasOrderItem() {
				row.MarkCreated(doc)
			} else {
				row.MarkCreateFailed(ReasonInvalidItem)
			}
		}
		submission.Succeed(doc, elapsed)
		telemetry.SetAttributes(span, telemetry.SpanAttrDocument, doc)
		s.logger.Info("Order created",
			zap.String("environment", conn.Environment()),
			zap.String("group_key", group.Key.String()),
			zap.String("document_number", doc),
			zap.Int("items", len(req.Items)),
		)
	}

	s.metrics.RecordOrder(ctx, conn.Environment(), err == nil)
	s.record(ctx, submission)
	return err == nil
}

// record writes the ledger entry and publishes the event. Failures are
// logged only.
func (s *OrderService) record(ctx context.Context, submission *trade.OrderSubmission) {
	if s.submissions != nil {
		if err := s.submissions.Save(ctx, submission); err != nil {
			s.logger.Error("Failed to record order submission",
				zap.String("submission_id", submission.ID.String()),
				zap.Error(err),
			)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, trade.NewOrderSubmittedEvent(submission)); err != nil {
			s.logger.Error("Failed to publish order submitted event",
				zap.String("submission_id", submission.ID.String()),
				zap.Error(err),
			)
		}
	}
}

var errNoValidItems = errors.New(ReasonNoValidItems)

// FailureReason returns the text stamped on rows of a failed group
func FailureReason(err error) string {
	var (
		commitErr *integration.CommitError
		callErr   *integration.CallError
	)
	switch {
	case errors.Is(err, errNoValidItems):
		return ReasonNoValidItems
	case errors.As(err, &commitErr):
		return reasonCommitPrefix + FailureReason(commitErr.Err)
	case errors.Is(err, integration.ErrNoDocumentNumber):
		return ReasonNoDocument
	case errors.Is(err, integration.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.As(err, &callErr):
		return integration.Truncate(callErr.Error(), maxReasonDescription)
	default:
		return integration.Truncate(err.Error(), maxReasonDescription)
	}
}
