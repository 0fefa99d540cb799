package trade

import (
	"context"
	"errors"
	"strings"

	"github.com/matreq/backend/internal/domain/integration"
	"github.com/matreq/backend/internal/domain/trade"
	"github.com/matreq/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultEnrichmentWorkers bounds concurrent row enrichment
const DefaultEnrichmentWorkers = 8

// EnrichmentService resolves master data for uploaded rows
type EnrichmentService struct {
	rules   *trade.RuleBook
	workers int
	logger  *zap.Logger
	metrics *telemetry.PipelineMetrics
}

// NewEnrichmentService creates a new EnrichmentService
func NewEnrichmentService(rules *trade.RuleBook, workers int, logger *zap.Logger) *EnrichmentService {
	if rules == nil {
		rules = trade.NewRuleBook(nil)
	}
	if workers <= 0 {
		workers = DefaultEnrichmentWorkers
	}
	return &EnrichmentService{
		rules:   rules,
		workers: workers,
		logger:  logger,
	}
}

// SetPipelineMetrics enables row metrics
func (s *EnrichmentService) SetPipelineMetrics(m *telemetry.PipelineMetrics) {
	s.metrics = m
}

// Enrich turns raw rows into rows numbered 1..n in input order. Every row is
// enriched independently; a failure only sets that row's status.
func (s *EnrichmentService) Enrich(ctx context.Context, conn integration.Connection, raw []trade.RawRow) []*trade.Row {
	ctx, span := telemetry.StartSpan(ctx, "enrichment.enrich",
		telemetry.WithAttribute(telemetry.SpanAttrEnvironment, conn.Environment()),
		telemetry.WithAttribute(telemetry.SpanAttrRowCount, len(raw)),
	)
	defer span.End()

	rows := make([]*trade.Row, len(raw))

	labels := telemetry.OperationLabels(telemetry.OperationEnrichRows, conn.Environment())
	telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
		var g errgroup.Group
		g.SetLimit(s.workers)
		for i := range raw {
			g.Go(func() error {
				rows[i] = s.enrichRow(ctx, conn, i+1, raw[i])
				return nil
			})
		}
		_ = g.Wait()
	})

	enriched := 0
	for _, row := range rows {
		if row.Status == trade.RowStatusEnriched {
			enriched++
		}
		s.metrics.RecordRow(ctx, conn.Environment(), string(row.Status))
	}
	telemetry.SetAttributes(span, "matreq.enriched_count", enriched)

	s.logger.Info("Rows enriched",
		zap.String("environment", conn.Environment()),
		zap.Int("rows", len(rows)),
		zap.Int("enriched", enriched),
	)
	return rows
}

func (s *EnrichmentService) enrichRow(ctx context.Context, conn integration.Connection, rowNumber int, raw trade.RawRow) *trade.Row {
	row := trade.NewRow(rowNumber, raw)

	if row.EquipmentID == "" || row.Material == "" || strings.TrimSpace(raw.Quantity) == "" {
		row.MarkEnrichmentFailed(trade.DetailMissingField)
		return row
	}
	if qty, err := decimal.NewFromString(strings.TrimSpace(raw.Quantity)); err != nil || !qty.IsPositive() {
		row.MarkEnrichmentFailed(trade.DetailInvalidQuantity)
		return row
	}
	if ctx.Err() != nil {
		row.MarkEnrichmentFailed(trade.DetailGatewayError)
		return row
	}

	eq, err := conn.LookupEquipment(ctx, row.EquipmentID)
	if err != nil {
		if errors.Is(err, integration.ErrNotFound) {
			row.MarkEnrichmentFailed(trade.DetailEquipmentNotFound)
		} else {
			s.logger.Debug("Equipment lookup failed",
				zap.Int("row", rowNumber),
				zap.String("equipment_id", row.EquipmentID),
				zap.Error(err),
			)
			row.MarkEnrichmentFailed(trade.DetailGatewayError)
		}
		return row
	}

	s.rules.Apply(row, eq.Plant)
	row.CostCenter = eq.CostCenter
	row.CompanyCode = eq.CompanyCode

	if strings.TrimSpace(eq.CostCenter) == "" {
		row.MarkEnrichmentFailed(trade.DetailCostCenterLookupFailed)
		return row
	}

	cc, err := conn.LookupCostCenter(ctx, integration.CostCenterQuery{
		CostCenter:      eq.CostCenter,
		SalesOrg:        row.SalesOrg,
		DistChannel:     row.DistChannel,
		Division:        row.Division,
		ControllingArea: s.rules.ControllingArea,
		LanguageKey:     trade.CostCenterLangKey,
	})
	if err != nil || cc == nil {
		s.logger.Debug("Cost center lookup failed",
			zap.Int("row", rowNumber),
			zap.String("cost_center", eq.CostCenter),
			zap.Error(err),
		)
		row.MarkEnrichmentFailed(trade.DetailCostCenterLookupFailed)
		return row
	}

	row.OrderReason = cc.OrderReason
	row.CostCenterText = cc.Text
	row.MarkEnriched()
	return row
}
