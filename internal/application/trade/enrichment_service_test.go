package trade

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/matreq/backend/internal/domain/integration"
	"github.com/matreq/backend/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func scenarioRules() *trade.RuleBook {
	return trade.NewRuleBook(map[string]trade.PlantRule{
		"US01": {SalesOrg: "US01", SoldTo: "1000", ShipTo: "2000"},
	})
}

func TestEnrichmentService_Enrich(t *testing.T) {
	ctx := context.Background()
	conn := newMockConnection()
	conn.On("LookupEquipment", mock.Anything, "10000001").Return(&integration.Equipment{Plant: "us01", CostCenter: "4711", CompanyCode: "1000"}, nil)
	conn.On("LookupEquipment", mock.Anything, "10000002").Return(&integration.Equipment{Plant: "DE10", CostCenter: "4712"}, nil)
	conn.On("LookupEquipment", mock.Anything, "404").Return(nil, fmt.Errorf("%w: Equipment 404 does not exist", integration.ErrNotFound))
	conn.On("LookupEquipment", mock.Anything, "500").Return(nil, integration.ErrTimeout)
	conn.On("LookupEquipment", mock.Anything, "10000005").Return(&integration.Equipment{Plant: "US01", CostCenter: "9999"}, nil)
	conn.On("LookupEquipment", mock.Anything, "10000006").Return(&integration.Equipment{Plant: "US01"}, nil)
	conn.On("LookupCostCenter", mock.Anything, mock.MatchedBy(func(q integration.CostCenterQuery) bool {
		return q.CostCenter == "4711" || q.CostCenter == "4712"
	})).Return(&integration.CostCenter{OrderReason: "ZOR1", Text: "Maintenance"}, nil)
	conn.On("LookupCostCenter", mock.Anything, mock.MatchedBy(func(q integration.CostCenterQuery) bool {
		return q.CostCenter == "9999"
	})).Return(nil, integration.ErrNotFound)

	raw := []trade.RawRow{
		{EquipmentID: "10000001", Material: "MAT001", Quantity: "5", Batch: "B1"},
		{EquipmentID: "", Material: "MAT001", Quantity: "5"},
		{EquipmentID: "10000001", Material: "MAT001", Quantity: "-1"},
		{EquipmentID: "404", Material: "MAT001", Quantity: "1"},
		{EquipmentID: "500", Material: "MAT001", Quantity: "1"},
		{EquipmentID: "10000005", Material: "MAT001", Quantity: "1"},
		{EquipmentID: "10000006", Material: "MAT001", Quantity: "1"},
		{EquipmentID: "10000002", Material: "MAT002", Quantity: "2.5"},
		{EquipmentID: "10000001", Material: "MAT001", Quantity: "abc"},
	}

	svc := NewEnrichmentService(scenarioRules(), 3, zaptest.NewLogger(t))
	rows := svc.Enrich(ctx, conn, raw)

	require.Len(t, rows, len(raw))
	for i, row := range rows {
		assert.Equal(t, i+1, row.RowNumber)
	}

	want := []trade.RowStatus{
		trade.RowStatusEnriched,
		trade.EnrichmentFailed(trade.DetailMissingField),
		trade.EnrichmentFailed(trade.DetailInvalidQuantity),
		trade.EnrichmentFailed(trade.DetailEquipmentNotFound),
		trade.EnrichmentFailed(trade.DetailGatewayError),
		trade.EnrichmentFailed(trade.DetailCostCenterLookupFailed),
		trade.EnrichmentFailed(trade.DetailCostCenterLookupFailed),
		trade.RowStatusEnriched,
		trade.EnrichmentFailed(trade.DetailInvalidQuantity),
	}
	for i, status := range want {
		assert.Equal(t, status, rows[i].Status, "row %d", i+1)
	}

	first := rows[0]
	assert.Equal(t, "US01", first.Plant)
	assert.Equal(t, "US01", first.SalesOrg)
	assert.Equal(t, "1000", first.SoldTo)
	assert.Equal(t, "2000", first.ShipTo)
	assert.Equal(t, "99", first.DistChannel)
	assert.Equal(t, "01", first.Division)
	assert.Equal(t, "4711", first.CostCenter)
	assert.Equal(t, "1000", first.CompanyCode)
	assert.Equal(t, "ZOR1", first.OrderReason)
	assert.Equal(t, "Maintenance", first.CostCenterText)
	assert.Equal(t, "B1", first.Batch)

	unknownPlant := rows[7]
	assert.Equal(t, "DE10", unknownPlant.SalesOrg)
	assert.Empty(t, unknownPlant.SoldTo)
	assert.Equal(t, "2.5", unknownPlant.Quantity.String())

	conn.AssertNotCalled(t, "LookupEquipment", mock.Anything, "")
}

func TestEnrichmentService_CostCenterQuery(t *testing.T) {
	conn := newMockConnection()
	conn.On("LookupEquipment", mock.Anything, "1").Return(&integration.Equipment{Plant: "US01", CostCenter: "4711"}, nil)
	conn.On("LookupCostCenter", mock.Anything, integration.CostCenterQuery{
		CostCenter:      "4711",
		SalesOrg:        "US01",
		DistChannel:     "99",
		Division:        "01",
		ControllingArea: "1000",
		LanguageKey:     "E",
	}).Return(&integration.CostCenter{OrderReason: "Z01"}, nil).Once()

	rows := NewEnrichmentService(nil, 0, zaptest.NewLogger(t)).
		Enrich(context.Background(), conn, []trade.RawRow{{EquipmentID: "1", Material: "M", Quantity: "1"}})

	assert.Equal(t, trade.RowStatusEnriched, rows[0].Status)
	conn.AssertExpectations(t)
}

func TestEnrichmentService_EquipmentNotFoundScenario(t *testing.T) {
	conn := newMockConnection()
	conn.On("LookupEquipment", mock.Anything, "10000001").Return(&integration.Equipment{Plant: "US01", CostCenter: "4711"}, nil)
	conn.On("LookupEquipment", mock.Anything, "99999999").Return(nil, integration.ErrNotFound)
	conn.On("LookupEquipment", mock.Anything, "10000003").Return(&integration.Equipment{Plant: "US01", CostCenter: "4711"}, nil)
	conn.On("LookupCostCenter", mock.Anything, mock.Anything).Return(&integration.CostCenter{OrderReason: "ZOR1"}, nil)

	rows := NewEnrichmentService(scenarioRules(), 2, zaptest.NewLogger(t)).Enrich(context.Background(), conn, []trade.RawRow{
		{EquipmentID: "10000001", Material: "MAT001", Quantity: "5"},
		{EquipmentID: "99999999", Material: "MAT002", Quantity: "10"},
		{EquipmentID: "10000003", Material: "MAT001", Quantity: "3"},
	})

	assert.Equal(t, trade.RowStatusEnriched, rows[0].Status)
	assert.Equal(t, trade.RowStatus("ErrorEnrichment:EquipmentNotFound"), rows[1].Status)
	assert.Equal(t, trade.RowStatusEnriched, rows[2].Status)

	groups, skipped := trade.PartitionGroups(rows)
	require.Len(t, groups, 1)
	assert.Equal(t, []int{1, 3}, groups[0].RowNumbers())
	require.Len(t, skipped, 1)
	assert.Equal(t, 2, skipped[0].RowNumber)
}

func TestEnrichmentService_CancelledContext(t *testing.T) {
	conn := newMockConnection()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := NewEnrichmentService(nil, 1, zaptest.NewLogger(t)).Enrich(ctx, conn, []trade.RawRow{
		{EquipmentID: "1", Material: "M", Quantity: "1"},
		{EquipmentID: "", Material: "M", Quantity: "1"},
	})

	assert.Equal(t, trade.EnrichmentFailed(trade.DetailGatewayError), rows[0].Status)
	assert.Equal(t, trade.EnrichmentFailed(trade.DetailMissingField), rows[1].Status)
	conn.AssertNotCalled(t, "LookupEquipment", mock.Anything, mock.Anything)
}

func TestEnrichmentService_OrderIsStableUnderConcurrency(t *testing.T) {
	conn := newMockConnection()
	conn.On("LookupEquipment", mock.Anything, mock.Anything).Return(nil, errors.New("down"))

	raw := make([]trade.RawRow, 50)
	for i := range raw {
		raw[i] = trade.RawRow{EquipmentID: fmt.Sprintf("%d", i+1), Material: "M", Quantity: "1"}
	}
	rows := NewEnrichmentService(nil, 8, zaptest.NewLogger(t)).Enrich(context.Background(), conn, raw)

	require.Len(t, rows, 50)
	for i, row := range rows {
		assert.Equal(t, i+1, row.RowNumber)
		assert.Equal(t, fmt.Sprintf("%d", i+1), row.EquipmentID)
	}
}

func TestEnrichmentService_Empty(t *testing.T) {
	rows := NewEnrichmentService(nil, 0, zaptest.NewLogger(t)).Enrich(context.Background(), newMockConnection(), nil)
	assert.Empty(t, rows)
}
