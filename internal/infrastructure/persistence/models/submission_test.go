package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matreq/backend/internal/domain/trade"
	"github.com/stretchr/testify/assert"
)

func TestOrderSubmissionModel_Mapping(t *testing.T) {
	submittedAt := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	s := &trade.OrderSubmission{
		ID:             uuid.New(),
		Environment:    "PRD",
		User:           "JDOE",
		OrderReason:    "Z01",
		SoldTo:         "0000100001",
		ShipTo:         "0000200001",
		SalesOrg:       "US01",
		Status:         trade.SubmissionCreated,
		DocumentNumber: "0000012345",
		RowNumbers:     []int{1, 3},
		ItemCount:      2,
		SubmittedAt:    submittedAt,
		Duration:       1500 * time.Millisecond,
	}

	m := OrderSubmissionModelFromDomain(s)
	assert.Equal(t, "[1,3]", m.RowNumbersJSON)
	assert.Equal(t, int64(1500), m.DurationMs)
	assert.Equal(t, "created", m.Status)

	back := m.ToDomain()
	assert.Equal(t, s, back)
}

func TestOrderSubmissionModel_NilRowNumbers(t *testing.T) {
	m := OrderSubmissionModelFromDomain(&trade.OrderSubmission{ID: uuid.New()})
	assert.Equal(t, "[]", m.RowNumbersJSON)
	assert.Empty(t, m.ToDomain().RowNumbers)
}

func TestOrderSubmissionModel_InvalidJSON(t *testing.T) {
	m := &OrderSubmissionModel{RowNumbersJSON: "not-json"}
	assert.Nil(t, m.ToDomain().RowNumbers)
}
