package models

import (
	"encoding/json"
	"time"

	"github.com/matreq/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// OrderSubmissionModel is the persistence model for one ledger entry
type OrderSubmissionModel struct {
	BaseModel
	Environment     string    `gorm:"type:varchar(32);not null;index:idx_submissions_env_user"`
	User            string    `gorm:"column:sap_user;type:varchar(64);not null;index:idx_submissions_env_user"`
	OrderReason     string    `gorm:"type:varchar(8)"`
	SoldTo          string    `gorm:"type:varchar(16);not null"`
	ShipTo          string    `gorm:"type:varchar(16);not null"`
	SalesOrg        string    `gorm:"type:varchar(8)"`
	Status          string    `gorm:"type:varchar(16);not null;index"`
	DocumentNumber  string    `gorm:"type:varchar(16)"`
	Reason          string    `gorm:"type:text"`
	RowNumbersJSON  string    `gorm:"column:row_numbers;type:text;not null"`
	ItemCount       int       `gorm:"not null"`
	SubmittedAt     time.Time `gorm:"not null;index"`
	DurationMs      int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderSubmissionModel) TableName() string {
	return "order_submissions"
}

// ToDomain converts the model to a domain submission
func (m *OrderSubmissionModel) ToDomain() *trade.OrderSubmission {
	var rows []int
	if m.RowNumbersJSON != "" {
		if err := json.Unmarshal([]byte(m.RowNumbersJSON), &rows); err != nil {
			zap.L().Warn("failed to parse row_numbers JSON",
				zap.String("submission_id", m.ID.String()),
				zap.String("raw_json", m.RowNumbersJSON),
				zap.Error(err))
		}
	}
	return &trade.OrderSubmission{
		ID:             m.ID,
		Environment:    m.Environment,
		User:           m.User,
		OrderReason:    m.OrderReason,
		SoldTo:         m.SoldTo,
		ShipTo:         m.ShipTo,
		SalesOrg:       m.SalesOrg,
		Status:         trade.SubmissionStatus(m.Status),
		DocumentNumber: m.DocumentNumber,
		Reason:         m.Reason,
		RowNumbers:     rows,
		ItemCount:      m.ItemCount,
		SubmittedAt:    m.SubmittedAt,
		Duration:       time.Duration(m.DurationMs) * time.Millisecond,
	}
}

// FromDomain populates the model from a domain submission
func (m *OrderSubmissionModel) FromDomain(s *trade.OrderSubmission) {
	m.ID = s.ID
	m.Environment = s.Environment
	m.User = s.User
	m.OrderReason = s.OrderReason
	m.SoldTo = s.SoldTo
	m.ShipTo = s.ShipTo
	m.SalesOrg = s.SalesOrg
	m.Status = string(s.Status)
	m.DocumentNumber = s.DocumentNumber
	m.Reason = s.Reason
	m.ItemCount = s.ItemCount
	m.SubmittedAt = s.SubmittedAt
	m.DurationMs = s.Duration.Milliseconds()

	rows := s.RowNumbers
	if rows == nil {
		rows = []int{}
	}
	raw, _ := json.Marshal(rows)
	m.RowNumbersJSON = string(raw)
}

// OrderSubmissionModelFromDomain creates a model from a domain submission
func OrderSubmissionModelFromDomain(s *trade.OrderSubmission) *OrderSubmissionModel {
	m := &OrderSubmissionModel{}
	m.FromDomain(s)
	return m
}
