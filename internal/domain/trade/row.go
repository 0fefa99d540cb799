package trade

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RowStatus is the processing state of a row
type RowStatus string

// Row status values
const (
	RowStatusReady    RowStatus = "Ready"
	RowStatusEnriched RowStatus = "Enriched"
	RowStatusCreated  RowStatus = "Created"
)

const (
	enrichmentErrorPrefix = "ErrorEnrichment:"
	createErrorPrefix     = "ErrorCreate:"
)

// Enrichment error details
const (
	DetailMissingField           = "MissingField"
	DetailInvalidQuantity        = "InvalidQuantity"
	DetailEquipmentNotFound      = "EquipmentNotFound"
	DetailGatewayError           = "GatewayError"
	DetailCostCenterLookupFailed = "CostCenterLookupFailed"
)

// EnrichmentFailed returns the status of a row whose enrichment failed
func EnrichmentFailed(detail string) RowStatus {
	return RowStatus(enrichmentErrorPrefix + detail)
}

// CreateFailed returns the status of a row whose order creation failed
func CreateFailed(reason string) RowStatus {
	return RowStatus(createErrorPrefix + reason)
}

// IsEnrichmentError reports whether enrichment failed for the row
func (s RowStatus) IsEnrichmentError() bool {
	return strings.HasPrefix(string(s), enrichmentErrorPrefix)
}

// IsCreateError reports whether order creation failed for the row
func (s RowStatus) IsCreateError() bool {
	return strings.HasPrefix(string(s), createErrorPrefix)
}

// IsError reports whether the status is any error state
func (s RowStatus) IsError() bool {
	return s.IsEnrichmentError() || s.IsCreateError()
}

// Detail returns the text after the error prefix, or "" for non-error states
func (s RowStatus) Detail() string {
	switch {
	case s.IsEnrichmentError():
		return strings.TrimPrefix(string(s), enrichmentErrorPrefix)
	case s.IsCreateError():
		return strings.TrimPrefix(string(s), createErrorPrefix)
	default:
		return ""
	}
}

// RawRow is one record as parsed from an uploaded file
type RawRow struct {
	EquipmentID string
	Material    string
	Quantity    string
	Batch       string
}

// Row is one equipment/material line progressing through enrichment and
// order creation.
type Row struct {
	RowNumber int

	EquipmentID string
	Material    string
	Quantity    decimal.Decimal
	Batch       string

	Plant          string
	SalesOrg       string
	DistChannel    string
	Division       string
	CostCenter     string
	CostCenterText string
	CompanyCode    string
	OrderReason    string
	SoldTo         string
	ShipTo         string

	Status         RowStatus
	DocumentNumber string
}

// NewRow creates a Ready row from raw input. An unparseable quantity is
// kept as zero; enrichment validates it from the raw value.
func NewRow(rowNumber int, raw RawRow) *Row {
	qty, err := decimal.NewFromString(strings.TrimSpace(raw.Quantity))
	if err != nil {
		qty = decimal.Zero
	}
	return &Row{
		RowNumber:   rowNumber,
		EquipmentID: strings.TrimSpace(raw.EquipmentID),
		Material:    strings.TrimSpace(raw.Material),
		Quantity:    qty,
		Batch:       strings.TrimSpace(raw.Batch),
		Status:      RowStatusReady,
	}
}

// IsLocked reports whether the row already carries a document number.
// Locked rows are never selected or resubmitted.
func (r *Row) IsLocked() bool {
	return strings.TrimSpace(r.DocumentNumber) != ""
}

// HasOrderItem reports whether the row yields an order item
func (r *Row) HasOrderItem() bool {
	return strings.TrimSpace(r.Material) != "" && r.Quantity.IsPositive()
}

// IsEligibleForOrder reports whether the row may be grouped into an order
func (r *Row) IsEligibleForOrder() bool {
	return r.Status == RowStatusEnriched && !r.IsLocked()
}

// GroupKey returns the business key that decides which order the row joins
func (r *Row) GroupKey() GroupKey {
	return GroupKey{
		OrderReason: r.OrderReason,
		SoldTo:      r.SoldTo,
		ShipTo:      r.ShipTo,
	}
}

// MarkEnrichmentFailed sets an enrichment error status
func (r *Row) MarkEnrichmentFailed(detail string) {
	r.Status = EnrichmentFailed(detail)
}

// MarkEnriched sets the Enriched status
func (r *Row) MarkEnriched() {
	r.Status = RowStatusEnriched
}

// MarkCreated stamps the document number and the Created status
func (r *Row) MarkCreated(documentNumber string) {
	r.DocumentNumber = documentNumber
	r.Status = RowStatusCreated
}

// MarkCreateFailed stamps a create error and clears the document number
func (r *Row) MarkCreateFailed(reason string) {
	r.DocumentNumber = ""
	r.Status = CreateFailed(reason)
}

// Clone returns a copy of the row
func (r *Row) Clone() *Row {
	c := *r
	return &c
}

// CloneRows copies a row slice
func CloneRows(rows []*Row) []*Row {
	out := make([]*Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
