package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/matreq/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// RowDTO is the wire form of a row
type RowDTO struct {
	RowNumber      int             `json:"rowNumber" binding:"required,min=1"`
	EquipmentID    string          `json:"equipmentId"`
	Material       string          `json:"material"`
	Quantity       decimal.Decimal `json:"quantity"`
	Batch          string          `json:"batch,omitempty"`
	Plant          string          `json:"plant"`
	SalesOrg       string          `json:"salesOrg"`
	DistChannel    string          `json:"distChannel"`
	Division       string          `json:"division"`
	CostCenter     string          `json:"costCenter"`
	CostCenterText string          `json:"costCenterText"`
	CompanyCode    string          `json:"companyCode"`
	OrderReason    string          `json:"orderReason"`
	SoldTo         string          `json:"soldTo"`
	ShipTo         string          `json:"shipTo"`
	Status         string          `json:"status"`
	DocumentNumber string          `json:"documentNumber,omitempty"`
}

// ToRowDTO converts a row to its wire form
func ToRowDTO(r *trade.Row) RowDTO {
	return RowDTO{
		RowNumber:      r.RowNumber,
		EquipmentID:    r.EquipmentID,
		Material:       r.Material,
		Quantity:       r.Quantity,
		Batch:          r.Batch,
		Plant:          r.Plant,
		SalesOrg:       r.SalesOrg,
		DistChannel:    r.DistChannel,
		Division:       r.Division,
		CostCenter:     r.CostCenter,
		CostCenterText: r.CostCenterText,
		CompanyCode:    r.CompanyCode,
		OrderReason:    r.OrderReason,
		SoldTo:         r.SoldTo,
		ShipTo:         r.ShipTo,
		Status:         string(r.Status),
		DocumentNumber: r.DocumentNumber,
	}
}

// ToRowDTOs converts rows keeping their order
func ToRowDTOs(rows []*trade.Row) []RowDTO {
	out := make([]RowDTO, len(rows))
	for i, r := range rows {
		out[i] = ToRowDTO(r)
	}
	return out
}

// ToRow converts the wire form back into a row
func (d RowDTO) ToRow() *trade.Row {
	return &trade.Row{
		RowNumber:      d.RowNumber,
		EquipmentID:    d.EquipmentID,
		Material:       d.Material,
		Quantity:       d.Quantity,
		Batch:          d.Batch,
		Plant:          d.Plant,
		SalesOrg:       d.SalesOrg,
		DistChannel:    d.DistChannel,
		Division:       d.Division,
		CostCenter:     d.CostCenter,
		CostCenterText: d.CostCenterText,
		CompanyCode:    d.CompanyCode,
		OrderReason:    d.OrderReason,
		SoldTo:         d.SoldTo,
		ShipTo:         d.ShipTo,
		Status:         trade.RowStatus(d.Status),
		DocumentNumber: d.DocumentNumber,
	}
}

// ToRows converts wire rows keeping their order
func ToRows(dtos []RowDTO) []*trade.Row {
	out := make([]*trade.Row, len(dtos))
	for i, d := range dtos {
		out[i] = d.ToRow()
	}
	return out
}

// UploadResponse is the result of an upload
type UploadResponse struct {
	Rows  []RowDTO `json:"rows"`
	Total int      `json:"total"`
}

// CreateOrdersResponse is the result of an order run
type CreateOrdersResponse struct {
	Rows            []RowDTO `json:"rows"`
	OrdersCreated   int      `json:"ordersCreated"`
	OrdersFailed    int      `json:"ordersFailed"`
	GroupsProcessed int      `json:"groupsProcessed"`
}

// ToCreateOrdersResponse converts a CreateOrdersResult
func ToCreateOrdersResponse(r *CreateOrdersResult) CreateOrdersResponse {
	return CreateOrdersResponse{
		Rows:            ToRowDTOs(r.Rows),
		OrdersCreated:   r.Created,
		OrdersFailed:    r.Failed,
		GroupsProcessed: r.Groups,
	}
}

// LocationResponse is one ship-to location
type LocationResponse struct {
	Partner string `json:"partner"`
	Name    string `json:"name"`
	City    string `json:"city"`
}

// SubmissionResponse is one ledger entry
type SubmissionResponse struct {
	ID             uuid.UUID `json:"id"`
	Environment    string    `json:"environment"`
	User           string    `json:"user"`
	Status         string    `json:"status"`
	DocumentNumber string    `json:"documentNumber,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	OrderReason    string    `json:"orderReason"`
	SoldTo         string    `json:"soldTo"`
	ShipTo         string    `json:"shipTo"`
	SalesOrg       string    `json:"salesOrg"`
	RowNumbers     []int     `json:"rowNumbers"`
	ItemCount      int       `json:"itemCount"`
	SubmittedAt    time.Time `json:"submittedAt"`
	DurationMs     int64     `json:"durationMs"`
}

// ToSubmissionResponse converts a ledger entry
func ToSubmissionResponse(s *trade.OrderSubmission) SubmissionResponse {
	return SubmissionResponse{
		ID:             s.ID,
		Environment:    s.Environment,
		User:           s.User,
		Status:         string(s.Status),
		DocumentNumber: s.DocumentNumber,
		Reason:         s.Reason,
		OrderReason:    s.OrderReason,
		SoldTo:         s.SoldTo,
		ShipTo:         s.ShipTo,
		SalesOrg:       s.SalesOrg,
		RowNumbers:     s.RowNumbers,
		ItemCount:      s.ItemCount,
		SubmittedAt:    s.SubmittedAt,
		DurationMs:     s.Duration.Milliseconds(),
	}
}
