package rfc

import (
	"encoding/json"
	"strings"

	"github.com/matreq/backend/internal/domain/integration"
)

// Function modules
const (
	FnPing                = "RFC_PING"
	FnEquipmentDetails    = "BAPI_EQUI_DETAILS"
	FnCostCenter          = "Z_MATREQ_COST_CENTER"
	FnCustomerList        = "BAPI_CUSTOMER_GETLIST"
	FnSalesOrderCreate    = "BAPI_SALESORDER_CREATEFROMDAT2"
	FnTransactionCommit   = "BAPI_TRANSACTION_COMMIT"
	FnTransactionRollback = "BAPI_TRANSACTION_ROLLBACK"
)

type bapiReturn struct {
	Type    string `json:"TYPE"`
	Message string `json:"MESSAGE"`
}

func (r bapiReturn) isError() bool {
	return r.Type == "E" || r.Type == "A"
}

func (r bapiReturn) callError(function string) *integration.CallError {
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "Unknown error"
	}
	return &integration.CallError{Function: function, Type: r.Type, Message: msg}
}

// firstError returns the first E or A message of a RETURN table
func firstError(function string, returns []bapiReturn) *integration.CallError {
	for _, r := range returns {
		if r.isError() {
			return r.callError(function)
		}
	}
	return nil
}

type equipmentDetailsIn struct {
	Equipment string `json:"EQUIPMENT"`
}

type equipmentDetailsOut struct {
	DataGeneral struct {
		PlanPlant   string `json:"PLANPLANT"`
		MaintPlant  string `json:"MAINTPLANT"`
		CostCenter  string `json:"COSTCENTER"`
		CompanyCode string `json:"COMPANYCODE"`
		Bukrs       string `json:"BUKRS"`
	} `json:"DATA_GENERAL_EXP"`
	Return bapiReturn `json:"RETURN"`
}

func (o *equipmentDetailsOut) equipment() *integration.Equipment {
	g := o.DataGeneral
	plant := strings.TrimSpace(g.PlanPlant)
	if plant == "" {
		plant = strings.TrimSpace(g.MaintPlant)
	}
	company := strings.TrimSpace(g.CompanyCode)
	if company == "" {
		company = strings.TrimSpace(g.Bukrs)
	}
	return &integration.Equipment{
		Plant:       plant,
		CostCenter:  strings.TrimSpace(g.CostCenter),
		CompanyCode: company,
	}
}

type costCenterIn struct {
	CostCenter      string `json:"P_COSTCENTER"`
	SalesOrg        string `json:"P_SALESORG"`
	DistChannel     string `json:"P_DIST_CHANNEL"`
	Division        string `json:"P_DIVISION"`
	ControllingArea string `json:"P_CONTROLLING_AREA"`
	Language        string `json:"P_LANGUAGE"`
}

type costCenterOut struct {
	Rows []struct {
		OrderReason string `json:"AUG"`
		Text        string `json:"LTEXT"`
	} `json:"T_COST_CENTER"`
}

type rangeRow struct {
	Sign   string `json:"SIGN"`
	Option string `json:"OPTION"`
	Low    string `json:"LOW"`
}

type customerListIn struct {
	IDRange []rangeRow `json:"IDRANGE"`
}

type customerListOut struct {
	Addresses []struct {
		Customer string `json:"CUSTOMER"`
		Name     string `json:"NAME"`
		City     string `json:"CITY"`
	} `json:"ADDRESSDATA"`
	Return bapiReturn `json:"RETURN"`
}

type orderHeaderIn struct {
	DocType     string `json:"DOC_TYPE"`
	SalesOrg    string `json:"SALES_ORG"`
	DistChannel string `json:"DISTR_CHAN"`
	Division    string `json:"DIVISION"`
	PurchaseNo  string `json:"PURCH_NO_C"`
	OrderReason string `json:"ORD_REASON,omitempty"`
}

type orderHeaderInX struct {
	UpdateFlag  string `json:"UPDATEFLAG"`
	DocType     string `json:"DOC_TYPE"`
	SalesOrg    string `json:"SALES_ORG"`
	DistChannel string `json:"DISTR_CHAN"`
	Division    string `json:"DIVISION"`
	PurchaseNo  string `json:"PURCH_NO_C"`
	OrderReason string `json:"ORD_REASON,omitempty"`
}

type orderPartner struct {
	Role   string `json:"PARTN_ROLE"`
	Number string `json:"PARTN_NUMB"`
}

type orderItemIn struct {
	ItemNumber string      `json:"ITM_NUMBER"`
	Material   string      `json:"MATERIAL"`
	Plant      string      `json:"PLANT"`
	TargetQty  json.Number `json:"TARGET_QTY"`
	Reference  string      `json:"REF_1"`
	Batch      string      `json:"BATCH,omitempty"`
}

type orderItemInX struct {
	ItemNumber string `json:"ITM_NUMBER"`
	UpdateFlag string `json:"UPDATEFLAG"`
	Material   string `json:"MATERIAL"`
	Plant      string `json:"PLANT"`
	TargetQty  string `json:"TARGET_QTY"`
	Reference  string `json:"REF_1"`
	Batch      string `json:"BATCH,omitempty"`
}

type orderScheduleIn struct {
	ItemNumber   string      `json:"ITM_NUMBER"`
	ScheduleLine string      `json:"SCHED_LINE"`
	RequiredQty  json.Number `json:"REQ_QTY"`
}

type orderScheduleInX struct {
	ItemNumber   string `json:"ITM_NUMBER"`
	ScheduleLine string `json:"SCHED_LINE"`
	UpdateFlag   string `json:"UPDATEFLAG"`
	RequiredQty  string `json:"REQ_QTY"`
}

type salesOrderCreateIn struct {
	Header     orderHeaderIn      `json:"ORDER_HEADER_IN"`
	HeaderX    orderHeaderInX     `json:"ORDER_HEADER_INX"`
	Partners   []orderPartner     `json:"ORDER_PARTNERS"`
	Items      []orderItemIn      `json:"ORDER_ITEMS_IN"`
	ItemsX     []orderItemInX     `json:"ORDER_ITEMS_INX"`
	Schedules  []orderScheduleIn  `json:"ORDER_SCHEDULES_IN"`
	SchedulesX []orderScheduleInX `json:"ORDER_SCHEDULES_INX"`
}

type salesOrderCreateOut struct {
	SalesDocument string       `json:"SALESDOCUMENT"`
	Return        []bapiReturn `json:"RETURN"`
}

// newSalesOrderCreateIn maps a create-request to the BAPI parameters,
// including the change-indicator structures.
func newSalesOrderCreateIn(req integration.OrderRequest) salesOrderCreateIn {
	h := req.Header
	in := salesOrderCreateIn{
		Header: orderHeaderIn{
			DocType:     h.DocType,
			SalesOrg:    h.SalesOrg,
			DistChannel: h.DistChannel,
			Division:    h.Division,
			PurchaseNo:  h.PurchaseOrderRef,
			OrderReason: h.OrderReason,
		},
		HeaderX: orderHeaderInX{
			UpdateFlag:  "I",
			DocType:     "X",
			SalesOrg:    "X",
			DistChannel: "X",
			Division:    "X",
			PurchaseNo:  "X",
		},
		Partners: []orderPartner{
			{Role: "AG", Number: h.SoldTo},
			{Role: "WE", Number: h.ShipTo},
		},
	}
	if h.OrderReason != "" {
		in.HeaderX.OrderReason = "X"
	}

	for _, item := range req.Items {
		qty := json.Number(item.Quantity.String())
		in.Items = append(in.Items, orderItemIn{
			ItemNumber: item.ItemNumber,
			Material:   item.Material,
			Plant:      item.Plant,
			TargetQty:  qty,
			Reference:  item.Reference,
			Batch:      item.Batch,
		})
		itemX := orderItemInX{
			ItemNumber: item.ItemNumber,
			UpdateFlag: "I",
			Material:   "X",
			Plant:      "X",
			TargetQty:  "X",
			Reference:  "X",
		}
		if item.Batch != "" {
			itemX.Batch = "X"
		}
		in.ItemsX = append(in.ItemsX, itemX)
		in.Schedules = append(in.Schedules, orderScheduleIn{
			ItemNumber:   item.ItemNumber,
			ScheduleLine: item.ScheduleLine,
			RequiredQty:  qty,
		})
		in.SchedulesX = append(in.SchedulesX, orderScheduleInX{
			ItemNumber:   item.ItemNumber,
			ScheduleLine: item.ScheduleLine,
			UpdateFlag:   "I",
			RequiredQty:  "X",
		})
	}
	return in
}

type commitIn struct {
	Wait string `json:"WAIT"`
}

type commitOut struct {
	Return bapiReturn `json:"RETURN"`
}
