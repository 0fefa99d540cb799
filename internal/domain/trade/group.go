package trade

import (
	"fmt"
	"strings"

	"github.com/matreq/backend/internal/domain/integration"
)

// GroupKey identifies the order a row belongs to. Plant is not part of the
// key: rows on different plants with the same key share one order.
type GroupKey struct {
	OrderReason string
	SoldTo      string
	ShipTo      string
}

// String returns the key in "reason|soldTo|shipTo" form
func (k GroupKey) String() string {
	return strings.Join([]string{k.OrderReason, k.SoldTo, k.ShipTo}, "|")
}

// Group is the ordered list of rows destined for one order
type Group struct {
	Key  GroupKey
	Rows []*Row
}

// PartitionGroups groups eligible rows by key. Keys keep their first-seen
// order and rows keep their input order within a key. Ineligible rows are
// returned separately, untouched.
func PartitionGroups(rows []*Row) (groups []*Group, skipped []*Row) {
	index := make(map[GroupKey]*Group)
	for _, row := range rows {
		if row == nil {
			continue
		}
		if !row.IsEligibleForOrder() {
			skipped = append(skipped, row)
			continue
		}
		key := row.GroupKey()
		g, ok := index[key]
		if !ok {
			g = &Group{Key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.Rows = append(g.Rows, row)
	}
	return groups, skipped
}

// RowNumbers returns the row numbers in the group
func (g *Group) RowNumbers() []int {
	nums := make([]int, len(g.Rows))
	for i, r := range g.Rows {
		nums[i] = r.RowNumber
	}
	return nums
}

// BuildOrderRequest turns a group into a create-request. The header takes the
// sales area from the first row. Rows without material or with a
// non-positive quantity produce no item.
func (g *Group) BuildOrderRequest(rules *RuleBook, user string) integration.OrderRequest {
	first := g.Rows[0]

	distChannel := first.DistChannel
	if distChannel == "" {
		distChannel = rules.DistChannel
	}
	division := first.Division
	if division == "" {
		division = rules.Division
	}

	req := integration.OrderRequest{
		Header: integration.OrderHeader{
			DocType:          rules.DocType,
			SalesOrg:         first.SalesOrg,
			DistChannel:      integration.PadLeft(distChannel, 2),
			Division:         integration.PadLeft(division, 2),
			PurchaseOrderRef: integration.Truncate(user, integration.PurchaseOrderRefLength),
			OrderReason:      g.Key.OrderReason,
			SoldTo:           integration.FormatPartner(g.Key.SoldTo),
			ShipTo:           integration.FormatPartner(g.Key.ShipTo),
		},
	}

	itemNumber := 0
	for _, row := range g.Rows {
		if !row.HasOrderItem() {
			continue
		}
		itemNumber += 10
		req.Items = append(req.Items, integration.OrderItem{
			ItemNumber:   fmt.Sprintf("%06d", itemNumber),
			Material:     row.Material,
			Plant:        row.Plant,
			Quantity:     row.Quantity,
			Batch:        row.Batch,
			Reference:    integration.Truncate(row.EquipmentID, integration.ItemReferenceLength),
			ScheduleLine: "0001",
		})
	}
	return req
}
