package integration

import (
	"strings"
	"unicode/utf8"
)

const (
	// EquipmentIDLength is the fixed width of an equipment number
	EquipmentIDLength = 18
	// CostCenterLength is the fixed width of a cost center
	CostCenterLength = 10
	// PartnerLength is the fixed width of a numeric partner number
	PartnerLength = 10
	// PurchaseOrderRefLength is the maximum length of a customer reference
	PurchaseOrderRefLength = 35
	// ItemReferenceLength is the maximum length of an item reference
	ItemReferenceLength = 12
)

// PadLeft left-pads s with zeros to width. Longer values are returned unchanged.
func PadLeft(s string, width int) string {
	s = strings.TrimSpace(s)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// NormalizeEquipmentID returns the fixed-width form used for equipment lookups.
func NormalizeEquipmentID(id string) string {
	return PadLeft(id, EquipmentIDLength)
}

// NormalizeCostCenter returns the fixed-width form used for cost-center lookups.
func NormalizeCostCenter(costCenter string) string {
	return PadLeft(costCenter, CostCenterLength)
}

// FormatPartner pads numeric partner numbers. Alphanumeric partners pass through.
func FormatPartner(partner string) string {
	partner = strings.TrimSpace(partner)
	if partner == "" || !isDigits(partner) {
		return partner
	}
	return PadLeft(partner, PartnerLength)
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
