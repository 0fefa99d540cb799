package trade

import "strings"

// Fixed business rule values
const (
	FixedDistChannel  = "99"
	FixedDivision     = "01"
	ControllingArea   = "1000"
	SalesDocType      = "ZMTQ"
	CostCenterLangKey = "E"
)

// PlantRule holds the values derived from a plant code
type PlantRule struct {
	SalesOrg string
	SoldTo   string
	ShipTo   string
}

// RuleBook is the static plant mapping plus the fixed order constants.
type RuleBook struct {
	Plants          map[string]PlantRule
	DistChannel     string
	Division        string
	ControllingArea string
	DocType         string
}

// DefaultPlantRules returns the built-in plant table
func DefaultPlantRules() map[string]PlantRule {
	return map[string]PlantRule{
		"US01": {SalesOrg: "US01", SoldTo: "166", ShipTo: "M0001001E"},
		"US65": {SalesOrg: "US65", SoldTo: "1", ShipTo: "M0001001XI"},
	}
}

// NewRuleBook creates a RuleBook. Nil plants fall back to the built-in table,
// empty constants to the fixed values.
func NewRuleBook(plants map[string]PlantRule) *RuleBook {
	if plants == nil {
		plants = DefaultPlantRules()
	}
	normalized := make(map[string]PlantRule, len(plants))
	for code, rule := range plants {
		normalized[strings.ToUpper(strings.TrimSpace(code))] = rule
	}
	return &RuleBook{
		Plants:          normalized,
		DistChannel:     FixedDistChannel,
		Division:        FixedDivision,
		ControllingArea: ControllingArea,
		DocType:         SalesDocType,
	}
}

// Derive returns the plant rule for a plant code. An unknown plant uses the
// plant code as sales organization and leaves the partners empty.
func (b *RuleBook) Derive(plant string) (PlantRule, bool) {
	code := strings.ToUpper(strings.TrimSpace(plant))
	if rule, ok := b.Plants[code]; ok {
		if rule.SalesOrg == "" {
			rule.SalesOrg = code
		}
		return rule, true
	}
	return PlantRule{SalesOrg: code}, false
}

// Apply writes the plant-derived and fixed values onto a row
func (b *RuleBook) Apply(row *Row, plant string) bool {
	rule, known := b.Derive(plant)
	row.Plant = strings.ToUpper(strings.TrimSpace(plant))
	row.SalesOrg = rule.SalesOrg
	row.SoldTo = rule.SoldTo
	row.ShipTo = rule.ShipTo
	row.DistChannel = b.DistChannel
	row.Division = b.Division
	return known
}
