// Package greenops turns kg CO2e totals into report-friendly text: unit
// conversion, thousands separators and everyday equivalencies.
package greenops

import "fmt"

// EquivalencyType is a category of everyday equivalency.
type EquivalencyType int

const (
	// EquivalencyMilesDriven converts CO2e to miles driven in a passenger car.
	EquivalencyMilesDriven EquivalencyType = iota

	// EquivalencySmartphonesCharged converts CO2e to full smartphone charges.
	EquivalencySmartphonesCharged

	// EquivalencyTreeSeedlings converts CO2e to tree seedlings grown for ten years.
	EquivalencyTreeSeedlings
)

func (e EquivalencyType) String() string {
	switch e {
	case EquivalencyMilesDriven:
		return "miles_driven"
	case EquivalencySmartphonesCharged:
		return "smartphones_charged"
	case EquivalencyTreeSeedlings:
		return "tree_seedlings"
	default:
		return fmt.Sprintf("EquivalencyType(%d)", int(e))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e EquivalencyType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// EquivalencyResult is one calculated equivalency.
type EquivalencyResult struct {
	Type           EquivalencyType `json:"type"`
	Value          float64         `json:"value"`
	FormattedValue string          `json:"formatted_value"`
	Label          string          `json:"label"`
}

// EquivalencyOutput holds the equivalencies for one total.
type EquivalencyOutput struct {
	InputKg float64             `json:"input_kg"`
	Results []EquivalencyResult `json:"results,omitempty"`

	// DisplayText is the prose form, e.g.
	// "Equivalent to driving ~781 miles or charging ~18,248 smartphones".
	DisplayText string `json:"display_text,omitempty"`

	// CompactText fits table footers, e.g. "(≈ 781 mi, 18,248 phones)".
	CompactText string `json:"compact_text,omitempty"`

	IsEmpty bool `json:"is_empty"`
}
