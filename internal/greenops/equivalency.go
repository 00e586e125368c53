package greenops

import (
	"fmt"
	"math"
)

// Calculate returns everyday equivalencies for a kg CO2e total. Totals below
// MinEquivalencyKg, negative totals included, produce an empty output: a net
// credit has no meaningful "miles driven".
func Calculate(kg float64) (EquivalencyOutput, error) {
	if math.IsInf(kg, 0) || math.IsNaN(kg) {
		return EquivalencyOutput{IsEmpty: true}, ErrCalculationOverflow
	}
	if kg < MinEquivalencyKg {
		return EquivalencyOutput{InputKg: kg, IsEmpty: true}, nil
	}

	miles := kg / MilesDrivenFactor
	phones := kg / SmartphoneChargeFactor
	trees := kg / TreeSeedlingFactor

	milesText := formatEquivalency(miles)
	phonesText := formatEquivalency(phones)

	results := []EquivalencyResult{
		{Type: EquivalencyMilesDriven, Value: miles, FormattedValue: milesText, Label: "miles driven"},
		{Type: EquivalencySmartphonesCharged, Value: phones, FormattedValue: phonesText, Label: "smartphones charged"},
		{
			Type:           EquivalencyTreeSeedlings,
			Value:          trees,
			FormattedValue: FormatFloat(trees, 2),
			Label:          "tree seedlings grown for 10 years",
		},
	}

	display := fmt.Sprintf("Equivalent to driving ~%s miles or charging ~%s smartphones", milesText, phonesText)

	return EquivalencyOutput{
		InputKg:     kg,
		Results:     results,
		DisplayText: display,
		CompactText: fmt.Sprintf("(≈ %s mi, %s phones)", milesText, phonesText),
	}, nil
}

func formatEquivalency(v float64) string {
	if v >= LargeNumberThreshold {
		return FormatLarge(v)
	}
	return FormatNumber(int64(math.Round(v)))
}
