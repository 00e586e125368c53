package greenops

import (
	"fmt"
	"math"
	"strings"
)

// Unit is a display mass unit for CO2e.
type Unit string

// Supported display units.
const (
	UnitGram  Unit = "g"
	UnitKg    Unit = "kg"
	UnitTonne Unit = "t"
	UnitPound Unit = "lb"
)

// ParseUnit accepts g, kg, t and lb, with or without a "CO2e" suffix and in
// any case. An empty string means kg.
func ParseUnit(s string) (Unit, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "co2e") {
	case "":
		return defaultUnit, nil
	case "g":
		return UnitGram, nil
	case "kg":
		return UnitKg, nil
	case "t":
		return UnitTonne, nil
	case "lb":
		return UnitPound, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
}

// KgPerUnit returns how many kilograms one u is.
func (u Unit) KgPerUnit() (float64, bool) {
	switch u {
	case UnitGram:
		return KgPerGram, true
	case UnitKg:
		return kgPerKg, true
	case UnitTonne:
		return KgPerTonne, true
	case UnitPound:
		return KgPerPound, true
	default:
		return 0, false
	}
}

// Label returns the unit with its CO2e suffix, e.g. "kg CO2e".
func (u Unit) Label() string {
	return string(u) + " CO2e"
}

// FromKg converts a signed kg CO2e value to u. Negative values stay negative.
func FromKg(kg float64, u Unit) (float64, error) {
	if math.IsInf(kg, 0) || math.IsNaN(kg) {
		return 0, ErrCalculationOverflow
	}
	per, ok := u.KgPerUnit()
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, string(u))
	}
	return kg / per, nil
}
