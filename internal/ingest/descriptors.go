package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rshade/medcarbon/internal/engine"
)

// ukSuffix is appended to bare UK arrival names.
const ukSuffix = " (united kingdom)"

func unset(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == notApplicable || s == "0.0"
}

// parenFields returns the whitespace-separated numbers inside the first pair
// of parentheses of s.
func parenFields(s string) ([]float64, bool) {
	open := strings.Index(s, "(")
	end := strings.LastIndex(s, ")")
	if open < 0 || end < open {
		return nil, false
	}
	fields := strings.Fields(s[open+1 : end])
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// ParseElectricity parses "1 (<power W> <hours>)". "0" means no electricity.
func ParseElectricity(s string) (*engine.Electricity, error) {
	if unset(s) {
		return nil, nil //nolint:nilnil // Absent is a valid answer.
	}
	v, ok := parenFields(s)
	if !ok || len(v) != 2 || v[0] < 0 || v[1] < 0 {
		return nil, fmt.Errorf("%w: electricity %q, want \"1 (power_w hours)\"", ErrMalformedUseDescriptor, s)
	}
	return &engine.Electricity{PowerW: v[0], Hours: v[1]}, nil
}

// ParseWater parses "1 (<litres>)". "0" means no water.
func ParseWater(s string) (*engine.Water, error) {
	if unset(s) {
		return nil, nil //nolint:nilnil // Absent is a valid answer.
	}
	v, ok := parenFields(s)
	if !ok || len(v) != 1 || v[0] < 0 {
		return nil, fmt.Errorf("%w: water %q, want \"1 (litres)\"", ErrMalformedUseDescriptor, s)
	}
	return &engine.Water{Litres: v[0]}, nil
}

// ParseGas parses "1 (<cubic metres>)". "0" means no gas.
func ParseGas(s string) (*engine.Gas, error) {
	if unset(s) {
		return nil, nil //nolint:nilnil // Absent is a valid answer.
	}
	v, ok := parenFields(s)
	if !ok || len(v) != 1 || v[0] < 0 {
		return nil, fmt.Errorf("%w: gas %q, want \"1 (m3)\"", ErrMalformedUseDescriptor, s)
	}
	return &engine.Gas{CubicMetres: v[0]}, nil
}

// ParseReprocessing parses "laundry" or "hsdu(<fill fraction>)". "0" means none.
func ParseReprocessing(s string) (engine.Reprocessing, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case unset(s):
		return engine.Reprocessing{Kind: engine.ReprocessingNone}, nil
	case s == engine.ReprocessingLaundry.String():
		return engine.Reprocessing{Kind: engine.ReprocessingLaundry}, nil
	case strings.HasPrefix(s, engine.ReprocessingHSDU.String()):
		v, ok := parenFields(s)
		if !ok || len(v) != 1 || v[0] < 0 || v[0] > 1 {
			return engine.Reprocessing{}, fmt.Errorf("%w: %q, want \"hsdu(fraction)\" with fraction in [0, 1]",
				ErrMalformedReprocessing, s)
		}
		return engine.Reprocessing{Kind: engine.ReprocessingHSDU, FillFraction: v[0]}, nil
	default:
		return engine.Reprocessing{}, fmt.Errorf("%w: %q", ErrMalformedReprocessing, s)
	}
}

// arrivalLocation adds the UK country to arrival points given as a bare city.
func arrivalLocation(s string) string {
	if s == "" || strings.Contains(s, "(") {
		return s
	}
	return s + ukSuffix
}
