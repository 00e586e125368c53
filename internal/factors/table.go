// Package factors holds the emissions-factor lookup tables and the rules for
// resolving a factor when the exact (component, location, year) record is
// absent: nearest-year substitution and the specific -> region -> world
// geographic fallback.
//
// Tables are built once per calculation session and are read-only afterwards,
// so they are safe to share between goroutines.
package factors

import (
	"fmt"
	"sort"
	"strings"
)

// Aggregate location codes used when a specific country has no record.
const (
	// LocationEurope is the aggregate code for European countries.
	LocationEurope = "rer"

	// LocationRestOfWorld is the aggregate code for countries outside Europe.
	LocationRestOfWorld = "row"

	// LocationWorld is the global average used as the last fallback.
	LocationWorld = "world"
)

// Quantity selects which value of a factor record a lookup returns.
type Quantity int

const (
	// EmissionFactor selects kg CO2e per kg of material.
	EmissionFactor Quantity = iota

	// CarbonContent selects the carbon mass fraction of the material.
	CarbonContent
)

// String returns a human-readable name for the quantity.
func (q Quantity) String() string {
	switch q {
	case EmissionFactor:
		return "emission factor"
	case CarbonContent:
		return "carbon content"
	default:
		return fmt.Sprintf("Quantity(%d)", int(q))
	}
}

// Factor is the pair of values stored per (component, location, year).
type Factor struct {
	// KgCO2ePerKg is the manufacture emission factor in kg CO2e per kg.
	KgCO2ePerKg float64 `json:"kg_co2e_per_kg"`

	// CarbonContent is the carbon mass fraction in [0, 1].
	CarbonContent float64 `json:"carbon_content"`
}

// Value returns the field selected by q.
func (f Factor) Value(q Quantity) float64 {
	if q == CarbonContent {
		return f.CarbonContent
	}
	return f.KgCO2ePerKg
}

// Record is one row of the factor table.
type Record struct {
	Component string
	Location  string
	Year      int
	Factor
}

// Key identifies a record exactly.
type Key struct {
	Component string
	Location  string
	Year      int
}

type pairKey struct {
	component string
	location  string
}

type yearFactor struct {
	year   int
	factor Factor
}

// Table is an indexed lookup of (component, location, year) to Factor.
// Component and location are matched case-insensitively.
type Table struct {
	exact  map[Key]Factor
	byPair map[pairKey][]yearFactor
}

// NewTable indexes records. Two records for the same component, location and
// year are rejected with ErrDuplicateRecord; a carbon content outside [0, 1]
// is rejected with ErrInvalidRecord.
func NewTable(records []Record) (*Table, error) {
	t := &Table{
		exact:  make(map[Key]Factor, len(records)),
		byPair: make(map[pairKey][]yearFactor),
	}

	for _, r := range records {
		key := Key{Component: Normalize(r.Component), Location: Normalize(r.Location), Year: r.Year}
		if key.Component == "" || key.Location == "" {
			return nil, fmt.Errorf("%w: empty component or location in %+v", ErrInvalidRecord, r)
		}
		if r.CarbonContent < 0 || r.CarbonContent > 1 {
			return nil, fmt.Errorf("%w: carbon content %v for %s/%s/%d outside [0,1]",
				ErrInvalidRecord, r.CarbonContent, key.Component, key.Location, key.Year)
		}
		if _, dup := t.exact[key]; dup {
			return nil, fmt.Errorf("%w: %s/%s/%d", ErrDuplicateRecord, key.Component, key.Location, key.Year)
		}
		t.exact[key] = r.Factor

		pk := pairKey{component: key.Component, location: key.Location}
		t.byPair[pk] = append(t.byPair[pk], yearFactor{year: key.Year, factor: r.Factor})
	}

	for pk := range t.byPair {
		years := t.byPair[pk]
		sort.Slice(years, func(i, j int) bool { return years[i].year < years[j].year })
	}

	return t, nil
}

// Len returns the number of records in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.exact)
}

// Lookup returns the record stored for exactly (component, location, year).
func (t *Table) Lookup(component, location string, year int) (Factor, bool) {
	if t == nil {
		return Factor{}, false
	}
	f, ok := t.exact[Key{Component: Normalize(component), Location: Normalize(location), Year: year}]
	return f, ok
}

// Years returns the (year, value) pairs recorded for component at location,
// in ascending year order.
func (t *Table) Years(component, location string, q Quantity) []YearValue {
	if t == nil {
		return nil
	}
	years := t.byPair[pairKey{component: Normalize(component), location: Normalize(location)}]
	out := make([]YearValue, 0, len(years))
	for _, y := range years {
		out = append(out, YearValue{Year: y.year, Value: y.factor.Value(q)})
	}
	return out
}

// Components returns the distinct component names in the table, sorted.
func (t *Table) Components() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for pk := range t.byPair {
		seen[pk.component] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Resolve is the single-location step of factor resolution: the exact record
// when present, otherwise the nearest-year record for the same component and
// location. found is false when the table holds nothing for that pair.
func (t *Table) Resolve(component, location string, year int, q Quantity) (float64, bool) {
	if f, ok := t.Lookup(component, location, year); ok {
		return f.Value(q), true
	}
	best, ok := NearestYear(t.Years(component, location, q), year)
	if !ok {
		return 0, false
	}
	return best.Value, true
}

// Normalize lower-cases and trims an identifier the way every table key is stored.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CountryOf extracts the country from a "city (country)" location string.
// A string without parentheses is returned normalised as-is.
func CountryOf(location string) string {
	open := strings.Index(location, "(")
	if open < 0 {
		return Normalize(location)
	}
	rest := location[open+1:]
	if end := strings.Index(rest, ")"); end >= 0 {
		rest = rest[:end]
	}
	return Normalize(rest)
}
