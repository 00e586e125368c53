package factors

import (
	"fmt"
	"sort"
)

// DeconUnit is the per-load utility profile of a decontamination unit.
type DeconUnit struct {
	Name           string  `json:"name"`
	ElectricityKWh float64 `json:"electricity_kwh"`
	WaterLitres    float64 `json:"water_l"`
	GasM3          float64 `json:"gas_m3"`
}

// DeconUnits maps a normalised unit name to its profile.
type DeconUnits map[string]DeconUnit

// Get returns the profile for name.
func (d DeconUnits) Get(name string) (DeconUnit, bool) {
	u, ok := d[Normalize(name)]
	return u, ok
}

// Names returns the unit names, sorted.
func (d DeconUnits) Names() []string {
	out := make([]string, 0, len(d))
	for n := range d {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Distance is one entry of a location-pair distance table.
type Distance struct {
	From string
	To   string
	Km   float64
}

type distanceKey struct {
	from string
	to   string
}

// DistanceTable looks up the distance between an ordered pair of locations.
// Pairs are directional: an entry for (a, b) does not answer (b, a).
type DistanceTable struct {
	km map[distanceKey]float64
}

// NewDistanceTable indexes entries. Negative distances are rejected.
// When a pair repeats, the later entry wins.
func NewDistanceTable(entries []Distance) (*DistanceTable, error) {
	t := &DistanceTable{km: make(map[distanceKey]float64, len(entries))}
	for _, e := range entries {
		if e.Km < 0 {
			return nil, fmt.Errorf("%w: negative distance %v for %s -> %s", ErrInvalidRecord, e.Km, e.From, e.To)
		}
		t.km[distanceKey{from: Normalize(e.From), to: Normalize(e.To)}] = e.Km
	}
	return t, nil
}

// Lookup returns the distance in km from one location to another.
func (t *DistanceTable) Lookup(from, to string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	km, ok := t.km[distanceKey{from: Normalize(from), to: Normalize(to)}]
	return km, ok
}

// Len returns the number of pairs in the table.
func (t *DistanceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.km)
}

// Tables bundles every lookup the lifecycle calculator consumes. A Tables
// value is assembled by a loader and treated as read-only from then on.
type Tables struct {
	Factors       *Table
	Additional    *AdditionalTable
	Regions       *RegionSets
	LandDistances *DistanceTable
	SeaDistances  *DistanceTable
	DeconUnits    DeconUnits
}
