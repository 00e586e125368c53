package factors

import "fmt"

// Region is the aggregate region a country belongs to.
type Region int

const (
	// RegionUnknown means the country is in neither membership set.
	RegionUnknown Region = iota

	// RegionEurope maps to the "rer" location code.
	RegionEurope

	// RegionRestOfWorld maps to the "row" location code.
	RegionRestOfWorld
)

// String returns the region's display name.
func (r Region) String() string {
	switch r {
	case RegionEurope:
		return "europe"
	case RegionRestOfWorld:
		return "rest of world"
	case RegionUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Region(%d)", int(r))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Region) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Code returns the aggregate location code for the region, or "" for RegionUnknown.
func (r Region) Code() string {
	switch r {
	case RegionEurope:
		return LocationEurope
	case RegionRestOfWorld:
		return LocationRestOfWorld
	default:
		return ""
	}
}

// RegionSets holds the two disjoint country-membership sets.
type RegionSets struct {
	europe      map[string]struct{}
	restOfWorld map[string]struct{}
}

// NewRegionSets builds the membership sets. A country present in both lists
// is rejected with ErrOverlappingRegions.
func NewRegionSets(europe, restOfWorld []string) (*RegionSets, error) {
	rs := &RegionSets{
		europe:      make(map[string]struct{}, len(europe)),
		restOfWorld: make(map[string]struct{}, len(restOfWorld)),
	}
	for _, c := range europe {
		if n := Normalize(c); n != "" {
			rs.europe[n] = struct{}{}
		}
	}
	for _, c := range restOfWorld {
		n := Normalize(c)
		if n == "" {
			continue
		}
		if _, dup := rs.europe[n]; dup {
			return nil, fmt.Errorf("%w: %s", ErrOverlappingRegions, n)
		}
		rs.restOfWorld[n] = struct{}{}
	}
	return rs, nil
}

// RegionOf reports which set country belongs to.
func (rs *RegionSets) RegionOf(country string) Region {
	if rs == nil {
		return RegionUnknown
	}
	n := Normalize(country)
	if _, ok := rs.europe[n]; ok {
		return RegionEurope
	}
	if _, ok := rs.restOfWorld[n]; ok {
		return RegionRestOfWorld
	}
	return RegionUnknown
}

// Len returns the total number of countries across both sets.
func (rs *RegionSets) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.europe) + len(rs.restOfWorld)
}
