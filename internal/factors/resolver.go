package factors

import "fmt"

// Attempt records one location tried while resolving a factor.
type Attempt struct {
	Location string `json:"location"`
	Found    bool   `json:"found"`
}

// Resolution is the outcome of a fallback-chain lookup.
type Resolution struct {
	// Value is the resolved emission factor or carbon content. Zero when not found.
	Value float64 `json:"value"`

	// Location is the location code that produced Value.
	Location string `json:"location,omitempty"`

	// Country is the specific country the lookup started from.
	Country string `json:"country"`

	// Region is the membership region of Country, when it was needed.
	Region Region `json:"region"`

	// Attempts lists the locations tried, in order.
	Attempts []Attempt `json:"attempts"`
}

// Resolver applies the geographic fallback chain over a Table:
// the specific country first, then "rer" or "row" depending on the country's
// region membership, then "world".
type Resolver struct {
	table   *Table
	regions *RegionSets
}

// NewResolver creates a Resolver over table using regions for the regional step.
func NewResolver(table *Table, regions *RegionSets) *Resolver {
	return &Resolver{table: table, regions: regions}
}

// Resolve looks up component made in country for year.
//
// It returns ErrInvalidLocationCountry when the specific country has no
// record and belongs to neither region set, and ErrFactorNotFound when the
// world step also fails. In both cases the returned Resolution still carries
// the attempts made so callers can report them.
func (r *Resolver) Resolve(component, country string, year int, q Quantity) (Resolution, error) {
	res := Resolution{Country: Normalize(country)}

	if r.try(&res, component, res.Country, year, q) {
		return res, nil
	}

	res.Region = r.regions.RegionOf(res.Country)
	if res.Region == RegionUnknown {
		return res, fmt.Errorf("%w: %s", ErrInvalidLocationCountry, res.Country)
	}

	if r.try(&res, component, res.Region.Code(), year, q) {
		return res, nil
	}

	if r.try(&res, component, LocationWorld, year, q) {
		return res, nil
	}

	return res, fmt.Errorf("%w: %s for %s in %s, %s or world",
		ErrFactorNotFound, q, Normalize(component), res.Country, res.Region)
}

func (r *Resolver) try(res *Resolution, component, location string, year int, q Quantity) bool {
	v, ok := r.table.Resolve(component, location, year, q)
	res.Attempts = append(res.Attempts, Attempt{Location: location, Found: ok})
	if ok {
		res.Value = v
		res.Location = location
	}
	return ok
}
