package factors

import (
	"fmt"
	"sort"
)

// Additional-factor names the lifecycle stages depend on.
const (
	HGVTransport               = "hgv transport"
	HGVTransportWTT            = "hgv transport wtt"
	ContainerShipTransport     = "container ship transport"
	ContainerShipTransportWTT  = "container ship transport wtt"
	WaterTreatment             = "water treatment"
	WaterSupply                = "water supply"
	ElectricityGeneration      = "electricity generation"
	ElectricityTransmission    = "electricity t&d"
	ElectricityGenerationWTT   = "electricity generation wtt"
	ElectricityTransmissionWTT = "electricity t&d wtt"
	Gas                        = "gas"
	GasWTT                     = "gas wtt"
	Laundry                    = "laundry"
	Landfill                   = "landfill"
	DisposalTransport          = "disposal transport"
)

// Units used by the additional factors.
const (
	UnitKm  = "km"
	UnitM3  = "m3"
	UnitKWh = "kwh"
	UnitKg  = "kg"
)

// NameUnit names an additional factor together with its unit.
type NameUnit struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// RequiredAdditionalFactors lists every additional factor the calculator
// reads, with the unit it is expressed in.
//
//nolint:gochecknoglobals // Fixed lookup list.
var RequiredAdditionalFactors = []NameUnit{
	{HGVTransport, UnitKm},
	{HGVTransportWTT, UnitKm},
	{ContainerShipTransport, UnitKm},
	{ContainerShipTransportWTT, UnitKm},
	{WaterTreatment, UnitM3},
	{WaterSupply, UnitM3},
	{ElectricityGeneration, UnitKWh},
	{ElectricityTransmission, UnitKWh},
	{ElectricityGenerationWTT, UnitKWh},
	{ElectricityTransmissionWTT, UnitKWh},
	{Gas, UnitM3},
	{GasWTT, UnitM3},
	{Laundry, UnitKg},
	{Landfill, UnitKg},
	{DisposalTransport, UnitKm},
}

// AdditionalRecord is one row of the additional-factor table.
type AdditionalRecord struct {
	Name          string
	Unit          string
	Year          int
	KgCO2ePerUnit float64
}

// AdditionalKey identifies an additional-factor record exactly.
type AdditionalKey struct {
	Name string
	Unit string
	Year int
}

// AdditionalTable is an indexed lookup of (name, unit, year) to kg CO2e per unit.
type AdditionalTable struct {
	exact  map[AdditionalKey]float64
	byName map[string][]YearValue
}

// NewAdditionalTable indexes records, rejecting duplicates with ErrDuplicateRecord.
func NewAdditionalTable(records []AdditionalRecord) (*AdditionalTable, error) {
	t := &AdditionalTable{
		exact:  make(map[AdditionalKey]float64, len(records)),
		byName: make(map[string][]YearValue),
	}
	for _, r := range records {
		key := AdditionalKey{Name: Normalize(r.Name), Unit: Normalize(r.Unit), Year: r.Year}
		if key.Name == "" {
			return nil, fmt.Errorf("%w: empty additional factor name in %+v", ErrInvalidRecord, r)
		}
		if _, dup := t.exact[key]; dup {
			return nil, fmt.Errorf("%w: %s/%s/%d", ErrDuplicateRecord, key.Name, key.Unit, key.Year)
		}
		t.exact[key] = r.KgCO2ePerUnit
		t.byName[key.Name] = append(t.byName[key.Name], YearValue{Year: key.Year, Value: r.KgCO2ePerUnit})
	}
	for name := range t.byName {
		years := t.byName[name]
		sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })
	}
	return t, nil
}

// Len returns the number of records in the table.
func (t *AdditionalTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.exact)
}

// Resolve returns the factor for (name, unit, year). Without an exact record
// it falls back to the nearest year among all records with the same name.
// found is false when the name has no records at all.
func (t *AdditionalTable) Resolve(name, unit string, year int) (float64, bool) {
	if t == nil {
		return 0, false
	}
	if v, ok := t.exact[AdditionalKey{Name: Normalize(name), Unit: Normalize(unit), Year: year}]; ok {
		return v, true
	}
	best, ok := NearestYear(t.byName[Normalize(name)], year)
	if !ok {
		return 0, false
	}
	return best.Value, true
}

// Missing returns the required additional factors that have no record at any year.
func (t *AdditionalTable) Missing() []NameUnit {
	var out []NameUnit
	for _, nu := range RequiredAdditionalFactors {
		if t == nil || len(t.byName[nu.Name]) == 0 {
			out = append(out, nu)
		}
	}
	return out
}
