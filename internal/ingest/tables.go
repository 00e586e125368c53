package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/rshade/medcarbon/internal/factors"
	"github.com/rshade/medcarbon/internal/geo"
)

// ReadFactors parses factors.csv:
// component,loc,year,factor_kgCO2eq_unit,carbon_content.
func ReadFactors(r io.Reader, file string) ([]factors.Record, error) {
	s, err := readSheet(r, file, "component", "loc", "year", "factor_kgco2eq_unit", "carbon_content")
	if err != nil {
		return nil, err
	}

	out := make([]factors.Record, 0, len(s.rows))
	for i, row := range s.rows {
		year, err := s.int(i, row, "year")
		if err != nil {
			return nil, err
		}
		kg, err := s.float(i, row, "factor_kgco2eq_unit")
		if err != nil {
			return nil, err
		}
		cc, err := s.float(i, row, "carbon_content")
		if err != nil {
			return nil, err
		}
		out = append(out, factors.Record{
			Component: s.cell(row, "component"),
			Location:  s.cell(row, "loc"),
			Year:      year,
			Factor:    factors.Factor{KgCO2ePerKg: kg, CarbonContent: cc},
		})
	}
	return out, nil
}

// ReadAdditionalFactors parses additional_factors.csv:
// name,unit,year,factor_kgCO2eq_unit.
func ReadAdditionalFactors(r io.Reader, file string) ([]factors.AdditionalRecord, error) {
	s, err := readSheet(r, file, "name", "unit", "year", "factor_kgco2eq_unit")
	if err != nil {
		return nil, err
	}

	out := make([]factors.AdditionalRecord, 0, len(s.rows))
	for i, row := range s.rows {
		year, err := s.int(i, row, "year")
		if err != nil {
			return nil, err
		}
		v, err := s.float(i, row, "factor_kgco2eq_unit")
		if err != nil {
			return nil, err
		}
		out = append(out, factors.AdditionalRecord{
			Name:          s.cell(row, "name"),
			Unit:          s.cell(row, "unit"),
			Year:          year,
			KgCO2ePerUnit: v,
		})
	}
	return out, nil
}

// ReadDistances parses a travel distance table: start_loc,end_loc,distance_km.
func ReadDistances(r io.Reader, file string) ([]factors.Distance, error) {
	s, err := readSheet(r, file, "start_loc", "end_loc", "distance_km")
	if err != nil {
		return nil, err
	}

	out := make([]factors.Distance, 0, len(s.rows))
	for i, row := range s.rows {
		km, err := s.float(i, row, "distance_km")
		if err != nil {
			return nil, err
		}
		out = append(out, factors.Distance{
			From: s.cell(row, "start_loc"),
			To:   s.cell(row, "end_loc"),
			Km:   km,
		})
	}
	return out, nil
}

// ReadCountries parses a single-column country list with a "country" header.
func ReadCountries(r io.Reader, file string) ([]string, error) {
	s, err := readSheet(r, file, "country")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(s.rows))
	for _, row := range s.rows {
		if c := s.cell(row, "country"); c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// Utility suffixes used in decon_units.csv names.
const (
	deconElectricity = " electricity"
	deconWater       = " water"
	deconGas         = " gas"
)

// ReadDeconUnits parses decon_units.csv: name,unit,value. Each unit
// contributes three rows named "<unit> electricity", "<unit> water" and
// "<unit> gas"; missing utilities count as zero.
func ReadDeconUnits(r io.Reader, file string) (factors.DeconUnits, error) {
	s, err := readSheet(r, file, "name", "value")
	if err != nil {
		return nil, err
	}

	units := make(factors.DeconUnits)
	for i, row := range s.rows {
		name := factors.Normalize(s.cell(row, "name"))
		v, err := s.float(i, row, "value")
		if err != nil {
			return nil, err
		}

		var unitName string
		var set func(*factors.DeconUnit)
		switch {
		case strings.HasSuffix(name, deconElectricity):
			unitName = strings.TrimSuffix(name, deconElectricity)
			set = func(u *factors.DeconUnit) { u.ElectricityKWh = v }
		case strings.HasSuffix(name, deconWater):
			unitName = strings.TrimSuffix(name, deconWater)
			set = func(u *factors.DeconUnit) { u.WaterLitres = v }
		case strings.HasSuffix(name, deconGas):
			unitName = strings.TrimSuffix(name, deconGas)
			set = func(u *factors.DeconUnit) { u.GasM3 = v }
		default:
			return nil, s.rowErr(i, "name",
				fmt.Errorf("%w: %q must end in electricity, water or gas", ErrInvalidValue, name))
		}

		u := units[unitName]
		u.Name = unitName
		set(&u)
		units[unitName] = u
	}
	return units, nil
}

// ReadPorts parses ports.csv: port,latitude,longitude.
func ReadPorts(r io.Reader, file string) ([]geo.Port, error) {
	s, err := readSheet(r, file, "port", "latitude", "longitude")
	if err != nil {
		return nil, err
	}

	out := make([]geo.Port, 0, len(s.rows))
	for i, row := range s.rows {
		lat, err := s.float(i, row, "latitude")
		if err != nil {
			return nil, err
		}
		lon, err := s.float(i, row, "longitude")
		if err != nil {
			return nil, err
		}
		out = append(out, geo.Port{Name: s.cell(row, "port"), Latitude: lat, Longitude: lon})
	}
	return out, nil
}
