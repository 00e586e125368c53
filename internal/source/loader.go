package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rshade/medcarbon/internal/factors"
	"github.com/rshade/medcarbon/internal/geo"
	"github.com/rshade/medcarbon/internal/ingest"
	"github.com/rshade/medcarbon/internal/logging"
)

// FileNames names the table files inside a data source.
type FileNames struct {
	Factors           string `yaml:"factors"`
	AdditionalFactors string `yaml:"additional_factors"`
	LandDistances     string `yaml:"land_distances"`
	SeaDistances      string `yaml:"sea_distances"`
	CountriesEurope   string `yaml:"countries_europe"`
	CountriesOther    string `yaml:"countries_other"`
	DeconUnits        string `yaml:"decon_units"`
	Ports             string `yaml:"ports"`
}

// DefaultFileNames returns the standard table file names.
func DefaultFileNames() FileNames {
	return FileNames{
		Factors:           "factors.csv",
		AdditionalFactors: "additional_factors.csv",
		LandDistances:     "land_travel_distance.csv",
		SeaDistances:      "sea_travel_distance.csv",
		CountriesEurope:   "countries_europe.csv",
		CountriesOther:    "countries_other.csv",
		DeconUnits:        "decon_units.csv",
		Ports:             "ports.csv",
	}
}

// WithDefaults fills empty names from DefaultFileNames.
func (n FileNames) WithDefaults() FileNames {
	d := DefaultFileNames()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&n.Factors, d.Factors)
	fill(&n.AdditionalFactors, d.AdditionalFactors)
	fill(&n.LandDistances, d.LandDistances)
	fill(&n.SeaDistances, d.SeaDistances)
	fill(&n.CountriesEurope, d.CountriesEurope)
	fill(&n.CountriesOther, d.CountriesOther)
	fill(&n.DeconUnits, d.DeconUnits)
	fill(&n.Ports, d.Ports)
	return n
}

// Dataset is everything loaded from a data source.
type Dataset struct {
	Tables *factors.Tables
	// Ports is empty when the source has no port gazetteer.
	Ports []geo.Port
}

// LoadTables reads and parses every table concurrently, then indexes them.
// The port gazetteer is optional; every other file is required.
func LoadTables(ctx context.Context, src Source, names FileNames) (*Dataset, error) {
	log := logging.FromContext(ctx)
	start := time.Now()
	names = names.WithDefaults()

	var (
		records    []factors.Record
		additional []factors.AdditionalRecord
		land, sea  []factors.Distance
		europe     []string
		other      []string
		decon      factors.DeconUnits
		ports      []geo.Port
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return read(gctx, src, names.Factors, func(b []byte) (err error) {
			records, err = ingest.ReadFactors(bytes.NewReader(b), names.Factors)
			return err
		})
	})
	g.Go(func() error {
		return read(gctx, src, names.AdditionalFactors, func(b []byte) (err error) {
			additional, err = ingest.ReadAdditionalFactors(bytes.NewReader(b), names.AdditionalFactors)
			return err
		})
	})
	g.Go(func() error {
		return read(gctx, src, names.LandDistances, func(b []byte) (err error) {
			land, err = ingest.ReadDistances(bytes.NewReader(b), names.LandDistances)
			return err
		})
	})
	g.Go(func() error {
		return read(gctx, src, names.SeaDistances, func(b []byte) (err error) {
			sea, err = ingest.ReadDistances(bytes.NewReader(b), names.SeaDistances)
			return err
		})
	})
	g.Go(func() error {
		return read(gctx, src, names.CountriesEurope, func(b []byte) (err error) {
			europe, err = ingest.ReadCountries(bytes.NewReader(b), names.CountriesEurope)
			return err
		})
	})
	g.Go(func() error {
		return read(gctx, src, names.CountriesOther, func(b []byte) (err error) {
			other, err = ingest.ReadCountries(bytes.NewReader(b), names.CountriesOther)
			return err
		})
	})
	g.Go(func() error {
		return read(gctx, src, names.DeconUnits, func(b []byte) (err error) {
			decon, err = ingest.ReadDeconUnits(bytes.NewReader(b), names.DeconUnits)
			return err
		})
	})
	g.Go(func() error {
		err := read(gctx, src, names.Ports, func(b []byte) (err error) {
			ports, err = ingest.ReadPorts(bytes.NewReader(b), names.Ports)
			return err
		})
		if errors.Is(err, ErrNotFound) {
			log.Debug().Ctx(ctx).Str("component", "source").Str("file", names.Ports).
				Msg("no port gazetteer, sea routing limited to the distance table")
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tables, err := index(records, additional, land, sea, europe, other, decon)
	if err != nil {
		return nil, err
	}

	log.Info().
		Ctx(ctx).
		Str("component", "source").
		Str("operation", "load_tables").
		Str("location", src.Location()).
		Int("factor_records", tables.Factors.Len()).
		Int("additional_records", tables.Additional.Len()).
		Int("land_pairs", tables.LandDistances.Len()).
		Int("sea_pairs", tables.SeaDistances.Len()).
		Int("countries", tables.Regions.Len()).
		Int("decon_units", len(tables.DeconUnits)).
		Int("ports", len(ports)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("data tables loaded")

	for _, nu := range tables.Additional.Missing() {
		log.Warn().Ctx(ctx).Str("component", "source").
			Str("name", nu.Name).Str("unit", nu.Unit).
			Msg("additional factor has no records")
	}

	return &Dataset{Tables: tables, Ports: ports}, nil
}

func read(ctx context.Context, src Source, name string, parse func([]byte) error) error {
	data, err := src.ReadFile(ctx, name)
	if err != nil {
		return err
	}
	return parse(data)
}

func index(
	records []factors.Record,
	additional []factors.AdditionalRecord,
	land, sea []factors.Distance,
	europe, other []string,
	decon factors.DeconUnits,
) (*factors.Tables, error) {
	table, err := factors.NewTable(records)
	if err != nil {
		return nil, fmt.Errorf("indexing factors: %w", err)
	}
	add, err := factors.NewAdditionalTable(additional)
	if err != nil {
		return nil, fmt.Errorf("indexing additional factors: %w", err)
	}
	regions, err := factors.NewRegionSets(europe, other)
	if err != nil {
		return nil, fmt.Errorf("indexing countries: %w", err)
	}
	landTable, err := factors.NewDistanceTable(land)
	if err != nil {
		return nil, fmt.Errorf("indexing land distances: %w", err)
	}
	seaTable, err := factors.NewDistanceTable(sea)
	if err != nil {
		return nil, fmt.Errorf("indexing sea distances: %w", err)
	}
	return &factors.Tables{
		Factors:       table,
		Additional:    add,
		Regions:       regions,
		LandDistances: landTable,
		SeaDistances:  seaTable,
		DeconUnits:    decon,
	}, nil
}
