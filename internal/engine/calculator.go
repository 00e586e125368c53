// Package engine computes the five-stage lifecycle emissions of healthcare
// products (manufacture, transport, use, reprocessing and disposal) from
// component records and the lookup tables in package factors.
//
// A calculation never fails on data-quality problems. Unresolvable factors,
// missing distances and invalid records are replaced by 0.0 and reported as
// Warning values next to the numbers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/medcarbon/internal/engine/batch"
	"github.com/rshade/medcarbon/internal/factors"
	"github.com/rshade/medcarbon/internal/logging"
)

// Configuration errors returned by New.
var (
	ErrNilTables      = errors.New("factor tables are required")
	ErrInvalidYear    = errors.New("calculation year must be positive")
	ErrNoDestination  = errors.New("destination is required")
	ErrInvalidWorkers = errors.New("workers must be at least 1")
)

// SeaRouter supplies sea distances for port pairs missing from the sea
// distance table.
type SeaRouter interface {
	SeaDistance(ctx context.Context, from, to string) (float64, error)
}

// Options are the per-session calculation inputs.
type Options struct {
	// Year selects use-phase, reprocessing and disposal factors.
	Year int

	// Destination is the "city (country)" where products are used. It stands
	// in for unset manufacture and arrival locations.
	Destination string

	// DeconUnit names the decontamination-unit profile used for HSDU reprocessing.
	DeconUnit string

	// BatchSize and Workers tune CalculateBatch. Zero means the batch defaults.
	BatchSize int
	Workers   int
}

// Calculator runs lifecycle calculations against one set of tables.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	tables   *factors.Tables
	resolver *factors.Resolver
	opts     Options
	router   SeaRouter
}

// New creates a Calculator. router may be nil, in which case sea legs missing
// from the table are reported as SeaRouteUnavailable.
func New(tables *factors.Tables, opts Options, router SeaRouter) (*Calculator, error) {
	if tables == nil || tables.Factors == nil || tables.Additional == nil || tables.Regions == nil {
		return nil, ErrNilTables
	}
	if opts.Year <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidYear, opts.Year)
	}
	if factors.Normalize(opts.Destination) == "" {
		return nil, ErrNoDestination
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = batch.DefaultBatchSize
	}
	if opts.Workers == 0 {
		opts.Workers = batch.DefaultWorkers
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, opts.Workers)
	}

	return &Calculator{
		tables:   tables,
		resolver: factors.NewResolver(tables.Factors, tables.Regions),
		opts:     opts,
		router:   router,
	}, nil
}

// Options returns the options the calculator was built with, defaults applied.
func (c *Calculator) Options() Options {
	return c.opts
}

// Calculate computes the lifecycle breakdown of one product.
func (c *Calculator) Calculate(ctx context.Context, p Product) Result {
	log := logging.FromContext(ctx)
	start := time.Now()

	r := c.newRun(ctx, p)
	components := r.validComponents()

	res := Result{
		Product:    p.Name,
		Category:   p.Category,
		Components: make([]ComponentResult, len(components)),
	}
	for i, comp := range components {
		res.Components[i].Name = comp.Name
	}

	res.Breakdown.Manufacture = r.manufacture(components, res.Components)
	res.Breakdown.Transport = r.transport(components, res.Components)
	res.Breakdown.Use = r.use(p.Use)
	res.Breakdown.Reprocessing = r.reprocessing(components, res.Components)
	res.Disposal = r.disposal(components)
	res.Breakdown.Disposal = res.Disposal.Net
	res.Breakdown = res.Breakdown.WithTotal()
	res.Warnings = r.warnings

	log.Debug().
		Ctx(ctx).
		Str("component", "engine").
		Str("operation", "calculate").
		Str("product", p.Name).
		Int("component_count", len(components)).
		Int("warning_count", len(res.Warnings)).
		Float64("total_kg_co2e", res.Breakdown.Total).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("product calculated")

	return res
}

// CalculateBatch computes every product and sums the stage totals. Results
// keep the input order. The only error is context cancellation.
func (c *Calculator) CalculateBatch(ctx context.Context, products []Product) (BatchResult, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	proc, err := batch.NewProcessor[Product, Result](c.opts.BatchSize, c.opts.Workers)
	if err != nil {
		return BatchResult{}, err
	}
	proc.WithProgressCallback(func(s batch.ProgressSnapshot) {
		log.Debug().
			Ctx(ctx).
			Str("component", "engine").
			Int("processed", s.ProcessedItems).
			Int("total", s.TotalItems).
			Float64("percent", s.PercentComplete).
			Msg("batch progress")
	})

	results, err := proc.Map(ctx, products, func(ctx context.Context, _ int, p Product) (Result, error) {
		return c.Calculate(ctx, p), nil
	})
	if err != nil {
		return BatchResult{}, fmt.Errorf("calculating inventory: %w", err)
	}

	out := BatchResult{Products: results, Aggregate: Sum(results)}

	log.Info().
		Ctx(ctx).
		Str("component", "engine").
		Str("operation", "calculate_batch").
		Int("product_count", len(results)).
		Int("warning_count", len(out.Warnings())).
		Float64("total_kg_co2e", out.Aggregate.Total).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("inventory calculated")

	return out, nil
}

// run carries the per-product state of one Calculate call.
type run struct {
	c        *Calculator
	ctx      context.Context
	log      *zerolog.Logger
	product  string
	items    []Component
	warnings []Warning

	// missingAdditional de-duplicates AdditionalFactorNotFound per name.
	missingAdditional map[string]bool
}

func (c *Calculator) newRun(ctx context.Context, p Product) *run {
	return &run{
		c:                 c,
		ctx:               ctx,
		log:               logging.FromContext(ctx),
		product:           p.Name,
		items:             p.Components,
		missingAdditional: make(map[string]bool),
	}
}

func (r *run) warn(w Warning) {
	w.Product = r.product
	r.warnings = append(r.warnings, w)
	r.log.Warn().
		Ctx(r.ctx).
		Str("component", "engine").
		Str("kind", w.Kind.String()).
		Str("stage", string(w.Stage)).
		Str("product", w.Product).
		Str("item", w.Component).
		Str("location", w.Location).
		Msg(w.Detail)
}

// validComponents returns the components before the first one that cannot be
// divided into per-use amounts.
func (r *run) validComponents() []Component {
	for i, comp := range r.items {
		var detail string
		switch {
		case comp.Uses < 1:
			detail = fmt.Sprintf("number of uses must be at least 1, got %d", comp.Uses)
		case comp.MassKg < 0:
			detail = fmt.Sprintf("mass must not be negative, got %v", comp.MassKg)
		default:
			continue
		}
		r.warn(Warning{
			Kind:      InvalidComponent,
			Component: comp.Name,
			Location:  comp.Location,
			Detail:    detail + "; later components ignored",
		})
		return r.items[:i]
	}
	return r.items
}

// location returns where comp was made, defaulting to the destination.
func (r *run) location(comp Component) string {
	if factors.Normalize(comp.Location) == "" {
		return r.c.opts.Destination
	}
	return comp.Location
}

// resolveComponent runs the specific, region, world fallback chain for comp.
// ok is false when the stage must stop processing further components.
func (r *run) resolveComponent(stage Stage, comp Component, q factors.Quantity) (float64, bool) {
	loc := r.location(comp)
	res, err := r.c.resolver.Resolve(comp.Name, factors.CountryOf(loc), comp.Year, q)

	r.log.Debug().
		Ctx(r.ctx).
		Str("component", "engine").
		Str("stage", string(stage)).
		Str("item", comp.Name).
		Str("quantity", q.String()).
		Int("year", comp.Year).
		Interface("attempts", res.Attempts).
		Bool("found", err == nil).
		Msg("factor resolved")

	if err == nil {
		return res.Value, true
	}

	w := Warning{
		Stage:     stage,
		Component: comp.Name,
		Location:  loc,
		Detail:    err.Error(),
	}
	if res.Region != factors.RegionUnknown {
		w.Region = res.Region.String()
	}
	if errors.Is(err, factors.ErrInvalidLocationCountry) {
		w.Kind = InvalidLocationCountry
	} else {
		w.Kind = FactorNotFound
	}
	r.warn(w)
	return 0, false
}

// additional resolves the sum of the named additional factors for year.
// Names with no record at any year contribute 0.0 and are reported once.
func (r *run) additional(stage Stage, year int, names ...factors.NameUnit) float64 {
	total := 0.0
	for _, nu := range names {
		v, ok := r.c.tables.Additional.Resolve(nu.Name, nu.Unit, year)
		if !ok {
			if !r.missingAdditional[nu.Name] {
				r.missingAdditional[nu.Name] = true
				r.warn(Warning{
					Kind:   AdditionalFactorNotFound,
					Stage:  stage,
					Detail: fmt.Sprintf("no %q factor (%s) for %d or any other year, using 0.0", nu.Name, nu.Unit, year),
				})
			}
			continue
		}
		total += v
	}
	return total
}
