// Package store archives calculation runs so past results can be listed and
// compared. Runs live in SQLite by default or in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rshade/medcarbon/internal/engine"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store errors.
var (
	ErrRunNotFound       = errors.New("run not found")
	ErrUnsupportedDriver = errors.New("unsupported store driver")
	ErrEmptyRunID        = errors.New("run id is required")
)

// Run is one archived calculation.
type Run struct {
	ID          string           `json:"id"`
	CreatedAt   time.Time        `json:"created_at"`
	Year        int              `json:"year"`
	Destination string           `json:"destination"`
	DeconUnit   string           `json:"decon_unit,omitempty"`
	Inventory   string           `json:"inventory"`
	Aggregate   engine.Breakdown `json:"aggregate"`
	Products    []engine.Result  `json:"products"`
}

// NewRun wraps a batch result in a Run with a fresh ULID.
func NewRun(opts engine.Options, inventory string, res engine.BatchResult, now time.Time) *Run {
	return &Run{
		ID:          ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		CreatedAt:   now.UTC(),
		Year:        opts.Year,
		Destination: opts.Destination,
		DeconUnit:   opts.DeconUnit,
		Inventory:   inventory,
		Aggregate:   res.Aggregate,
		Products:    res.Products,
	}
}

// WarningCount returns the number of warnings across all products.
func (r *Run) WarningCount() int {
	n := 0
	for _, p := range r.Products {
		n += len(p.Warnings)
	}
	return n
}

// Summary returns the listing view of the run.
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		Year:         r.Year,
		Destination:  r.Destination,
		Inventory:    r.Inventory,
		ProductCount: len(r.Products),
		WarningCount: r.WarningCount(),
		TotalKgCO2e:  r.Aggregate.Total,
	}
}

// RunSummary is the listing view of a run.
type RunSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Year         int       `json:"year"`
	Destination  string    `json:"destination"`
	Inventory    string    `json:"inventory"`
	ProductCount int       `json:"product_count"`
	WarningCount int       `json:"warning_count"`
	TotalKgCO2e  float64   `json:"total_kg_co2e"`
}

// ProductEmission is one product's breakdown within a run.
type ProductEmission struct {
	RunID     string           `json:"run_id"`
	CreatedAt time.Time        `json:"created_at"`
	Product   string           `json:"product"`
	Category  string           `json:"category,omitempty"`
	Breakdown engine.Breakdown `json:"breakdown"`
}

// Store persists runs.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	// ListRuns returns the newest runs first. limit <= 0 means no limit.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	// ProductHistory returns a product's breakdown in every run, oldest first.
	ProductHistory(ctx context.Context, product string) ([]ProductEmission, error)
	Close() error
}

// Config selects and locates the backing database.
type Config struct {
	Driver string
	DSN    string
}

// Open connects to the configured database and creates the schema.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, cfg.DSN)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}
