package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"             // registers the "sqlite" database/sql driver

	"github.com/rshade/medcarbon/internal/logging"
)

const (
	defaultSQLitePath  = "medcarbon.db"
	defaultPostgresDSN = "postgres://localhost/medcarbon?sslmode=disable"
)

// dialect captures the SQL differences between the two backends.
type dialect struct {
	driver   string
	floatCol string
	blobCol  string
	numbered bool
}

func (d dialect) placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// bind rewrites "?" placeholders for the dialect.
func (d dialect) bind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at BIGINT NOT NULL,
			year INTEGER NOT NULL,
			destination TEXT NOT NULL,
			decon_unit TEXT NOT NULL,
			inventory TEXT NOT NULL,
			product_count INTEGER NOT NULL,
			warning_count INTEGER NOT NULL,
			total_kg_co2e ` + d.floatCol + ` NOT NULL,
			payload ` + d.blobCol + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS product_emissions (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			product TEXT NOT NULL,
			category TEXT NOT NULL,
			manufacture ` + d.floatCol + ` NOT NULL,
			transport ` + d.floatCol + ` NOT NULL,
			use_phase ` + d.floatCol + ` NOT NULL,
			reprocessing ` + d.floatCol + ` NOT NULL,
			disposal ` + d.floatCol + ` NOT NULL,
			total ` + d.floatCol + ` NOT NULL,
			PRIMARY KEY (run_id, product)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_product_emissions_product ON product_emissions (product)`,
	}
}

//nolint:gochecknoglobals // Fixed dialect definitions.
var (
	sqliteDialect   = dialect{driver: "sqlite", floatCol: "REAL", blobCol: "BLOB"}
	postgresDialect = dialect{driver: "pgx", floatCol: "DOUBLE PRECISION", blobCol: "BYTEA", numbered: true}
)

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return newSQLStore(ctx, db, sqliteDialect)
}

// OpenPostgres connects to PostgreSQL through the pgx driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newSQLStore(ctx, db, postgresDialect)
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	for _, stmt := range d.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &SQLStore{db: db, dialect: d}, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// SaveRun writes the run and its per-product rows in one transaction.
func (s *SQLStore) SaveRun(ctx context.Context, run *Run) (retErr error) {
	if run == nil || run.ID == "" {
		return ErrEmptyRunID
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	sum := run.Summary()
	if _, err := tx.ExecContext(ctx, s.dialect.bind(`INSERT INTO runs
		(id, created_at, year, destination, decon_unit, inventory,
		 product_count, warning_count, total_kg_co2e, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.CreatedAt.UnixNano(), run.Year, run.Destination, run.DeconUnit, run.Inventory,
		sum.ProductCount, sum.WarningCount, sum.TotalKgCO2e, payload,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	insert := s.dialect.bind(`INSERT INTO product_emissions
		(run_id, product, category, manufacture, transport, use_phase, reprocessing, disposal, total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, p := range run.Products {
		b := p.Breakdown
		if _, err := tx.ExecContext(ctx, insert,
			run.ID, p.Product, p.Category,
			b.Manufacture, b.Transport, b.Use, b.Reprocessing, b.Disposal, b.Total,
		); err != nil {
			return fmt.Errorf("insert product %s: %w", p.Product, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}

	log := logging.FromContext(ctx)
	log.Debug().
		Ctx(ctx).
		Str("component", "store").
		Str("operation", "save_run").
		Str("run_id", run.ID).
		Int("product_count", sum.ProductCount).
		Msg("run saved")
	return nil
}

// ListRuns returns run summaries, newest first.
func (s *SQLStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT id, created_at, year, destination, inventory,
		product_count, warning_count, total_kg_co2e
		FROM runs ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunSummary
	for rows.Next() {
		var sum RunSummary
		var created int64
		if err := rows.Scan(&sum.ID, &created, &sum.Year, &sum.Destination, &sum.Inventory,
			&sum.ProductCount, &sum.WarningCount, &sum.TotalKgCO2e); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetRun loads the full run. Unknown IDs return ErrRunNotFound.
func (s *SQLStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, ErrEmptyRunID
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.dialect.bind(`SELECT payload FROM runs WHERE id = ?`), id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	var run Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

// ProductHistory returns the product's breakdown across runs, oldest first.
func (s *SQLStore) ProductHistory(ctx context.Context, product string) ([]ProductEmission, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.bind(`SELECT
		p.run_id, r.created_at, p.product, p.category,
		p.manufacture, p.transport, p.use_phase, p.reprocessing, p.disposal, p.total
		FROM product_emissions p JOIN runs r ON r.id = p.run_id
		WHERE p.product = ?
		ORDER BY r.created_at ASC, p.run_id ASC`), strings.ToLower(strings.TrimSpace(product)))
	if err != nil {
		return nil, fmt.Errorf("product history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ProductEmission
	for rows.Next() {
		var pe ProductEmission
		var created int64
		b := &pe.Breakdown
		if err := rows.Scan(&pe.RunID, &created, &pe.Product, &pe.Category,
			&b.Manufacture, &b.Transport, &b.Use, &b.Reprocessing, &b.Disposal, &b.Total); err != nil {
			return nil, fmt.Errorf("scan product emission: %w", err)
		}
		pe.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, pe)
	}
	return out, rows.Err()
}
