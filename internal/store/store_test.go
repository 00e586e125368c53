package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/medcarbon/internal/engine"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "runs", "medcarbon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleBatch(total float64) engine.BatchResult {
	gown := engine.Result{
		Product:  "gown",
		Category: "linen",
		Breakdown: engine.Breakdown{
			Manufacture: total / 2, Transport: total / 4, Disposal: total / 4,
		}.WithTotal(),
		Warnings: []engine.Warning{{Kind: engine.FactorNotFound, Product: "gown", Component: "cotton"}},
	}
	scalpel := engine.Result{
		Product:   "scalpel",
		Breakdown: engine.Breakdown{Manufacture: 1}.WithTotal(),
	}
	products := []engine.Result{gown, scalpel}
	return engine.BatchResult{Products: products, Aggregate: engine.Sum(products)}
}

func TestSQLStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	opts := engine.Options{Year: 2022, Destination: "london (united kingdom)", DeconUnit: "hsdu"}
	run := NewRun(opts, "inventory.csv", sampleBatch(8), now)
	require.NotEmpty(t, run.ID)
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, now.Equal(got.CreatedAt))
	assert.Equal(t, 2022, got.Year)
	assert.Equal(t, "hsdu", got.DeconUnit)
	require.Len(t, got.Products, 2)
	assert.InDelta(t, 9.0, got.Aggregate.Total, 1e-9)
	require.Len(t, got.Products[0].Warnings, 1)
	assert.Equal(t, engine.FactorNotFound, got.Products[0].Warnings[0].Kind)
}

func TestSQLStore_GetRunNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRun(context.Background(), "01HZZZZZZZZZZZZZZZZZZZZZZZ")
	require.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.GetRun(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyRunID)
}

func TestSQLStore_ListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	opts := engine.Options{Year: 2022, Destination: "london (united kingdom)"}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := range 3 {
		run := NewRun(opts, "inventory.csv", sampleBatch(float64(i+1)*4), base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, s.SaveRun(ctx, run))
		ids = append(ids, run.ID)
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[0], runs[2].ID)
	assert.Equal(t, 2, runs[0].ProductCount)
	assert.Equal(t, 1, runs[0].WarningCount)
	assert.InDelta(t, 13.0, runs[0].TotalKgCO2e, 1e-9)

	limited, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLStore_ProductHistory(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	opts := engine.Options{Year: 2022, Destination: "london (united kingdom)"}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveRun(ctx, NewRun(opts, "a.csv", sampleBatch(4), base)))
	require.NoError(t, s.SaveRun(ctx, NewRun(opts, "b.csv", sampleBatch(8), base.Add(time.Hour))))

	history, err := s.ProductHistory(ctx, " Gown ")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.InDelta(t, 4.0, history[0].Breakdown.Total, 1e-9)
	assert.InDelta(t, 8.0, history[1].Breakdown.Total, 1e-9)
	assert.Equal(t, "linen", history[1].Category)

	none, err := s.ProductHistory(ctx, "stethoscope")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLStore_DuplicateRunRejected(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	run := NewRun(engine.Options{Year: 2022, Destination: "london"}, "a.csv", sampleBatch(4), time.Now())
	require.NoError(t, s.SaveRun(ctx, run))
	require.Error(t, s.SaveRun(ctx, run))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"})
	require.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestOpen_DefaultsToSQLite(t *testing.T) {
	s, err := Open(context.Background(), Config{DSN: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestDialectBind(t *testing.T) {
	q := `SELECT a FROM t WHERE b = ? AND c = ?`
	assert.Equal(t, q, sqliteDialect.bind(q))
	assert.Equal(t, `SELECT a FROM t WHERE b = $1 AND c = $2`, postgresDialect.bind(q))
}
