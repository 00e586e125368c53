package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/medcarbon/internal/config"
	"github.com/rshade/medcarbon/internal/engine"
	"github.com/rshade/medcarbon/internal/geo"
	"github.com/rshade/medcarbon/internal/greenops"
)

func TestSplitLocation(t *testing.T) {
	tests := []struct {
		in, base, file string
	}{
		{"inventory.csv", ".", "inventory.csv"},
		{"data/inventory.csv", "data", "inventory.csv"},
		{"/inventory.csv", "/", "inventory.csv"},
		{"s3://bucket/inv/products.csv", "s3://bucket/inv", "products.csv"},
		{"https://example.com/products.csv", "https://example.com", "products.csv"},
	}
	for _, tt := range tests {
		base, file := splitLocation(tt.in)
		assert.Equal(t, tt.base, base, tt.in)
		assert.Equal(t, tt.file, file, tt.in)
	}
}

func sampleBatch() engine.BatchResult {
	results := []engine.Result{
		{Product: "gown", Category: "linen", Breakdown: engine.Breakdown{Manufacture: 1.5, Disposal: -0.25}.WithTotal()},
		{Product: "tray", Category: "linen", Breakdown: engine.Breakdown{Manufacture: 100, Use: 50}.WithTotal()},
		{Product: "scalpel", Breakdown: engine.Breakdown{Transport: 0.5}.WithTotal(), Warnings: []engine.Warning{
			{Kind: engine.MissingTravelDistance, Stage: engine.StageTransport, Product: "scalpel",
				Component: "steel", Detail: "no land distance"},
		}},
	}
	return engine.BatchResult{Products: results, Aggregate: engine.Sum(results)}
}

func TestRenderTable(t *testing.T) {
	rep := newReport(sampleBatch(), reportMetadata{Year: 2024, Destination: "london (united kingdom)"})

	var buf bytes.Buffer
	err := renderReport(&buf, "table", rep, renderOptions{
		Unit:          greenops.UnitKg,
		Precision:     2,
		Equivalencies: true,
		ByCategory:    true,
	})
	require.NoError(t, err)
	out := buf.String()

	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "PRODUCT"))
	assert.True(t, strings.HasPrefix(lines[1], "-------"))
	assert.Contains(t, out, "-0.25")
	assert.Contains(t, out, "151.75", "aggregate total")
	assert.Contains(t, out, "CATEGORY  TOTAL")
	assert.Contains(t, out, "(none)")
	assert.Contains(t, out, "Equivalent to")
	assert.Contains(t, out, "Warnings (1):")
	assert.Contains(t, out, "transport [missing_travel_distance] scalpel/steel: no land distance")
}

func TestRenderTable_NoWarningsNoEquivalencies(t *testing.T) {
	res := engine.BatchResult{Products: []engine.Result{{Product: "mask"}}}
	rep := newReport(res, reportMetadata{})

	var buf bytes.Buffer
	require.NoError(t, renderReport(&buf, "table", rep, renderOptions{Unit: greenops.UnitGram, Precision: 1}))
	assert.NotContains(t, buf.String(), "Warnings")
	assert.NotContains(t, buf.String(), "Equivalent")
	assert.Contains(t, buf.String(), "Values in g CO2e per use.")
}

func TestRenderJSON_EmptyBatchHasArrays(t *testing.T) {
	rep := newReport(engine.BatchResult{}, reportMetadata{Inventory: "empty.csv"})

	var buf bytes.Buffer
	require.NoError(t, renderReport(&buf, "json", rep, renderOptions{Unit: greenops.UnitKg}))
	assert.Contains(t, buf.String(), `"products": []`)
	assert.Contains(t, buf.String(), `"warnings": []`)
	assert.Contains(t, buf.String(), `"unit": "kg CO2e"`)
}

func TestRenderNDJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderNDJSON(&buf, sampleBatch().Products))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"product":"gown"`)
}

func TestFormatValue_ConvertsUnits(t *testing.T) {
	assert.Equal(t, "1,500.0", formatValue(1.5, renderOptions{Unit: greenops.UnitGram, Precision: 1}))
	assert.Equal(t, "0.002", formatValue(2, renderOptions{Unit: greenops.UnitTonne, Precision: 3}))
}

func TestSeaRouter_AppliesDetourFactor(t *testing.T) {
	ports := []geo.Port{
		{Name: "Equator West", Latitude: 0, Longitude: 0},
		{Name: "Equator East", Latitude: 0, Longitude: 90},
	}
	quarter := geo.Haversine(ports[0], ports[1])
	ctx := context.Background()

	cfg := config.New()
	cfg.Cache.Enabled = false
	a := &app{cfg: cfg}

	router, err := a.seaRouter(ctx, nil, true)
	require.NoError(t, err)
	assert.Nil(t, router)

	router, err = a.seaRouter(ctx, ports, true)
	require.NoError(t, err)
	km, err := router.SeaDistance(ctx, "equator west", "equator east")
	require.NoError(t, err)
	assert.InDelta(t, quarter, km, 1e-6)

	cfg.Calculation.SeaDetourFactor = 1.5
	router, err = a.seaRouter(ctx, ports, true)
	require.NoError(t, err)
	km, err = router.SeaDistance(ctx, "equator west", "equator east")
	require.NoError(t, err)
	assert.InDelta(t, 1.5*quarter, km, 1e-6)
}
