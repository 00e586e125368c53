package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/medcarbon/internal/engine"
	"github.com/rshade/medcarbon/internal/factors"
)

const (
	destination = "London (United Kingdom)"
	felixstowe  = "Felixstowe (United Kingdom)"
	shanghai    = "Shanghai (China)"
	eps         = 1e-9
)

// Combined 2020 factors produced by testTables.
const (
	landPerTonneKm = 0.12
	seaPerTonneKm  = 0.02
	waterPerM3     = 1.0
	elecPerKWh     = 0.28
	gasPerM3       = 2.3
	laundryPerKg   = 0.5
	landfillPerKg  = 0.6
	disposalPerKg  = 0.02
	deconLoad      = 5.2 // 1.0*0.001*100 + 0.28*10 + 2.3*1
)

func testTables(t *testing.T) *factors.Tables {
	t.Helper()

	table, err := factors.NewTable([]factors.Record{
		{Component: "steel", Location: "united kingdom", Year: 2020, Factor: factors.Factor{KgCO2ePerKg: 2.0, CarbonContent: 0.01}},
		{Component: "steel", Location: "china", Year: 2020, Factor: factors.Factor{KgCO2ePerKg: 3.0, CarbonContent: 0.02}},
		{Component: "cotton", Location: "rer", Year: 2020, Factor: factors.Factor{KgCO2ePerKg: 5.0, CarbonContent: 0.4}},
		{Component: "paper", Location: "world", Year: 2020, Factor: factors.Factor{KgCO2ePerKg: 1.0, CarbonContent: 0.45}},
		{Component: "pp", Location: "world", Year: 2020, Factor: factors.Factor{KgCO2ePerKg: 1.5, CarbonContent: 0.85}},
	})
	require.NoError(t, err)

	add := func(name, unit string, v float64) factors.AdditionalRecord {
		return factors.AdditionalRecord{Name: name, Unit: unit, Year: 2020, KgCO2ePerUnit: v}
	}
	additional, err := factors.NewAdditionalTable([]factors.AdditionalRecord{
		add(factors.HGVTransport, factors.UnitKm, 0.1),
		add(factors.HGVTransportWTT, factors.UnitKm, 0.02),
		add(factors.ContainerShipTransport, factors.UnitKm, 0.016),
		add(factors.ContainerShipTransportWTT, factors.UnitKm, 0.004),
		add(factors.WaterTreatment, factors.UnitM3, 0.7),
		add(factors.WaterSupply, factors.UnitM3, 0.3),
		add(factors.ElectricityGeneration, factors.UnitKWh, 0.2),
		add(factors.ElectricityTransmission, factors.UnitKWh, 0.02),
		add(factors.ElectricityGenerationWTT, factors.UnitKWh, 0.05),
		add(factors.ElectricityTransmissionWTT, factors.UnitKWh, 0.01),
		add(factors.Gas, factors.UnitM3, 2.0),
		add(factors.GasWTT, factors.UnitM3, 0.3),
		add(factors.Laundry, factors.UnitKg, laundryPerKg),
		add(factors.Landfill, factors.UnitKg, landfillPerKg),
		add(factors.DisposalTransport, factors.UnitKm, disposalPerKg),
	})
	require.NoError(t, err)

	regions, err := factors.NewRegionSets([]string{"united kingdom", "france"}, []string{"china", "india"})
	require.NoError(t, err)

	land, err := factors.NewDistanceTable([]factors.Distance{
		{From: "Sheffield (United Kingdom)", To: destination, Km: 270},
		{From: "Lyon (France)", To: "Calais (France)", Km: 750},
	})
	require.NoError(t, err)
	sea, err := factors.NewDistanceTable([]factors.Distance{
		{From: shanghai, To: felixstowe, Km: 19500},
		{From: "Calais (France)", To: "Dover (United Kingdom)", Km: 40},
	})
	require.NoError(t, err)

	return &factors.Tables{
		Factors:       table,
		Additional:    additional,
		Regions:       regions,
		LandDistances: land,
		SeaDistances:  sea,
		DeconUnits: factors.DeconUnits{
			"hsdu": {Name: "hsdu", ElectricityKWh: 10, WaterLitres: 100, GasM3: 1},
		},
	}
}

func newCalculator(t *testing.T, router engine.SeaRouter) *engine.Calculator {
	t.Helper()
	c, err := engine.New(testTables(t), engine.Options{
		Year:        2020,
		Destination: destination,
		DeconUnit:   "hsdu",
	}, router)
	require.NoError(t, err)
	return c
}

func ukComponent(name string, mass float64, uses int) engine.Component {
	return engine.Component{Name: name, Year: 2020, Location: destination, MassKg: mass, Uses: uses}
}

func kinds(ws []engine.Warning) []engine.WarningKind {
	out := make([]engine.WarningKind, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Kind)
	}
	return out
}

type stubRouter struct {
	km    float64
	err   error
	calls int
}

func (s *stubRouter) SeaDistance(context.Context, string, string) (float64, error) {
	s.calls++
	return s.km, s.err
}

func TestNew_Validation(t *testing.T) {
	tables := testTables(t)

	_, err := engine.New(nil, engine.Options{Year: 2020, Destination: destination}, nil)
	require.ErrorIs(t, err, engine.ErrNilTables)

	_, err = engine.New(tables, engine.Options{Destination: destination}, nil)
	require.ErrorIs(t, err, engine.ErrInvalidYear)

	_, err = engine.New(tables, engine.Options{Year: 2020, Destination: " "}, nil)
	require.ErrorIs(t, err, engine.ErrNoDestination)

	_, err = engine.New(tables, engine.Options{Year: 2020, Destination: destination, Workers: -1}, nil)
	require.ErrorIs(t, err, engine.ErrInvalidWorkers)

	c, err := engine.New(tables, engine.Options{Year: 2020, Destination: destination}, nil)
	require.NoError(t, err)
	assert.Positive(t, c.Options().BatchSize)
	assert.Positive(t, c.Options().Workers)
}

func TestCalculate_UKOriginNeedsNoTravel(t *testing.T) {
	c := newCalculator(t, nil)

	res := c.Calculate(context.Background(), engine.Product{
		Name:       "scalpel",
		Components: []engine.Component{ukComponent("steel", 1.0, 1)},
	})

	assert.InDelta(t, 2.0, res.Breakdown.Manufacture, eps)
	assert.InDelta(t, 0.0, res.Breakdown.Transport, eps)
	assert.Empty(t, res.Warnings)
}

func TestCalculate_UnsetLocationDefaultsToDestination(t *testing.T) {
	c := newCalculator(t, nil)
	comp := ukComponent("steel", 1.0, 1)
	comp.Location = ""

	res := c.Calculate(context.Background(), engine.Product{Name: "p", Components: []engine.Component{comp}})

	assert.InDelta(t, 2.0, res.Breakdown.Manufacture, eps)
	assert.InDelta(t, 0.0, res.Breakdown.Transport, eps)
	assert.Empty(t, res.Warnings)
}

func TestCalculate_PerUseDivision(t *testing.T) {
	c := newCalculator(t, nil)
	calc := func(uses int) float64 {
		res := c.Calculate(context.Background(), engine.Product{
			Name:       "tray",
			Components: []engine.Component{ukComponent("steel", 3.0, uses)},
		})
		return res.Breakdown.Manufacture
	}

	assert.InDelta(t, 2.0*3.0/10, calc(10), eps)
	assert.InDelta(t, 2*calc(10), calc(5), eps)
}

func TestCalculate_ManufactureFallsBackThroughRegions(t *testing.T) {
	c := newCalculator(t, nil)

	res := c.Calculate(context.Background(), engine.Product{
		Name: "gown",
		Components: []engine.Component{
			{Name: "cotton", Year: 2020, Location: "Paris (France)", MassKg: 1, Uses: 1},
			{Name: "paper", Year: 2020, Location: "Delhi (India)", MassKg: 2, Uses: 1},
		},
	})

	assert.InDelta(t, 5.0+2.0, res.Breakdown.Manufacture, eps)
	assert.InDelta(t, 5.0, res.Components[0].Manufacture, eps)
	assert.InDelta(t, 2.0, res.Components[1].Manufacture, eps)
}

func TestCalculate_ManufactureHaltsOnMissingFactor(t *testing.T) {
	c := newCalculator(t, nil)

	res := c.Calculate(context.Background(), engine.Product{
		Name: "kit",
		Components: []engine.Component{
			ukComponent("steel", 1, 1),
			ukComponent("titanium", 1, 1),
			ukComponent("steel", 5, 1),
		},
	})

	assert.InDelta(t, 2.0, res.Breakdown.Manufacture, eps)
	assert.InDelta(t, 0.0, res.Components[2].Manufacture, eps)
	require.NotEmpty(t, res.Warnings)
	w := res.Warnings[0]
	assert.Equal(t, engine.FactorNotFound, w.Kind)
	assert.Equal(t, engine.StageManufacture, w.Stage)
	assert.Equal(t, "kit", w.Product)
	assert.Equal(t, "titanium", w.Component)
	assert.Equal(t, "europe", w.Region)
}

func TestCalculate_InvalidCountry(t *testing.T) {
	c := newCalculator(t, nil)

	res := c.Calculate(context.Background(), engine.Product{
		Name: "kit",
		Components: []engine.Component{
			{Name: "steel", Year: 2020, Location: "Springfield (Atlantis)", MassKg: 1, Uses: 1},
		},
	})

	assert.InDelta(t, 0.0, res.Breakdown.Manufacture, eps)
	assert.Contains(t, kinds(res.Warnings), engine.InvalidLocationCountry)
}

func TestCalculate_SeaLeg(t *testing.T) {
	c := newCalculator(t, nil)
	comp := engine.Component{
		Name: "steel", Year: 2020, Location: shanghai, MassKg: 2, Uses: 1,
		DebarkationPort: shanghai, ArrivalLocation: felixstowe,
	}

	res := c.Calculate(context.Background(), engine.Product{Name: "p", Components: []engine.Component{comp}})

	assert.InDelta(t, 2*19500*(seaPerTonneKm/1000), res.Breakdown.Transport, eps)
	assert.Empty(t, res.Warnings)
}

func TestCalculate_LandThenSea(t *testing.T) {
	c := newCalculator(t, nil)
	comp := engine.Component{
		Name: "cotton", Year: 2020, Location: "Lyon (France)", MassKg: 1, Uses: 2,
		DebarkationPort: "Calais (France)", ArrivalLocation: "Dover (United Kingdom)",
	}

	res := c.Calculate(context.Background(), engine.Product{Name: "p", Components: []engine.Component{comp}})

	want := (1*750*(landPerTonneKm/1000) + 1*40*(seaPerTonneKm/1000)) / 2
	assert.InDelta(t, want, res.Breakdown.Transport, eps)
	assert.InDelta(t, want, res.Components[0].Transport, eps)
}

func TestCalculate_UKLandLeg(t *testing.T) {
	c := newCalculator(t, nil)
	comp := engine.Component{Name: "steel", Year: 2020, Location: "Sheffield (United Kingdom)", MassKg: 10, Uses: 1}

	res := c.Calculate(context.Background(), engine.Product{Name: "p", Components: []engine.Component{comp}})

	assert.InDelta(t, 10*270*(landPerTonneKm/1000), res.Breakdown.Transport, eps)
}

func TestCalculate_MissingLandDistance(t *testing.T) {
	c := newCalculator(t, nil)
	comp := engine.Component{Name: "steel", Year: 2020, Location: "Leeds (United Kingdom)", MassKg: 10, Uses: 1}

	res := c.Calculate(context.Background(), engine.Product{Name: "p", Components: []engine.Component{comp}})

	assert.InDelta(t, 0.0, res.Breakdown.Transport, eps)
	assert.Equal(t, []engine.WarningKind{engine.MissingTravelDistance}, kinds(res.Warnings))
	assert.InDelta(t, 20.0, res.Breakdown.Manufacture, eps, "other stages unaffected")
}

func TestCalculate_PortWithoutArrivalHasNoSeaLeg(t *testing.T) {
	comp := engine.Component{
		Name: "steel", Year: 2020, Location: shanghai, MassKg: 1, Uses: 1,
		DebarkationPort: shanghai,
	}
	product := engine.Product{Name: "p", Components: []engine.Component{comp}}

	t.Run("router is not consulted", func(t *testing.T) {
		router := &stubRouter{km: 20000}
		res := newCalculator(t, router).Calculate(context.Background(), product)
		assert.Equal(t, 0, router.calls)
		assert.InDelta(t, 0.0, res.Breakdown.Transport, eps)
		assert.Empty(t, res.Warnings)
	})

	t.Run("no router", func(t *testing.T) {
		res := newCalculator(t, nil).Calculate(context.Background(), product)
		assert.InDelta(t, 0.0, res.Breakdown.Transport, eps)
		assert.Empty(t, res.Warnings)
	})

	t.Run("land leg to port still counts", func(t *testing.T) {
		inland := comp
		inland.Name = "cotton"
		inland.Location = "Lyon (France)"
		inland.DebarkationPort = "Calais (France)"
		res := newCalculator(t, nil).Calculate(context.Background(),
			engine.Product{Name: "p", Components: []engine.Component{inland}})
		assert.InDelta(t, 750*(landPerTonneKm/1000), res.Breakdown.Transport, eps)
		assert.Empty(t, res.Warnings)
	})
}

func TestCalculate_MadeAtDestinationSkipsTravel(t *testing.T) {
	c := newCalculator(t, nil)
	comp := ukComponent("steel", 1.0, 1)
	comp.Location = "london (united kingdom)"
	comp.ArrivalLocation = "Leeds (United Kingdom)"

	res := c.Calculate(context.Background(), engine.Product{Name: "p", Components: []engine.Component{comp}})

	assert.InDelta(t, 0.0, res.Breakdown.Transport, eps)
	assert.Empty(t, res.Warnings)
}

func TestCalculate_SeaRouterFallback(t *testing.T) {
	comp := engine.Component{
		Name: "steel", Year: 2020, Location: shanghai, MassKg: 1, Uses: 1,
		DebarkationPort: shanghai, ArrivalLocation: "Southampton (United Kingdom)",
	}
	product := engine.Product{Name: "p", Components: []engine.Component{comp}}

	t.Run("router distance is used", func(t *testing.T) {
		router := &stubRouter{km: 20000}
		res := newCalculator(t, router).Calculate(context.Background(), product)
		assert.Equal(t, 1, router.calls)
		assert.InDelta(t, 20000*(seaPerTonneKm/1000), res.Breakdown.Transport, eps)
		assert.Empty(t, res.Warnings)
	})

	t.Run("router failure degrades to zero", func(t *testing.T) {
		router := &stubRouter{err: errors.New("unknown port")}
		res := newCalculator(t, router).Calculate(context.Background(), product)
		assert.InDelta(t, 0.0, res.Breakdown.Transport, eps)
		assert.Equal(t, []engine.WarningKind{engine.SeaRouteUnavailable}, kinds(res.Warnings))
		assert.Contains(t, res.Warnings[0].Detail, "unknown port")
	})

	t.Run("no router", func(t *testing.T) {
		res := newCalculator(t, nil).Calculate(context.Background(), product)
		assert.Equal(t, []engine.WarningKind{engine.SeaRouteUnavailable}, kinds(res.Warnings))
	})
}

func TestCalculate_UsePhaseSumsEveryUtility(t *testing.T) {
	c := newCalculator(t, nil)

	res := c.Calculate(context.Background(), engine.Product{
		Name: "washer",
		Use: engine.UsePhase{
			Water:       &engine.Water{Litres: 10},
			Electricity: &engine.Electricity{PowerW: 100, Hours: 2},
			Gas:         &engine.Gas{CubicMetres: 0.5},
		},
	})

	want := waterPerM3*0.01 + elecPerKWh*0.2 + gasPerM3*0.5
	assert.InDelta(t, want, res.Breakdown.Use, eps)
	assert.Empty(t, res.Warnings)
}

func TestCalculate_HSDUReprocessing(t *testing.T) {
	c := newCalculator(t, nil)
	comp := ukComponent("steel", 1, 100)
	comp.Reprocessing = engine.Reprocessing{Kind: engine.ReprocessingHSDU, FillFraction: 0.5}

	res := c.Calculate(context.Background(), engine.Product{Name: "tray", Components: []engine.Component{comp}})

	assert.InDelta(t, deconLoad*0.5, res.Breakdown.Reprocessing, eps)
}

func TestCalculate_HSDULastFractionWins(t *testing.T) {
	c := newCalculator(t, nil)
	a := ukComponent("steel", 1, 100)
	a.Reprocessing = engine.Reprocessing{Kind: engine.ReprocessingHSDU, FillFraction: 0.5}
	b := ukComponent("steel", 1, 100)
	b.Reprocessing = engine.Reprocessing{Kind: engine.ReprocessingHSDU, FillFraction: 0.25}

	res := c.Calculate(context.Background(), engine.Product{Name: "tray", Components: []engine.Component{a, b}})

	assert.InDelta(t, deconLoad*0.25, res.Breakdown.Reprocessing, eps, "charged once with the last fraction")
}

func TestCalculate_LaundryAndHSDU(t *testing.T) {
	c := newCalculator(t, nil)
	gown := ukComponent("cotton", 0.4, 50)
	gown.Location = "Paris (France)"
	gown.Reprocessing = engine.Reprocessing{Kind: engine.ReprocessingLaundry}
	tray := ukComponent("steel", 1, 100)
	tray.Reprocessing = engine.Reprocessing{Kind: engine.ReprocessingHSDU, FillFraction: 0.1}

	res := c.Calculate(context.Background(), engine.Product{Name: "pack", Components: []engine.Component{gown, tray}})

	assert.InDelta(t, 0.4*laundryPerKg+deconLoad*0.1, res.Breakdown.Reprocessing, eps)
	assert.InDelta(t, 0.4*laundryPerKg, res.Components[0].Reprocessing, eps)
}

func TestCalculate_MissingDeconUnit(t *testing.T) {
	c, err := engine.New(testTables(t), engine.Options{Year: 2020, Destination: destination, DeconUnit: "autoclave-x"}, nil)
	require.NoError(t, err)
	comp := ukComponent("steel", 1, 100)
	comp.Reprocessing = engine.Reprocessing{Kind: engine.ReprocessingHSDU, FillFraction: 0.5}

	res := c.Calculate(context.Background(), engine.Product{Name: "tray", Components: []engine.Component{comp}})

	assert.InDelta(t, 0.0, res.Breakdown.Reprocessing, eps)
	assert.Equal(t, []engine.WarningKind{engine.DeconUnitNotFound}, kinds(res.Warnings))
}

func TestCarbonToCO2(t *testing.T) {
	assert.InDelta(t, 44.01, engine.CarbonToCO2(12.01), eps)
	assert.InDelta(t, 3.6644, engine.CarbonToCO2(1), 1e-4)
}

func TestCalculate_Incineration(t *testing.T) {
	c := newCalculator(t, nil)
	comp := ukComponent("pp", 2, 1)
	comp.Location = "Paris (France)"
	comp.Disposal = engine.Disposal{Incinerate: true}

	res := c.Calculate(context.Background(), engine.Product{Name: "bag", Components: []engine.Component{comp}})

	want := engine.CarbonToCO2(2*0.85) + 2*disposalPerKg
	assert.InDelta(t, want, res.Disposal.Incineration, eps)
	assert.InDelta(t, want, res.Breakdown.Disposal, eps)
}

func TestCalculate_BiogenicCreditCanMakeDisposalNegative(t *testing.T) {
	c := newCalculator(t, nil)
	comp := ukComponent("paper", 1, 1)
	comp.Location = "Paris (France)"
	comp.Biogenic = true
	comp.Disposal = engine.Disposal{Recycle: true}

	res := c.Calculate(context.Background(), engine.Product{Name: "wrap", Components: []engine.Component{comp}})

	credit := engine.CarbonToCO2(0.45)
	assert.InDelta(t, credit, res.Disposal.BiogenicCredit, eps)
	assert.InDelta(t, disposalPerKg-credit, res.Breakdown.Disposal, eps)
	assert.Negative(t, res.Breakdown.Disposal)
	assert.InDelta(t, res.Breakdown.Manufacture+res.Breakdown.Disposal, res.Breakdown.Total, eps)
}

func TestCalculate_BiogenicIncinerationNetsToTransport(t *testing.T) {
	c := newCalculator(t, nil)
	comp := ukComponent("paper", 1, 1)
	comp.Location = "Paris (France)"
	comp.Biogenic = true
	comp.Disposal = engine.Disposal{Incinerate: true}

	res := c.Calculate(context.Background(), engine.Product{Name: "wrap", Components: []engine.Component{comp}})

	assert.InDelta(t, disposalPerKg, res.Breakdown.Disposal, eps)
}

func TestCalculate_Landfill(t *testing.T) {
	c := newCalculator(t, nil)
	comp := ukComponent("steel", 4, 2)
	comp.Disposal = engine.Disposal{Landfill: true}

	res := c.Calculate(context.Background(), engine.Product{Name: "p", Components: []engine.Component{comp}})

	assert.InDelta(t, 2*(disposalPerKg+landfillPerKg), res.Disposal.Landfill, eps)
}

func TestCalculate_InvalidDisposalCombination(t *testing.T) {
	c := newCalculator(t, nil)
	bad := ukComponent("steel", 1, 1)
	bad.Disposal = engine.Disposal{Incinerate: true, Recycle: true}
	later := ukComponent("steel", 1, 1)
	later.Disposal = engine.Disposal{Recycle: true}

	res := c.Calculate(context.Background(), engine.Product{Name: "p", Components: []engine.Component{bad, later}})

	assert.Equal(t, engine.DisposalDetail{}, res.Disposal)
	assert.Equal(t, []engine.WarningKind{engine.InvalidDisposalCombination}, kinds(res.Warnings))
	assert.InDelta(t, 4.0, res.Breakdown.Manufacture, eps, "manufacture is unaffected")
}

func TestCalculate_NoDisposalRouteStopsSilently(t *testing.T) {
	c := newCalculator(t, nil)
	first := ukComponent("steel", 1, 1)
	first.Disposal = engine.Disposal{Recycle: true}
	process := ukComponent("steel", 1, 1)
	last := ukComponent("steel", 1, 1)
	last.Disposal = engine.Disposal{Recycle: true}

	res := c.Calculate(context.Background(), engine.Product{Name: "p", Components: []engine.Component{first, process, last}})

	assert.InDelta(t, disposalPerKg, res.Disposal.Recycling, eps)
	assert.Empty(t, res.Warnings)
}

func TestCalculate_InvalidComponentTruncates(t *testing.T) {
	c := newCalculator(t, nil)

	res := c.Calculate(context.Background(), engine.Product{
		Name: "p",
		Components: []engine.Component{
			ukComponent("steel", 1, 1),
			ukComponent("steel", 1, 0),
			ukComponent("steel", 1, 1),
		},
	})

	assert.InDelta(t, 2.0, res.Breakdown.Manufacture, eps)
	assert.Len(t, res.Components, 1)
	assert.Equal(t, []engine.WarningKind{engine.InvalidComponent}, kinds(res.Warnings))
}

func TestCalculate_MissingAdditionalFactorReportedOnce(t *testing.T) {
	tables := testTables(t)
	additional, err := factors.NewAdditionalTable(nil)
	require.NoError(t, err)
	tables.Additional = additional

	c, err := engine.New(tables, engine.Options{Year: 2020, Destination: destination}, nil)
	require.NoError(t, err)

	res := c.Calculate(context.Background(), engine.Product{
		Name: "p",
		Use:  engine.UsePhase{Gas: &engine.Gas{CubicMetres: 1}},
	})

	assert.InDelta(t, 0.0, res.Breakdown.Use, eps)
	assert.Equal(t, []engine.WarningKind{engine.AdditionalFactorNotFound, engine.AdditionalFactorNotFound}, kinds(res.Warnings))
	assert.Equal(t, engine.StageUse, res.Warnings[0].Stage)
}

func TestCalculate_TotalIsSumOfStages(t *testing.T) {
	c := newCalculator(t, nil)
	comp := engine.Component{
		Name: "cotton", Year: 2020, Location: "Lyon (France)", MassKg: 0.3, Uses: 3,
		DebarkationPort: "Calais (France)", ArrivalLocation: "Dover (United Kingdom)",
		Biogenic: true, Reprocessing: engine.Reprocessing{Kind: engine.ReprocessingLaundry},
		Disposal: engine.Disposal{Incinerate: true},
	}

	res := c.Calculate(context.Background(), engine.Product{
		Name:       "gown",
		Components: []engine.Component{comp},
		Use:        engine.UsePhase{Water: &engine.Water{Litres: 2}},
	})

	b := res.Breakdown
	assert.InDelta(t, b.Manufacture+b.Transport+b.Use+b.Reprocessing+b.Disposal, b.Total, eps)
	assert.Len(t, b.Stages(), 5)
}

func TestCalculateBatch(t *testing.T) {
	c := newCalculator(t, nil)
	products := []engine.Product{
		{Name: "a", Category: "instruments", Components: []engine.Component{ukComponent("steel", 1, 1)}},
		{Name: "b", Category: "instruments", Components: []engine.Component{ukComponent("steel", 2, 1)}},
		{Name: "c", Category: "linen", Components: []engine.Component{ukComponent("titanium", 1, 1)}},
	}

	out, err := c.CalculateBatch(context.Background(), products)
	require.NoError(t, err)
	require.Len(t, out.Products, 3)
	assert.Equal(t, "a", out.Products[0].Product)
	assert.Equal(t, "c", out.Products[2].Product)

	total := 0.0
	for _, r := range out.Products {
		total += r.Breakdown.Total
	}
	assert.InDelta(t, total, out.Aggregate.Total, eps)
	assert.InDelta(t, 6.0, out.Aggregate.Manufacture, eps)
	assert.Len(t, out.Warnings(), 1)

	byCat := engine.SumBy(out.Products, func(r engine.Result) string { return r.Category })
	assert.InDelta(t, 6.0, byCat["instruments"].Total, eps)
	assert.InDelta(t, 0.0, byCat["linen"].Total, eps)
}

func TestCalculateBatch_Empty(t *testing.T) {
	c := newCalculator(t, nil)

	out, err := c.CalculateBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out.Products)
	assert.Equal(t, engine.Breakdown{}, out.Aggregate)
}

func TestCalculateBatch_Cancelled(t *testing.T) {
	c := newCalculator(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CalculateBatch(ctx, []engine.Product{{Name: "a"}})
	require.ErrorIs(t, err, context.Canceled)
}
