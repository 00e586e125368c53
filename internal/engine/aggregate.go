package engine

// Breakdown holds the five stage totals and their sum, in kg CO2e per use.
type Breakdown struct {
	Manufacture  float64 `json:"manufacture"`
	Transport    float64 `json:"transport"`
	Use          float64 `json:"use"`
	Reprocessing float64 `json:"reprocessing"`
	Disposal     float64 `json:"disposal"`
	Total        float64 `json:"total"`
}

// WithTotal returns b with Total set to the sum of the five stages.
// Disposal may be negative and is not clamped.
func (b Breakdown) WithTotal() Breakdown {
	b.Total = b.Manufacture + b.Transport + b.Use + b.Reprocessing + b.Disposal
	return b
}

// Add sums two breakdowns field by field, Total included.
func (b Breakdown) Add(o Breakdown) Breakdown {
	return Breakdown{
		Manufacture:  b.Manufacture + o.Manufacture,
		Transport:    b.Transport + o.Transport,
		Use:          b.Use + o.Use,
		Reprocessing: b.Reprocessing + o.Reprocessing,
		Disposal:     b.Disposal + o.Disposal,
		Total:        b.Total + o.Total,
	}
}

// Stages returns the stage totals in lifecycle order.
func (b Breakdown) Stages() []StageTotal {
	return []StageTotal{
		{StageManufacture, b.Manufacture},
		{StageTransport, b.Transport},
		{StageUse, b.Use},
		{StageReprocessing, b.Reprocessing},
		{StageDisposal, b.Disposal},
	}
}

// StageTotal pairs a stage with its emissions.
type StageTotal struct {
	Stage Stage   `json:"stage"`
	KgCO2 float64 `json:"kg_co2e"`
}

// ComponentResult is the per-component share of the component-level stages.
type ComponentResult struct {
	Name         string  `json:"name"`
	Manufacture  float64 `json:"manufacture"`
	Transport    float64 `json:"transport"`
	Reprocessing float64 `json:"reprocessing"`
}

// Result is the calculation outcome for one product.
type Result struct {
	Product    string            `json:"product"`
	Category   string            `json:"category,omitempty"`
	Breakdown  Breakdown         `json:"breakdown"`
	Disposal   DisposalDetail    `json:"disposal_detail"`
	Components []ComponentResult `json:"components"`
	Warnings   []Warning         `json:"warnings,omitempty"`
}

// BatchResult holds one Result per product plus their stage-by-stage sum.
type BatchResult struct {
	Products  []Result  `json:"products"`
	Aggregate Breakdown `json:"aggregate"`
}

// Warnings returns every product's warnings in product order.
func (b BatchResult) Warnings() []Warning {
	var out []Warning
	for _, r := range b.Products {
		out = append(out, r.Warnings...)
	}
	return out
}

// Sum adds the already computed breakdowns of results. Stage totals and the
// grand total are summed independently.
func Sum(results []Result) Breakdown {
	var agg Breakdown
	for _, r := range results {
		agg = agg.Add(r.Breakdown)
	}
	return agg
}

// SumBy groups results by key and sums each group.
func SumBy(results []Result, key func(Result) string) map[string]Breakdown {
	out := make(map[string]Breakdown)
	for _, r := range results {
		k := key(r)
		out[k] = out[k].Add(r.Breakdown)
	}
	return out
}
