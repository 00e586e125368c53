package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rshade/medcarbon/internal/config"
	"github.com/rshade/medcarbon/internal/engine"
	"github.com/rshade/medcarbon/internal/greenops"
)

const tabwriterPadding = 2

// uncategorised labels products without a category in per-category totals.
const uncategorised = "(none)"

// reportMetadata describes how a report was produced.
type reportMetadata struct {
	GeneratedAt  time.Time `json:"generated_at"`
	RunID        string    `json:"run_id,omitempty"`
	Inventory    string    `json:"inventory"`
	DataLocation string    `json:"data_location,omitempty"`
	Year         int       `json:"year"`
	Destination  string    `json:"destination"`
	DeconUnit    string    `json:"decon_unit,omitempty"`
	Unit         string    `json:"unit"`
}

// report is the JSON form of a calculation. Values are kg CO2e per use.
type report struct {
	Metadata      reportMetadata              `json:"metadata"`
	Products      []engine.Result             `json:"products"`
	Aggregate     engine.Breakdown            `json:"aggregate"`
	Categories    map[string]engine.Breakdown `json:"categories,omitempty"`
	Equivalencies *greenops.EquivalencyOutput `json:"equivalencies,omitempty"`
	Warnings      []engine.Warning            `json:"warnings"`
}

// renderOptions control presentation only; they never change the numbers.
type renderOptions struct {
	Unit          greenops.Unit
	Precision     int
	Equivalencies bool
	ByCategory    bool
}

func newReport(res engine.BatchResult, meta reportMetadata) *report {
	meta.Unit = greenops.UnitKg.Label()
	products := res.Products
	if products == nil {
		products = []engine.Result{}
	}
	warnings := res.Warnings()
	if warnings == nil {
		warnings = []engine.Warning{}
	}
	return &report{
		Metadata:  meta,
		Products:  products,
		Aggregate: res.Aggregate,
		Warnings:  warnings,
	}
}

// renderReport writes rep in the requested format.
func renderReport(w io.Writer, format string, rep *report, opts renderOptions) error {
	if opts.ByCategory {
		rep.Categories = engine.SumBy(rep.Products, categoryOf)
	}
	if opts.Equivalencies {
		eq, err := greenops.Calculate(rep.Aggregate.Total)
		if err != nil {
			return fmt.Errorf("calculating equivalencies: %w", err)
		}
		rep.Equivalencies = &eq
	}

	switch format {
	case config.FormatJSON:
		return renderJSON(w, rep)
	case config.FormatNDJSON:
		return renderNDJSON(w, rep.Products)
	default:
		return renderTable(w, rep, opts)
	}
}

func categoryOf(r engine.Result) string {
	if r.Category == "" {
		return uncategorised
	}
	return r.Category
}

func renderTable(w io.Writer, rep *report, opts renderOptions) error {
	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)

	if _, err := fmt.Fprintf(tw,
		"PRODUCT\tCATEGORY\tMANUFACTURE\tTRANSPORT\tUSE\tREPROCESSING\tDISPOSAL\tTOTAL\n"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := fmt.Fprintf(tw,
		"-------\t--------\t-----------\t---------\t---\t------------\t--------\t-----\n"); err != nil {
		return fmt.Errorf("writing separator: %w", err)
	}

	for _, r := range rep.Products {
		if err := writeBreakdownRow(tw, r.Product, r.Category, r.Breakdown, opts); err != nil {
			return err
		}
	}
	if err := writeBreakdownRow(tw, "TOTAL", "", rep.Aggregate, opts); err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	if _, err := fmt.Fprintf(w, "\nValues in %s per use.\n", opts.Unit.Label()); err != nil {
		return fmt.Errorf("writing unit note: %w", err)
	}

	if len(rep.Categories) > 0 {
		if err := renderCategories(w, rep.Categories, opts); err != nil {
			return err
		}
	}

	if rep.Equivalencies != nil && !rep.Equivalencies.IsEmpty {
		if _, err := fmt.Fprintf(w, "\n%s\n", rep.Equivalencies.DisplayText); err != nil {
			return fmt.Errorf("writing equivalencies: %w", err)
		}
	}

	return renderWarnings(w, rep.Warnings)
}

func writeBreakdownRow(w io.Writer, name, category string, b engine.Breakdown, opts renderOptions) error {
	if category == "" {
		category = "-"
	}
	cells := make([]any, 0, 8)
	cells = append(cells, name, category)
	for _, kg := range []float64{b.Manufacture, b.Transport, b.Use, b.Reprocessing, b.Disposal, b.Total} {
		cells = append(cells, formatValue(kg, opts))
	}
	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", cells...); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	return nil
}

func formatValue(kg float64, opts renderOptions) string {
	v, err := greenops.FromKg(kg, opts.Unit)
	if err != nil {
		return "ERR"
	}
	return greenops.FormatFloat(v, opts.Precision)
}

func renderCategories(w io.Writer, categories map[string]engine.Breakdown, opts renderOptions) error {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	if _, err := fmt.Fprintln(w); err != nil {
		return fmt.Errorf("writing categories: %w", err)
	}
	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)
	if _, err := fmt.Fprintf(tw, "CATEGORY\tTOTAL\n--------\t-----\n"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", name, formatValue(categories[name].Total, opts)); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	return tw.Flush()
}

func renderWarnings(w io.Writer, warnings []engine.Warning) error {
	if len(warnings) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\nWarnings (%d):\n", len(warnings)); err != nil {
		return fmt.Errorf("writing warnings: %w", err)
	}
	for _, warning := range warnings {
		if _, err := fmt.Fprintf(w, "  - %s\n", warning); err != nil {
			return fmt.Errorf("writing warning: %w", err)
		}
	}
	return nil
}

func renderJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// renderNDJSON writes one JSON object per row with no wrapper.
func renderNDJSON[T any](w io.Writer, rows []T) error {
	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshaling row: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("writing NDJSON line: %w", err)
		}
	}
	return nil
}
