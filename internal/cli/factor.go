package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/medcarbon/internal/config"
	"github.com/rshade/medcarbon/internal/factors"
)

// ErrAdditionalFactorNotFound is returned when an additional factor has no
// record at any year.
var ErrAdditionalFactorNotFound = errors.New("additional factor not found")

// FactorParams holds the flags shared by the factor subcommands.
type FactorParams struct {
	Data          string
	Year          int
	CarbonContent bool
	Output        string
}

func newFactorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "factor", Short: "Inspect emission factor resolution"}
	cmd.AddCommand(newFactorLookupCmd(a), newFactorAdditionalCmd(a))
	return cmd
}

func addFactorFlags(cmd *cobra.Command, params *FactorParams) {
	cmd.Flags().StringVar(&params.Data, "data", "", "data table location (default from config)")
	cmd.Flags().IntVar(&params.Year, "year", 0, "target year (default from config)")
	cmd.Flags().StringVarP(&params.Output, "output", "o", "", "output format (table, json)")
}

func (p FactorParams) withDefaults(a *app) FactorParams {
	if p.Data == "" {
		p.Data = a.cfg.Data.Location
	}
	if p.Year == 0 {
		p.Year = a.cfg.Calculation.EffectiveYear(a.now())
	}
	if p.Output == "" {
		p.Output = a.cfg.Output.Format
	}
	return p
}

func newFactorLookupCmd(a *app) *cobra.Command {
	var params FactorParams

	cmd := &cobra.Command{
		Use:   "lookup COMPONENT LOCATION",
		Short: "Resolve a component factor and show the fallback chain",
		Long: `Resolve the emission factor (or carbon content) of a component made at
LOCATION, a "city (country)" or a bare country. The country is tried first,
then its region (rer or row), then world, each at the nearest available year.`,
		Example: `  medcarbon factor lookup steel "shanghai (china)" --year 2022
  medcarbon factor lookup cotton india --carbon-content -o json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeFactorLookup(cmd, a, args[0], args[1], params)
		},
	}
	addFactorFlags(cmd, &params)
	cmd.Flags().BoolVar(&params.CarbonContent, "carbon-content", false, "resolve carbon content instead of the emission factor")
	return cmd
}

// factorLookup is the JSON form of a factor lookup.
type factorLookup struct {
	Component string `json:"component"`
	Quantity  string `json:"quantity"`
	Year      int    `json:"year"`
	factors.Resolution
	Error string `json:"error,omitempty"`
}

func executeFactorLookup(cmd *cobra.Command, a *app, component, location string, params FactorParams) error {
	ctx := cmd.Context()
	params = params.withDefaults(a)

	ds, err := loadDataset(ctx, a.cfg, params.Data)
	if err != nil {
		return err
	}

	q := factors.EmissionFactor
	if params.CarbonContent {
		q = factors.CarbonContent
	}
	resolver := factors.NewResolver(ds.Tables.Factors, ds.Tables.Regions)
	res, resolveErr := resolver.Resolve(component, factors.CountryOf(location), params.Year, q)

	out := factorLookup{
		Component:  factors.Normalize(component),
		Quantity:   q.String(),
		Year:       params.Year,
		Resolution: res,
	}
	if resolveErr != nil {
		out.Error = resolveErr.Error()
	}

	var renderErr error
	if params.Output == config.FormatJSON {
		renderErr = renderJSON(cmd.OutOrStdout(), out)
	} else {
		renderErr = renderFactorLookup(cmd.OutOrStdout(), out)
	}
	if renderErr != nil {
		return renderErr
	}
	return resolveErr
}

func renderFactorLookup(w io.Writer, out factorLookup) error {
	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)
	rows := [][2]string{
		{"Component", out.Component},
		{"Country", out.Country},
		{"Region", out.Region.String()},
		{"Quantity", out.Quantity},
		{"Year", fmt.Sprint(out.Year)},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1]); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	if _, err := fmt.Fprintf(tw, "\nSTEP\tLOCATION\tFOUND\n----\t--------\t-----\n"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, attempt := range out.Attempts {
		found := "no"
		if attempt.Found {
			found = "yes"
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, attempt.Location, found); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	if out.Error != "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "\nValue: %g (from %s)\n", out.Value, out.Location)
	if err != nil {
		return fmt.Errorf("writing value: %w", err)
	}
	return nil
}

func newFactorAdditionalCmd(a *app) *cobra.Command {
	var params FactorParams

	cmd := &cobra.Command{
		Use:   "additional NAME UNIT",
		Short: "Resolve an additional factor at the nearest year",
		Example: `  medcarbon factor additional "hgv transport" km --year 2023
  medcarbon factor additional laundry kg`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeFactorAdditional(cmd, a, args[0], args[1], params)
		},
	}
	addFactorFlags(cmd, &params)
	return cmd
}

// additionalLookup is the JSON form of an additional factor lookup.
type additionalLookup struct {
	Name          string  `json:"name"`
	Unit          string  `json:"unit"`
	Year          int     `json:"year"`
	KgCO2ePerUnit float64 `json:"kg_co2e_per_unit"`
}

func executeFactorAdditional(cmd *cobra.Command, a *app, name, unit string, params FactorParams) error {
	ctx := cmd.Context()
	params = params.withDefaults(a)

	ds, err := loadDataset(ctx, a.cfg, params.Data)
	if err != nil {
		return err
	}

	v, ok := ds.Tables.Additional.Resolve(name, unit, params.Year)
	if !ok {
		return fmt.Errorf("%w: %s (%s)", ErrAdditionalFactorNotFound, factors.Normalize(name), factors.Normalize(unit))
	}
	out := additionalLookup{
		Name:          factors.Normalize(name),
		Unit:          factors.Normalize(unit),
		Year:          params.Year,
		KgCO2ePerUnit: v,
	}

	if params.Output == config.FormatJSON {
		return renderJSON(cmd.OutOrStdout(), out)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) at %d: %g kg CO2e/%s\n",
		out.Name, out.Unit, out.Year, out.KgCO2ePerUnit, out.Unit)
	if err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}
