package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/medcarbon/internal/config"
	"github.com/rshade/medcarbon/internal/engine"
	"github.com/rshade/medcarbon/internal/engine/cache"
	"github.com/rshade/medcarbon/internal/geo"
	"github.com/rshade/medcarbon/internal/greenops"
	"github.com/rshade/medcarbon/internal/ingest"
	"github.com/rshade/medcarbon/internal/logging"
	"github.com/rshade/medcarbon/internal/metrics"
	"github.com/rshade/medcarbon/internal/source"
	"github.com/rshade/medcarbon/internal/store"
)

// stdinName selects standard input as the inventory.
const stdinName = "-"

// warningsExitCode is returned by --fail-on-warnings.
const warningsExitCode = 3

// CalculateParams holds the parameters for the calculate command execution.
// Exported for testing.
type CalculateParams struct {
	Inventory      string
	Data           string
	Destination    string
	Year           int
	DeconUnit      string
	Output         string
	Unit           string
	Equivalencies  bool
	ByCategory     bool
	Save           bool
	NoCache        bool
	MetricsFile    string
	FailOnWarnings bool
}

// ExitError asks main to exit with a specific code after the report has been
// written.
type ExitError struct {
	ExitCode int
	Reason   string
}

func (e *ExitError) Error() string {
	return e.Reason
}

func newCalculateCmd(a *app) *cobra.Command {
	var params CalculateParams

	cmd := &cobra.Command{
		Use:   "calculate INVENTORY",
		Short: "Calculate lifecycle emissions for a product inventory",
		Long: `Calculate the per-use emissions of every product in an inventory CSV,
stage by stage, and their total.

INVENTORY is a local path, an http(s) URL, an s3:// object or "-" for stdin.
Flags override the calculation and output sections of the configuration.

Sea legs missing from the sea distance table are estimated from ports.csv as
the great-circle distance between the two ports. That is a lower bound on the
distance sailed; set calculation.sea_detour_factor to scale it.`,
		Example: `  # Table output in grams
  medcarbon calculate products.csv --unit g

  # Totals per product category with equivalencies
  medcarbon calculate products.csv --by-category --equivalencies

  # Archive the run and export metrics
  medcarbon calculate products.csv --save --metrics-textfile /var/lib/node_exporter/medcarbon.prom`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Inventory = args[0]
			return executeCalculate(cmd, a, params)
		},
	}

	cmd.Flags().StringVar(&params.Data, "data", "", "data table location (default from config)")
	cmd.Flags().StringVar(&params.Destination, "destination", "", `destination "city (country)" of use`)
	cmd.Flags().IntVar(&params.Year, "year", 0, "factor year for use, reprocessing and disposal (default current year)")
	cmd.Flags().StringVar(&params.DeconUnit, "decon-unit", "", "decontamination unit profile for HSDU reprocessing")
	cmd.Flags().StringVarP(&params.Output, "output", "o", "", "output format (table, json, ndjson)")
	cmd.Flags().StringVar(&params.Unit, "unit", "", "display unit for table output (g, kg, t, lb)")
	cmd.Flags().BoolVar(&params.Equivalencies, "equivalencies", false, "show everyday equivalencies of the total")
	cmd.Flags().BoolVar(&params.ByCategory, "by-category", false, "add totals per product category")
	cmd.Flags().BoolVar(&params.Save, "save", false, "archive the run in the configured store")
	cmd.Flags().BoolVar(&params.NoCache, "no-cache", false, "do not use the sea-route cache")
	cmd.Flags().StringVar(&params.MetricsFile, "metrics-textfile", "", "write Prometheus metrics to this file")
	cmd.Flags().BoolVar(&params.FailOnWarnings, "fail-on-warnings", false,
		fmt.Sprintf("exit with code %d when any warning is reported", warningsExitCode))

	return cmd
}

// withDefaults fills unset parameters from the configuration.
func (p CalculateParams) withDefaults(cfg *config.Config, now time.Time) CalculateParams {
	if p.Data == "" {
		p.Data = cfg.Data.Location
	}
	if p.Destination == "" {
		p.Destination = cfg.Calculation.Destination
	}
	if p.Year == 0 {
		p.Year = cfg.Calculation.EffectiveYear(now)
	}
	if p.DeconUnit == "" {
		p.DeconUnit = cfg.Calculation.DeconUnit
	}
	if p.Output == "" {
		p.Output = cfg.Output.Format
	}
	if p.Unit == "" {
		p.Unit = cfg.Output.Unit
	}
	if !p.Equivalencies {
		p.Equivalencies = cfg.Output.Equivalencies
	}
	if p.MetricsFile == "" {
		p.MetricsFile = cfg.Metrics.Textfile
	}
	return p
}

func executeCalculate(cmd *cobra.Command, a *app, params CalculateParams) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	params = params.withDefaults(a.cfg, a.now())

	if err := validateOutputFormat(params.Output); err != nil {
		return err
	}
	unit, err := greenops.ParseUnit(params.Unit)
	if err != nil {
		return err
	}

	products, err := readInventory(ctx, cmd.InOrStdin(), params.Inventory, a.cfg.SourceOptions())
	if err != nil {
		return err
	}

	ds, err := loadDataset(ctx, a.cfg, params.Data)
	if err != nil {
		return err
	}

	router, err := a.seaRouter(ctx, ds.Ports, params.NoCache)
	if err != nil {
		return err
	}

	calc, err := engine.New(ds.Tables, engine.Options{
		Year:        params.Year,
		Destination: params.Destination,
		DeconUnit:   params.DeconUnit,
		BatchSize:   a.cfg.Calculation.BatchSize,
		Workers:     a.cfg.Calculation.Workers,
	}, router)
	if err != nil {
		return fmt.Errorf("configuring calculator: %w", err)
	}

	start := time.Now()
	res, err := calc.CalculateBatch(ctx, products)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	recorder := metrics.NewRecorder()
	recorder.ObserveBatch(res, elapsed)
	if params.MetricsFile != "" {
		if err := recorder.WriteTextfile(params.MetricsFile); err != nil {
			return err
		}
		log.Debug().Ctx(ctx).Str("component", "cli").Str("path", params.MetricsFile).
			Msg("metrics written")
	}

	rep := newReport(res, reportMetadata{
		GeneratedAt:  a.now().UTC(),
		Inventory:    params.Inventory,
		DataLocation: params.Data,
		Year:         calc.Options().Year,
		Destination:  calc.Options().Destination,
		DeconUnit:    calc.Options().DeconUnit,
	})

	if params.Save {
		id, err := saveRun(ctx, a.cfg, calc.Options(), params.Inventory, res, a.now())
		if err != nil {
			return err
		}
		rep.Metadata.RunID = id
		cmd.PrintErrf("Saved run %s\n", id)
	}

	opts := renderOptions{
		Unit:          unit,
		Precision:     a.cfg.Output.Precision,
		Equivalencies: params.Equivalencies,
		ByCategory:    params.ByCategory,
	}
	if err := renderReport(cmd.OutOrStdout(), params.Output, rep, opts); err != nil {
		return err
	}

	if n := len(rep.Warnings); params.FailOnWarnings && n > 0 {
		return &ExitError{ExitCode: warningsExitCode, Reason: fmt.Sprintf("%d warning(s) reported", n)}
	}
	return nil
}

func validateOutputFormat(format string) error {
	switch format {
	case config.FormatTable, config.FormatJSON, config.FormatNDJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want table, json or ndjson)", format)
	}
}

// readInventory reads and parses the inventory at location. The location is
// split at its last slash into a source base and a file name.
func readInventory(
	ctx context.Context,
	stdin io.Reader,
	location string,
	opts source.Options,
) ([]engine.Product, error) {
	var (
		data []byte
		err  error
		name = location
	)
	if location == stdinName {
		name = "stdin"
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading inventory from stdin: %w", err)
		}
	} else {
		base, file := splitLocation(location)
		src, openErr := source.Open(ctx, base, opts)
		if openErr != nil {
			return nil, fmt.Errorf("opening inventory: %w", openErr)
		}
		data, err = src.ReadFile(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("reading inventory: %w", err)
		}
	}
	return ingest.ReadInventory(ctx, bytes.NewReader(data), name)
}

func splitLocation(location string) (string, string) {
	i := strings.LastIndex(location, "/")
	if i < 0 {
		return ".", location
	}
	if i == 0 {
		return "/", location[1:]
	}
	return location[:i], location[i+1:]
}

// loadDataset opens the data location and loads every table.
func loadDataset(ctx context.Context, cfg *config.Config, location string) (*source.Dataset, error) {
	src, err := source.Open(ctx, location, cfg.SourceOptions())
	if err != nil {
		return nil, fmt.Errorf("opening data location: %w", err)
	}
	ds, err := source.LoadTables(ctx, src, cfg.Data.Files)
	if err != nil {
		return nil, fmt.Errorf("loading data tables from %s: %w", src.Location(), err)
	}
	return ds, nil
}

// seaRouter returns the great-circle router over the port gazetteer, cached
// unless caching is off and scaled by calculation.sea_detour_factor. Without
// ports there is no router.
func (a *app) seaRouter(ctx context.Context, ports []geo.Port, noCache bool) (engine.SeaRouter, error) {
	if len(ports) == 0 {
		return nil, nil //nolint:nilnil // No gazetteer means no router.
	}
	gazetteer, err := geo.NewGazetteer(ports)
	if err != nil {
		return nil, fmt.Errorf("building port gazetteer: %w", err)
	}

	var router engine.SeaRouter = geo.NewGreatCircleRouter(gazetteer)
	if !noCache && a.cfg.Cache.Enabled {
		fileStore, cacheErr := cache.NewFileStore(a.cfg.Cache.Directory, true, a.cfg.Cache.TTLSeconds)
		if cacheErr != nil {
			log := logging.FromContext(ctx)
			log.Warn().Ctx(ctx).Str("component", "cli").Err(cacheErr).Msg("sea-route cache unavailable")
		} else {
			router = geo.NewCachedRouter(router, fileStore)
		}
	}

	detour := a.cfg.Calculation.EffectiveSeaDetour()
	if detour == 1 {
		return router, nil
	}
	detoured, err := geo.NewDetourRouter(router, detour)
	if err != nil {
		return nil, fmt.Errorf("configuring sea router: %w", err)
	}
	return detoured, nil
}

func saveRun(
	ctx context.Context,
	cfg *config.Config,
	opts engine.Options,
	inventory string,
	res engine.BatchResult,
	now time.Time,
) (string, error) {
	st, err := store.Open(ctx, cfg.StoreSettings())
	if err != nil {
		return "", fmt.Errorf("opening run store: %w", err)
	}
	run := store.NewRun(opts, inventory, res, now)
	saveErr := st.SaveRun(ctx, run)
	closeErr := st.Close()
	if err := errors.Join(saveErr, closeErr); err != nil {
		return "", fmt.Errorf("saving run: %w", err)
	}
	return run.ID, nil
}
