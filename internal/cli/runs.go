package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/medcarbon/internal/config"
	"github.com/rshade/medcarbon/internal/engine"
	"github.com/rshade/medcarbon/internal/greenops"
	"github.com/rshade/medcarbon/internal/store"
)

const defaultRunsLimit = 20

// RunsParams holds the flags shared by the runs subcommands.
type RunsParams struct {
	Output string
	Unit   string
	Limit  int
}

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "runs", Short: "Browse archived calculation runs"}
	cmd.AddCommand(newRunsListCmd(a), newRunsShowCmd(a), newRunsHistoryCmd(a))
	return cmd
}

func addRunsFlags(cmd *cobra.Command, params *RunsParams) {
	cmd.Flags().StringVarP(&params.Output, "output", "o", "", "output format (table, json, ndjson)")
	cmd.Flags().StringVar(&params.Unit, "unit", "", "display unit for table output (g, kg, t, lb)")
}

func (p RunsParams) withDefaults(cfg *config.Config) (RunsParams, greenops.Unit, error) {
	if p.Output == "" {
		p.Output = cfg.Output.Format
	}
	if p.Unit == "" {
		p.Unit = cfg.Output.Unit
	}
	if err := validateOutputFormat(p.Output); err != nil {
		return p, "", err
	}
	unit, err := greenops.ParseUnit(p.Unit)
	return p, unit, err
}

// withStore opens the configured store for the duration of fn.
func withStore(ctx context.Context, cfg *config.Config, fn func(store.Store) error) error {
	st, err := store.Open(ctx, cfg.StoreSettings())
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	return errors.Join(fn(st), st.Close())
}

func newRunsListCmd(a *app) *cobra.Command {
	var params RunsParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeRunsList(cmd, a, params)
		},
	}
	addRunsFlags(cmd, &params)
	cmd.Flags().IntVar(&params.Limit, "limit", defaultRunsLimit, "maximum runs to list (0 = all)")
	return cmd
}

func executeRunsList(cmd *cobra.Command, a *app, params RunsParams) error {
	params, unit, err := params.withDefaults(a.cfg)
	if err != nil {
		return err
	}
	return withStore(cmd.Context(), a.cfg, func(st store.Store) error {
		runs, err := st.ListRuns(cmd.Context(), params.Limit)
		if err != nil {
			return err
		}
		if runs == nil {
			runs = []store.RunSummary{}
		}
		switch params.Output {
		case config.FormatJSON:
			return renderJSON(cmd.OutOrStdout(), runs)
		case config.FormatNDJSON:
			return renderNDJSON(cmd.OutOrStdout(), runs)
		default:
			return renderRunList(cmd.OutOrStdout(), runs, renderOptions{Unit: unit, Precision: a.cfg.Output.Precision})
		}
	})
}

func renderRunList(w io.Writer, runs []store.RunSummary, opts renderOptions) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs archived yet. Use 'medcarbon calculate --save' to archive one.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)
	if _, err := fmt.Fprintf(tw, "ID\tCREATED\tYEAR\tDESTINATION\tINVENTORY\tPRODUCTS\tWARNINGS\tTOTAL\n"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "--\t-------\t----\t-----------\t---------\t--------\t--------\t-----\n"); err != nil {
		return fmt.Errorf("writing separator: %w", err)
	}
	for _, r := range runs {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.Year, r.Destination, r.Inventory,
			r.ProductCount, r.WarningCount, formatValue(r.TotalKgCO2e, opts),
		); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	_, err := fmt.Fprintf(w, "\nValues in %s per use.\n", opts.Unit.Label())
	return err
}

func newRunsShowCmd(a *app) *cobra.Command {
	var params RunsParams

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show the products and totals of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRunsShow(cmd, a, args[0], params)
		},
	}
	addRunsFlags(cmd, &params)
	return cmd
}

func executeRunsShow(cmd *cobra.Command, a *app, id string, params RunsParams) error {
	params, unit, err := params.withDefaults(a.cfg)
	if err != nil {
		return err
	}
	return withStore(cmd.Context(), a.cfg, func(st store.Store) error {
		run, err := st.GetRun(cmd.Context(), id)
		if err != nil {
			return err
		}
		rep := newReport(engine.BatchResult{Products: run.Products, Aggregate: run.Aggregate}, reportMetadata{
			GeneratedAt: run.CreatedAt,
			RunID:       run.ID,
			Inventory:   run.Inventory,
			Year:        run.Year,
			Destination: run.Destination,
			DeconUnit:   run.DeconUnit,
		})
		return renderReport(cmd.OutOrStdout(), params.Output, rep, renderOptions{
			Unit:      unit,
			Precision: a.cfg.Output.Precision,
		})
	})
}

func newRunsHistoryCmd(a *app) *cobra.Command {
	var params RunsParams

	cmd := &cobra.Command{
		Use:   "history PRODUCT",
		Short: "Show a product's breakdown across archived runs, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRunsHistory(cmd, a, args[0], params)
		},
	}
	addRunsFlags(cmd, &params)
	return cmd
}

func executeRunsHistory(cmd *cobra.Command, a *app, product string, params RunsParams) error {
	params, unit, err := params.withDefaults(a.cfg)
	if err != nil {
		return err
	}
	return withStore(cmd.Context(), a.cfg, func(st store.Store) error {
		history, err := st.ProductHistory(cmd.Context(), product)
		if err != nil {
			return err
		}
		if history == nil {
			history = []store.ProductEmission{}
		}
		switch params.Output {
		case config.FormatJSON:
			return renderJSON(cmd.OutOrStdout(), history)
		case config.FormatNDJSON:
			return renderNDJSON(cmd.OutOrStdout(), history)
		default:
			return renderHistory(cmd.OutOrStdout(), product, history,
				renderOptions{Unit: unit, Precision: a.cfg.Output.Precision})
		}
	})
}

func renderHistory(w io.Writer, product string, history []store.ProductEmission, opts renderOptions) error {
	if len(history) == 0 {
		_, err := fmt.Fprintf(w, "No archived runs include %q.\n", product)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)
	if _, err := fmt.Fprintf(tw,
		"RUN\tCREATED\tMANUFACTURE\tTRANSPORT\tUSE\tREPROCESSING\tDISPOSAL\tTOTAL\n"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := fmt.Fprintf(tw,
		"---\t-------\t-----------\t---------\t---\t------------\t--------\t-----\n"); err != nil {
		return fmt.Errorf("writing separator: %w", err)
	}
	for _, h := range history {
		b := h.Breakdown
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			h.RunID, h.CreatedAt.Format(time.RFC3339),
			formatValue(b.Manufacture, opts), formatValue(b.Transport, opts), formatValue(b.Use, opts),
			formatValue(b.Reprocessing, opts), formatValue(b.Disposal, opts), formatValue(b.Total, opts),
		); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	_, err := fmt.Fprintf(w, "\nValues in %s per use.\n", opts.Unit.Label())
	return err
}
