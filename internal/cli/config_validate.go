package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/medcarbon/internal/config"
)

// newConfigValidateCmd creates the config validate command.
func newConfigValidateCmd(a *app) *cobra.Command {
	var (
		verbose   bool
		checkData bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration: the global file, the project
overlay and MEDCARBON_* environment variables.

With --check-data the data tables are loaded and indexed as well, which
catches missing files, malformed rows and duplicate factor records.`,
		Example: `  # Validate current configuration
  medcarbon config validate

  # Validate and load every data table
  medcarbon config validate --check-data --verbose`,
		Annotations: configOptional(),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, a, verbose, checkData)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")
	cmd.Flags().BoolVar(&checkData, "check-data", false, "also load and index the data tables")

	return cmd
}

func runConfigValidate(cmd *cobra.Command, a *app, verbose, checkData bool) error {
	if a.loadErr != nil {
		return fmt.Errorf("configuration validation failed: %w", a.loadErr)
	}
	cmd.Printf("Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, a)
	}

	if !checkData {
		return nil
	}
	ds, err := loadDataset(cmd.Context(), a.cfg, a.cfg.Data.Location)
	if err != nil {
		return err
	}
	t := ds.Tables
	cmd.Printf("Data tables are valid\n")
	if verbose {
		cmd.Printf("  Factor records: %d (%d components)\n", t.Factors.Len(), len(t.Factors.Components()))
		cmd.Printf("  Additional factor records: %d\n", t.Additional.Len())
		cmd.Printf("  Countries: %d\n", t.Regions.Len())
		cmd.Printf("  Land distances: %d\n", t.LandDistances.Len())
		cmd.Printf("  Sea distances: %d\n", t.SeaDistances.Len())
		cmd.Printf("  Decon units: %v\n", t.DeconUnits.Names())
		cmd.Printf("  Ports: %d\n", len(ds.Ports))
	}
	if missing := t.Additional.Missing(); len(missing) > 0 {
		cmd.Printf("Missing additional factors (affected stages will report warnings):\n")
		for _, m := range missing {
			cmd.Printf("  - %s (%s)\n", m.Name, m.Unit)
		}
	}
	return nil
}

// printVerboseDetails prints the settings most often checked.
func printVerboseDetails(cmd *cobra.Command, a *app) {
	cfg := a.cfg
	cmd.Println()
	cmd.Println("Configuration details:")
	if a.projectDir != "" {
		cmd.Printf("  Project directory: %s\n", a.projectDir)
	}
	cmd.Printf("  Data location: %s\n", cfg.Data.Location)
	cmd.Printf("  Destination: %s\n", cfg.Calculation.Destination)
	if cfg.Calculation.Year == 0 {
		cmd.Printf("  Year: current (%d)\n", cfg.Calculation.EffectiveYear(a.now()))
	} else {
		cmd.Printf("  Year: %d\n", cfg.Calculation.Year)
	}
	cmd.Printf("  Decon unit: %s\n", cfg.Calculation.DeconUnit)
	cmd.Printf("  Store: %s\n", cfg.Store.Driver)
	cmd.Printf("  Cache: enabled=%t dir=%s ttl=%ds\n", cfg.Cache.Enabled, cfg.Cache.Directory, cfg.Cache.TTLSeconds)
	cmd.Printf("  Output format: %s\n", cfg.Output.Format)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.cfg.ToYAML()
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "env",
		Short:       "List the environment variables that override configuration",
		Annotations: configOptional(),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			help, err := config.EnvHelp()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), help)
			return err
		},
	}
}
