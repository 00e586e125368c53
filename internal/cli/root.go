// Package cli implements the medcarbon command line: lifecycle calculations
// over product inventories, factor investigation, the run archive and
// configuration management.
package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/medcarbon/internal/config"
	"github.com/rshade/medcarbon/internal/logging"
)

// annotationConfigOptional marks commands that still run when the
// configuration cannot be loaded, so the problem can be inspected or fixed.
const annotationConfigOptional = "medcarbon/config-optional"

// app is the state shared by every command once PersistentPreRunE has run.
type app struct {
	cfg        *config.Config
	loadErr    error
	logs       *logging.Result
	projectDir string
	now        func() time.Time
}

// NewRootCmd creates the root Cobra command for the medcarbon CLI.
func NewRootCmd(ver string) *cobra.Command {
	a := &app{now: time.Now}

	cmd := &cobra.Command{
		Use:           "medcarbon",
		Short:         "Lifecycle carbon footprint of healthcare products",
		Long:          "medcarbon: Calculate manufacture, transport, use, reprocessing and disposal emissions of healthcare products",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.logs.Close()
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "config file (default ~/.medcarbon/config.yaml)")
	cmd.PersistentFlags().String("project-dir", "", "project directory holding .medcarbon/config.yaml")
	cmd.AddCommand(
		newCalculateCmd(a), newFactorCmd(a), newRunsCmd(a),
		newConfigCmd(a), newCacheCmd(a),
	)

	return cmd
}

const rootCmdExample = `  # Calculate an inventory against the configured data tables
  medcarbon calculate products.csv

  # Use a different destination and factor year, and archive the run
  medcarbon calculate products.csv --destination "leeds (united kingdom)" --year 2023 --save

  # Read tables from S3 and print JSON
  medcarbon calculate products.csv --data s3://factors/2024 --output json

  # Show how a factor was resolved
  medcarbon factor lookup steel "shanghai (china)" --year 2022

  # List archived runs
  medcarbon runs list

  # Initialize configuration
  medcarbon config init`

// setup loads the configuration and installs the logger in the command context.
func (a *app) setup(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	configPath, _ := cmd.Flags().GetString("config")
	projectFlag, _ := cmd.Flags().GetString("project-dir")
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	a.projectDir = config.ResolveProjectDir(ctx, projectFlag, wd)

	cfg, err := config.Load(ctx, config.LoadOptions{Path: configPath, ProjectDir: a.projectDir})
	if err != nil {
		if cmd.Annotations[annotationConfigOptional] == "" {
			return err
		}
		a.loadErr = err
		cfg = config.New()
	}
	a.cfg = cfg

	cmd.SetContext(ctx)
	a.setupLogging(cmd)
	return nil
}

func configOptional() map[string]string {
	return map[string]string{annotationConfigOptional: "true"}
}
