package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/medcarbon/internal/config"
)

const projectConfigDir = ".medcarbon"

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(
		newConfigInitCmd(a), newConfigShowCmd(a),
		newConfigValidateCmd(a), newConfigEnvCmd(),
	)
	return cmd
}

// newConfigInitCmd creates the config init command. Without --project it
// writes the global ~/.medcarbon/config.yaml (or the --config path); with
// --project it writes .medcarbon/config.yaml and a .gitignore in the project.
func newConfigInitCmd(a *app) *cobra.Command {
	var (
		force   bool
		project bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values.

With --project, creates project-local configuration at ./.medcarbon/config.yaml
(or under --project-dir) with a .gitignore that keeps caches, databases and
logs out of version control.`,
		Example: `  # Create global configuration
  medcarbon config init

  # Create project-local configuration
  medcarbon config init --project

  # Create configuration, overwriting existing
  medcarbon config init --force`,
		Annotations: configOptional(),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if project {
				return initProjectConfig(cmd, a.projectDir, force)
			}
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.DefaultPath()
			}
			return initGlobalConfig(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().BoolVar(&project, "project", false, "initialize project-local configuration")

	return cmd
}

// initProjectConfig creates projectDir/config.yaml with a .gitignore. An
// empty projectDir means .medcarbon in the working directory.
func initProjectConfig(cmd *cobra.Command, projectDir string, force bool) error {
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
		projectDir = filepath.Join(wd, projectConfigDir)
	}
	configPath := filepath.Join(projectDir, "config.yaml")

	if err := checkOverwrite(configPath, force); err != nil {
		return err
	}

	if err := config.New().Save(configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	created, err := config.EnsureGitignore(projectDir)
	if err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}

	cmd.Printf("Configuration initialized at %s\n", configPath)
	if created {
		cmd.Printf("Created .gitignore to keep local artifacts out of version control\n")
	}
	return nil
}

// initGlobalConfig creates the global config at path.
func initGlobalConfig(cmd *cobra.Command, path string, force bool) error {
	if err := checkOverwrite(path, force); err != nil {
		return err
	}
	if err := config.New().Save(path); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Configuration initialized successfully\n")
	cmd.Printf("Configuration file: %s\n", path)
	return nil
}

func checkOverwrite(path string, force bool) error {
	if force {
		return nil
	}
	_, err := os.Stat(path)
	if err == nil {
		return errors.New("configuration file already exists, use --force to overwrite")
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access config path %s: %w", path, err)
	}
	return nil
}
