package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rshade/medcarbon/internal/logging"
)

// ResolveProjectDir finds the project-local .medcarbon directory. It checks,
// in order:
//  1. flagValue (--project-dir)
//  2. MEDCARBON_PROJECT_DIR
//  3. a .medcarbon directory holding config.yaml in startDir or any parent
//
// The global home directory never counts as a project. The result is
// absolute, or empty when no project is found. Nothing is created.
func ResolveProjectDir(ctx context.Context, flagValue, startDir string) string {
	if flagValue != "" {
		return toAbsProjectDir(ctx, flagValue)
	}
	if envDir := os.Getenv("MEDCARBON_PROJECT_DIR"); envDir != "" {
		return toAbsProjectDir(ctx, envDir)
	}
	return findProjectDir(ctx, startDir)
}

func findProjectDir(ctx context.Context, startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	home, _ := filepath.Abs(Dir())

	for {
		candidate := filepath.Join(dir, dirName)
		if candidate != home {
			if _, err := os.Stat(filepath.Join(candidate, configFileName)); err == nil {
				logger := logging.FromContext(ctx)
				logger.Debug().
					Str("component", "config").
					Str("project_dir", candidate).
					Msg("project config found")
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// toAbsProjectDir makes dir absolute and appends ".medcarbon" unless it is
// already the .medcarbon directory.
func toAbsProjectDir(ctx context.Context, dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().
			Str("component", "config").
			Err(err).
			Str("dir", dir).
			Msg("failed to resolve absolute path for project directory")
		abs = dir
	}
	if filepath.Base(abs) == dirName {
		return abs
	}
	return filepath.Join(abs, dirName)
}
