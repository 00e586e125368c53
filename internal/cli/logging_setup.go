package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/medcarbon/internal/logging"
)

// setupLogging builds the logger from config and the --debug flag and stores
// it in the command context.
func (a *app) setupLogging(cmd *cobra.Command) {
	settings := a.cfg.LoggingSettings()
	settings.Output = cmd.ErrOrStderr()

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		settings.Level = zerolog.DebugLevel.String()
		settings.Format = logging.FormatConsole
		settings.File = ""
	}

	res, err := logging.NewLogger(settings)
	a.logs = res
	logger := logging.ComponentLogger(res.Logger, "cli")
	if err != nil {
		logger.Warn().Err(err).Msg("log file unavailable, logging to stderr only")
	}
	if a.loadErr != nil {
		logger.Debug().Err(a.loadErr).Msg("configuration invalid, using defaults")
	}

	ctx := res.Logger.WithContext(cmd.Context())
	cmd.SetContext(ctx)

	logger.Debug().
		Ctx(ctx).
		Str("command", cmd.CommandPath()).
		Str("project_dir", a.projectDir).
		Msg("command started")
}
