// Package commands implements the labctl subcommands.
package commands

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/medlab/internal/app"
	"github.com/zatekoja/medlab/internal/infrastructure/observability"
	"github.com/zatekoja/medlab/pkg/config"
)

// Opener builds the services a command runs against
type Opener func(ctx context.Context, configFile string) (*app.Lab, error)

type rootOptions struct {
	configFile string
	verbose    bool
	open       Opener
}

// NewRootCommand returns labctl wired to the configured store
func NewRootCommand() *cobra.Command {
	return newRootCommand(openLab)
}

func newRootCommand(open Opener) *cobra.Command {
	opts := &rootOptions{open: open}

	rootCmd := &cobra.Command{
		Use:   "labctl",
		Short: "Manage a medical laboratory ledger",
		Long: `labctl reads and maintains the laboratory store used by the medlab server.

Commands:
  export    Write the whole store as an export file
  import    Replace the store with an export file
  report    Generate a patient, financial, tests or summary report
  stats     Show the dashboard statistics
  backup    Create, list and restore backups
  clear     Delete every record
  seed      Add a starter test catalog`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := zerolog.WarnLevel
			if opts.verbose {
				level = zerolog.DebugLevel
			}
			log.Logger = observability.NewLogger(cmd.ErrOrStderr(), observability.LoggerOptions{Console: true, Level: level})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (environment variables override it)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(
		newExportCommand(opts),
		newImportCommand(opts),
		newClearCommand(opts),
		newReportCommand(opts),
		newStatsCommand(opts),
		newBackupCommand(opts),
		newSeedCommand(opts),
	)
	return rootCmd
}

// withLab opens the store, runs fn and closes the store again
func (o *rootOptions) withLab(cmd *cobra.Command, fn func(ctx context.Context, lab *app.Lab) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	lab, err := o.open(ctx, o.configFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := lab.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}()
	return fn(ctx, lab)
}

func openLab(ctx context.Context, configFile string) (*app.Lab, error) {
	if configFile == "" {
		if env := os.Getenv("MEDLAB_CONFIG"); env != "" {
			configFile = env
		}
	}
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, nil)
}
