// Package cli implements the prodimport command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/prodimport/internal/config"
	"github.com/JonMunkholm/prodimport/internal/core"
	"github.com/JonMunkholm/prodimport/internal/logging"
)

const rootLong = `prodimport loads a product CSV file into the produtos table.

With no arguments it creates the table if it does not exist, then imports
every row of IMPORT_FILE (default products.csv) in a single transaction:
either the whole file is committed or nothing is.

Configuration is read from the environment and an optional .env file:
  DATABASE_URL   PostgreSQL connection string (required)
  IMPORT_FILE    CSV file to import
  IMPORT_TIMEOUT upper bound for the whole run, e.g. 5m (default none)
  LOG_LEVEL      debug, info, warn, error
  LOG_FORMAT     text or json

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed
  12 - Invalid input file (bad year, missing column, malformed CSV)`

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "prodimport",
		Short:         "Import a product CSV into PostgreSQL",
		Long:          rootLong,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runImport,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	root.AddCommand(newCheckCmd(), newDropCmd(), newVersionCmd())
	return root
}

// Execute runs the command line with args and reports a failure on stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		reportError(stderr, err)
	}
	return err
}

func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if core.IsUserFacing(err) {
		fmt.Fprintln(w, core.FormatUserError(err))
	}
}

// usageArgs marks argument validation failures as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}
		return nil
	}
}

// loadConfig loads the full configuration and applies its logging settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())
	return cfg, nil
}

// withTimeout bounds ctx by d unless d is zero.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
