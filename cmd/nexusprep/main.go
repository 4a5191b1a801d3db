// Command nexusprep validates sales and payroll exports for nexus analysis.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"nexusprep/internal/config"
	"nexusprep/internal/infrastructure"
	"nexusprep/pkg/contracts"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	logLevel string
	noColor  bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "nexusprep",
		Short: "Validate sales and payroll exports before nexus analysis",
		Long: `nexusprep maps spreadsheet columns to the nexus taxonomy, normalizes state
values, scores data quality and reports which analysis modules can run.

Examples:
  nexusprep validate sales.csv payroll.xlsx
  nexusprep validate --firm acme --format json exports/
  nexusprep validate --export out/ sales.csv
  nexusprep serve`,
		Version:       contracts.GetFullVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initialize(cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides configuration")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	return cmd
}

func (o *rootOptions) initialize(cmd *cobra.Command) error {
	if o.noColor {
		pterm.DisableStyling()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	switch {
	case o.logLevel != "":
		cfg.Logging.Level = o.logLevel
	case cmd.Name() == "validate":
		// Keep the report readable; pipeline events are still logged as warnings
		cfg.Logging.Level = "warn"
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	o.cfg = cfg
	o.logger = logger
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
