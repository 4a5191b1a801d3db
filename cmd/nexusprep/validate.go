package main

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"nexusprep/internal/app"
	"nexusprep/internal/exporter"
	"nexusprep/internal/infrastructure"
	"nexusprep/internal/learning"
	"nexusprep/internal/operations"
	"nexusprep/internal/services"
)

var errNotReady = errors.New("data is not ready for analysis")

type validateOptions struct {
	firm      string
	format    string
	exportDir string
	strict    bool
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate [flags] FILE|DIR...",
		Short: "Validate CSV and Excel exports",
		Long: `Run the validation pipeline over the given files. Directories are expanded to
the CSV and Excel files they contain. Files are validated together, in order.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "table" && opts.format != "json" {
				return fmt.Errorf("unsupported format %q (use table or json)", opts.format)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, root, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.firm, "firm", "", "Firm whose learned taxonomy is applied and extended")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "Output format: table or json")
	cmd.Flags().StringVar(&opts.exportDir, "export", "", "Write normalized CSV files for completed inputs to this directory")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit non-zero when the data is not ready for analysis")
	return cmd
}

func runValidate(cmd *cobra.Command, root *rootOptions, opts *validateOptions, args []string) error {
	ctx := infrastructure.EnsureTraceID(cmd.Context())
	cfg := root.cfg

	store, err := app.OpenStore(ctx, cfg.Learning)
	if err != nil {
		return fmt.Errorf("failed to open learning store: %w", err)
	}
	defer store.Close()

	sink := learning.NewSink(store, cfg.Validation.LearningThreshold, root.logger)
	manager := operations.NewManager(operations.ConfigFrom(cfg), sink, root.logger)
	svc, err := services.NewValidationService(manager, sink, services.Options{
		CacheSize:      1,
		HeaderScanRows: cfg.Validation.HeaderScanRows,
		MaxFileBytes:   cfg.Validation.MaxFileBytes,
	}, root.logger)
	if err != nil {
		return err
	}

	result, datasets, err := svc.ValidatePaths(ctx, opts.firm, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		if err := renderJSON(out, result); err != nil {
			return err
		}
	} else {
		renderReport(out, result)
	}

	if opts.exportDir != "" {
		written, err := exporter.NewNormalizedExporter(opts.exportDir, root.logger).ExportResult(datasets, result)
		if err != nil {
			return err
		}
		if opts.format == "table" {
			for _, p := range written {
				fmt.Fprintln(out, pterm.Success.Sprintf("Exported %s", p))
			}
		}
	}

	if opts.strict && !result.Summary.ReadyForAnalysis {
		return errNotReady
	}
	return nil
}
