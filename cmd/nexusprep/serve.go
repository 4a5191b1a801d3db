package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"nexusprep/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the validation HTTP API",
		Long:  "Serve the validation API, the websocket progress stream, health checks and Prometheus metrics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				opts.cfg.Server.Port = port
			}
			a, err := app.NewApplication(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			pterm.Info.Printfln("Listening on :%d (learning store: %s)", opts.cfg.Server.Port, opts.cfg.Learning.Driver)
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on; overrides configuration")
	return cmd
}
