package main

import (
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/shahar-caura/deskpilot/internal/events"
	"github.com/shahar-caura/deskpilot/internal/server"
)

func newServeCmd(logger *slog.Logger, opts *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			bus := events.NewBus(logger)
			defer bus.Close()

			a, err := newApp(ctx, opts, logger, bus)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Templates.Watch && a.cfg.Templates.Path != "" {
				go a.templates.Watch(ctx, a.cfg.Templates.Path, a.logger)
			}

			if !cmd.Flags().Changed("port") {
				port = a.cfg.Server.Port
			}
			return server.New(port, a.pipeline, a.templates, bus, version, a.logger).Run(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port (overrides server.port)")
	return cmd
}
