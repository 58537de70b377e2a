package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/kinetic/pkg/devserver"
)

func serveCmd(g *globals) *cobra.Command {
	var (
		port int
		host string
		tick time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live preview of the demo app",
		Long: `Mount the demo app and serve it with live updates.

Every scheduler flush is pushed to connected browsers over a websocket.
Actions run with POST /actions/{name}; Prometheus metrics are at /metrics
when metrics.enabled is set.

Examples:
  kinetic serve
  kinetic serve --port=8080
  kinetic serve --host=0.0.0.0 --tick=250ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Dev.Port = port
			}
			if host != "" {
				cfg.Dev.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := cfg.Logger()
			cfg.InitMetrics()

			s := newSession(cfg, logger, false, tick)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := s.app.Mount(ctx, s.doc.Body); err != nil {
				return err
			}

			srv := devserver.New(s.loop, s.scheduler, s.doc,
				devserver.WithLogger(logger),
				devserver.WithTitle(s.app.Title()),
			)
			for name, fn := range s.app.Actions() {
				fn := fn
				srv.Handle(name, func(context.Context) error { return fn() })
			}

			printBanner()
			success("Serving %s", cfg.DevURL())
			info("Actions: %v", s.app.ActionNames())
			if cfg.Metrics.Enabled {
				info("Metrics: %s/metrics", cfg.DevURL())
			}

			err = srv.ListenAndServe(ctx, cfg.DevAddress())
			info("Shutting down")
			return err
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().DurationVar(&tick, "tick", time.Second, "Clock interval")

	return cmd
}
