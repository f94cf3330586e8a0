package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jonathan/readiness-quiz/internal/config"
	"github.com/jonathan/readiness-quiz/internal/server"
	"github.com/jonathan/readiness-quiz/internal/server/ratelimit"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  `Start an HTTP server that exposes the quiz funnel: sessions, narrative, lead and gift endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			tokenCfg, err := config.LoadSessionTokenConfig(cfg.StoreTTL())
			if err != nil {
				return fmt.Errorf("failed to create session token config: %w", err)
			}

			a, err := buildApp(cmd.Context(), cfg, logger, prometheus.DefaultRegisterer)
			if err != nil {
				return fmt.Errorf("failed to create funnel: %w", err)
			}

			srv, err := server.New(server.Config{
				Port:         cfg.Port,
				WriteTimeout: cfg.LongBudget() + 30*time.Second,
			}, server.Deps{
				Funnel:     a.funnel,
				Requestor:  a.requestor,
				Tokens:     server.NewSessionTokenService(tokenCfg),
				Limiter:    ratelimit.NewLimiter(ratelimit.LoadConfig()),
				Metrics:    a.metrics,
				Logger:     logger.Named("http"),
				OnShutdown: []func(){a.Close},
			})
			if err != nil {
				a.Close()
				return fmt.Errorf("failed to create server: %w", err)
			}

			return srv.Start()
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on (overrides PORT)")
	return cmd
}
