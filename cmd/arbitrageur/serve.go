package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/arbitrageur/internal/config"
	"github.com/sawpanic/arbitrageur/internal/httpapi"
	"github.com/sawpanic/arbitrageur/internal/metrics"
)

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the detector and serve its pull/push HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults are used if omitted)")
	return cmd
}

func runServe(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	promReg := prometheus.NewRegistry()
	metricsRegistry := metrics.NewRegistry(promReg)

	application, err := buildApp(cfg, metricsRegistry)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go application.run(ctx)

	server := httpapi.NewServer(
		httpapi.DefaultServerConfig(cfg.HTTPPort),
		application.hub,
		application.circuits,
		application.venueNames,
		promReg,
	)

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
