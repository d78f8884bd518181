package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/arbitrageur/internal/config"
	"github.com/sawpanic/arbitrageur/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func newProbeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Run every configured connector once and print ticker/funding counts and circuit states",
		Long:  "Useful for validating venue credentials and connectivity without running the full detection loop.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults are used if omitted)")
	return cmd
}

func runProbe(configPath string) error {
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	application.scheduler.RunOnce(ctx)

	view := application.snapshot.View()
	fmt.Printf("tickers: %d, funding: %d\n", len(view.AllTickers()), len(view.AllFunding()))
	for _, name := range application.venueNames {
		fmt.Printf("venue %-12s circuit=%s\n", name, application.circuits.State(name).String())
	}
	return nil
}
