// Command arbitrageur runs the real-time cross-venue arbitrage opportunity
// detector described in SPEC_FULL.md, grounded on cmd/cryptorun/main.go's
// cobra root-command-plus-subcommands layout.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "arbitrageur"
	version = "v0.1.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Real-time cross-venue cryptocurrency arbitrage opportunity detector",
		Version: version,
		Long: `arbitrageur continuously polls spot, perpetual and FX venues, fuses
their state into one consistent snapshot, and runs five concurrent
opportunity detectors (spot cross, kimchi premium, funding arb, spot/perp
basis, perp/perp spread) on every detection tick, serving results over a
read-only HTTP and WebSocket API.`,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newProbeCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("arbitrageur exited with error")
	}
}
