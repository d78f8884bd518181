package main

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sawpanic/arbitrageur/internal/config"
	"github.com/sawpanic/arbitrageur/internal/metrics"
	"github.com/sawpanic/arbitrageur/internal/venue"
)

func TestBuildAppWiresEveryDefaultVenue(t *testing.T) {
	cfg := config.Default()
	reg := metrics.NewRegistry(prometheus.NewRegistry())

	a, err := buildApp(cfg, reg)
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	if len(a.venueNames) == 0 {
		t.Fatal("buildApp() registered zero venues")
	}
	if a.fxRes == nil {
		t.Error("buildApp() left fxRes nil")
	}
	if a.walletOrc == nil {
		t.Error("buildApp() left walletOrc nil")
	}
}

func TestVenueEnabledDefaultsToTrueWhenAbsentFromConfig(t *testing.T) {
	cfg := config.Default()
	vc, ok := venueEnabled(cfg, "some-unconfigured-venue")
	if !ok {
		t.Error("venueEnabled() = false for a venue absent from config, want true (default enabled)")
	}
	if vc.Enabled {
		t.Error("venueEnabled() returned a zero-value VenueConfig with Enabled=true")
	}
}

func TestVenueEnabledHonorsExplicitDisable(t *testing.T) {
	cfg := config.Default()
	cfg.Venues = map[string]config.VenueConfig{"binance": {Enabled: false}}
	_, ok := venueEnabled(cfg, "binance")
	if ok {
		t.Error("venueEnabled() = true for a venue explicitly disabled in config")
	}
}

func TestSymbolsForFallsBackWhenVenueConfigHasNone(t *testing.T) {
	got := symbolsFor(config.VenueConfig{}, []string{"BTCUSDT", "ETHUSDT"})
	if len(got) != 2 {
		t.Errorf("symbolsFor() = %v, want the fallback list", got)
	}
}

func TestSymbolsForPrefersVenueConfigOverride(t *testing.T) {
	got := symbolsFor(config.VenueConfig{Symbols: []string{"SOLUSDT"}}, []string{"BTCUSDT"})
	if len(got) != 1 || got[0] != "SOLUSDT" {
		t.Errorf("symbolsFor() = %v, want the venue-specific override", got)
	}
}

func TestSplitBaseQuoteStripsKnownQuote(t *testing.T) {
	base, quote := splitBaseQuote("BTCUSDT")
	if base != "BTC" || quote != "USDT" {
		t.Errorf("splitBaseQuote(BTCUSDT) = (%s, %s), want (BTC, USDT)", base, quote)
	}
}

func TestDashifyProducesDashDelimitedForm(t *testing.T) {
	got := dashify([]string{"BTCUSDT"})
	if len(got) != 1 || got[0] != "BTC-USDT" {
		t.Errorf("dashify() = %v, want [BTC-USDT]", got)
	}
}

func TestPerpifyAppendsSwapSuffix(t *testing.T) {
	got := perpify([]string{"BTCUSDT"})
	if len(got) != 1 || got[0] != "BTC-USDT-SWAP" {
		t.Errorf("perpify() = %v, want [BTC-USDT-SWAP]", got)
	}
}

func TestUnderscorifyProducesUnderscoreDelimitedForm(t *testing.T) {
	got := underscorify([]string{"BTCUSDT"})
	if len(got) != 1 || got[0] != "BTC_USDT" {
		t.Errorf("underscorify() = %v, want [BTC_USDT]", got)
	}
}

func TestBasesExtractsJustTheBaseAsset(t *testing.T) {
	got := bases([]string{"BTCUSDT", "ETHUSDT"})
	if len(got) != 2 || got[0] != "BTC" || got[1] != "ETH" {
		t.Errorf("bases() = %v, want [BTC ETH]", got)
	}
}

func TestClassifyMapsSentinelErrorsToLabels(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{venue.ErrRateLimited, "rate_limited"},
		{venue.ErrNetworkTransient, "network"},
		{venue.ErrDecodeSchema, "decode"},
		{errors.New("boom"), "other"},
	}
	for _, c := range cases {
		if got := classify(c.err); got != c.want {
			t.Errorf("classify(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}
