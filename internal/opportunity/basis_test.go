package opportunity

import (
	"testing"
	"time"

	"github.com/sawpanic/arbitrageur/internal/market"
)

func TestDetectSpotPerpBasisEmitsAboveThreshold(t *testing.T) {
	now := time.Now()
	spotInst := market.NewSpotInstrument("BTC", "USDT")
	perpInst := market.NewPerpInstrument("BTC", "USDT")
	view := buildView(func(s *market.Snapshot) {
		s.PublishTicker(market.Ticker{Venue: "binance", Instrument: spotInst, Last: 50000, Timestamp: now})
		s.PublishTicker(market.Ticker{Venue: "okx", Instrument: perpInst, Last: 50100, Timestamp: now})
	})
	gates := Gates{MaxTickerAge: time.Minute, MinBasisBps: 10}

	got := DetectSpotPerpBasis(view, gates, nil, now)
	if len(got) != 1 {
		t.Fatalf("DetectSpotPerpBasis() len = %d, want 1", len(got))
	}
	if got[0].SpreadBps <= 0 {
		t.Errorf("SpreadBps = %v, want positive", got[0].SpreadBps)
	}
}

func TestDetectSpotPerpBasisSkipsBelowThreshold(t *testing.T) {
	now := time.Now()
	spotInst := market.NewSpotInstrument("BTC", "USDT")
	perpInst := market.NewPerpInstrument("BTC", "USDT")
	view := buildView(func(s *market.Snapshot) {
		s.PublishTicker(market.Ticker{Venue: "binance", Instrument: spotInst, Last: 50000, Timestamp: now})
		s.PublishTicker(market.Ticker{Venue: "okx", Instrument: perpInst, Last: 50002, Timestamp: now})
	})
	gates := Gates{MaxTickerAge: time.Minute, MinBasisBps: 10}

	got := DetectSpotPerpBasis(view, gates, nil, now)
	if len(got) != 0 {
		t.Errorf("DetectSpotPerpBasis() len = %d, want 0 (4bps basis below 10bps threshold)", len(got))
	}
}

func TestDetectSpotPerpBasisNetsOutFundingCost(t *testing.T) {
	now := time.Now()
	spotInst := market.NewSpotInstrument("BTC", "USDT")
	perpInst := market.NewPerpInstrument("BTC", "USDT")
	view := buildView(func(s *market.Snapshot) {
		s.PublishTicker(market.Ticker{Venue: "binance", Instrument: spotInst, Last: 50000, Timestamp: now})
		s.PublishTicker(market.Ticker{Venue: "okx", Instrument: perpInst, Last: 50100, Timestamp: now})
	})
	gates := Gates{MaxTickerAge: time.Minute, MinBasisBps: 10}
	funding := map[string]market.FundingRate{
		"BTCUSDT": {RatePerInterval: 0.001, IntervalHours: 8},
	}

	got := DetectSpotPerpBasis(view, gates, funding, now)
	if len(got) != 1 {
		t.Fatalf("DetectSpotPerpBasis() len = %d, want 1", len(got))
	}
	if meta, ok := got[0].Metadata["expected_funding_cost_bps"]; !ok || meta.(float64) <= 0 {
		t.Errorf("expected_funding_cost_bps metadata = %v, want positive", meta)
	}
}
