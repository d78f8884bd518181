package opportunity

import (
	"testing"
	"time"

	"github.com/sawpanic/arbitrageur/internal/market"
)

func TestDetectFundingArbRequiresOIOnBothLegs(t *testing.T) {
	now := time.Now()
	inst := market.NewPerpInstrument("BTC", "USDT")
	view := buildView(func(s *market.Snapshot) {
		s.PublishFunding(market.FundingRate{Venue: "binance", Instrument: inst, RatePerInterval: 0.002, IntervalHours: 1, Timestamp: now})
		s.PublishFunding(market.FundingRate{Venue: "bybit", Instrument: inst, RatePerInterval: -0.002, IntervalHours: 1, Timestamp: now})
		s.PublishTicker(market.Ticker{Venue: "binance", Instrument: inst, Last: 50000, Timestamp: now})
		s.PublishTicker(market.Ticker{Venue: "bybit", Instrument: inst, Last: 50010, Timestamp: now})
		s.PublishOpenInterest(market.OpenInterest{Venue: "binance", Instrument: inst, OIUSD: 200_000})
		// bybit OI intentionally never published.
	})
	gates := Gates{MaxTickerAge: time.Minute, MinOIUSD: 100_000, MinFundingArb8hPct: 0.01, MaxCombinedSpreadBps: 20}

	got := DetectFundingArb(view, gates, now)
	if len(got) != 0 {
		t.Errorf("DetectFundingArb() len = %d, want 0 (one leg missing OI)", len(got))
	}
}

func TestDetectFundingArbEmitsWhenGatesPass(t *testing.T) {
	now := time.Now()
	inst := market.NewPerpInstrument("BTC", "USDT")
	view := buildView(func(s *market.Snapshot) {
		s.PublishFunding(market.FundingRate{Venue: "binance", Instrument: inst, RatePerInterval: 0.002, IntervalHours: 1, Timestamp: now})
		s.PublishFunding(market.FundingRate{Venue: "bybit", Instrument: inst, RatePerInterval: -0.001, IntervalHours: 1, Timestamp: now})
		s.PublishTicker(market.Ticker{Venue: "binance", Instrument: inst, Last: 50000, Timestamp: now})
		s.PublishTicker(market.Ticker{Venue: "bybit", Instrument: inst, Last: 50010, Timestamp: now})
		s.PublishOpenInterest(market.OpenInterest{Venue: "binance", Instrument: inst, OIUSD: 200_000})
		s.PublishOpenInterest(market.OpenInterest{Venue: "bybit", Instrument: inst, OIUSD: 200_000})
	})
	gates := Gates{MaxTickerAge: time.Minute, MinOIUSD: 100_000, MinFundingArb8hPct: 0.01, MaxCombinedSpreadBps: 20}

	got := DetectFundingArb(view, gates, now)
	if len(got) != 1 {
		t.Fatalf("DetectFundingArb() len = %d, want 1", len(got))
	}
	if got[0].Legs[0].Venue != "bybit" || got[0].Legs[0].Side != Buy {
		t.Errorf("expected the receiver venue (bybit, most negative funding) to appear on the long leg")
	}
}

func TestDetectFundingArbSkipsBelowThreshold(t *testing.T) {
	now := time.Now()
	inst := market.NewPerpInstrument("BTC", "USDT")
	view := buildView(func(s *market.Snapshot) {
		s.PublishFunding(market.FundingRate{Venue: "binance", Instrument: inst, RatePerInterval: 0.0001, IntervalHours: 8, Timestamp: now})
		s.PublishFunding(market.FundingRate{Venue: "bybit", Instrument: inst, RatePerInterval: 0.0, IntervalHours: 8, Timestamp: now})
		s.PublishTicker(market.Ticker{Venue: "binance", Instrument: inst, Last: 50000, Timestamp: now})
		s.PublishTicker(market.Ticker{Venue: "bybit", Instrument: inst, Last: 50000, Timestamp: now})
		s.PublishOpenInterest(market.OpenInterest{Venue: "binance", Instrument: inst, OIUSD: 200_000})
		s.PublishOpenInterest(market.OpenInterest{Venue: "bybit", Instrument: inst, OIUSD: 200_000})
	})
	gates := Gates{MaxTickerAge: time.Minute, MinOIUSD: 100_000, MinFundingArb8hPct: 0.01, MaxCombinedSpreadBps: 20}

	got := DetectFundingArb(view, gates, now)
	if len(got) != 0 {
		t.Errorf("DetectFundingArb() len = %d, want 0 (funding diff below 0.01pct threshold)", len(got))
	}
}
