package opportunity

import (
	"testing"
	"time"

	"github.com/sawpanic/arbitrageur/internal/market"
)

func TestDetectPerpPerpSpreadRequiresOIOnBothLegs(t *testing.T) {
	now := time.Now()
	inst := market.NewPerpInstrument("BTC", "USDT")
	view := buildView(func(s *market.Snapshot) {
		s.PublishTicker(market.Ticker{Venue: "binance", Instrument: inst, Last: 50000, Timestamp: now})
		s.PublishTicker(market.Ticker{Venue: "okx", Instrument: inst, Last: 50100, Timestamp: now})
		s.PublishOpenInterest(market.OpenInterest{Venue: "binance", Instrument: inst, OIUSD: 200_000})
	})
	gates := Gates{MaxTickerAge: time.Minute, MinOIUSD: 100_000, DefaultFeeBps: 1, SlippageBps: 1, MinPerpPerpSpreadBps: 5}

	got := DetectPerpPerpSpread(view, gates, now)
	if len(got) != 0 {
		t.Errorf("DetectPerpPerpSpread() len = %d, want 0 (okx OI missing)", len(got))
	}
}

func TestDetectPerpPerpSpreadEmitsWhenGatesPass(t *testing.T) {
	now := time.Now()
	inst := market.NewPerpInstrument("BTC", "USDT")
	view := buildView(func(s *market.Snapshot) {
		s.PublishTicker(market.Ticker{Venue: "binance", Instrument: inst, Last: 50000, Timestamp: now})
		s.PublishTicker(market.Ticker{Venue: "okx", Instrument: inst, Last: 50100, Timestamp: now})
		s.PublishOpenInterest(market.OpenInterest{Venue: "binance", Instrument: inst, OIUSD: 200_000})
		s.PublishOpenInterest(market.OpenInterest{Venue: "okx", Instrument: inst, OIUSD: 200_000})
	})
	gates := Gates{MaxTickerAge: time.Minute, MinOIUSD: 100_000, DefaultFeeBps: 1, SlippageBps: 1, MinPerpPerpSpreadBps: 5}

	got := DetectPerpPerpSpread(view, gates, now)
	if len(got) != 1 {
		t.Fatalf("DetectPerpPerpSpread() len = %d, want 1", len(got))
	}
}
