package market

import (
	"sync"
	"testing"
	"time"
)

func TestSnapshotViewReflectsPublishedTicker(t *testing.T) {
	s := NewSnapshot()
	inst := NewSpotInstrument("BTC", "USDT")
	s.PublishTicker(Ticker{Venue: "binance", Instrument: inst, Last: 50000, Timestamp: time.Now()})

	v := s.View()
	tickers := v.AllTickers()
	if len(tickers) != 1 {
		t.Fatalf("AllTickers() len = %d, want 1", len(tickers))
	}
	if tickers[0].Last != 50000 {
		t.Errorf("ticker.Last = %v, want 50000", tickers[0].Last)
	}
}

func TestSnapshotViewIsImmutableAcrossPublishes(t *testing.T) {
	s := NewSnapshot()
	inst := NewSpotInstrument("BTC", "USDT")
	s.PublishTicker(Ticker{Venue: "binance", Instrument: inst, Last: 1, Timestamp: time.Now()})

	v1 := s.View()
	s.PublishTicker(Ticker{Venue: "binance", Instrument: inst, Last: 2, Timestamp: time.Now()})
	v2 := s.View()

	if v1.AllTickers()[0].Last != 1 {
		t.Errorf("earlier View() mutated after later publish: Last = %v, want 1", v1.AllTickers()[0].Last)
	}
	if v2.AllTickers()[0].Last != 2 {
		t.Errorf("later View() missing update: Last = %v, want 2", v2.AllTickers()[0].Last)
	}
}

func TestSnapshotPublishTickerReplacesSameKey(t *testing.T) {
	s := NewSnapshot()
	inst := NewSpotInstrument("BTC", "USDT")
	s.PublishTicker(Ticker{Venue: "binance", Instrument: inst, Last: 1})
	s.PublishTicker(Ticker{Venue: "binance", Instrument: inst, Last: 2})

	tickers := s.View().AllTickers()
	if len(tickers) != 1 {
		t.Fatalf("AllTickers() len = %d, want 1 (replace, not append)", len(tickers))
	}
	if tickers[0].Last != 2 {
		t.Errorf("Last = %v, want 2", tickers[0].Last)
	}
}

func TestSnapshotPublishFxAndWallet(t *testing.T) {
	s := NewSnapshot()
	s.PublishFx(FxRate{KRWPerUSD: 1450})
	s.PublishWallet(WalletState{Venue: "upbit", Asset: "BTC", DepositEnabled: True})

	v := s.View()
	if v.Fx().KRWPerUSD != 1450 {
		t.Errorf("Fx().KRWPerUSD = %v, want 1450", v.Fx().KRWPerUSD)
	}
	w, ok := v.Wallet("upbit", "BTC")
	if !ok || w.DepositEnabled != True {
		t.Errorf("Wallet(upbit, BTC) = (%+v, %v), want DepositEnabled=True, ok=true", w, ok)
	}
	if _, ok := v.Wallet("upbit", "ETH"); ok {
		t.Error("Wallet(upbit, ETH) ok = true, want false (never published)")
	}
}

func TestSnapshotPublishFundingAndOpenInterest(t *testing.T) {
	s := NewSnapshot()
	inst := NewPerpInstrument("BTC", "USDT")
	s.PublishFunding(FundingRate{Venue: "binance", Instrument: inst, RatePerInterval: 0.01, IntervalHours: 8})
	s.PublishOpenInterest(OpenInterest{Venue: "binance", Instrument: inst, OIUSD: 1_000_000})

	v := s.View()
	funding := v.AllFunding()
	if len(funding) != 1 || funding[0].RatePerInterval != 0.01 {
		t.Errorf("AllFunding() = %+v, want one entry with RatePerInterval=0.01", funding)
	}

	oi, ok := v.OpenInterestFor("binance", inst)
	if !ok || oi.OIUSD != 1_000_000 {
		t.Errorf("OpenInterestFor() = (%+v, %v), want OIUSD=1000000, ok=true", oi, ok)
	}
	if _, ok := v.OpenInterestFor("okx", inst); ok {
		t.Error("OpenInterestFor(okx, ...) ok = true, want false (never published)")
	}
}

func TestSnapshotConcurrentPublishDoesNotRace(t *testing.T) {
	s := NewSnapshot()
	inst := NewSpotInstrument("BTC", "USDT")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.PublishTicker(Ticker{Venue: "binance", Instrument: inst, Last: float64(n)})
		}(i)
	}
	wg.Wait()
	if len(s.View().AllTickers()) != 1 {
		t.Errorf("expected exactly one ticker entry after concurrent publishes to the same key")
	}
}
