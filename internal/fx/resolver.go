// Package fx resolves the KRW/USD cross through a fixed-priority source
// chain, falling back to the last known good value or a configured constant
// when every source fails (spec.md §4.2).
package fx

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sawpanic/arbitrageur/internal/market"
)

// Source fetches a single candidate FX rate. Dunamu and ExchangeRate
// connectors implement this directly via venue.FxFetcher; the implied
// Upbit/Binance cross is computed in-process and wrapped as a Source too.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (market.FxRate, error)
}

// ImpliedSource computes KRW/USD from Upbit(KRW-BTC) / Binance(BTCUSDT),
// spec.md §4.2's third fallback.
type ImpliedSource struct {
	UpbitBTCKRW   func() (float64, bool)
	BinanceBTCUSD func() (float64, bool)
}

func (ImpliedSource) Name() string { return "implied-btc-cross" }

func (s ImpliedSource) Fetch(ctx context.Context) (market.FxRate, error) {
	krw, ok1 := s.UpbitBTCKRW()
	usd, ok2 := s.BinanceBTCUSD()
	if !ok1 || !ok2 || usd <= 0 {
		return market.FxRate{}, errNoImpliedData
	}
	rate := krw / usd
	return market.FxRate{
		KRWPerUSD: rate,
		USDPerKRW: 1 / rate,
		Source:    "implied-btc-cross",
		Timestamp: time.Now(),
	}, nil
}

var errNoImpliedData = fxError("implied cross inputs unavailable")

type fxError string

func (e fxError) Error() string { return string(e) }

// Resolver produces the current KRW/USD rate, refreshed independently of the
// main scheduler every RefreshInterval.
type Resolver struct {
	sources         []Source
	fallback        float64
	lastGood        market.FxRate
	RefreshInterval time.Duration
}

// NewResolver builds a resolver consulting sources in priority order, using
// fallbackKRWPerUSD (e.g. 1450) when every source fails and no last-good
// value exists yet.
func NewResolver(sources []Source, fallbackKRWPerUSD float64, refreshInterval time.Duration) *Resolver {
	if refreshInterval <= 0 {
		refreshInterval = 60 * time.Second
	}
	return &Resolver{sources: sources, fallback: fallbackKRWPerUSD, RefreshInterval: refreshInterval}
}

// Resolve consults sources in order, returning the first rate that passes
// the [1000, 2000] sanity band. Falls back to the last known good value, or
// the configured constant with Stale=true, if every source fails or fails
// the band check.
func (r *Resolver) Resolve(ctx context.Context) market.FxRate {
	for _, src := range r.sources {
		rate, err := src.Fetch(ctx)
		if err != nil {
			log.Warn().Str("source", src.Name()).Err(err).Msg("fx source failed")
			continue
		}
		if !rate.InBand() {
			log.Warn().Str("source", src.Name()).Float64("krw_per_usd", rate.KRWPerUSD).Msg("fx source out of sanity band")
			continue
		}
		rate.Stale = false
		r.lastGood = rate
		return rate
	}

	if r.lastGood.KRWPerUSD > 0 {
		stale := r.lastGood
		stale.Stale = true
		return stale
	}

	return market.FxRate{
		KRWPerUSD: r.fallback,
		USDPerKRW: 1 / r.fallback,
		Source:    "configured-fallback",
		Stale:     true,
		Timestamp: time.Now(),
	}
}

// Run refreshes the resolver's output into the snapshot's Fx slot on every
// tick until ctx is cancelled, independent of the main detection scheduler.
func (r *Resolver) Run(ctx context.Context, publish func(market.FxRate)) {
	ticker := time.NewTicker(r.RefreshInterval)
	defer ticker.Stop()
	publish(r.Resolve(ctx))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish(r.Resolve(ctx))
		}
	}
}
