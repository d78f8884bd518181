package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/arbitrageur/internal/broadcast"
	"github.com/sawpanic/arbitrageur/internal/cache"
	"github.com/sawpanic/arbitrageur/internal/circuit"
	"github.com/sawpanic/arbitrageur/internal/config"
	"github.com/sawpanic/arbitrageur/internal/fx"
	"github.com/sawpanic/arbitrageur/internal/market"
	"github.com/sawpanic/arbitrageur/internal/metrics"
	"github.com/sawpanic/arbitrageur/internal/opportunity"
	"github.com/sawpanic/arbitrageur/internal/scheduler"
	"github.com/sawpanic/arbitrageur/internal/venue"
	"github.com/sawpanic/arbitrageur/internal/venue/bingx"
	"github.com/sawpanic/arbitrageur/internal/venue/binance"
	"github.com/sawpanic/arbitrageur/internal/venue/bitget"
	"github.com/sawpanic/arbitrageur/internal/venue/bithumb"
	"github.com/sawpanic/arbitrageur/internal/venue/bybit"
	"github.com/sawpanic/arbitrageur/internal/venue/dunamu"
	"github.com/sawpanic/arbitrageur/internal/venue/exchangerate"
	"github.com/sawpanic/arbitrageur/internal/venue/gate"
	"github.com/sawpanic/arbitrageur/internal/venue/hyperliquid"
	"github.com/sawpanic/arbitrageur/internal/venue/okx"
	"github.com/sawpanic/arbitrageur/internal/venue/synthetix"
	"github.com/sawpanic/arbitrageur/internal/venue/upbit"
	"github.com/sawpanic/arbitrageur/internal/wallet"
)

// app bundles every long-lived component the serve command wires together.
// Grounded on internal/application's composition-root pattern of one struct
// holding every subsystem built once at startup.
type app struct {
	cfg *config.Config

	snapshot *market.Snapshot
	circuits *circuit.Manager
	cache    *cache.Cache
	metrics  *metrics.Registry

	scheduler *scheduler.Scheduler
	fxRes     *fx.Resolver
	walletOrc *wallet.Oracle
	engine    *opportunity.Engine
	tracker   *opportunity.Tracker
	hub       *broadcast.Hub

	venueNames []string
}

func buildApp(cfg *config.Config, promRegistry *metrics.Registry) (*app, error) {
	a := &app{
		cfg:      cfg,
		snapshot: market.NewSnapshot(),
		circuits: circuit.NewManager(),
		cache:    cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB),
		metrics:  promRegistry,
		hub:      broadcast.NewHub(cfg.GetLastGoodTTL(), cfg.GetSubscriberWriteTimeout()),
		tracker:  opportunity.NewTracker(cfg.GetAlertTTL()),
	}

	curve, err := cfg.BuildCurve()
	if err != nil {
		return nil, fmt.Errorf("building allocation curve: %w", err)
	}

	a.engine = opportunity.NewEngine(opportunity.EngineConfig{
		Gates: opportunity.Gates{
			MaxTickerAge:  cfg.GetMaxTickerAge(),
			MinOIUSD:      cfg.MinOIUSD,
			FeeBpsByVenue: cfg.VenueFeeBps(),
			DefaultFeeBps: cfg.DefaultFeeBps,
			SlippageBps:   cfg.SlippageBps,

			MinSpotCrossBps:      cfg.MinSpreadBps,
			MinPerpPerpSpreadBps: cfg.MinSpreadBps,
			MinBasisBps:          cfg.MinBasisBps,
			MinFundingArb8hPct:   cfg.MinFunding8hPct,
			MaxCombinedSpreadBps: cfg.MaxCombinedSpreadBps,
			MinKimchiPct:         cfg.MinKimchiPct,
		},
		MaxOpportunities: cfg.MaxOpportunities,
		AllocationCurve:  curve,
		TotalEquityUSD:   cfg.TetherTotalEquityUSD,
		Wallet: func(venueName, asset string) market.WalletState {
			return a.walletOrc.State(venueName, asset)
		},
	})

	a.scheduler = scheduler.New(cfg.GetDetectInterval(), func() {
		now := time.Now()
		opps := a.engine.Detect(a.snapshot.View(), now)
		alerts := a.tracker.Update(opps, map[opportunity.Kind]float64{}, now)
		for _, al := range alerts {
			a.metrics.AlertsFired.WithLabelValues(string(al.Kind), string(al.Transition)).Inc()
			log.Info().Str("kind", string(al.Kind)).Str("symbol", al.Symbol).Str("transition", string(al.Transition)).Msg("alert transition")
		}
		for _, o := range opps {
			a.metrics.OpportunitiesEmitted.WithLabelValues(string(o.Kind)).Inc()
		}
		a.hub.Publish(opps)
	})

	a.registerVenues(cfg)
	a.registerFx(cfg)
	a.registerWallet(cfg)

	return a, nil
}

func venueEnabled(cfg *config.Config, name string) (config.VenueConfig, bool) {
	vc, ok := cfg.Venues[name]
	if !ok {
		return config.VenueConfig{}, true // absent from config ⇒ enabled with defaults
	}
	return vc, vc.Enabled
}

func symbolsFor(vc config.VenueConfig, fallback []string) []string {
	if len(vc.Symbols) > 0 {
		return vc.Symbols
	}
	return fallback
}

func (a *app) registerVenues(cfg *config.Config) {
	defaultSymbols := cfg.TradingSymbols
	if len(defaultSymbols) == 0 {
		defaultSymbols = []string{"BTCUSDT", "ETHUSDT"}
	}

	var connectors []venue.Connector

	if vc, ok := venueEnabled(cfg, "binance"); ok {
		connectors = append(connectors, binance.New(symbolsFor(vc, defaultSymbols)))
	}
	if vc, ok := venueEnabled(cfg, "bybit"); ok {
		connectors = append(connectors, bybit.New(symbolsFor(vc, defaultSymbols)))
	}
	if vc, ok := venueEnabled(cfg, "okx"); ok {
		syms := symbolsFor(vc, defaultSymbols)
		connectors = append(connectors, okx.New(dashify(syms), perpify(syms)))
	}
	if vc, ok := venueEnabled(cfg, "gate"); ok {
		connectors = append(connectors, gate.New(underscorify(symbolsFor(vc, defaultSymbols))))
	}
	if vc, ok := venueEnabled(cfg, "bitget"); ok {
		connectors = append(connectors, bitget.New(symbolsFor(vc, defaultSymbols)))
	}
	if vc, ok := venueEnabled(cfg, "bingx"); ok {
		connectors = append(connectors, bingx.New(dashify(symbolsFor(vc, defaultSymbols))))
	}
	if vc, ok := venueEnabled(cfg, "hyperliquid"); ok {
		connectors = append(connectors, hyperliquid.New(bases(symbolsFor(vc, defaultSymbols))))
	}
	if vc, ok := venueEnabled(cfg, "synthetix"); ok {
		connectors = append(connectors, synthetix.New(bases(symbolsFor(vc, defaultSymbols))))
	}
	if vc, ok := venueEnabled(cfg, "upbit"); ok {
		markets := vc.Symbols
		if len(markets) == 0 {
			markets = []string{"KRW-BTC", "KRW-ETH"}
		}
		connectors = append(connectors, upbit.New(markets))
	}
	if vc, ok := venueEnabled(cfg, "bithumb"); ok {
		assets := vc.Symbols
		if len(assets) == 0 {
			assets = []string{"BTC", "ETH"}
		}
		connectors = append(connectors, bithumb.New(assets))
	}

	for _, c := range connectors {
		a.registerCapabilities(c)
		a.venueNames = append(a.venueNames, string(c.Name()))
	}
}

var knownQuotes = []string{"USDT", "USDC", "BUSD", "BTC", "ETH"}

// splitBaseQuote strips a trailing known quote currency off a concatenated
// symbol like "BTCUSDT", mirroring each REST connector's own
// symbolToInstrument/instrumentOf helper.
func splitBaseQuote(symbol string) (base, quote string) {
	up := market.NormalizeSymbol(symbol)
	for _, q := range knownQuotes {
		if strings.HasSuffix(up, q) && len(up) > len(q) {
			return strings.TrimSuffix(up, q), q
		}
	}
	return up, "USDT"
}

// perpify converts "BTCUSDT"-style spot symbols into OKX's dash-delimited
// perp instrument IDs, e.g. "BTC-USDT-SWAP".
func perpify(spotSymbols []string) []string {
	out := make([]string, len(spotSymbols))
	for i, s := range spotSymbols {
		base, quote := splitBaseQuote(s)
		out[i] = base + "-" + quote + "-SWAP"
	}
	return out
}

// dashify converts "BTCUSDT"-style spot symbols into dash-delimited
// instrument IDs, e.g. "BTC-USDT" (OKX spot, BingX).
func dashify(spotSymbols []string) []string {
	out := make([]string, len(spotSymbols))
	for i, s := range spotSymbols {
		base, quote := splitBaseQuote(s)
		out[i] = base + "-" + quote
	}
	return out
}

// underscorify converts "BTCUSDT"-style spot symbols into Gate.io's
// underscore-delimited form, e.g. "BTC_USDT".
func underscorify(spotSymbols []string) []string {
	out := make([]string, len(spotSymbols))
	for i, s := range spotSymbols {
		base, quote := splitBaseQuote(s)
		out[i] = base + "_" + quote
	}
	return out
}

// bases extracts just the base asset from a list of concatenated symbols,
// e.g. "BTCUSDT" -> "BTC", for venues (Hyperliquid, Synthetix) that key
// purely on the underlying coin.
func bases(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		base, _ := splitBaseQuote(s)
		out = append(out, base)
	}
	return out
}

// registerCapabilities type-asserts c against every capability interface it
// might satisfy and registers a scheduler task per capability, mirroring
// spec.md §4.7's "one independent task per (venue, capability)".
func (a *app) registerCapabilities(c venue.Connector) {
	name := string(c.Name())
	timeout := a.cfg.GetConnectorTimeout()

	if f, ok := c.(venue.SpotTickerFetcher); ok {
		a.scheduler.Register(scheduler.Task{
			Name:    name + ":spot_tickers",
			Timeout: timeout,
			Refresh: a.refreshSpotTickers(name, f),
		})
	}
	if f, ok := c.(venue.PerpTickerFetcher); ok {
		a.scheduler.Register(scheduler.Task{
			Name:    name + ":perp_tickers",
			Timeout: timeout,
			Refresh: a.refreshPerpTickers(name, f),
		})
	}
	if f, ok := c.(venue.FundingRateFetcher); ok {
		a.scheduler.Register(scheduler.Task{
			Name:    name + ":funding",
			Timeout: timeout,
			Refresh: a.refreshFunding(name, f),
		})
	}
	if f, ok := c.(venue.OpenInterestFetcher); ok {
		a.scheduler.Register(scheduler.Task{
			Name:    name + ":open_interest",
			Timeout: timeout,
			Refresh: a.refreshOpenInterest(name, f),
		})
	}
}

func (a *app) refreshSpotTickers(name string, f venue.SpotTickerFetcher) func(context.Context) error {
	return func(ctx context.Context) error {
		timer := a.metrics.StartTimer(name, "spot_tickers")
		defer timer.Stop()
		return a.circuits.Call(ctx, name, func(ctx context.Context) error {
			tickers, err := f.FetchSpotTickers(ctx)
			if err != nil {
				a.metrics.ConnectorRefreshErrors.WithLabelValues(name, "spot_tickers", classify(err)).Inc()
				return err
			}
			for _, t := range tickers {
				a.snapshot.PublishTicker(t)
				a.cacheTicker(ctx, t)
			}
			return nil
		})
	}
}

func (a *app) refreshPerpTickers(name string, f venue.PerpTickerFetcher) func(context.Context) error {
	return func(ctx context.Context) error {
		timer := a.metrics.StartTimer(name, "perp_tickers")
		defer timer.Stop()
		return a.circuits.Call(ctx, name, func(ctx context.Context) error {
			tickers, err := f.FetchPerpTickers(ctx)
			if err != nil {
				a.metrics.ConnectorRefreshErrors.WithLabelValues(name, "perp_tickers", classify(err)).Inc()
				return err
			}
			for _, t := range tickers {
				a.snapshot.PublishTicker(t)
				a.cacheTicker(ctx, t)
			}
			return nil
		})
	}
}

func (a *app) refreshFunding(name string, f venue.FundingRateFetcher) func(context.Context) error {
	return func(ctx context.Context) error {
		timer := a.metrics.StartTimer(name, "funding")
		defer timer.Stop()
		return a.circuits.Call(ctx, name, func(ctx context.Context) error {
			rates, err := f.FetchFundingRates(ctx)
			if err != nil {
				a.metrics.ConnectorRefreshErrors.WithLabelValues(name, "funding", classify(err)).Inc()
				return err
			}
			for _, r := range rates {
				a.snapshot.PublishFunding(r)
			}
			return nil
		})
	}
}

func (a *app) refreshOpenInterest(name string, f venue.OpenInterestFetcher) func(context.Context) error {
	return func(ctx context.Context) error {
		timer := a.metrics.StartTimer(name, "open_interest")
		defer timer.Stop()
		return a.circuits.Call(ctx, name, func(ctx context.Context) error {
			ois, err := f.FetchOpenInterest(ctx)
			if err != nil {
				a.metrics.ConnectorRefreshErrors.WithLabelValues(name, "open_interest", classify(err)).Inc()
				return err
			}
			for _, oi := range ois {
				a.snapshot.PublishOpenInterest(oi)
			}
			return nil
		})
	}
}

// cacheTicker persists the latest ticker in the Redis/in-memory cache so a
// restart or a slow-path reader (e.g. a future CLI probe) can read the
// last-known price without waiting for the next scheduler tick.
func (a *app) cacheTicker(ctx context.Context, t market.Ticker) {
	key := "ticker:" + t.Venue + ":" + t.Instrument.Symbol()
	_ = a.cache.Set(ctx, key, t, 30*time.Second)
}

func classify(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, venue.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, venue.ErrNetworkTransient):
		return "network"
	case errors.Is(err, venue.ErrDecodeSchema):
		return "decode"
	default:
		return "other"
	}
}

// impliedFxPrice scans the current snapshot view for a ticker matching
// (venueName, symbol) with a positive last price, used by fx.ImpliedSource's
// Upbit/Binance closures rather than a dedicated by-key lookup, since View
// only exposes AllTickers() (spec.md §4.2's third fallback). It returns the
// first match found; ticker age and spot-vs-perp kind are not checked.
func (a *app) impliedFxPrice(venueName, symbol string) func() (float64, bool) {
	return func() (float64, bool) {
		for _, t := range a.snapshot.View().AllTickers() {
			if t.Venue == venueName && t.Instrument.Symbol() == symbol && t.Last > 0 {
				return t.Last, true
			}
		}
		return 0, false
	}
}

func (a *app) registerFx(cfg *config.Config) {
	var sources []fx.Source
	if vc, ok := venueEnabled(cfg, "dunamu"); ok {
		_ = vc
		sources = append(sources, fx.FromFetcher(dunamu.New()))
	}
	if vc, ok := venueEnabled(cfg, "exchangerate"); ok {
		_ = vc
		sources = append(sources, fx.FromFetcher(exchangerate.New()))
	}
	sources = append(sources, fx.ImpliedSource{
		UpbitBTCKRW:   a.impliedFxPrice("upbit", "BTCKRW"),
		BinanceBTCUSD: a.impliedFxPrice("binance", "BTCUSDT"),
	})

	a.fxRes = fx.NewResolver(sources, cfg.FxFallbackKRWPerUSD, cfg.GetFxRefreshInterval())
}

// runFx drives the FX resolver on its own ticker, independent of the main
// detection scheduler (spec.md §4.2: refreshed every fx_refresh_interval,
// default 60s, regardless of detect_interval).
func (a *app) runFx(ctx context.Context) {
	a.fxRes.Run(ctx, func(rate market.FxRate) {
		a.snapshot.PublishFx(rate)
		if rate.Stale {
			a.metrics.FxStale.Set(1)
		} else {
			a.metrics.FxStale.Set(0)
		}
	})
}

// walletFetcherAdapter bridges a venue.WalletStateFetcher (Name() venue.Name)
// onto wallet.Fetcher (Name() string) — the two packages intentionally don't
// share a type so wallet stays independent of the venue package's naming.
type walletFetcherAdapter struct {
	inner interface {
		Name() venue.Name
		FetchWalletState(ctx context.Context) ([]market.WalletState, error)
	}
}

func (w walletFetcherAdapter) Name() string { return string(w.inner.Name()) }
func (w walletFetcherAdapter) FetchWalletState(ctx context.Context) ([]market.WalletState, error) {
	return w.inner.FetchWalletState(ctx)
}

func (a *app) registerWallet(cfg *config.Config) {
	var fetchers []wallet.Fetcher
	if vc, ok := venueEnabled(cfg, "upbit"); ok {
		markets := vc.Symbols
		if len(markets) == 0 {
			markets = []string{"KRW-BTC", "KRW-ETH"}
		}
		fetchers = append(fetchers, walletFetcherAdapter{upbit.New(markets)})
	}
	if vc, ok := venueEnabled(cfg, "bithumb"); ok {
		assets := vc.Symbols
		if len(assets) == 0 {
			assets = []string{"BTC", "ETH"}
		}
		fetchers = append(fetchers, walletFetcherAdapter{bithumb.New(assets)})
	}

	a.walletOrc = wallet.NewOracle(fetchers, 30*time.Second)
}

func (a *app) run(ctx context.Context) {
	go a.walletOrc.Run(ctx)
	go a.runFx(ctx)
	a.scheduler.Run(ctx)
}
