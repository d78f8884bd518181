// Engine fan-out follows other_examples/31edc147_s2ungeda-cexoms's
// detectOpportunities shape: run every enabled detector, collect results,
// gate-then-emit per candidate.
package opportunity

import (
	"sort"
	"sync"
	"time"

	"github.com/sawpanic/arbitrageur/internal/allocator"
	"github.com/sawpanic/arbitrageur/internal/market"
)

// EngineConfig bundles the runtime parameters every detector shares.
type EngineConfig struct {
	Gates             Gates
	MaxOpportunities  int
	AllocationCurve   *allocator.Curve
	TotalEquityUSD    float64
	Wallet            WalletLookup
}

// Engine runs all five detectors against one consistent snapshot view on
// every tick.
type Engine struct {
	cfg EngineConfig
}

// NewEngine builds an engine with cfg, defaulting MaxOpportunities to 200
// per spec.md §4.5 when unset.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.MaxOpportunities <= 0 {
		cfg.MaxOpportunities = 200
	}
	return &Engine{cfg: cfg}
}

// Detect runs every detector concurrently, concatenates results,
// deduplicates by (kind, symbol, sorted venues), sorts by |spread_bps|
// descending and truncates to MaxOpportunities.
func (e *Engine) Detect(view *market.View, now time.Time) []Opportunity {
	fundingBySymbol := latestFundingBySymbol(view)

	var wg sync.WaitGroup
	results := make([][]Opportunity, 5)
	run := func(i int, fn func() []Opportunity) {
		defer wg.Done()
		results[i] = fn()
	}

	wg.Add(5)
	go run(0, func() []Opportunity { return DetectSpotCross(view, e.cfg.Gates, now) })
	go run(1, func() []Opportunity {
		if e.cfg.AllocationCurve == nil {
			return nil
		}
		return DetectKimchiPremium(view, e.cfg.Gates, e.cfg.AllocationCurve, e.cfg.TotalEquityUSD, e.cfg.Wallet, now)
	})
	go run(2, func() []Opportunity { return DetectFundingArb(view, e.cfg.Gates, now) })
	go run(3, func() []Opportunity { return DetectSpotPerpBasis(view, e.cfg.Gates, fundingBySymbol, now) })
	go run(4, func() []Opportunity { return DetectPerpPerpSpread(view, e.cfg.Gates, now) })
	wg.Wait()

	var all []Opportunity
	for _, r := range results {
		all = append(all, r...)
	}

	seen := make(map[string]bool, len(all))
	deduped := all[:0]
	for _, o := range all {
		key := o.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, o)
	}

	sort.Slice(deduped, func(i, j int) bool {
		return absf(deduped[i].SpreadBps) > absf(deduped[j].SpreadBps)
	})

	if len(deduped) > e.cfg.MaxOpportunities {
		deduped = deduped[:e.cfg.MaxOpportunities]
	}
	return deduped
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func latestFundingBySymbol(view *market.View) map[string]market.FundingRate {
	out := make(map[string]market.FundingRate)
	for _, f := range view.AllFunding() {
		sym := f.Instrument.Symbol()
		if existing, ok := out[sym]; !ok || f.Timestamp.After(existing.Timestamp) {
			out[sym] = f
		}
	}
	return out
}
