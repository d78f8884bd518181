package opportunity

import (
	"time"

	"github.com/sawpanic/arbitrageur/internal/allocator"
	"github.com/sawpanic/arbitrageur/internal/market"
)

// MaxKimchiPremiumAbsPct rejects a candidate likely reflecting a halted or
// stale market rather than a real cross-zone premium (spec.md §4.5.2).
const MaxKimchiPremiumAbsPct = 50.0

// WalletLookup resolves tri-state deposit/withdraw capability.
type WalletLookup func(venue, asset string) market.WalletState

// krwVenues is the fixed set of Korean venues (Upbit/Bithumb) whose
// KRW-quoted spot tickers this detector reads; the foreign side is any spot
// ticker quoted in USDT.
var krwVenues = map[string]bool{"upbit": true, "bithumb": true}

// DetectKimchiPremium pairs the KRW-quoted spot ticker of each base asset
// with a USDT-quoted spot ticker of the same base and emits a premium
// opportunity sized by the allocator curve. Only one ticker per side and
// base is kept: the last one seen in view.AllTickers().
func DetectKimchiPremium(view *market.View, gates Gates, curve *allocator.Curve, totalEquityUSD float64, wallet WalletLookup, now time.Time) []Opportunity {
	bySymbolKRW := map[string]market.Ticker{}
	bySymbolUSDT := map[string]market.Ticker{}
	for _, t := range view.AllTickers() {
		if t.Instrument.VenueKind != market.Spot || !t.Fresh(now, gates.MaxTickerAge) || t.Last <= 0 {
			continue
		}
		switch {
		case krwVenues[t.Venue] && t.Instrument.Quote == "KRW":
			bySymbolKRW[t.Instrument.Base] = t
		case t.Instrument.Quote == "USDT":
			bySymbolUSDT[t.Instrument.Base] = t
		}
	}

	fx := view.Fx()
	if fx.KRWPerUSD <= 0 {
		return nil
	}

	var out []Opportunity
	for base, krwTick := range bySymbolKRW {
		foreignTick, ok := bySymbolUSDT[base]
		if !ok {
			continue
		}
		koreanUSD := krwTick.Last / fx.KRWPerUSD
		premiumPct := (koreanUSD - foreignTick.Last) / foreignTick.Last * 100
		if premiumPct > MaxKimchiPremiumAbsPct || premiumPct < -MaxKimchiPremiumAbsPct {
			continue
		}

		spreadBps := premiumPct * 100
		if spreadBps < 0 {
			spreadBps = -spreadBps
		}
		if spreadBps < gates.MinKimchiPct*100 {
			continue
		}

		alloc := curve.Evaluate(premiumPct, totalEquityUSD)

		var legs []Leg
		var foreignSide, koreanSide Side
		if premiumPct > 0 {
			foreignSide, koreanSide = Buy, Sell
		} else {
			foreignSide, koreanSide = Sell, Buy
		}
		qty := alloc.RecommendedNotional / foreignTick.Last
		if qty <= 0 {
			qty = 1000.0 / foreignTick.Last
		}
		legs = []Leg{
			{Venue: foreignTick.Venue, VenueKind: string(market.Spot), Side: foreignSide, Price: foreignTick.Last, Quantity: qty},
			{Venue: krwTick.Venue, VenueKind: string(market.Spot), Side: koreanSide, Price: krwTick.Last, Quantity: qty * fx.KRWPerUSD},
		}

		tradeable, walletStatus := kimchiTradeability(premiumPct, foreignTick.Venue, krwTick.Venue, base, wallet)

		out = append(out, Opportunity{
			ID:             StableID(KimchiPremium, base, legs, now.UnixNano()),
			Kind:           KimchiPremium,
			Symbol:         base,
			SpreadBps:      spreadBps,
			ExpectedPnlPct: premiumPct,
			NotionalUSD:    alloc.RecommendedNotional,
			DetectedAt:     now,
			Legs:           legs,
			Metadata: map[string]interface{}{
				"premium_pct":          premiumPct,
				"fx_rate":              fx.KRWPerUSD,
				"target_allocation_pct": alloc.TargetAllocationPct,
				"recommended_notional": alloc.RecommendedNotional,
				"recommended_action":   string(alloc.RecommendedAction),
			},
			Tradeable:    tradeable,
			WalletStatus: walletStatus,
		})
	}
	return out
}

// kimchiTradeability applies spec.md §4.4's leg-direction and tri-state
// AND rule: tradeable is true only if both legs are known-true, false only
// if either is known-false, and unknown (nil) otherwise.
func kimchiTradeability(premiumPct float64, foreignVenue, koreanVenue, asset string, wallet WalletLookup) (Tradeable, map[string]string) {
	if wallet == nil {
		return nil, nil
	}
	var foreignFlag, koreanFlag market.TriState
	if premiumPct > 0 {
		foreignFlag = wallet(foreignVenue, asset).WithdrawEnabled
		koreanFlag = wallet(koreanVenue, asset).DepositEnabled
	} else {
		foreignFlag = wallet(foreignVenue, asset).DepositEnabled
		koreanFlag = wallet(koreanVenue, asset).WithdrawEnabled
	}

	status := map[string]string{
		foreignVenue: triStateLabel(foreignFlag),
		koreanVenue:  triStateLabel(koreanFlag),
	}

	if foreignFlag == market.False || koreanFlag == market.False {
		v := false
		return &v, status
	}
	if foreignFlag == market.Unknown || koreanFlag == market.Unknown {
		return nil, status
	}
	v := true
	return &v, status
}

func triStateLabel(t market.TriState) string {
	switch t {
	case market.True:
		return "true"
	case market.False:
		return "false"
	default:
		return "unknown"
	}
}
