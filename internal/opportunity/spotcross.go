package opportunity

import (
	"time"

	"github.com/sawpanic/arbitrageur/internal/market"
)

// DetectSpotCross groups spot tickers by symbol across centralized venues
// and emits one opportunity per group whose best bid/ask cross clears both
// the threshold and the fee/slippage cost gate.
func DetectSpotCross(view *market.View, gates Gates, now time.Time) []Opportunity {
	groups := make(map[string][]market.Ticker)
	for _, t := range view.AllTickers() {
		if t.Instrument.VenueKind != market.Spot {
			continue
		}
		if !t.Fresh(now, gates.MaxTickerAge) || t.Last <= 0 {
			continue
		}
		sym := t.Instrument.Symbol()
		groups[sym] = append(groups[sym], t)
	}

	var out []Opportunity
	for sym, tickers := range groups {
		if len(tickers) < 2 {
			continue
		}
		buy, sell := cheapestAndRichest(tickers)
		if buy.Venue == sell.Venue {
			continue
		}
		buyPx, sellPx := quotePrice(buy, true), quotePrice(sell, false)
		if buyPx <= 0 || sellPx <= 0 {
			continue
		}
		spreadBps := (sellPx - buyPx) / buyPx * 10000
		if spreadBps < gates.MinSpotCrossBps {
			continue
		}
		netBps := spreadBps - gates.FeeBps(buy.Venue) - gates.FeeBps(sell.Venue) - gates.SlippageBps
		if netBps <= 0 {
			continue
		}

		// Both legs are sized at equal quantity rather than equal notional, so
		// the signed-notional sum is off by the spread itself, not exactly
		// zero (spec.md §3/§8.1's "approximately delta-neutral" — read as
		// quantity-delta-neutral, not notional-delta-neutral).
		notional := 1000.0
		qty := notional / buyPx
		legs := []Leg{
			{Venue: buy.Venue, VenueKind: string(market.Spot), Side: Buy, Price: buyPx, Quantity: qty},
			{Venue: sell.Venue, VenueKind: string(market.Spot), Side: Sell, Price: sellPx, Quantity: qty},
		}
		out = append(out, Opportunity{
			ID:             StableID(SpotCross, sym, legs, now.UnixNano()),
			Kind:           SpotCross,
			Symbol:         sym,
			SpreadBps:      spreadBps,
			ExpectedPnlPct: netBps / 100,
			NotionalUSD:    notional,
			DetectedAt:     now,
			Legs:           legs,
		})
	}
	return out
}

// cheapestAndRichest picks the lowest-offer and highest-bid tickers, per
// spec.md §4.5.1's "min(ask) and max(bid), or min(last)/max(last)".
func cheapestAndRichest(tickers []market.Ticker) (buy, sell market.Ticker) {
	buy, sell = tickers[0], tickers[0]
	buyPx, sellPx := quotePrice(tickers[0], true), quotePrice(tickers[0], false)
	for _, t := range tickers[1:] {
		if p := quotePrice(t, true); p > 0 && p < buyPx {
			buyPx, buy = p, t
		}
		if p := quotePrice(t, false); p > 0 && p > sellPx {
			sellPx, sell = p, t
		}
	}
	return buy, sell
}

// quotePrice returns the ask (wantBuySide=true) or bid, falling back to Last
// when one side of the book isn't published.
func quotePrice(t market.Ticker, wantBuySide bool) float64 {
	if t.HasBidAsk() {
		if wantBuySide {
			return t.Ask
		}
		return t.Bid
	}
	return t.Last
}
