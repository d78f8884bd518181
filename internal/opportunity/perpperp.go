package opportunity

import (
	"time"

	"github.com/sawpanic/arbitrageur/internal/market"
)

// DetectPerpPerpSpread is SPOT_CROSS's grouping logic restricted to perp
// tickers, with an open-interest gate applied to both chosen legs.
func DetectPerpPerpSpread(view *market.View, gates Gates, now time.Time) []Opportunity {
	groups := make(map[string][]market.Ticker)
	for _, t := range view.AllTickers() {
		if t.Instrument.VenueKind != market.Perp {
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

		buyOI, ok1 := view.OpenInterestFor(buy.Venue, buy.Instrument)
		sellOI, ok2 := view.OpenInterestFor(sell.Venue, sell.Instrument)
		if !ok1 || !ok2 || buyOI.OIUSD < gates.MinOIUSD || sellOI.OIUSD < gates.MinOIUSD {
			continue
		}

		buyPx, sellPx := quotePrice(buy, true), quotePrice(sell, false)
		if buyPx <= 0 || sellPx <= 0 {
			continue
		}
		spreadBps := (sellPx - buyPx) / buyPx * 10000
		if spreadBps < gates.MinPerpPerpSpreadBps {
			continue
		}
		netBps := spreadBps - gates.FeeBps(buy.Venue) - gates.FeeBps(sell.Venue) - gates.SlippageBps
		if netBps <= 0 {
			continue
		}

		// Equal-quantity legs, not equal-notional; see spotcross.go's note on
		// the quantity-delta-neutral interpretation.
		notional := 1000.0
		qty := notional / buyPx
		legs := []Leg{
			{Venue: buy.Venue, VenueKind: string(market.Perp), Side: Buy, Price: buyPx, Quantity: qty},
			{Venue: sell.Venue, VenueKind: string(market.Perp), Side: Sell, Price: sellPx, Quantity: qty},
		}
		out = append(out, Opportunity{
			ID:             StableID(PerpPerpSpread, sym, legs, now.UnixNano()),
			Kind:           PerpPerpSpread,
			Symbol:         sym,
			SpreadBps:      spreadBps,
			ExpectedPnlPct: netBps / 100,
			NotionalUSD:    notional,
			DetectedAt:     now,
			Legs:           legs,
			Metadata: map[string]interface{}{
				buy.Venue + "_oi_usd":  buyOI.OIUSD,
				sell.Venue + "_oi_usd": sellOI.OIUSD,
			},
		})
	}
	return out
}
