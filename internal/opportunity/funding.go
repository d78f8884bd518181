package opportunity

import (
	"time"

	"github.com/sawpanic/arbitrageur/internal/market"
)

// DetectFundingArb pairs the most-negative and most-positive 8h-normalized
// funding rate across venues quoting the same perp instrument, emitting a
// delta-neutral LONG-the-receiver / SHORT-the-payer opportunity.
func DetectFundingArb(view *market.View, gates Gates, now time.Time) []Opportunity {
	fundingBySymbol := map[string][]market.FundingRate{}
	for _, f := range view.AllFunding() {
		sym := f.Instrument.Symbol()
		fundingBySymbol[sym] = append(fundingBySymbol[sym], f)
	}

	tickerBySymbolVenue := map[string]market.Ticker{}
	for _, t := range view.AllTickers() {
		if t.Instrument.VenueKind != market.Perp || !t.Fresh(now, gates.MaxTickerAge) {
			continue
		}
		tickerBySymbolVenue[t.Instrument.Symbol()+"|"+t.Venue] = t
	}

	var out []Opportunity
	for sym, rates := range fundingBySymbol {
		if len(rates) < 2 {
			continue
		}
		payer, receiver := rates[0], rates[0]
		for _, r := range rates[1:] {
			if r.Rate8h() > payer.Rate8h() {
				payer = r
			}
			if r.Rate8h() < receiver.Rate8h() {
				receiver = r
			}
		}
		if payer.Venue == receiver.Venue {
			continue
		}
		diff := payer.Rate8h() - receiver.Rate8h()
		if diff < 0 {
			diff = -diff
		}
		if diff < gates.MinFundingArb8hPct {
			continue
		}

		longTick, ok1 := tickerBySymbolVenue[sym+"|"+receiver.Venue]
		shortTick, ok2 := tickerBySymbolVenue[sym+"|"+payer.Venue]
		if !ok1 || !ok2 || longTick.Last <= 0 || shortTick.Last <= 0 {
			continue
		}

		longOI, ok3 := view.OpenInterestFor(receiver.Venue, receiver.Instrument)
		shortOI, ok4 := view.OpenInterestFor(payer.Venue, payer.Instrument)
		if !ok3 || !ok4 || longOI.OIUSD < gates.MinOIUSD || shortOI.OIUSD < gates.MinOIUSD {
			continue
		}

		spreadBps := (shortTick.Last - longTick.Last) / longTick.Last * 10000
		if spreadBps < 0 {
			spreadBps = -spreadBps
		}
		if spreadBps > gates.MaxCombinedSpreadBps {
			continue
		}

		// Equal-quantity legs, not equal-notional; see spotcross.go's note on
		// the quantity-delta-neutral interpretation.
		notional := 1000.0
		qty := notional / longTick.Last
		legs := []Leg{
			{Venue: receiver.Venue, VenueKind: string(market.Perp), Side: Buy, Price: longTick.Last, Quantity: qty},
			{Venue: payer.Venue, VenueKind: string(market.Perp), Side: Sell, Price: shortTick.Last, Quantity: qty},
		}

		out = append(out, Opportunity{
			ID:             StableID(FundingArb, sym, legs, now.UnixNano()),
			Kind:           FundingArb,
			Symbol:         sym,
			SpreadBps:      spreadBps,
			ExpectedPnlPct: diff,
			NotionalUSD:    notional,
			DetectedAt:     now,
			Legs:           legs,
			Metadata: map[string]interface{}{
				"funding_diff_8h_pct":       diff,
				receiver.Venue + "_funding_8h_pct": receiver.Rate8h(),
				payer.Venue + "_funding_8h_pct":    payer.Rate8h(),
				receiver.Venue + "_oi_usd":         longOI.OIUSD,
				payer.Venue + "_oi_usd":            shortOI.OIUSD,
			},
		})
	}
	return out
}
