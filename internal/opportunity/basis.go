package opportunity

import (
	"time"

	"github.com/sawpanic/arbitrageur/internal/market"
)

// DetectSpotPerpBasis pairs each spot ticker with any perp ticker on the
// same (base, quote), across venues, and emits a basis opportunity when the
// absolute basis clears gates.MinBasisBps. Expected funding cost is not part
// of that gate; it is subtracted only in ExpectedPnlPct.
func DetectSpotPerpBasis(view *market.View, gates Gates, fundingBySymbol map[string]market.FundingRate, now time.Time) []Opportunity {
	var spots, perps []market.Ticker
	for _, t := range view.AllTickers() {
		if !t.Fresh(now, gates.MaxTickerAge) || t.Last <= 0 {
			continue
		}
		switch t.Instrument.VenueKind {
		case market.Spot:
			spots = append(spots, t)
		case market.Perp:
			perps = append(perps, t)
		}
	}

	var out []Opportunity
	for _, spot := range spots {
		sym := spot.Instrument.Symbol()
		for _, perp := range perps {
			if perp.Instrument.Symbol() != sym {
				continue
			}
			basisBps := (perp.Last - spot.Last) / spot.Last * 10000
			absBasis := basisBps
			if absBasis < 0 {
				absBasis = -absBasis
			}
			if absBasis < gates.MinBasisBps {
				continue
			}

			fundingCostBps := 0.0
			if f, ok := fundingBySymbol[sym]; ok {
				fundingCostBps = f.Rate8h() * 10000
				if fundingCostBps < 0 {
					fundingCostBps = -fundingCostBps
				}
			}

			var cheapVenue, richVenue market.Ticker
			var cheapSide, richSide Side
			if spot.Last < perp.Last {
				cheapVenue, richVenue = spot, perp
			} else {
				cheapVenue, richVenue = perp, spot
			}
			cheapSide, richSide = Buy, Sell

			// Equal-quantity legs, not equal-notional; see spotcross.go's note
			// on the quantity-delta-neutral interpretation.
			notional := 1000.0
			qty := notional / cheapVenue.Last
			legs := []Leg{
				{Venue: cheapVenue.Venue, VenueKind: string(cheapVenue.Instrument.VenueKind), Side: cheapSide, Price: cheapVenue.Last, Quantity: qty},
				{Venue: richVenue.Venue, VenueKind: string(richVenue.Instrument.VenueKind), Side: richSide, Price: richVenue.Last, Quantity: qty},
			}

			out = append(out, Opportunity{
				ID:             StableID(SpotPerpBasis, sym, legs, now.UnixNano()),
				Kind:           SpotPerpBasis,
				Symbol:         sym,
				SpreadBps:      absBasis,
				ExpectedPnlPct: (absBasis - fundingCostBps) / 100,
				NotionalUSD:    notional,
				DetectedAt:     now,
				Legs:           legs,
				Metadata: map[string]interface{}{
					"basis_bps":                   basisBps,
					"expected_funding_cost_bps":   fundingCostBps,
				},
			})
		}
	}
	return out
}
