// Package opportunity implements the five arbitrage detectors, the
// fan-out engine that runs them against one consistent Market Snapshot view,
// and the alert-tracker state machine layered on top of the emitted stream.
package opportunity

import "time"

// Kind identifies which detector produced an Opportunity.
type Kind string

const (
	SpotCross     Kind = "SPOT_CROSS"
	KimchiPremium Kind = "KIMCHI_PREMIUM"
	FundingArb    Kind = "FUNDING_ARB"
	SpotPerpBasis Kind = "SPOT_PERP_BASIS"
	PerpPerpSpread Kind = "PERP_PERP_SPREAD"
)

// Side is a leg's trade direction.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Leg is one side of a delta-neutral opportunity.
type Leg struct {
	Venue     string  `json:"venue"`
	VenueKind string  `json:"venue_kind"`
	Side      Side    `json:"side"`
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
}

// NotionalUSD returns this leg's signed notional, negative for SELL.
func (l Leg) NotionalUSD() float64 {
	n := l.Price * l.Quantity
	if l.Side == Sell {
		return -n
	}
	return n
}

// Tradeable is a tri-state wallet-backed verdict: true, false, or nil for
// unknown (spec.md §4.4: "any unknown → tradeable = unknown, never false").
// Fields of this type carry omitempty, so a nil verdict is left out of the
// JSON encoding; an unknown verdict and missing wallet data encode the same.
type Tradeable *bool

// Opportunity is the emitted detection. It is produced by value every tick
// and never mutated in place (spec.md §3).
type Opportunity struct {
	ID             string                 `json:"id"`
	Kind           Kind                   `json:"kind"`
	Symbol         string                 `json:"symbol"`
	SpreadBps      float64                `json:"spread_bps"`
	ExpectedPnlPct float64                `json:"expected_pnl_pct"`
	NotionalUSD    float64                `json:"notional_usd"`
	DetectedAt     time.Time              `json:"detected_at"`
	Legs           []Leg                  `json:"legs"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	Tradeable      Tradeable              `json:"tradeable,omitempty"`
	WalletStatus   map[string]string      `json:"wallet_status,omitempty"`
}

// VenueKey returns the sorted-venues dedup key component.
func VenueKey(legs []Leg) string {
	venues := make([]string, len(legs))
	for i, l := range legs {
		venues[i] = l.Venue
	}
	return sortedJoin(venues)
}

func sortedJoin(ss []string) string {
	cp := append([]string(nil), ss...)
	for i := 1; i < len(cp); i++ {
		for j := i; j > 0 && cp[j-1] > cp[j]; j-- {
			cp[j-1], cp[j] = cp[j], cp[j-1]
		}
	}
	out := ""
	for i, s := range cp {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

// DedupKey is the (kind, symbol, sorted venues) key spec.md §4.5 dedupes on.
func (o Opportunity) DedupKey() string {
	return string(o.Kind) + "|" + o.Symbol + "|" + VenueKey(o.Legs)
}

// Gates bundles the per-candidate thresholds common to every detector
// (spec.md §4.5's "Common gates"), plus each detector's kind-specific
// threshold (spec.md §6's min_spread_bps, min_funding_8h_pct, min_basis_bps,
// min_kimchi_pct, max_combined_spread_bps config knobs) so that overriding
// them in YAML actually changes detection rather than a compiled-in const.
type Gates struct {
	MaxTickerAge  time.Duration
	MinOIUSD      float64
	FeeBpsByVenue map[string]float64
	DefaultFeeBps float64
	SlippageBps   float64

	MinSpotCrossBps      float64
	MinPerpPerpSpreadBps float64
	MinBasisBps          float64
	MinFundingArb8hPct   float64
	MaxCombinedSpreadBps float64
	MinKimchiPct         float64
}

// FeeBps returns the configured fee for venue, or DefaultFeeBps.
func (g Gates) FeeBps(venue string) float64 {
	if f, ok := g.FeeBpsByVenue[venue]; ok {
		return f
	}
	return g.DefaultFeeBps
}

// PassesCostGate applies spec.md §4.5's round-trip cost gate:
// spread_bps − fee_bps_A − fee_bps_B − slippage_bps > 0.
func (g Gates) PassesCostGate(spreadBps float64, venueA, venueB string) bool {
	return spreadBps-g.FeeBps(venueA)-g.FeeBps(venueB)-g.SlippageBps > 0
}
