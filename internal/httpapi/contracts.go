// Package httpapi serves the read-only pull/push interface documented in
// spec.md §6, grounded on internal/interfaces/http's contracts/handlers/server
// split — contracts.go here plays the same role as that package's
// contracts.go: the stable wire DTOs, decoupled from the internal
// opportunity.Opportunity representation so the two can evolve separately.
package httpapi

import (
	"strings"
	"time"

	"github.com/sawpanic/arbitrageur/internal/opportunity"
)

// WireLeg is one leg of a wire-contract Opportunity.
type WireLeg struct {
	Exchange  string  `json:"exchange"`
	VenueType string  `json:"venue_type"`
	Side      string  `json:"side"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
}

// WireOpportunity is the stable spec.md §6 JSON schema.
type WireOpportunity struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	Symbol         string                 `json:"symbol"`
	SpreadBps      float64                `json:"spread_bps"`
	ExpectedPnlPct float64                `json:"expected_pnl_pct"`
	Notional       float64                `json:"notional"`
	Timestamp      string                 `json:"timestamp"`
	Description    string                 `json:"description"`
	Legs           []WireLeg              `json:"legs"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	Tradeable      *bool                  `json:"tradeable,omitempty"`
	DepositStatus  *DepositStatus         `json:"deposit_status,omitempty"`
}

// DepositStatus carries the buy/sell leg's deposit-capable wallet flags.
// nil means unknown, matching the wire contract's bool|null.
type DepositStatus struct {
	Buy  *bool `json:"buy"`
	Sell *bool `json:"sell"`
}

var kindToWire = map[opportunity.Kind]string{
	opportunity.SpotCross:      "spot_cross",
	opportunity.KimchiPremium:  "kimchi_premium",
	opportunity.FundingArb:     "funding_arb",
	opportunity.SpotPerpBasis:  "spot_vs_perp",
	opportunity.PerpPerpSpread: "perp_perp_spread",
}

// ToWire translates an internal Opportunity into its stable wire form.
func ToWire(o opportunity.Opportunity) WireOpportunity {
	legs := make([]WireLeg, len(o.Legs))
	notional := 0.0
	for i, l := range o.Legs {
		legs[i] = WireLeg{
			Exchange:  string(l.Venue),
			VenueType: string(l.VenueKind),
			Side:      strings.ToLower(string(l.Side)),
			Symbol:    o.Symbol,
			Price:     l.Price,
			Quantity:  l.Quantity,
		}
		if n := l.NotionalUSD(); n > notional {
			notional = n
		}
	}

	w := WireOpportunity{
		ID:             o.ID,
		Type:           kindToWire[o.Kind],
		Symbol:         o.Symbol,
		SpreadBps:      o.SpreadBps,
		ExpectedPnlPct: o.ExpectedPnlPct,
		Notional:       notional,
		Timestamp:      o.DetectedAt.UTC().Format(time.RFC3339),
		Description:    describe(o),
		Legs:           legs,
		Tradeable:      o.Tradeable,
	}
	if len(o.Metadata) > 0 {
		w.Metadata = make(map[string]interface{}, len(o.Metadata))
		for k, v := range o.Metadata {
			w.Metadata[k] = v
		}
	}
	if buy, sell, ok := depositFlags(o); ok {
		w.DepositStatus = &DepositStatus{Buy: buy, Sell: sell}
	}
	return w
}

// ToWireList maps a slice of opportunities to their wire form.
func ToWireList(opps []opportunity.Opportunity) []WireOpportunity {
	out := make([]WireOpportunity, len(opps))
	for i, o := range opps {
		out[i] = ToWire(o)
	}
	return out
}

func describe(o opportunity.Opportunity) string {
	switch o.Kind {
	case opportunity.SpotCross:
		return "Spot price divergence for " + o.Symbol + " across venues"
	case opportunity.KimchiPremium:
		return "KRW venue premium detected for " + o.Symbol
	case opportunity.FundingArb:
		return "Funding rate divergence for " + o.Symbol
	case opportunity.SpotPerpBasis:
		return "Spot/perp basis divergence for " + o.Symbol
	case opportunity.PerpPerpSpread:
		return "Cross-venue perp spread for " + o.Symbol
	default:
		return ""
	}
}

func depositFlags(o opportunity.Opportunity) (buy, sell *bool, ok bool) {
	if len(o.WalletStatus) == 0 || len(o.Legs) < 2 {
		return nil, nil, false
	}
	buy = statusFlag(o.WalletStatus[string(o.Legs[0].Venue)])
	sell = statusFlag(o.WalletStatus[string(o.Legs[1].Venue)])
	if buy == nil && sell == nil {
		return nil, nil, false
	}
	return buy, sell, true
}

func statusFlag(status string) *bool {
	switch status {
	case "true":
		b := true
		return &b
	case "false":
		b := false
		return &b
	default:
		return nil
	}
}

// ErrorResponse is the standardized error envelope.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// SpreadSummaryByKind is one kind's aggregate stats for /api/monitor/spreads.
type SpreadSummaryByKind struct {
	Count int     `json:"count"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
}

// SpreadsResponse is the /api/monitor/spreads payload.
type SpreadsResponse struct {
	Total          int                            `json:"total"`
	ByKind         map[string]SpreadSummaryByKind `json:"by_kind"`
	USDKRW         float64                        `json:"usd_krw"`
	ExchangeCounts map[string]int                 `json:"exchange_counts"`
	Opportunities  []WireOpportunity              `json:"opportunities"`
}

// TetherBotResponse is the /api/signals/tether-bot payload: the
// kimchi-premium subset plus its allocation metadata, already embedded in
// each opportunity's Metadata map.
type TetherBotResponse struct {
	Opportunities []WireOpportunity `json:"opportunities"`
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status      string           `json:"status"`
	Timestamp   string           `json:"timestamp"`
	Subscribers int              `json:"subscribers"`
	Circuits    map[string]string `json:"circuits"`
}
