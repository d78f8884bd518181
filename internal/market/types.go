// Package market holds the normalized market-data model shared by every
// venue connector and opportunity detector: instruments, tickers, funding
// rates, open interest, FX rates and wallet state.
package market

import "time"

// VenueKind distinguishes the instrument's trading surface.
type VenueKind string

const (
	Spot VenueKind = "SPOT"
	Perp VenueKind = "PERP"
	FX   VenueKind = "FX"
)

// Instrument is the canonical trading-pair identifier. Base and Quote are
// always upper-case with no venue-specific delimiter.
type Instrument struct {
	Base      string
	Quote     string
	VenueKind VenueKind
}

// Symbol returns the base/quote concatenation used as a map key and in
// detector grouping, e.g. "BTCUSDT".
func (i Instrument) Symbol() string {
	return i.Base + i.Quote
}

// Ticker is the top-of-book quote for a (venue, instrument) pair.
type Ticker struct {
	Venue      string
	Instrument Instrument
	Last       float64
	Bid        float64 // 0 if unavailable
	Ask        float64 // 0 if unavailable
	Timestamp  time.Time
}

// HasBidAsk reports whether both sides of the book are populated.
func (t Ticker) HasBidAsk() bool {
	return t.Bid > 0 && t.Ask > 0
}

// Fresh reports whether the ticker is within maxAge of now.
func (t Ticker) Fresh(now time.Time, maxAge time.Duration) bool {
	return !t.Timestamp.IsZero() && now.Sub(t.Timestamp) <= maxAge
}

// FundingRate is the periodic perp funding payment for (venue, instrument).
type FundingRate struct {
	Venue            string
	Instrument       Instrument
	RatePerInterval  float64
	IntervalHours    float64
	NextFundingTime  time.Time
	Timestamp        time.Time
}

// Rate8h normalizes the native interval rate to an 8-hour equivalent. This
// normalization is applied centrally here, not by connectors (spec: "8h
// normalization applied centrally by the detector, not the connector" —
// exposed as a method on the data so every detector gets it for free and
// consistently).
func (f FundingRate) Rate8h() float64 {
	if f.IntervalHours <= 0 {
		return 0
	}
	return f.RatePerInterval * (8.0 / f.IntervalHours)
}

// OpenInterest is a liquidity gate for perp instruments.
type OpenInterest struct {
	Venue      string
	Instrument Instrument
	OIUSD      float64
	Timestamp  time.Time
}

// FxRate carries the USD/KRW cross in both directions.
type FxRate struct {
	KRWPerUSD float64
	USDPerKRW float64
	Source    string
	Stale     bool
	Timestamp time.Time
}

// InBand reports whether the rate passes the [1000, 2000] sanity band
// required by spec.md §3.
func (f FxRate) InBand() bool {
	return f.KRWPerUSD >= 1000 && f.KRWPerUSD <= 2000
}

// TriState is a nullable boolean: wallet flags default to unknown rather
// than blocking a tradeability decision.
type TriState int

const (
	Unknown TriState = iota
	True
	False
)

// FromBool converts a Go bool into its corresponding TriState.
func FromBool(b bool) TriState {
	if b {
		return True
	}
	return False
}

// WalletState is the deposit/withdraw capability for (venue, asset).
type WalletState struct {
	Venue           string
	Asset           string
	DepositEnabled  TriState
	WithdrawEnabled TriState
	Timestamp       time.Time
}
