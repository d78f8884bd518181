// Package venue defines the capability-subset connector contracts every
// exchange/FX adapter implements. A connector satisfies only the interfaces
// its venue's API actually supports — there is no capability enum or flag;
// Go's implicit interface satisfaction is the capability registry.
package venue

import (
	"context"

	"github.com/sawpanic/arbitrageur/internal/market"
)

// Name identifies a connector for logging, metrics labels and config lookup.
type Name string

// SpotTickerFetcher is implemented by venues that serve spot top-of-book.
type SpotTickerFetcher interface {
	Name() Name
	FetchSpotTickers(ctx context.Context) ([]market.Ticker, error)
}

// PerpTickerFetcher is implemented by venues that serve perpetual futures
// top-of-book.
type PerpTickerFetcher interface {
	Name() Name
	FetchPerpTickers(ctx context.Context) ([]market.Ticker, error)
}

// FundingRateFetcher is implemented by venues that serve perp funding rates.
type FundingRateFetcher interface {
	Name() Name
	FetchFundingRates(ctx context.Context) ([]market.FundingRate, error)
}

// OpenInterestFetcher is implemented by venues that serve perp open interest.
type OpenInterestFetcher interface {
	Name() Name
	FetchOpenInterest(ctx context.Context) ([]market.OpenInterest, error)
}

// WalletStateFetcher is implemented by venues that expose deposit/withdraw
// capability per asset (typically centralized spot venues).
type WalletStateFetcher interface {
	Name() Name
	FetchWalletState(ctx context.Context) ([]market.WalletState, error)
}

// FxFetcher is implemented by FX-rate sources (dunamu, exchangerate-api).
type FxFetcher interface {
	Name() Name
	FetchFxRate(ctx context.Context) (market.FxRate, error)
}

// Connector is the union of every capability a venue adapter might expose.
// Nothing implements all of it directly — the scheduler type-asserts a
// registered adapter against each sub-interface it cares about, mirroring
// other_examples' Connector/BaseConnector split without forcing every venue
// to stub the methods it doesn't have.
type Connector interface {
	Name() Name
}
