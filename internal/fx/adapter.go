package fx

import (
	"context"

	"github.com/sawpanic/arbitrageur/internal/market"
	"github.com/sawpanic/arbitrageur/internal/venue"
)

// fetcher is the subset of venue.FxFetcher this package depends on.
type fetcher interface {
	Name() venue.Name
	FetchFxRate(ctx context.Context) (market.FxRate, error)
}

// FromFetcher adapts a venue.FxFetcher (dunamu.Client, exchangerate.Client)
// into a fx.Source.
func FromFetcher(f fetcher) Source {
	return fetcherSource{f}
}

type fetcherSource struct{ f fetcher }

func (s fetcherSource) Name() string { return string(s.f.Name()) }

func (s fetcherSource) Fetch(ctx context.Context) (market.FxRate, error) {
	return s.f.FetchFxRate(ctx)
}
