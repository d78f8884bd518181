// Package exchangerate implements the secondary FX source in the Resolver's
// fallback chain, a generic open exchange-rate API.
package exchangerate

import (
	"context"
	"net/http"
	"time"

	"github.com/sawpanic/arbitrageur/internal/market"
	"github.com/sawpanic/arbitrageur/internal/venue"
)

const latestURL = "https://open.er-api.com/v6/latest/USD"

// Client implements FxFetcher against an open exchange-rate API keyed off
// USD, used only when Dunamu errors or fails the sanity-band check
// (spec.md §4.2).
type Client struct {
	http *http.Client
}

func New() *Client {
	return &Client{http: venue.DefaultHTTPClient()}
}

func (c *Client) Name() venue.Name { return "exchangerate" }

type latestResponse struct {
	Rates map[string]float64 `json:"rates"`
}

func (c *Client) FetchFxRate(ctx context.Context) (market.FxRate, error) {
	var resp latestResponse
	if err := venue.GetJSON(ctx, c.http, latestURL, &resp); err != nil {
		return market.FxRate{}, err
	}
	krw, ok := resp.Rates["KRW"]
	if !ok || krw <= 0 {
		return market.FxRate{}, venue.ErrDecodeSchema
	}
	return market.FxRate{
		KRWPerUSD: krw,
		USDPerKRW: 1 / krw,
		Source:    string(c.Name()),
		Timestamp: time.Now(),
	}, nil
}
