// Package dunamu implements the primary FX source in the Resolver's fallback
// chain, Dunamu's (Upbit's parent company) public forex feed.
package dunamu

import (
	"context"
	"net/http"
	"time"

	"github.com/sawpanic/arbitrageur/internal/market"
	"github.com/sawpanic/arbitrageur/internal/venue"
)

const forexURL = "https://quotation-api-cdn.dunamu.com/v1/forex/recent?codes=FRX.KRWUSD"

// Client implements FxFetcher against Dunamu's forex recent-quote endpoint.
type Client struct {
	http *http.Client
}

func New() *Client {
	return &Client{http: venue.DefaultHTTPClient()}
}

func (c *Client) Name() venue.Name { return "dunamu" }

type forexRow struct {
	BasePrice float64 `json:"basePrice"`
}

func (c *Client) FetchFxRate(ctx context.Context) (market.FxRate, error) {
	var rows []forexRow
	if err := venue.GetJSON(ctx, c.http, forexURL, &rows); err != nil {
		return market.FxRate{}, err
	}
	if len(rows) == 0 || rows[0].BasePrice <= 0 {
		return market.FxRate{}, venue.ErrDecodeSchema
	}
	krwPerUSD := rows[0].BasePrice
	return market.FxRate{
		KRWPerUSD: krwPerUSD,
		USDPerKRW: 1 / krwPerUSD,
		Source:    string(c.Name()),
		Timestamp: time.Now(),
	}, nil
}
