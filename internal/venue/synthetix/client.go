// Package synthetix implements the DEX-style perp connector for
// Synthetix Perps V3 on Base, queried through its subgraph-backed REST proxy.
// Funding there settles daily; spec.md §4.1 normalizes it to 8h via ÷3.
package synthetix

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/sawpanic/arbitrageur/internal/market"
	"github.com/sawpanic/arbitrageur/internal/venue"
)

const apiURL = "https://base-api.synthetix.io/v1/markets"

// Client implements PerpTickerFetcher, FundingRateFetcher and
// OpenInterestFetcher for Synthetix perp markets on Base.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	markets []string // e.g. "BTC"
}

func New(markets []string) *Client {
	return &Client{
		http:    venue.DefaultHTTPClient(),
		limiter: rate.NewLimiter(rate.Limit(2), 2),
		markets: markets,
	}
}

func (c *Client) Name() venue.Name { return "synthetix" }

type marketRow struct {
	AssetName           string `json:"assetName"`
	IndexPrice          string `json:"indexPrice"`
	CurrentFundingRate  string `json:"currentFundingRate"` // daily-native
	MarketSize          string `json:"marketSize"`
}

func (c *Client) fetch(ctx context.Context) ([]marketRow, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var rows []marketRow
	if err := venue.GetJSON(ctx, c.http, apiURL, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) FetchPerpTickers(ctx context.Context) ([]market.Ticker, error) {
	rows, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	wanted := toSet(c.markets)
	now := time.Now()
	out := make([]market.Ticker, 0, len(c.markets))
	for _, r := range rows {
		if !wanted[r.AssetName] {
			continue
		}
		px, _ := strconv.ParseFloat(r.IndexPrice, 64)
		out = append(out, market.Ticker{
			Venue:      string(c.Name()),
			Instrument: market.NewPerpInstrument(r.AssetName, "USD"),
			Last:       px,
			Bid:        px,
			Ask:        px,
			Timestamp:  now,
		})
	}
	return out, nil
}

func (c *Client) FetchFundingRates(ctx context.Context) ([]market.FundingRate, error) {
	rows, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	wanted := toSet(c.markets)
	now := time.Now()
	out := make([]market.FundingRate, 0, len(c.markets))
	for _, r := range rows {
		if !wanted[r.AssetName] {
			continue
		}
		rate, _ := strconv.ParseFloat(r.CurrentFundingRate, 64)
		out = append(out, market.FundingRate{
			Venue:           string(c.Name()),
			Instrument:      market.NewPerpInstrument(r.AssetName, "USD"),
			RatePerInterval: rate,
			IntervalHours:   24,
			Timestamp:       now,
		})
	}
	return out, nil
}

func (c *Client) FetchOpenInterest(ctx context.Context) ([]market.OpenInterest, error) {
	rows, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	wanted := toSet(c.markets)
	now := time.Now()
	out := make([]market.OpenInterest, 0, len(c.markets))
	for _, r := range rows {
		if !wanted[r.AssetName] {
			continue
		}
		size, _ := strconv.ParseFloat(r.MarketSize, 64)
		px, _ := strconv.ParseFloat(r.IndexPrice, 64)
		out = append(out, market.OpenInterest{
			Venue:      string(c.Name()),
			Instrument: market.NewPerpInstrument(r.AssetName, "USD"),
			OIUSD:      size * px,
			Timestamp:  now,
		})
	}
	return out, nil
}

func toSet(markets []string) map[string]bool {
	set := make(map[string]bool, len(markets))
	for _, m := range markets {
		set[m] = true
	}
	return set
}
