// Package bybit implements the centralized-REST connector for Bybit spot and
// linear perpetuals, following binance.Client's fetch-parse-normalize shape.
package bybit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/sawpanic/arbitrageur/internal/market"
	"github.com/sawpanic/arbitrageur/internal/venue"
)

const baseURL = "https://api.bybit.com"

// Client implements SpotTickerFetcher, PerpTickerFetcher, FundingRateFetcher
// and OpenInterestFetcher for Bybit's v5 unified market-data API.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	symbols []string
}

func New(symbols []string) *Client {
	return &Client{
		http:    venue.DefaultHTTPClient(),
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		symbols: symbols,
	}
}

func (c *Client) Name() venue.Name { return "bybit" }

type tickersEnvelope struct {
	Result struct {
		List []tickerRow `json:"list"`
	} `json:"result"`
}

type tickerRow struct {
	Symbol          string `json:"symbol"`
	Bid1Price       string `json:"bid1Price"`
	Ask1Price       string `json:"ask1Price"`
	LastPrice       string `json:"lastPrice"`
	FundingRate     string `json:"fundingRate"`
	OpenInterest    string `json:"openInterest"`
	OpenInterestVal string `json:"openInterestValue"`
}

func (c *Client) fetch(ctx context.Context, category string) ([]tickerRow, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var env tickersEnvelope
	url := baseURL + "/v5/market/tickers?category=" + category
	if err := venue.GetJSON(ctx, c.http, url, &env); err != nil {
		return nil, err
	}
	return env.Result.List, nil
}

func (c *Client) FetchSpotTickers(ctx context.Context) ([]market.Ticker, error) {
	rows, err := c.fetch(ctx, "spot")
	if err != nil {
		return nil, err
	}
	return c.toTickers(rows, market.Spot), nil
}

func (c *Client) FetchPerpTickers(ctx context.Context) ([]market.Ticker, error) {
	rows, err := c.fetch(ctx, "linear")
	if err != nil {
		return nil, err
	}
	return c.toTickers(rows, market.Perp), nil
}

func (c *Client) FetchFundingRates(ctx context.Context) ([]market.FundingRate, error) {
	rows, err := c.fetch(ctx, "linear")
	if err != nil {
		return nil, err
	}
	wanted := toSet(c.symbols)
	now := time.Now()
	out := make([]market.FundingRate, 0, len(rows))
	for _, r := range rows {
		if !wanted[r.Symbol] {
			continue
		}
		rate, _ := strconv.ParseFloat(r.FundingRate, 64)
		out = append(out, market.FundingRate{
			Venue:           string(c.Name()),
			Instrument:      instrumentOf(r.Symbol, market.Perp),
			RatePerInterval: rate,
			IntervalHours:   8,
			Timestamp:       now,
		})
	}
	return out, nil
}

func (c *Client) FetchOpenInterest(ctx context.Context) ([]market.OpenInterest, error) {
	rows, err := c.fetch(ctx, "linear")
	if err != nil {
		return nil, err
	}
	wanted := toSet(c.symbols)
	now := time.Now()
	out := make([]market.OpenInterest, 0, len(rows))
	for _, r := range rows {
		if !wanted[r.Symbol] {
			continue
		}
		usd, _ := strconv.ParseFloat(r.OpenInterestVal, 64)
		out = append(out, market.OpenInterest{
			Venue:      string(c.Name()),
			Instrument: instrumentOf(r.Symbol, market.Perp),
			OIUSD:      usd,
			Timestamp:  now,
		})
	}
	return out, nil
}

func (c *Client) toTickers(rows []tickerRow, kind market.VenueKind) []market.Ticker {
	wanted := toSet(c.symbols)
	now := time.Now()
	out := make([]market.Ticker, 0, len(rows))
	for _, r := range rows {
		if !wanted[r.Symbol] {
			continue
		}
		bid, _ := strconv.ParseFloat(r.Bid1Price, 64)
		ask, _ := strconv.ParseFloat(r.Ask1Price, 64)
		last, _ := strconv.ParseFloat(r.LastPrice, 64)
		out = append(out, market.Ticker{
			Venue:      string(c.Name()),
			Instrument: instrumentOf(r.Symbol, kind),
			Last:       last,
			Bid:        bid,
			Ask:        ask,
			Timestamp:  now,
		})
	}
	return out
}

func toSet(symbols []string) map[string]bool {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[s] = true
	}
	return set
}

var knownQuotes = []string{"USDT", "USDC", "BTC", "ETH"}

func instrumentOf(raw string, kind market.VenueKind) market.Instrument {
	for _, q := range knownQuotes {
		if len(raw) > len(q) && raw[len(raw)-len(q):] == q {
			return market.Instrument{Base: raw[:len(raw)-len(q)], Quote: q, VenueKind: kind}
		}
	}
	return market.Instrument{Base: raw, VenueKind: kind}
}
