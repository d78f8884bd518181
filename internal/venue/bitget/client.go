// Package bitget implements the centralized-REST connector for Bitget spot
// and USDT-margined perpetuals, grounded on connector-bitget-.go's
// instrument-ID conventions.
package bitget

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sawpanic/arbitrageur/internal/market"
	"github.com/sawpanic/arbitrageur/internal/venue"
)

const baseURL = "https://api.bitget.com"

// Client implements SpotTickerFetcher, PerpTickerFetcher, FundingRateFetcher
// and OpenInterestFetcher for Bitget's v2 mix/spot market-data API.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	symbols []string // e.g. "BTCUSDT"
}

func New(symbols []string) *Client {
	return &Client{
		http:    venue.DefaultHTTPClient(),
		limiter: rate.NewLimiter(rate.Limit(8), 8),
		symbols: symbols,
	}
}

func (c *Client) Name() venue.Name { return "bitget" }

type envelope struct {
	Data []tickerRow `json:"data"`
}

type tickerRow struct {
	Symbol        string `json:"symbol"`
	LastPr        string `json:"lastPr"`
	BidPr         string `json:"bidPr"`
	AskPr         string `json:"askPr"`
	FundingRate   string `json:"fundingRate"`
	HoldingAmount string `json:"holdingAmount"`
}

func (c *Client) FetchSpotTickers(ctx context.Context) ([]market.Ticker, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var env envelope
	if err := venue.GetJSON(ctx, c.http, baseURL+"/api/v2/spot/market/tickers", &env); err != nil {
		return nil, err
	}
	return toTickers(env.Data, toSet(c.symbols), market.Spot), nil
}

func (c *Client) fetchPerp(ctx context.Context) ([]tickerRow, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var env envelope
	url := baseURL + "/api/v2/mix/market/tickers?productType=USDT-FUTURES"
	if err := venue.GetJSON(ctx, c.http, url, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) FetchPerpTickers(ctx context.Context) ([]market.Ticker, error) {
	rows, err := c.fetchPerp(ctx)
	if err != nil {
		return nil, err
	}
	return toTickers(rows, toSet(c.symbols), market.Perp), nil
}

func (c *Client) FetchFundingRates(ctx context.Context) ([]market.FundingRate, error) {
	rows, err := c.fetchPerp(ctx)
	if err != nil {
		return nil, err
	}
	wanted := toSet(c.symbols)
	now := time.Now()
	out := make([]market.FundingRate, 0, len(c.symbols))
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
	rows, err := c.fetchPerp(ctx)
	if err != nil {
		return nil, err
	}
	wanted := toSet(c.symbols)
	now := time.Now()
	out := make([]market.OpenInterest, 0, len(c.symbols))
	for _, r := range rows {
		if !wanted[r.Symbol] {
			continue
		}
		amt, _ := strconv.ParseFloat(r.HoldingAmount, 64)
		last, _ := strconv.ParseFloat(r.LastPr, 64)
		out = append(out, market.OpenInterest{
			Venue:      string(c.Name()),
			Instrument: instrumentOf(r.Symbol, market.Perp),
			OIUSD:      amt * last,
			Timestamp:  now,
		})
	}
	return out, nil
}

func toTickers(rows []tickerRow, wanted map[string]bool, kind market.VenueKind) []market.Ticker {
	now := time.Now()
	out := make([]market.Ticker, 0, len(rows))
	for _, r := range rows {
		if !wanted[r.Symbol] {
			continue
		}
		bid, _ := strconv.ParseFloat(r.BidPr, 64)
		ask, _ := strconv.ParseFloat(r.AskPr, 64)
		last, _ := strconv.ParseFloat(r.LastPr, 64)
		out = append(out, market.Ticker{
			Venue:      "bitget",
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

var knownQuotes = []string{"USDT", "USDC", "BTC"}

func instrumentOf(raw string, kind market.VenueKind) market.Instrument {
	for _, q := range knownQuotes {
		if len(raw) > len(q) && strings.HasSuffix(raw, q) {
			return market.Instrument{Base: raw[:len(raw)-len(q)], Quote: q, VenueKind: kind}
		}
	}
	return market.Instrument{Base: raw, VenueKind: kind}
}
