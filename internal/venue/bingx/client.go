// Package bingx implements the centralized-REST connector for BingX spot and
// USDT-margined perpetual swaps.
package bingx

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

const baseURL = "https://open-api.bingx.com"

// Client implements SpotTickerFetcher, PerpTickerFetcher, FundingRateFetcher
// and OpenInterestFetcher for BingX's v2/v3 market-data endpoints.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	symbols []string // e.g. "BTC-USDT"
}

func New(symbols []string) *Client {
	return &Client{
		http:    venue.DefaultHTTPClient(),
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		symbols: symbols,
	}
}

func (c *Client) Name() venue.Name { return "bingx" }

type spotEnvelope struct {
	Data []struct {
		Symbol    string `json:"symbol"`
		BidPrice  string `json:"bidPrice"`
		AskPrice  string `json:"askPrice"`
		TradePrice string `json:"tradePrice"`
	} `json:"data"`
}

func (c *Client) FetchSpotTickers(ctx context.Context) ([]market.Ticker, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var env spotEnvelope
	if err := venue.GetJSON(ctx, c.http, baseURL+"/openApi/spot/v1/ticker/bookTicker", &env); err != nil {
		return nil, err
	}
	wanted := toSet(c.symbols)
	now := time.Now()
	out := make([]market.Ticker, 0, len(c.symbols))
	for _, r := range env.Data {
		if !wanted[r.Symbol] {
			continue
		}
		bid, _ := strconv.ParseFloat(r.BidPrice, 64)
		ask, _ := strconv.ParseFloat(r.AskPrice, 64)
		out = append(out, market.Ticker{
			Venue:      string(c.Name()),
			Instrument: instrumentOf(r.Symbol, market.Spot),
			Last:       (bid + ask) / 2,
			Bid:        bid,
			Ask:        ask,
			Timestamp:  now,
		})
	}
	return out, nil
}

type perpRow struct {
	Symbol          string `json:"symbol"`
	LastPrice       string `json:"lastPrice"`
	BidPrice        string `json:"bidPrice"`
	AskPrice        string `json:"askPrice"`
	LastFundingRate string `json:"lastFundingRate"`
}

func (c *Client) fetchPerp(ctx context.Context) ([]perpRow, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var env struct {
		Data []perpRow `json:"data"`
	}
	if err := venue.GetJSON(ctx, c.http, baseURL+"/openApi/swap/v2/quote/ticker", &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) FetchPerpTickers(ctx context.Context) ([]market.Ticker, error) {
	rows, err := c.fetchPerp(ctx)
	if err != nil {
		return nil, err
	}
	wanted := toSet(c.symbols)
	now := time.Now()
	out := make([]market.Ticker, 0, len(c.symbols))
	for _, r := range rows {
		if !wanted[r.Symbol] {
			continue
		}
		bid, _ := strconv.ParseFloat(r.BidPrice, 64)
		ask, _ := strconv.ParseFloat(r.AskPrice, 64)
		last, _ := strconv.ParseFloat(r.LastPrice, 64)
		out = append(out, market.Ticker{
			Venue:      string(c.Name()),
			Instrument: instrumentOf(r.Symbol, market.Perp),
			Last:       last,
			Bid:        bid,
			Ask:        ask,
			Timestamp:  now,
		})
	}
	return out, nil
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
		rate, _ := strconv.ParseFloat(r.LastFundingRate, 64)
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

type oiRow struct {
	Symbol       string `json:"symbol"`
	OpenInterest string `json:"openInterest"`
}

// FetchOpenInterest fetches per-symbol open interest, since BingX's swap API
// exposes OI one instrument at a time rather than in the ticker batch.
func (c *Client) FetchOpenInterest(ctx context.Context) ([]market.OpenInterest, error) {
	perps, err := c.FetchPerpTickers(ctx)
	if err != nil {
		return nil, err
	}
	prices := make(map[string]float64, len(perps))
	for _, t := range perps {
		prices[t.Instrument.Base+"-"+t.Instrument.Quote] = t.Last
	}
	now := time.Now()
	out := make([]market.OpenInterest, 0, len(c.symbols))
	for _, sym := range c.symbols {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		var env struct {
			Data oiRow `json:"data"`
		}
		url := baseURL + "/openApi/swap/v2/quote/openInterest?symbol=" + sym
		if err := venue.GetJSON(ctx, c.http, url, &env); err != nil {
			continue
		}
		qty, _ := strconv.ParseFloat(env.Data.OpenInterest, 64)
		out = append(out, market.OpenInterest{
			Venue:      string(c.Name()),
			Instrument: instrumentOf(sym, market.Perp),
			OIUSD:      qty * prices[sym],
			Timestamp:  now,
		})
	}
	return out, nil
}

func toSet(symbols []string) map[string]bool {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[s] = true
	}
	return set
}

func instrumentOf(raw string, kind market.VenueKind) market.Instrument {
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return market.Instrument{Base: raw, VenueKind: kind}
	}
	return market.Instrument{Base: parts[0], Quote: parts[1], VenueKind: kind}
}
