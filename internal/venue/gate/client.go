// Package gate implements the centralized-REST connector for Gate.io spot
// and USDT-margined perpetuals, following okx.Client's batch-ticker shape.
package gate

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

const baseURL = "https://api.gateio.ws"

// Client implements SpotTickerFetcher, PerpTickerFetcher, FundingRateFetcher
// and OpenInterestFetcher for Gate.io's v4 API.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	symbols []string // e.g. "BTC_USDT"
}

func New(symbols []string) *Client {
	return &Client{
		http:    venue.DefaultHTTPClient(),
		limiter: rate.NewLimiter(rate.Limit(8), 8),
		symbols: symbols,
	}
}

func (c *Client) Name() venue.Name { return "gate" }

type spotTicker struct {
	CurrencyPair string `json:"currency_pair"`
	Last         string `json:"last"`
	HighestBid   string `json:"highest_bid"`
	LowestAsk    string `json:"lowest_ask"`
}

func (c *Client) FetchSpotTickers(ctx context.Context) ([]market.Ticker, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var rows []spotTicker
	if err := venue.GetJSON(ctx, c.http, baseURL+"/api/v4/spot/tickers", &rows); err != nil {
		return nil, err
	}
	wanted := toSet(c.symbols)
	now := time.Now()
	out := make([]market.Ticker, 0, len(c.symbols))
	for _, r := range rows {
		if !wanted[r.CurrencyPair] {
			continue
		}
		bid, _ := strconv.ParseFloat(r.HighestBid, 64)
		ask, _ := strconv.ParseFloat(r.LowestAsk, 64)
		last, _ := strconv.ParseFloat(r.Last, 64)
		out = append(out, market.Ticker{
			Venue:      string(c.Name()),
			Instrument: instrumentOf(r.CurrencyPair, market.Spot),
			Last:       last,
			Bid:        bid,
			Ask:        ask,
			Timestamp:  now,
		})
	}
	return out, nil
}

type perpTicker struct {
	Contract        string `json:"contract"`
	Last            string `json:"last"`
	FundingRate     string `json:"funding_rate"`
	TotalSize       string `json:"total_size"`
	MarkPrice       string `json:"mark_price"`
}

func (c *Client) fetchPerp(ctx context.Context) ([]perpTicker, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var rows []perpTicker
	if err := venue.GetJSON(ctx, c.http, baseURL+"/api/v4/futures/usdt/tickers", &rows); err != nil {
		return nil, err
	}
	return rows, nil
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
		if !wanted[r.Contract] {
			continue
		}
		last, _ := strconv.ParseFloat(r.Last, 64)
		out = append(out, market.Ticker{
			Venue:      string(c.Name()),
			Instrument: instrumentOf(r.Contract, market.Perp),
			Last:       last,
			Bid:        last,
			Ask:        last,
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
		if !wanted[r.Contract] {
			continue
		}
		rate, _ := strconv.ParseFloat(r.FundingRate, 64)
		out = append(out, market.FundingRate{
			Venue:           string(c.Name()),
			Instrument:      instrumentOf(r.Contract, market.Perp),
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
		if !wanted[r.Contract] {
			continue
		}
		size, _ := strconv.ParseFloat(r.TotalSize, 64)
		mark, _ := strconv.ParseFloat(r.MarkPrice, 64)
		out = append(out, market.OpenInterest{
			Venue:      string(c.Name()),
			Instrument: instrumentOf(r.Contract, market.Perp),
			OIUSD:      size * mark,
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

func instrumentOf(pair string, kind market.VenueKind) market.Instrument {
	parts := strings.SplitN(pair, "_", 2)
	if len(parts) != 2 {
		return market.Instrument{Base: pair, VenueKind: kind}
	}
	return market.Instrument{Base: parts[0], Quote: parts[1], VenueKind: kind}
}
