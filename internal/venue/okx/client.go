// Package okx implements the centralized-REST connector for OKX spot and
// perpetual swaps, grounded on connector-okx-okx.go's base-URL/instrument
// conventions but polling REST instead of streaming WebSocket (spec.md §4.7
// drives refreshes from the scheduler, not a push feed).
package okx

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

const restBaseURL = "https://www.okx.com"

// Client implements SpotTickerFetcher, PerpTickerFetcher, FundingRateFetcher
// and OpenInterestFetcher. instIDs carries OKX's dash-delimited form, e.g.
// "BTC-USDT" (spot) and "BTC-USDT-SWAP" (perp).
type Client struct {
	http     *http.Client
	limiter  *rate.Limiter
	spotIDs  []string
	perpIDs  []string
}

func New(spotIDs, perpIDs []string) *Client {
	return &Client{
		http:    venue.DefaultHTTPClient(),
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		spotIDs: spotIDs,
		perpIDs: perpIDs,
	}
}

func (c *Client) Name() venue.Name { return "okx" }

type tickerEnvelope struct {
	Data []tickerRow `json:"data"`
}

type tickerRow struct {
	InstID  string `json:"instId"`
	Last    string `json:"last"`
	BidPx   string `json:"bidPx"`
	AskPx   string `json:"askPx"`
}

func (c *Client) fetchTickers(ctx context.Context, instType string) ([]tickerRow, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var env tickerEnvelope
	url := restBaseURL + "/api/v5/market/tickers?instType=" + instType
	if err := venue.GetJSON(ctx, c.http, url, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) FetchSpotTickers(ctx context.Context) ([]market.Ticker, error) {
	rows, err := c.fetchTickers(ctx, "SPOT")
	if err != nil {
		return nil, err
	}
	return toTickers(rows, toSet(c.spotIDs), market.Spot), nil
}

func (c *Client) FetchPerpTickers(ctx context.Context) ([]market.Ticker, error) {
	rows, err := c.fetchTickers(ctx, "SWAP")
	if err != nil {
		return nil, err
	}
	return toTickers(rows, toSet(c.perpIDs), market.Perp), nil
}

type fundingRow struct {
	InstID      string `json:"instId"`
	FundingRate string `json:"fundingRate"`
	NextFundingTime string `json:"nextFundingTime"`
}

// FetchFundingRates fetches one instrument's funding at a time — OKX's
// funding-rate endpoint is single-instrument, unlike its batch ticker feed.
func (c *Client) FetchFundingRates(ctx context.Context) ([]market.FundingRate, error) {
	now := time.Now()
	out := make([]market.FundingRate, 0, len(c.perpIDs))
	for _, instID := range c.perpIDs {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		var env struct {
			Data []fundingRow `json:"data"`
		}
		url := restBaseURL + "/api/v5/public/funding-rate?instId=" + instID
		if err := venue.GetJSON(ctx, c.http, url, &env); err != nil || len(env.Data) == 0 {
			continue
		}
		r := env.Data[0]
		rate, _ := strconv.ParseFloat(r.FundingRate, 64)
		nft, _ := strconv.ParseInt(r.NextFundingTime, 10, 64)
		out = append(out, market.FundingRate{
			Venue:           string(c.Name()),
			Instrument:      instrumentFromInstID(instID, market.Perp),
			RatePerInterval: rate,
			IntervalHours:   8,
			NextFundingTime: time.UnixMilli(nft),
			Timestamp:       now,
		})
	}
	return out, nil
}

type oiRow struct {
	InstID string `json:"instId"`
	Oi     string `json:"oi"`
	OiCcy  string `json:"oiCcy"`
}

// FetchOpenInterest fetches contract-count OI and converts to USD using the
// perp tickers' last price, fetched first through FetchPerpTickers.
func (c *Client) FetchOpenInterest(ctx context.Context) ([]market.OpenInterest, error) {
	tickers, err := c.FetchPerpTickers(ctx)
	if err != nil {
		return nil, err
	}
	prices := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		prices[t.Instrument.Base+"-"+t.Instrument.Quote+"-SWAP"] = t.Last
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var env struct {
		Data []oiRow `json:"data"`
	}
	if err := venue.GetJSON(ctx, c.http, restBaseURL+"/api/v5/public/open-interest?instType=SWAP", &env); err != nil {
		return nil, err
	}
	wanted := toSet(c.perpIDs)
	now := time.Now()
	out := make([]market.OpenInterest, 0, len(c.perpIDs))
	for _, r := range env.Data {
		if !wanted[r.InstID] {
			continue
		}
		qty, _ := strconv.ParseFloat(r.Oi, 64)
		out = append(out, market.OpenInterest{
			Venue:      string(c.Name()),
			Instrument: instrumentFromInstID(r.InstID, market.Perp),
			OIUSD:      qty * prices[r.InstID],
			Timestamp:  now,
		})
	}
	return out, nil
}

func toTickers(rows []tickerRow, wanted map[string]bool, kind market.VenueKind) []market.Ticker {
	now := time.Now()
	out := make([]market.Ticker, 0, len(rows))
	for _, r := range rows {
		if !wanted[r.InstID] {
			continue
		}
		bid, _ := strconv.ParseFloat(r.BidPx, 64)
		ask, _ := strconv.ParseFloat(r.AskPx, 64)
		last, _ := strconv.ParseFloat(r.Last, 64)
		out = append(out, market.Ticker{
			Venue:      "okx",
			Instrument: instrumentFromInstID(r.InstID, kind),
			Last:       last,
			Bid:        bid,
			Ask:        ask,
			Timestamp:  now,
		})
	}
	return out
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// instrumentFromInstID parses OKX's "BTC-USDT" or "BTC-USDT-SWAP" form.
func instrumentFromInstID(instID string, kind market.VenueKind) market.Instrument {
	parts := strings.Split(instID, "-")
	if len(parts) < 2 {
		return market.Instrument{Base: instID, VenueKind: kind}
	}
	return market.Instrument{Base: parts[0], Quote: parts[1], VenueKind: kind}
}
