// Package hyperliquid implements the DEX-style perp connector for
// Hyperliquid's L1 order book, queried via its single POST /info endpoint
// rather than per-resource REST routes like the centralized venues.
package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/sawpanic/arbitrageur/internal/market"
	"github.com/sawpanic/arbitrageur/internal/venue"
)

const infoURL = "https://api.hyperliquid.xyz/info"

// Client implements PerpTickerFetcher, FundingRateFetcher and
// OpenInterestFetcher. Hyperliquid funding settles hourly; the 1h rate is
// carried as-is here and 8h-normalized centrally by the detector (spec.md
// §4.1: "Hyperliquid: 1h → ×8 to 8h-equivalent").
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	coins   []string // e.g. "BTC"
}

func New(coins []string) *Client {
	return &Client{
		http:    venue.DefaultHTTPClient(),
		limiter: rate.NewLimiter(rate.Limit(2), 2),
		coins:   coins,
	}
}

func (c *Client) Name() venue.Name { return "hyperliquid" }

// assetCtx mirrors the second element of metaAndAssetCtxs' response array.
type assetCtx struct {
	Funding      string `json:"funding"`
	OpenInterest string `json:"openInterest"`
	MarkPx       string `json:"markPx"`
	MidPx        string `json:"midPx"`
}

type universeEntry struct {
	Name string `json:"name"`
}

type metaAndCtxResponse struct {
	Meta struct {
		Universe []universeEntry `json:"universe"`
	}
	Ctxs []assetCtx
}

// fetch issues the POST /info {"type":"metaAndAssetCtxs"} request, whose
// response is a two-element JSON array [meta, ctxs] rather than an object.
func (c *Client) fetch(ctx context.Context) (metaAndCtxResponse, error) {
	var out metaAndCtxResponse
	if err := c.limiter.Wait(ctx); err != nil {
		return out, err
	}
	body, _ := json.Marshal(map[string]string{"type": "metaAndAssetCtxs"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, infoURL, bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return out, venue.ErrNetworkTransient
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, venue.ErrDecodeSchema
	}
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil || len(raw) != 2 {
		return out, venue.ErrDecodeSchema
	}
	if err := json.Unmarshal(raw[0], &out.Meta); err != nil {
		return out, venue.ErrDecodeSchema
	}
	if err := json.Unmarshal(raw[1], &out.Ctxs); err != nil {
		return out, venue.ErrDecodeSchema
	}
	return out, nil
}

func (c *Client) wantedIndices(universe []universeEntry) map[int]string {
	wanted := toSet(c.coins)
	out := make(map[int]string)
	for i, u := range universe {
		if wanted[u.Name] {
			out[i] = u.Name
		}
	}
	return out
}

func (c *Client) FetchPerpTickers(ctx context.Context) ([]market.Ticker, error) {
	resp, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	idx := c.wantedIndices(resp.Meta.Universe)
	now := time.Now()
	out := make([]market.Ticker, 0, len(idx))
	for i, coin := range idx {
		if i >= len(resp.Ctxs) {
			continue
		}
		mark, _ := strconv.ParseFloat(resp.Ctxs[i].MarkPx, 64)
		mid, _ := strconv.ParseFloat(resp.Ctxs[i].MidPx, 64)
		last := mid
		if last == 0 {
			last = mark
		}
		out = append(out, market.Ticker{
			Venue:      string(c.Name()),
			Instrument: market.NewPerpInstrument(coin, "USD"),
			Last:       last,
			Bid:        last,
			Ask:        last,
			Timestamp:  now,
		})
	}
	return out, nil
}

func (c *Client) FetchFundingRates(ctx context.Context) ([]market.FundingRate, error) {
	resp, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	idx := c.wantedIndices(resp.Meta.Universe)
	now := time.Now()
	out := make([]market.FundingRate, 0, len(idx))
	for i, coin := range idx {
		if i >= len(resp.Ctxs) {
			continue
		}
		rate, _ := strconv.ParseFloat(resp.Ctxs[i].Funding, 64)
		out = append(out, market.FundingRate{
			Venue:           string(c.Name()),
			Instrument:      market.NewPerpInstrument(coin, "USD"),
			RatePerInterval: rate,
			IntervalHours:   1,
			Timestamp:       now,
		})
	}
	return out, nil
}

func (c *Client) FetchOpenInterest(ctx context.Context) ([]market.OpenInterest, error) {
	resp, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	idx := c.wantedIndices(resp.Meta.Universe)
	now := time.Now()
	out := make([]market.OpenInterest, 0, len(idx))
	for i, coin := range idx {
		if i >= len(resp.Ctxs) {
			continue
		}
		oi, _ := strconv.ParseFloat(resp.Ctxs[i].OpenInterest, 64)
		mark, _ := strconv.ParseFloat(resp.Ctxs[i].MarkPx, 64)
		out = append(out, market.OpenInterest{
			Venue:      string(c.Name()),
			Instrument: market.NewPerpInstrument(coin, "USD"),
			OIUSD:      oi * mark,
			Timestamp:  now,
		})
	}
	return out, nil
}

func toSet(coins []string) map[string]bool {
	set := make(map[string]bool, len(coins))
	for _, c := range coins {
		set[c] = true
	}
	return set
}
