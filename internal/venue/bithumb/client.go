// Package bithumb implements the second Korean-won spot connector, following
// upbit.Client's shape for the kimchi-premium detector's second KRW venue.
package bithumb

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/sawpanic/arbitrageur/internal/market"
	"github.com/sawpanic/arbitrageur/internal/venue"
)

const baseURL = "https://api.bithumb.com"

// Client implements SpotTickerFetcher and WalletStateFetcher. assets is the
// list of base currencies to poll, e.g. "BTC".
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	assets  []string
}

func New(assets []string) *Client {
	return &Client{
		http:    venue.DefaultHTTPClient(),
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		assets:  assets,
	}
}

func (c *Client) Name() venue.Name { return "bithumb" }

type tickerEnvelope struct {
	Data map[string]struct {
		ClosingPrice string `json:"closing_price"`
	} `json:"data"`
}

func (c *Client) FetchSpotTickers(ctx context.Context) ([]market.Ticker, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var env tickerEnvelope
	if err := venue.GetJSON(ctx, c.http, baseURL+"/public/ticker/ALL_KRW", &env); err != nil {
		return nil, err
	}
	wanted := toSet(c.assets)
	now := time.Now()
	out := make([]market.Ticker, 0, len(c.assets))
	for asset, row := range env.Data {
		if !wanted[asset] {
			continue
		}
		last := parseFloatSafe(row.ClosingPrice)
		out = append(out, market.Ticker{
			Venue:      string(c.Name()),
			Instrument: market.NewSpotInstrument(asset, "KRW"),
			Last:       last,
			Bid:        last,
			Ask:        last,
			Timestamp:  now,
		})
	}
	return out, nil
}

type assetStatusRow struct {
	DepositStatus  int `json:"deposit_status"`
	WithdrawalStatus int `json:"withdrawal_status"`
}

// FetchWalletState polls per-asset deposit/withdrawal status, one request
// per configured asset — Bithumb has no batch wallet-status endpoint.
func (c *Client) FetchWalletState(ctx context.Context) ([]market.WalletState, error) {
	now := time.Now()
	out := make([]market.WalletState, 0, len(c.assets))
	for _, asset := range c.assets {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		var env struct {
			Data assetStatusRow `json:"data"`
		}
		url := baseURL + "/public/assetsstatus/" + asset
		if err := venue.GetJSON(ctx, c.http, url, &env); err != nil {
			out = append(out, market.WalletState{
				Venue: string(c.Name()), Asset: asset,
				DepositEnabled: market.Unknown, WithdrawEnabled: market.Unknown,
				Timestamp: now,
			})
			continue
		}
		out = append(out, market.WalletState{
			Venue:           string(c.Name()),
			Asset:           asset,
			DepositEnabled:  market.FromBool(env.Data.DepositStatus == 1),
			WithdrawEnabled: market.FromBool(env.Data.WithdrawalStatus == 1),
			Timestamp:       now,
		})
	}
	return out, nil
}

func toSet(assets []string) map[string]bool {
	set := make(map[string]bool, len(assets))
	for _, a := range assets {
		set[a] = true
	}
	return set
}

func parseFloatSafe(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
