// Package upbit implements the Korean-won spot connector for Upbit,
// including deposit/withdraw wallet-state lookups used by the kimchi-premium
// detector's tradeability gate (spec.md §4.1, §4.4).
package upbit

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sawpanic/arbitrageur/internal/market"
	"github.com/sawpanic/arbitrageur/internal/venue"
)

const baseURL = "https://api.upbit.com"

// Client implements SpotTickerFetcher and WalletStateFetcher. markets is the
// Upbit quote-first wire form, e.g. "KRW-BTC".
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	markets []string
}

func New(markets []string) *Client {
	return &Client{
		http:    venue.DefaultHTTPClient(),
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		markets: markets,
	}
}

func (c *Client) Name() venue.Name { return "upbit" }

type tickerRow struct {
	Market      string  `json:"market"`
	TradePrice  float64 `json:"trade_price"`
}

func (c *Client) FetchSpotTickers(ctx context.Context) ([]market.Ticker, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var rows []tickerRow
	url := baseURL + "/v1/ticker?markets=" + strings.Join(c.markets, ",")
	if err := venue.GetJSON(ctx, c.http, url, &rows); err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]market.Ticker, 0, len(rows))
	for _, r := range rows {
		base, quote, ok := market.SplitKRWQuoted(r.Market)
		if !ok {
			continue
		}
		out = append(out, market.Ticker{
			Venue:      string(c.Name()),
			Instrument: market.NewSpotInstrument(base, quote),
			Last:       r.TradePrice,
			Bid:        r.TradePrice,
			Ask:        r.TradePrice,
			Timestamp:  now,
		})
	}
	return out, nil
}

type walletStatusRow struct {
	Currency        string `json:"currency"`
	WalletState     string `json:"wallet_state"` // working, paused, withdraw_only, deposit_only, unsupported
}

// FetchWalletState maps Upbit's single wallet_state enum onto the
// independent deposit/withdraw tri-state flags the spec's WalletState model
// uses.
func (c *Client) FetchWalletState(ctx context.Context) ([]market.WalletState, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var rows []walletStatusRow
	if err := venue.GetJSON(ctx, c.http, baseURL+"/v1/status/wallet", &rows); err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]market.WalletState, 0, len(rows))
	for _, r := range rows {
		deposit, withdraw := mapWalletState(r.WalletState)
		out = append(out, market.WalletState{
			Venue:           string(c.Name()),
			Asset:           r.Currency,
			DepositEnabled:  deposit,
			WithdrawEnabled: withdraw,
			Timestamp:       now,
		})
	}
	return out, nil
}

// mapWalletState maps Upbit's single wallet_state enum onto independent
// deposit/withdraw tri-states. Anything outside the four known values stays
// Unknown rather than guessing.
func mapWalletState(state string) (deposit, withdraw market.TriState) {
	switch state {
	case "working":
		return market.True, market.True
	case "paused", "unsupported":
		return market.False, market.False
	case "withdraw_only":
		return market.False, market.True
	case "deposit_only":
		return market.True, market.False
	default:
		return market.Unknown, market.Unknown
	}
}
