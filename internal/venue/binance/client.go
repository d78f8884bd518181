// Package binance implements the centralized-REST connector for Binance
// spot and USD-M futures, grounded on the teacher's
// internal/data/venue/binance/orderbook.go fetch-parse-normalize shape.
package binance

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/rs/zerolog/log"
	"github.com/sawpanic/arbitrageur/internal/market"
	"github.com/sawpanic/arbitrageur/internal/venue"
)

const (
	spotBaseURL = "https://api.binance.com"
	futBaseURL  = "https://fapi.binance.com"
)

// Client fetches Binance spot tickers, perp tickers, funding rates and open
// interest. It implements SpotTickerFetcher, PerpTickerFetcher,
// FundingRateFetcher and OpenInterestFetcher — not WalletStateFetcher or
// FxFetcher, since this venue's public API surfaces none of those.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	symbols []string
}

// New constructs a Binance client polling the given symbols (e.g. "BTCUSDT").
func New(symbols []string) *Client {
	return &Client{
		http:    venue.DefaultHTTPClient(),
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		symbols: symbols,
	}
}

func (c *Client) Name() venue.Name { return "binance" }

type bookTicker struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	AskPrice string `json:"askPrice"`
}

type priceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// FetchSpotTickers polls /api/v3/ticker/bookTicker for every configured
// symbol in one batch request.
func (c *Client) FetchSpotTickers(ctx context.Context) ([]market.Ticker, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var books []bookTicker
	if err := venue.GetJSON(ctx, c.http, spotBaseURL+"/api/v3/ticker/bookTicker", &books); err != nil {
		return nil, err
	}
	wanted := toSet(c.symbols)
	out := make([]market.Ticker, 0, len(c.symbols))
	now := time.Now()
	for _, b := range books {
		if !wanted[b.Symbol] {
			continue
		}
		bid, _ := strconv.ParseFloat(b.BidPrice, 64)
		ask, _ := strconv.ParseFloat(b.AskPrice, 64)
		out = append(out, market.Ticker{
			Venue:      string(c.Name()),
			Instrument: symbolToInstrument(b.Symbol, market.Spot),
			Last:       mid(bid, ask),
			Bid:        bid,
			Ask:        ask,
			Timestamp:  now,
		})
	}
	log.Debug().Str("venue", "binance").Int("count", len(out)).Msg("fetched spot tickers")
	return out, nil
}

// FetchPerpTickers polls the USD-M futures book ticker endpoint.
func (c *Client) FetchPerpTickers(ctx context.Context) ([]market.Ticker, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var books []bookTicker
	if err := venue.GetJSON(ctx, c.http, futBaseURL+"/fapi/v1/ticker/bookTicker", &books); err != nil {
		return nil, err
	}
	wanted := toSet(c.symbols)
	out := make([]market.Ticker, 0, len(c.symbols))
	now := time.Now()
	for _, b := range books {
		if !wanted[b.Symbol] {
			continue
		}
		bid, _ := strconv.ParseFloat(b.BidPrice, 64)
		ask, _ := strconv.ParseFloat(b.AskPrice, 64)
		out = append(out, market.Ticker{
			Venue:      string(c.Name()),
			Instrument: symbolToInstrument(b.Symbol, market.Perp),
			Last:       mid(bid, ask),
			Bid:        bid,
			Ask:        ask,
			Timestamp:  now,
		})
	}
	return out, nil
}

type premiumIndex struct {
	Symbol          string `json:"symbol"`
	LastFundingRate string `json:"lastFundingRate"`
	NextFundingTime int64  `json:"nextFundingTime"`
}

// FetchFundingRates polls the USD-M premium index, which carries the most
// recently settled funding rate alongside the next funding timestamp.
// Binance funding settles every 8h, so rate_per_interval is already 8h-native
// (spec.md §4.1).
func (c *Client) FetchFundingRates(ctx context.Context) ([]market.FundingRate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var rows []premiumIndex
	if err := venue.GetJSON(ctx, c.http, futBaseURL+"/fapi/v1/premiumIndex", &rows); err != nil {
		return nil, err
	}
	wanted := toSet(c.symbols)
	out := make([]market.FundingRate, 0, len(c.symbols))
	now := time.Now()
	for _, r := range rows {
		if !wanted[r.Symbol] {
			continue
		}
		rate, _ := strconv.ParseFloat(r.LastFundingRate, 64)
		out = append(out, market.FundingRate{
			Venue:           string(c.Name()),
			Instrument:      symbolToInstrument(r.Symbol, market.Perp),
			RatePerInterval: rate,
			IntervalHours:   8,
			NextFundingTime: time.UnixMilli(r.NextFundingTime),
			Timestamp:       now,
		})
	}
	return out, nil
}

type openInterest struct {
	Symbol       string `json:"symbol"`
	OpenInterest string `json:"openInterest"`
}

// FetchOpenInterest polls per-symbol open interest and converts contract
// count to USD notional using the last price from /fapi/v1/ticker/price.
func (c *Client) FetchOpenInterest(ctx context.Context) ([]market.OpenInterest, error) {
	marks, err := c.markPrices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]market.OpenInterest, 0, len(c.symbols))
	now := time.Now()
	for _, sym := range c.symbols {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		var oi openInterest
		url := futBaseURL + "/fapi/v1/openInterest?symbol=" + sym
		if err := venue.GetJSON(ctx, c.http, url, &oi); err != nil {
			log.Warn().Str("venue", "binance").Str("symbol", sym).Err(err).Msg("open interest fetch failed")
			continue
		}
		qty, _ := strconv.ParseFloat(oi.OpenInterest, 64)
		out = append(out, market.OpenInterest{
			Venue:      string(c.Name()),
			Instrument: symbolToInstrument(sym, market.Perp),
			OIUSD:      qty * marks[sym],
			Timestamp:  now,
		})
	}
	return out, nil
}

func (c *Client) markPrices(ctx context.Context) (map[string]float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var rows []priceTicker
	if err := venue.GetJSON(ctx, c.http, futBaseURL+"/fapi/v1/ticker/price", &rows); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		p, _ := strconv.ParseFloat(r.Price, 64)
		out[r.Symbol] = p
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

func mid(bid, ask float64) float64 {
	if bid <= 0 || ask <= 0 {
		return 0
	}
	return (bid + ask) / 2
}

// symbolToInstrument splits Binance's concatenated "BTCUSDT" form using the
// fixed set of quote assets Binance lists against, since the wire format
// carries no delimiter.
var knownQuotes = []string{"USDT", "USDC", "BUSD", "BTC", "ETH"}

func symbolToInstrument(raw string, kind market.VenueKind) market.Instrument {
	for _, q := range knownQuotes {
		if len(raw) > len(q) && raw[len(raw)-len(q):] == q {
			base := raw[:len(raw)-len(q)]
			return market.Instrument{Base: base, Quote: q, VenueKind: kind}
		}
	}
	return market.Instrument{Base: raw, Quote: "", VenueKind: kind}
}
