// Package wallet maintains the tri-state deposit/withdraw capability per
// (venue, asset), refreshed on its own ticker independent of the detection
// scheduler, following facade_impl.go's monitorHealth background-refresh
// pattern.
package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sawpanic/arbitrageur/internal/market"
)

// Fetcher is the subset of venue.WalletStateFetcher this package depends on.
type Fetcher interface {
	Name() string
	FetchWalletState(ctx context.Context) ([]market.WalletState, error)
}

// Oracle caches the latest wallet state per (venue, asset), defaulting to
// Unknown for anything never successfully fetched — unknown propagates to
// opportunities rather than blocking tradeability (spec.md §3).
type Oracle struct {
	mu       sync.RWMutex
	states   map[string]market.WalletState // key: venue/asset
	fetchers []Fetcher
	interval time.Duration
}

// NewOracle builds an oracle polling the given fetchers every interval.
func NewOracle(fetchers []Fetcher, interval time.Duration) *Oracle {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Oracle{
		states:   make(map[string]market.WalletState),
		fetchers: fetchers,
		interval: interval,
	}
}

// State returns the wallet state for (venue, asset), Unknown/Unknown if
// never observed.
func (o *Oracle) State(venue, asset string) market.WalletState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if s, ok := o.states[venue+"/"+asset]; ok {
		return s
	}
	return market.WalletState{Venue: venue, Asset: asset, DepositEnabled: market.Unknown, WithdrawEnabled: market.Unknown}
}

func (o *Oracle) refreshOne(ctx context.Context, f Fetcher) {
	states, err := f.FetchWalletState(ctx)
	if err != nil {
		log.Warn().Str("venue", f.Name()).Err(err).Msg("wallet state refresh failed")
		return
	}
	o.mu.Lock()
	for _, s := range states {
		o.states[s.Venue+"/"+s.Asset] = s
	}
	o.mu.Unlock()
}

// Run refreshes every registered fetcher concurrently on each tick until ctx
// is cancelled.
func (o *Oracle) Run(ctx context.Context) {
	o.tick(ctx)
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.tick(ctx)
		}
	}
}

func (o *Oracle) tick(ctx context.Context) {
	var wg sync.WaitGroup
	for _, f := range o.fetchers {
		wg.Add(1)
		go func(f Fetcher) {
			defer wg.Done()
			reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			o.refreshOne(reqCtx, f)
		}(f)
	}
	wg.Wait()
}
