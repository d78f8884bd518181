package market

import (
	"sync"
	"sync/atomic"
)

// tickerKey identifies a (venue, instrument) pair.
type tickerKey struct {
	venue  string
	symbol string
	kind   VenueKind
}

// view is the immutable snapshot body. Readers load a *view via View() and
// never see it mutate underneath them, even while writers publish the next
// one — the swap-an-immutable-struct option spec.md §5 names explicitly.
type view struct {
	tickers   map[tickerKey]Ticker
	funding   map[tickerKey]FundingRate
	oi        map[tickerKey]OpenInterest
	fx        FxRate
	wallets   map[string]WalletState // key: venue+"/"+asset
}

func emptyView() *view {
	return &view{
		tickers: map[tickerKey]Ticker{},
		funding: map[tickerKey]FundingRate{},
		oi:      map[tickerKey]OpenInterest{},
		wallets: map[string]WalletState{},
	}
}

func (v *view) clone() *view {
	nv := &view{
		tickers: make(map[tickerKey]Ticker, len(v.tickers)),
		funding: make(map[tickerKey]FundingRate, len(v.funding)),
		oi:      make(map[tickerKey]OpenInterest, len(v.oi)),
		wallets: make(map[string]WalletState, len(v.wallets)),
		fx:      v.fx,
	}
	for k, val := range v.tickers {
		nv.tickers[k] = val
	}
	for k, val := range v.funding {
		nv.funding[k] = val
	}
	for k, val := range v.oi {
		nv.oi[k] = val
	}
	for k, val := range v.wallets {
		nv.wallets[k] = val
	}
	return nv
}

// Snapshot is the fused, process-wide read model. Connectors publish by
// per-key replacement under a publish lock; detectors read a consistent,
// point-in-time View() without ever blocking a writer or seeing a partial
// tick. Exactly one Snapshot exists per process (spec.md §3: "one
// long-lived snapshot per process").
type Snapshot struct {
	current atomic.Pointer[view]
	// publishMu serializes writers so concurrent connector refreshes don't
	// race on read-modify-write of the same *view; readers never take this
	// lock.
	publishMu sync.Mutex
}

// NewSnapshot creates an empty snapshot ready for connectors to publish into.
func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.current.Store(emptyView())
	return s
}

// View returns a consistent, immutable read-only view of the snapshot for
// one detection tick. All detectors invoked within the same tick must reuse
// the same View() result to satisfy spec.md §5's ordering guarantee.
func (s *Snapshot) View() *View {
	return &View{v: s.current.Load()}
}

// PublishTicker replaces the entry for (venue, instrument) by value.
func (s *Snapshot) PublishTicker(t Ticker) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	next := s.current.Load().clone()
	next.tickers[tickerKeyOf(t.Venue, t.Instrument)] = t
	s.current.Store(next)
}

// PublishFunding replaces the funding-rate entry for (venue, instrument).
func (s *Snapshot) PublishFunding(f FundingRate) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	next := s.current.Load().clone()
	next.funding[tickerKeyOf(f.Venue, f.Instrument)] = f
	s.current.Store(next)
}

// PublishOpenInterest replaces the open-interest entry for (venue, instrument).
func (s *Snapshot) PublishOpenInterest(oi OpenInterest) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	next := s.current.Load().clone()
	next.oi[tickerKeyOf(oi.Venue, oi.Instrument)] = oi
	s.current.Store(next)
}

// PublishFx replaces the singleton FX rate.
func (s *Snapshot) PublishFx(fx FxRate) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	next := s.current.Load().clone()
	next.fx = fx
	s.current.Store(next)
}

// PublishWallet replaces the wallet-state entry for (venue, asset).
func (s *Snapshot) PublishWallet(w WalletState) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	next := s.current.Load().clone()
	next.wallets[w.Venue+"/"+w.Asset] = w
	s.current.Store(next)
}

func tickerKeyOf(venue string, inst Instrument) tickerKey {
	return tickerKey{venue: venue, symbol: inst.Symbol(), kind: inst.VenueKind}
}

// View is a read-only handle onto one immutable snapshot body.
type View struct {
	v *view
}

// AllTickers returns every published ticker verbatim (callers apply
// freshness/sanity filters themselves via Ticker.Fresh and Last > 0, since
// different detectors use different max_age gates).
func (vw *View) AllTickers() []Ticker {
	out := make([]Ticker, 0, len(vw.v.tickers))
	for _, t := range vw.v.tickers {
		out = append(out, t)
	}
	return out
}

// AllFunding returns every published funding rate.
func (vw *View) AllFunding() []FundingRate {
	out := make([]FundingRate, 0, len(vw.v.funding))
	for _, f := range vw.v.funding {
		out = append(out, f)
	}
	return out
}

// OpenInterestFor returns the OI for (venue, instrument), if published.
func (vw *View) OpenInterestFor(venue string, inst Instrument) (OpenInterest, bool) {
	oi, ok := vw.v.oi[tickerKeyOf(venue, inst)]
	return oi, ok
}

// Fx returns the singleton FX rate as of this view.
func (vw *View) Fx() FxRate {
	return vw.v.fx
}

// Wallet returns the wallet state for (venue, asset), if published.
func (vw *View) Wallet(venue, asset string) (WalletState, bool) {
	w, ok := vw.v.wallets[venue+"/"+asset]
	return w, ok
}
