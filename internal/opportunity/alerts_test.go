package opportunity

import (
	"testing"
	"time"
)

func TestTrackerOpensOnFirstSighting(t *testing.T) {
	tr := NewTracker(time.Minute)
	now := time.Now()
	opps := []Opportunity{{Kind: SpotCross, Symbol: "BTCUSDT", SpreadBps: 12}}

	alerts := tr.Update(opps, nil, now)
	if len(alerts) != 1 || alerts[0].Transition != AlertOpen {
		t.Fatalf("Update() = %+v, want one OPEN alert", alerts)
	}
}

func TestTrackerSuppressesDuplicateOpenOnSameTick(t *testing.T) {
	tr := NewTracker(time.Minute)
	now := time.Now()
	opps := []Opportunity{{Kind: SpotCross, Symbol: "BTCUSDT", SpreadBps: 12}}

	tr.Update(opps, nil, now)
	again := tr.Update(opps, nil, now.Add(time.Second))
	if len(again) != 0 {
		t.Errorf("second Update() with the same opportunity still present = %+v, want no new alerts", again)
	}
}

func TestTrackerClosesWhenOpportunityDisappears(t *testing.T) {
	tr := NewTracker(time.Minute)
	now := time.Now()
	opps := []Opportunity{{Kind: SpotCross, Symbol: "BTCUSDT", SpreadBps: 12}}

	tr.Update(opps, nil, now)
	closed := tr.Update(nil, nil, now.Add(time.Second))
	if len(closed) != 1 || closed[0].Transition != AlertClosed {
		t.Fatalf("Update() after opportunity vanishes = %+v, want one CLOSED alert", closed)
	}
}

func TestTrackerSignReversalOpensNewAlertKey(t *testing.T) {
	tr := NewTracker(time.Minute)
	now := time.Now()

	positive := []Opportunity{{Kind: FundingArb, Symbol: "BTCUSDT", SpreadBps: 12}}
	tr.Update(positive, nil, now)

	negative := []Opportunity{{Kind: FundingArb, Symbol: "BTCUSDT", SpreadBps: -12}}
	alerts := tr.Update(negative, nil, now.Add(time.Second))

	var sawOpen, sawClosed bool
	for _, a := range alerts {
		if a.Transition == AlertOpen {
			sawOpen = true
		}
		if a.Transition == AlertClosed {
			sawClosed = true
		}
	}
	if !sawOpen || !sawClosed {
		t.Errorf("sign reversal alerts = %+v, want both a CLOSED (old sign) and an OPEN (new sign)", alerts)
	}
}

func TestTrackerExpiresClosedStateSilentlyAfterTTL(t *testing.T) {
	tr := NewTracker(time.Second)
	now := time.Now()
	opps := []Opportunity{{Kind: SpotCross, Symbol: "BTCUSDT", SpreadBps: 12}}

	tr.Update(opps, nil, now)
	closed := tr.Update(nil, nil, now.Add(time.Millisecond))
	if len(closed) != 1 {
		t.Fatalf("Update() after disappearance = %+v, want one CLOSED alert", closed)
	}

	// Re-opening the same key well past ttl must emit a fresh OPEN, not be
	// silently suppressed by stale internal state.
	reopened := tr.Update(opps, nil, now.Add(2*time.Second))
	if len(reopened) != 1 || reopened[0].Transition != AlertOpen {
		t.Fatalf("Update() re-opening after ttl expiry = %+v, want one OPEN alert", reopened)
	}
}

func TestNewTrackerDefaultsTTLWhenNonPositive(t *testing.T) {
	tr := NewTracker(0)
	if tr.ttl != 60*time.Second {
		t.Errorf("NewTracker(0).ttl = %v, want default 60s", tr.ttl)
	}
}
