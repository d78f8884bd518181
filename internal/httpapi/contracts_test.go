package httpapi

import (
	"testing"
	"time"

	"github.com/sawpanic/arbitrageur/internal/opportunity"
)

func TestToWireTranslatesFieldNamesAndKindLabel(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	o := opportunity.Opportunity{
		ID:             "id-1",
		Kind:           opportunity.KimchiPremium,
		Symbol:         "BTC",
		SpreadBps:      120,
		ExpectedPnlPct: 1.2,
		DetectedAt:     now,
		Legs: []opportunity.Leg{
			{Venue: "binance", VenueKind: "SPOT", Side: opportunity.Buy, Price: 50000, Quantity: 1},
			{Venue: "upbit", VenueKind: "SPOT", Side: opportunity.Sell, Price: 72_500_000, Quantity: 1},
		},
	}

	w := ToWire(o)
	if w.Type != "kimchi_premium" {
		t.Errorf("Type = %q, want kimchi_premium", w.Type)
	}
	if w.Timestamp != "2026-01-02T03:04:05Z" {
		t.Errorf("Timestamp = %q, want RFC3339 UTC", w.Timestamp)
	}
	if w.Description == "" {
		t.Error("Description empty, want a synthesized human description")
	}
	if len(w.Legs) != 2 || w.Legs[0].Exchange != "binance" || w.Legs[0].Side != "buy" {
		t.Errorf("Legs = %+v, want translated exchange/side fields", w.Legs)
	}
	if w.Notional != 50000 {
		t.Errorf("Notional = %v, want 50000 (max leg notional)", w.Notional)
	}
}

func TestToWireOmitsDepositStatusWhenNoWalletData(t *testing.T) {
	o := opportunity.Opportunity{Kind: opportunity.SpotCross, Legs: []opportunity.Leg{{Venue: "a"}, {Venue: "b"}}}
	w := ToWire(o)
	if w.DepositStatus != nil {
		t.Errorf("DepositStatus = %+v, want nil with no WalletStatus", w.DepositStatus)
	}
}

func TestToWireBuildsDepositStatusFromWalletStatus(t *testing.T) {
	o := opportunity.Opportunity{
		Kind: opportunity.KimchiPremium,
		Legs: []opportunity.Leg{{Venue: "binance"}, {Venue: "upbit"}},
		WalletStatus: map[string]string{
			"binance": "true",
			"upbit":   "unknown",
		},
	}
	w := ToWire(o)
	if w.DepositStatus == nil {
		t.Fatal("DepositStatus = nil, want populated from WalletStatus")
	}
	if w.DepositStatus.Buy == nil || !*w.DepositStatus.Buy {
		t.Errorf("DepositStatus.Buy = %v, want true", w.DepositStatus.Buy)
	}
	if w.DepositStatus.Sell != nil {
		t.Errorf("DepositStatus.Sell = %v, want nil for unknown status", w.DepositStatus.Sell)
	}
}

func TestToWireListPreservesOrder(t *testing.T) {
	opps := []opportunity.Opportunity{
		{ID: "a", Kind: opportunity.SpotCross},
		{ID: "b", Kind: opportunity.FundingArb},
	}
	got := ToWireList(opps)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("ToWireList() = %+v, want order preserved", got)
	}
}

func TestStatusFlagMapsTriStateStrings(t *testing.T) {
	if got := statusFlag("true"); got == nil || !*got {
		t.Errorf("statusFlag(true) = %v, want &true", got)
	}
	if got := statusFlag("false"); got == nil || *got {
		t.Errorf("statusFlag(false) = %v, want &false", got)
	}
	if got := statusFlag("unknown"); got != nil {
		t.Errorf("statusFlag(unknown) = %v, want nil", got)
	}
	if got := statusFlag(""); got != nil {
		t.Errorf("statusFlag(\"\") = %v, want nil", got)
	}
}
