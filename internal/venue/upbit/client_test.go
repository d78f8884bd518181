package upbit

import (
	"testing"

	"github.com/sawpanic/arbitrageur/internal/market"
)

func TestMapWalletStateWorking(t *testing.T) {
	deposit, withdraw := mapWalletState("working")
	if deposit != market.True || withdraw != market.True {
		t.Errorf("mapWalletState(working) = (%v, %v), want (True, True)", deposit, withdraw)
	}
}

func TestMapWalletStatePausedAndUnsupported(t *testing.T) {
	for _, state := range []string{"paused", "unsupported"} {
		deposit, withdraw := mapWalletState(state)
		if deposit != market.False || withdraw != market.False {
			t.Errorf("mapWalletState(%s) = (%v, %v), want (False, False)", state, deposit, withdraw)
		}
	}
}

func TestMapWalletStateWithdrawOnly(t *testing.T) {
	deposit, withdraw := mapWalletState("withdraw_only")
	if deposit != market.False || withdraw != market.True {
		t.Errorf("mapWalletState(withdraw_only) = (%v, %v), want (False, True)", deposit, withdraw)
	}
}

func TestMapWalletStateDepositOnly(t *testing.T) {
	deposit, withdraw := mapWalletState("deposit_only")
	if deposit != market.True || withdraw != market.False {
		t.Errorf("mapWalletState(deposit_only) = (%v, %v), want (True, False)", deposit, withdraw)
	}
}

func TestMapWalletStateUnrecognizedStaysUnknown(t *testing.T) {
	deposit, withdraw := mapWalletState("some_future_enum_value")
	if deposit != market.Unknown || withdraw != market.Unknown {
		t.Errorf("mapWalletState(unrecognized) = (%v, %v), want (Unknown, Unknown)", deposit, withdraw)
	}
}
