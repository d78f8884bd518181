package broadcast

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sawpanic/arbitrageur/internal/opportunity"
)

func TestHubSnapshotReflectsLastPublish(t *testing.T) {
	h := NewHub(30*time.Second, time.Second)
	opps := []opportunity.Opportunity{{ID: "a", Kind: opportunity.KimchiPremium}}

	h.Publish(opps)

	got, stale := h.Snapshot()
	if stale {
		t.Fatal("Snapshot() stale = true immediately after Publish, want false")
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("Snapshot() = %+v, want the just-published list", got)
	}
}

func TestHubPublishRetainsLastGoodAcrossEmptyTick(t *testing.T) {
	h := NewHub(time.Minute, time.Second)
	h.Publish([]opportunity.Opportunity{{ID: "a"}})

	h.Publish(nil)

	got, stale := h.Snapshot()
	if stale {
		t.Error("Snapshot() stale = true after an empty tick, want the prior last-good retained")
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("Snapshot() = %+v after an empty tick, want the prior last-good list unchanged", got)
	}
}

func TestHubSnapshotStaleBeyondTTL(t *testing.T) {
	h := NewHub(10*time.Millisecond, time.Second)
	h.Publish([]opportunity.Opportunity{{ID: "a"}})

	time.Sleep(30 * time.Millisecond)

	got, stale := h.Snapshot()
	if !stale {
		t.Error("Snapshot() stale = false beyond last_good_ttl, want true")
	}
	if got != nil {
		t.Errorf("Snapshot() opps = %+v beyond TTL, want nil", got)
	}
}

func TestHubSubscriberCountTracksRegisterAndUnregister(t *testing.T) {
	h := NewHub(time.Minute, time.Second)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		unregister := h.Register(conn)
		defer unregister()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	waitForCount(t, h, 1)

	conn.Close()
	waitForCount(t, h, 0)
}

// TestHubPublishDisconnectsFullBufferSubscriber is a white-box test: it
// registers a subscriber's send channel directly, without starting the pump
// goroutine that would otherwise drain it, to deterministically fill the
// bounded send buffer (size 16, spec.md §4.6) and confirm Publish
// disconnects rather than blocking once it is full.
func TestHubPublishDisconnectsFullBufferSubscriber(t *testing.T) {
	h := NewHub(time.Minute, time.Second)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		<-r.Context().Done()
		conn.Close()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub := &subscriber{conn: conn, send: make(chan []byte, subscriberBufferSize), closed: make(chan struct{})}
	h.mu.Lock()
	h.subscribers[sub] = true
	h.mu.Unlock()

	for i := 0; i < subscriberBufferSize; i++ {
		h.Publish([]opportunity.Opportunity{{ID: "flood"}})
	}
	if got := h.SubscriberCount(); got != 1 {
		t.Fatalf("SubscriberCount() after filling buffer = %d, want 1 (not yet over capacity)", got)
	}

	h.Publish([]opportunity.Opportunity{{ID: "overflow"}})
	if got := h.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() after exceeding buffer capacity = %d, want 0 (disconnected)", got)
	}
}

func waitForCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.SubscriberCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("SubscriberCount() never reached %d, last = %d", want, h.SubscriberCount())
}
