package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sawpanic/arbitrageur/internal/broadcast"
	"github.com/sawpanic/arbitrageur/internal/circuit"
	"github.com/sawpanic/arbitrageur/internal/opportunity"
)

func TestWebsocketOpportunitiesUpgradesAndStreamsPublishedSnapshot(t *testing.T) {
	hub := broadcast.NewHub(30*time.Second, time.Second)
	h := &Handlers{Hub: hub, Circuit: circuit.NewManager()}
	_ = prometheus.NewRegistry()

	srv := httptest.NewServer(http.HandlerFunc(h.WebsocketOpportunities))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1 after a client connects", hub.SubscriberCount())
	}

	hub.Publish([]opportunity.Opportunity{{ID: "a", Kind: opportunity.SpotCross}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !strings.Contains(string(msg), `"a"`) {
		t.Errorf("message = %s, want it to contain the published opportunity ID", msg)
	}
}

func TestWebsocketOpportunitiesUnregistersOnClientClose(t *testing.T) {
	hub := broadcast.NewHub(30*time.Second, time.Second)
	h := &Handlers{Hub: hub, Circuit: circuit.NewManager()}

	srv := httptest.NewServer(http.HandlerFunc(h.WebsocketOpportunities))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d after client close, want 0", hub.SubscriberCount())
	}
}
