// Package broadcast fans the current Opportunity list out to WebSocket
// subscribers on every completed detection tick, and serves the same list
// over an HTTP snapshot GET. Grounded on gorilla/websocket's session
// dial/pump idiom as used across the pack's connector adapters, adapted here
// for a server-side broadcast fan-out rather than a client-side feed
// consumer.
package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/arbitrageur/internal/opportunity"
)

// subscriberBufferSize bounds each subscriber's outbound frame queue
// (spec.md §4.6: "non-full send buffer (size 16)").
const subscriberBufferSize = 16

// subscriber is one connected WebSocket session.
type subscriber struct {
	conn   *websocket.Conn
	send   chan []byte
	closed chan struct{}
	once   sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.closed)
		s.conn.Close()
	})
}

// Hub maintains the subscriber set and the last-good opportunity list.
type Hub struct {
	mu                sync.RWMutex
	subscribers       map[*subscriber]bool
	lastGood          []opportunity.Opportunity
	lastGoodAt        time.Time
	lastGoodTTL       time.Duration
	subscriberTimeout time.Duration
}

// NewHub builds a hub retaining the last-good list for lastGoodTTL (default
// 30s) and disconnecting subscribers that don't drain within
// subscriberTimeout (default 2s).
func NewHub(lastGoodTTL, subscriberTimeout time.Duration) *Hub {
	if lastGoodTTL <= 0 {
		lastGoodTTL = 30 * time.Second
	}
	if subscriberTimeout <= 0 {
		subscriberTimeout = 2 * time.Second
	}
	return &Hub{
		subscribers:       make(map[*subscriber]bool),
		lastGoodTTL:       lastGoodTTL,
		subscriberTimeout: subscriberTimeout,
	}
}

// Register adopts conn as a new subscriber and starts its write pump. The
// returned function unregisters and closes the connection.
func (h *Hub) Register(conn *websocket.Conn) func() {
	sub := &subscriber{conn: conn, send: make(chan []byte, subscriberBufferSize), closed: make(chan struct{})}
	h.mu.Lock()
	h.subscribers[sub] = true
	h.mu.Unlock()

	go h.pump(sub)

	return func() {
		h.mu.Lock()
		delete(h.subscribers, sub)
		h.mu.Unlock()
		sub.close()
	}
}

func (h *Hub) pump(sub *subscriber) {
	for {
		select {
		case <-sub.closed:
			return
		case frame, ok := <-sub.send:
			if !ok {
				return
			}
			sub.conn.SetWriteDeadline(time.Now().Add(h.subscriberTimeout))
			if err := sub.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Warn().Err(err).Msg("subscriber write failed, disconnecting")
				h.mu.Lock()
				delete(h.subscribers, sub)
				h.mu.Unlock()
				sub.close()
				return
			}
		}
	}
}

// Publish pushes opps to every subscriber as one JSON frame. A subscriber
// whose send buffer is already full is disconnected rather than
// back-pressuring the detector (spec.md §4.6). An empty tick still fans out
// to subscribers but leaves the retained last-good list untouched, so the
// snapshot endpoint keeps serving it until lastGoodTTL elapses.
func (h *Hub) Publish(opps []opportunity.Opportunity) {
	frame, err := json.Marshal(opps)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal opportunity frame")
		return
	}

	h.mu.Lock()
	if len(opps) > 0 {
		h.lastGood = opps
		h.lastGoodAt = time.Now()
	}
	subs := make([]*subscriber, 0, len(h.subscribers))
	for s := range h.subscribers {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		select {
		case s.send <- frame:
		default:
			log.Warn().Msg("subscriber send buffer full, disconnecting")
			h.mu.Lock()
			delete(h.subscribers, s)
			h.mu.Unlock()
			s.close()
		}
	}
}

// Snapshot returns the last-good opportunity list if it is within
// lastGoodTTL, and a staleness flag otherwise.
func (h *Hub) Snapshot() (opps []opportunity.Opportunity, stale bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if time.Since(h.lastGoodAt) > h.lastGoodTTL {
		return nil, true
	}
	return h.lastGood, false
}

// SubscriberCount reports the current live subscriber count, exposed via
// metrics.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
