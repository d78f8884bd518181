package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local-only service; the subscriber is a same-host dashboard, not a
	// cross-origin browser client, so the origin check is permissive by
	// design rather than an oversight.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebsocketOpportunities handles GET /api/ws/opportunities: upgrades the
// connection and hands it to the Broadcast Hub, which owns the write pump
// from here on (spec.md §4.6).
func (h *Handlers) WebsocketOpportunities(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	unregister := h.Hub.Register(conn)
	defer unregister()

	// No client→server messages are expected; block on reads purely to
	// detect client-initiated close and keep the connection's read loop
	// alive per gorilla/websocket's documented requirement.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
