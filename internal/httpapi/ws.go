package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// handleTurnFeed streams conversation log events (appended turns, clears) to
// the client. History is served by GET /v1/chat/turns; the feed only carries
// changes from connect time onward.
func (s *Server) handleTurnFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.WSClients.Inc()
	defer s.metrics.WSClients.Dec()

	events, cancel := s.log.Subscribe()
	defer cancel()

	// Reader goroutine: we accept no client messages, but reading is needed
	// to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(1 << 10)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}
