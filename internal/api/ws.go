package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// handleReaderSocket streams reader state to a client. The current
// snapshot is sent on connect, then every state change. Slow clients
// skip intermediate states, the latest one always arrives.
func (s *Server) handleReaderSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates := make(chan types.ReaderState, 1)
	unsubscribe := s.state.Subscribe(func(st types.ReaderState) {
		// Keep only the newest state when the client lags.
		for {
			select {
			case updates <- st:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	})
	defer unsubscribe()

	// Reader loop, only to detect disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(st types.ReaderState) bool {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(st); err != nil {
			log.Printf("[WS] Write failed: %v", err)
			return false
		}
		return true
	}

	if !send(s.state.Snapshot()) {
		return
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case st := <-updates:
			if !send(st) {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
