package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blackmichael/replyguard/internal/moderation"
)

const writeDeadline = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The moderation stream carries no client-specific data.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsSubscriber forwards moderation events to a single websocket client.
// Writes are serialized; gorilla connections do not allow concurrent writers.
type wsSubscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *wsSubscriber) Deliver(event moderation.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return s.conn.WriteJSON(event)
}

func (s *Server) handleModerationSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sub := &wsSubscriber{conn: conn}
	s.moderation.Subscribe(sub)
	s.logger.Info("moderation subscriber connected", "remote", r.RemoteAddr)

	defer func() {
		s.moderation.Unsubscribe(sub)
		conn.Close()
		s.logger.Info("moderation subscriber disconnected", "remote", r.RemoteAddr)
	}()

	// Drain incoming frames so pings and close messages are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
