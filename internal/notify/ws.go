package notify

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

const (
	readBuffSize  = 2 << 10
	writeBuffSize = 2 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  readBuffSize,
	WriteBufferSize: writeBuffSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades the request and streams hub notifications to the client
// until either side closes the connection.
func ServeWS(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("error while upgrading connection", "error", err)
			return
		}
		defer conn.Close()

		messages, unsubscribe := hub.Subscribe()
		defer unsubscribe()

		// The read loop only exists to notice the client going away.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case <-r.Context().Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					logger.Error("failed to write ws msg", "error", err)
					return
				}
			}
		}
	}
}
