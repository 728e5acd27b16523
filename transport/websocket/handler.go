package websocket

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"roomcast/contract"
	"roomcast/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The protocol carries no credentials; origin filtering belongs to
	// whatever fronts this server.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to websocket connections and hands
// each one a freshly minted connection id.
func Handler(log *slog.Logger, router contract.Dispatcher, bufferSize int, maxMessageSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Upgrade error", "error", err)
			return
		}

		conn := NewConn(domain.ConnectionID(uuid.NewString()), ws, router, log, bufferSize, maxMessageSize)
		conn.Start()
		log.Debug("Connection opened", "connection_id", conn.ID(), "remote", r.RemoteAddr)
	}
}
