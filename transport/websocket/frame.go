package websocket

import (
	"encoding/json"

	"roomcast/domain/event"
)

// frame is the JSON envelope of every message exchanged on the wire.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// joinPayload is the client's joinRoom data.
type joinPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// Inbound event names accepted from clients.
const (
	eventJoinRoom    = "joinRoom"
	eventChatMessage = "chatMessage"
)

// encodeFrame wraps an outbound event into its wire envelope. Message
// records are inlined as the data payload; structured events marshal
// through their own tags.
func encodeFrame(e event.Outbound) ([]byte, error) {
	var data any
	switch v := e.(type) {
	case event.Welcome:
		data = v.Record
	case event.Message:
		data = v.Record
	default:
		data = v
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame{Event: e.Name(), Data: raw})
}
