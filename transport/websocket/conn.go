// Package websocket adapts gorilla/websocket connections to the
// router's command and sink contracts: one read pump decoding inbound
// frames into commands, one write pump draining the outbound buffer.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"roomcast/contract"
	"roomcast/domain"
	"roomcast/domain/event"
	"roomcast/errors"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var _ contract.EventSink = (*Conn)(nil)

// Conn is one client connection. It implements contract.EventSink so
// the router can address it directly, and it owns the goroutines that
// pump bytes in and out of the socket.
type Conn struct {
	id             domain.ConnectionID
	ws             *websocket.Conn
	send           chan []byte
	router         contract.Dispatcher
	log            *slog.Logger
	maxMessageSize int64
}

func NewConn(id domain.ConnectionID, ws *websocket.Conn, router contract.Dispatcher,
	log *slog.Logger, bufferSize int, maxMessageSize int64) *Conn {
	return &Conn{
		id:             id,
		ws:             ws,
		send:           make(chan []byte, bufferSize),
		router:         router,
		log:            log,
		maxMessageSize: maxMessageSize,
	}
}

func (c *Conn) ID() domain.ConnectionID { return c.id }

// Consume queues an outbound event without blocking the router. A full
// buffer means the client cannot keep up; the event is dropped and the
// router's accounting notes it.
func (c *Conn) Consume(_ context.Context, e event.Outbound) error {
	data, err := encodeFrame(e)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.ErrSlowConsumer
	}
}

// Start registers the connection with the router and launches both pumps.
func (c *Conn) Start() {
	c.router.Connect(c.id, c)
	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.router.Dispatch(domain.DisconnectCommand{ID: c.id})
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(c.maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("Read error", "connection_id", c.id, "error", err)
			}
			return
		}
		c.dispatch(data)
	}
}

// dispatch decodes one inbound frame into its command. Unknown or
// malformed frames are dropped; the protocol state machine never sees
// them.
func (c *Conn) dispatch(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.log.Debug("Invalid frame", "connection_id", c.id, "error", err)
		return
	}

	switch f.Event {
	case eventJoinRoom:
		var p joinPayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			c.log.Debug("Invalid joinRoom payload", "connection_id", c.id, "error", err)
			return
		}
		c.router.Dispatch(domain.JoinCommand{ID: c.id, Username: p.Username, Room: p.Room})
	case eventChatMessage:
		var text string
		if err := json.Unmarshal(f.Data, &text); err != nil {
			c.log.Debug("Invalid chatMessage payload", "connection_id", c.id, "error", err)
			return
		}
		c.router.Dispatch(domain.ChatCommand{ID: c.id, Text: text})
	default:
		c.log.Debug("Unknown inbound event", "connection_id", c.id, "event", f.Event)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
