package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"roomcast/format"
	"roomcast/moderation"
	"roomcast/observability"
	"roomcast/runtime"
	"roomcast/runtime/workers"
	ws "roomcast/transport/websocket"
)

const readTimeout = 3 * time.Second

// BaseChatSuite hosts a full server (router, registry, moderation,
// websocket transport) unless E2E_SERVER_ADDR targets a running one,
// and hands out protocol-aware clients to scenarios.
type BaseChatSuite struct {
	suite.Suite
	Config Config

	wsURL      string
	httpServer *httptest.Server
	supervisor *workers.Supervisor
	cancel     context.CancelFunc
	done       chan struct{}
}

// SetupSuite loads the environment configuration and boots the stack.
func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.ServerAddr != "" {
		s.wsURL = s.Config.ServerAddr
		return
	}

	log := slog.New(slog.DiscardHandler)

	data, err := runtime.LoadCensoredWords()
	s.Require().NoError(err)
	moderator, err := moderation.NewModerator(data.Words, '*', log)
	s.Require().NoError(err)

	registry := runtime.NewRegistry(log)
	router := runtime.NewRouter(log, registry, format.NewFormatter(time.UTC),
		&moderator, observability.NewStats(), 256, 2*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.supervisor = workers.NewSupervisor(log)
	s.done = make(chan struct{})
	go func() {
		s.supervisor.Add(router).Run(ctx)
		close(s.done)
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ws.Handler(log, router, 64, 4096))
	s.httpServer = httptest.NewServer(mux)
	s.wsURL = "ws" + strings.TrimPrefix(s.httpServer.URL, "http") + "/ws"
}

func (s *BaseChatSuite) TearDownSuite() {
	if s.httpServer != nil {
		s.httpServer.Close()
	}
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// wire envelope and payloads, mirrored from the server protocol
type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type wireRecord struct {
	Username string `json:"username"`
	Text     string `json:"text"`
	Time     string `json:"time"`
	Room     string `json:"room"`
}

type wireRoomUsers struct {
	Room  string `json:"room"`
	Users []struct {
		Username string `json:"username"`
	} `json:"users"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// chatClient is one websocket participant under test.
type chatClient struct {
	suite *BaseChatSuite
	name  string
	conn  *websocket.Conn
}

// Dial opens a connection with a colorized header in the logs, so a
// scenario reads like a transcript.
func (s *BaseChatSuite) Dial(name string) *chatClient {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(s.wsURL, nil)
	s.Require().NoError(err, "Failed to connect to websocket server at "+s.wsURL)

	client := &chatClient{suite: s, name: name, conn: conn}
	s.T().Cleanup(client.Close)
	return client
}

func (c *chatClient) Close() {
	_ = c.conn.Close()
}

func (c *chatClient) send(event string, data any) {
	raw, err := json.Marshal(data)
	c.suite.Require().NoError(err)
	payload, err := json.Marshal(wireFrame{Event: event, Data: raw})
	c.suite.Require().NoError(err)

	c.logFrame("SEND", payload)
	c.suite.Require().NoError(c.conn.WriteMessage(websocket.TextMessage, payload))
}

func (c *chatClient) Join(username, room string) {
	c.send("joinRoom", map[string]string{"username": username, "room": room})
}

func (c *chatClient) Say(text string) {
	c.send("chatMessage", text)
}

// Expect reads the next frame and requires its event name.
func (c *chatClient) Expect(event string) wireFrame {
	f := c.next()
	c.suite.Require().Equal(event, f.Event,
		"%s expected event %q, got %q", c.name, event, f.Event)
	return f
}

// ExpectRecord reads the next frame as a message-bearing event.
func (c *chatClient) ExpectRecord(event string) wireRecord {
	f := c.Expect(event)
	var rec wireRecord
	c.suite.Require().NoError(json.Unmarshal(f.Data, &rec))
	return rec
}

// ExpectRoomUsers reads the next frame as a member list refresh.
func (c *chatClient) ExpectRoomUsers() wireRoomUsers {
	f := c.Expect("roomUsers")
	var ru wireRoomUsers
	c.suite.Require().NoError(json.Unmarshal(f.Data, &ru))
	return ru
}

// ExpectError reads the next frame as a join rejection.
func (c *chatClient) ExpectError(event string) wireError {
	f := c.Expect(event)
	var we wireError
	c.suite.Require().NoError(json.Unmarshal(f.Data, &we))
	return we
}

// ExpectSilence requires that nothing arrives within the grace period.
// The read deadline poisons the connection, so this must be the last
// call on a client.
func (c *chatClient) ExpectSilence(grace time.Duration) {
	c.suite.Require().NoError(c.conn.SetReadDeadline(time.Now().Add(grace)))
	_, data, err := c.conn.ReadMessage()
	c.suite.Require().Error(err, "%s expected silence, got frame %s", c.name, string(data))
}

func (c *chatClient) next() wireFrame {
	c.suite.Require().NoError(c.conn.SetReadDeadline(time.Now().Add(readTimeout)))
	_, data, err := c.conn.ReadMessage()
	c.suite.Require().NoError(err, "%s timed out waiting for a frame", c.name)

	c.logFrame("RECV", data)

	var f wireFrame
	c.suite.Require().NoError(json.Unmarshal(data, &f))
	return f
}

// logFrame dumps raw frames when E2E_DEBUG_JSON is enabled.
func (c *chatClient) logFrame(direction string, data []byte) {
	if !c.suite.Config.DebugJSON {
		return
	}
	c.suite.T().Logf("%s %s: %s", c.name, direction, string(data))
}
