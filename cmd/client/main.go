package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws"`
	Username  string `env:"CHAT_USERNAME,required=true"`
	Room      string `env:"CHAT_ROOM,default=general"`
	LogLevel  string `env:"LOG_LEVEL,default=INFO"`
}

// Wire types mirrored from the server protocol.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type messageRecord struct {
	Username string `json:"username"`
	Text     string `json:"text"`
	Time     string `json:"time"`
	Room     string `json:"room"`
}

type roomUsers struct {
	Room  string `json:"room"`
	Users []struct {
		Username string `json:"username"`
	} `json:"users"`
}

type protocolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the websocket client lifecycle: configuration loading,
// the join handshake, and the two loops (stdin and server frames).
func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect and join.
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	if err := send(conn, "joinRoom", map[string]string{
		"username": config.Username,
		"room":     config.Room,
	}); err != nil {
		return exitRuntime, err
	}

	color.Green.Printf(">>> Connected to %s as %q in room %q (Ctrl+C to quit, /users for the member list)\n",
		config.ServerURL, config.Username, config.Room)

	// lastUsers keeps the most recent member list for /users.
	var mu sync.Mutex
	var lastUsers roomUsers

	// 3. Frame reception loop.
	recvDone := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				recvDone <- err
				return
			}
			var f frame
			if err := json.Unmarshal(data, &f); err != nil {
				log.Warn("Invalid frame from server", "error", err)
				continue
			}
			switch f.Event {
			case "welcomeMessage", "message":
				var rec messageRecord
				if err := json.Unmarshal(f.Data, &rec); err != nil {
					continue
				}
				printRecord(rec)
			case "roomUsers":
				var ru roomUsers
				if err := json.Unmarshal(f.Data, &ru); err != nil {
					continue
				}
				mu.Lock()
				lastUsers = ru
				mu.Unlock()
				color.Gray.Printf("* member list updated (%d in %s)\n", len(ru.Users), ru.Room)
			case "usernameError", "joinError":
				var pe protocolError
				_ = json.Unmarshal(f.Data, &pe)
				recvDone <- fmt.Errorf("join rejected [%s]: %s", pe.Code, pe.Message)
				return
			}
		}
	}()

	// 4. Stdin loop: slash commands and chat messages.
	inputCh := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			inputCh <- scanner.Text()
		}
		close(inputCh)
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return exitOK, nil
		case err := <-recvDone:
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, err
		case line, ok := <-inputCh:
			if !ok {
				return exitOK, nil
			}
			line = strings.TrimSpace(line)
			switch {
			case line == "":
			case line == "/quit":
				return exitOK, nil
			case line == "/users":
				mu.Lock()
				renderUsers(lastUsers)
				mu.Unlock()
			default:
				if err := send(conn, "chatMessage", line); err != nil {
					return exitRuntime, err
				}
			}
		}
	}
}

func send(conn *websocket.Conn, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(frame{Event: event, Data: raw})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func printRecord(rec messageRecord) {
	if rec.Username == "system" {
		color.Yellow.Printf("[%s] %s\n", rec.Time, rec.Text)
		return
	}
	fmt.Printf("[%s] %s %s\n", rec.Time, color.Cyan.Sprintf("%s:", rec.Username), rec.Text)
}

// renderUsers prints the latest member list as a table.
func renderUsers(ru roomUsers) {
	if ru.Room == "" {
		color.Gray.Println("* no member list received yet")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Username"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, u := range ru.Users {
		table.Append([]string{fmt.Sprintf("%d", i+1), u.Username})
	}
	table.Render()
}
