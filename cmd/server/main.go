package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"roomcast/format"
	"roomcast/internal"
	"roomcast/moderation"
	"roomcast/observability"
	"roomcast/runtime"
	"roomcast/runtime/workers"
	"roomcast/transport/websocket"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. This keeps every defer effective before
// the process exits and decouples initialization from the entry point.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	loc, err := config.Timezone()
	if err != nil {
		return exitConfig, err
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Moderation dictionaries
	data, err := runtime.LoadCensoredWords()
	if err != nil {
		return exitRuntime, err
	}
	log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	moderator, err := moderation.NewModerator(data.Words, charReplacement, log)
	if err != nil {
		return exitRuntime, err
	}

	// 3. Core components
	registry := runtime.NewRegistry(log)
	stats := observability.NewStats()
	formatter := format.NewFormatter(loc)
	router := runtime.NewRouter(log, registry, formatter, &moderator, stats,
		config.BufferSize, config.SinkTimeout)

	// 4. Supervised workers
	supervisor := workers.NewSupervisor(log)
	supervisor.Add(router)
	supervisor.Add(workers.NewTelemetryWorker(log, registry, stats, config.MetricInterval))

	supervisorDone := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(supervisorDone)
	}()

	// 5. HTTP surface: websocket endpoint, health, and inspect dashboard
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", websocket.Handler(log, router, config.ConnectionBufferSize, config.MaxMessageSize))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: mux,
	}

	debugServer := internal.StartDebugServer(log, registry, config.DebugPort, func() map[string]any {
		snap := stats.Snapshot()
		return map[string]any{
			"joins":      snap.Joins,
			"leaves":     snap.Leaves,
			"rejected":   snap.RejectedJoins,
			"broadcasts": snap.Broadcasts,
			"dropped":    snap.DroppedDeliveries,
			"uptime_s":   snap.UptimeSeconds,
		}
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 6. Wait for shutdown signal or listener failure
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		return exitRuntime, err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown error", "error", err)
	}
	_ = debugServer.Shutdown(shutdownCtx)

	supervisor.Stop()
	<-supervisorDone

	log.Info("Server stopped")
	return exitOK, nil
}
