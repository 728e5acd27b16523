package runtime_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roomcast/domain"
	"roomcast/domain/event"
	"roomcast/format"
	"roomcast/moderation"
	"roomcast/observability"
	"roomcast/runtime"
)

// countingSink only counts deliveries, to measure router throughput
// without any transport in the way.
type countingSink struct {
	delivered atomic.Uint64
}

func (s *countingSink) Consume(_ context.Context, _ event.Outbound) error {
	s.delivered.Add(1)
	return nil
}

func TestRouter_LoadTest(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logs are disabled for perf
	log := slog.New(slog.DiscardHandler)

	mod, err := moderation.NewModerator([]string{"badger"}, '*', log)
	req.NoError(err)

	registry := runtime.NewRegistry(log)
	stats := observability.NewStats()
	router := runtime.NewRouter(log, registry, format.NewFormatter(time.UTC),
		&mod, stats, 10_000, time.Second)

	go func() {
		_ = router.Run(ctx)
	}()

	numClients := 20
	messagesPerClient := 100

	// Connect and join every client first
	sinks := make([]*countingSink, numClients)
	for i := 0; i < numClients; i++ {
		sinks[i] = &countingSink{}
		id := domain.ConnectionID(fmt.Sprintf("conn-%d", i))
		router.Connect(id, sinks[i])
		router.Dispatch(domain.JoinCommand{
			ID:       id,
			Username: fmt.Sprintf("user-%d", i),
			Room:     "arena",
		})
	}
	req.Eventually(func() bool {
		return stats.Snapshot().Joins == uint64(numClients)
	}, 5*time.Second, 10*time.Millisecond, "All clients should have joined")
	// Let the join-phase notices finish before measuring
	time.Sleep(200 * time.Millisecond)
	var baseline uint64
	for _, sink := range sinks {
		baseline += sink.delivered.Load()
	}

	start := time.Now()
	var wg sync.WaitGroup

	// Traffic simulation: every client floods the same room
	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			id := domain.ConnectionID(fmt.Sprintf("conn-%d", clientID))
			for j := 0; j < messagesPerClient; j++ {
				router.Dispatch(domain.ChatCommand{ID: id, Text: "This is a load test message"})
			}
		}(i)
	}
	wg.Wait()

	// Wait for the command channel to drain. Dispatch drops on a full
	// buffer, so the broadcast count may be below the theoretical max.
	var broadcasts uint64
	req.Eventually(func() bool {
		snap := stats.Snapshot().Broadcasts
		if snap == broadcasts && snap > 0 {
			return true
		}
		broadcasts = snap
		return false
	}, 10*time.Second, 100*time.Millisecond, "Broadcast count should settle")

	duration := time.Since(start)
	var delivered uint64
	for _, sink := range sinks {
		delivered += sink.delivered.Load()
	}

	fmt.Printf("\n--- STRESS TEST RESULTS ---\n")
	fmt.Printf("Total duration      : %v\n", duration)
	fmt.Printf("Broadcast messages  : %d / %d (rest dropped by backpressure)\n", broadcasts, numClients*messagesPerClient)
	fmt.Printf("Deliveries to sinks : %d\n", delivered)
	fmt.Printf("Throughput (TPS)    : %.2f msg/sec\n", float64(broadcasts)/duration.Seconds())
	fmt.Printf("---------------------------\n")

	// Every broadcast fans out to the whole room
	req.Equal(broadcasts*uint64(numClients), delivered-baseline)
	req.Greater(broadcasts, uint64(0))
}
