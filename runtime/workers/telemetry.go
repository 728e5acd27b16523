package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"roomcast/contract"
	"roomcast/observability"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// TelemetryWorker periodically logs process health (CPU, RSS) together
// with presence gauges from the registry and the router's counters.
// Reading the registry is cheap and lock-protected, so sampling never
// interferes with event handling.
type TelemetryWorker struct {
	log            *slog.Logger
	registry       contract.IRegistry
	stats          *observability.Stats
	metricInterval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, registry contract.IRegistry,
	stats *observability.Stats, metricInterval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		registry:       registry,
		stats:          stats,
		metricInterval: metricInterval,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping telemetry worker")
			return nil
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			rooms := w.registry.ActiveRooms()
			sessions := 0
			for _, room := range rooms {
				sessions += w.registry.RoomMemberCount(room)
			}

			snap := w.stats.Snapshot()
			w.log.Info("Presence telemetry",
				"rooms", len(rooms),
				"sessions", sessions,
				"joins", snap.Joins,
				"leaves", snap.Leaves,
				"broadcasts", snap.Broadcasts,
				"dropped", snap.DroppedDeliveries,
				"cpu_percent", cpu,
				"ram_bytes", rss)
		}
	}
}

// selfStats retrieves memory and CPU metrics for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
