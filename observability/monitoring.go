// Package observability aggregates live counters for the debug endpoint
// and the telemetry worker. No core logic depends on these numbers.
package observability

import (
	"sync/atomic"
	"time"
)

// Stats holds cumulative counters since process start. All increments
// are atomic so the router never blocks on accounting.
type Stats struct {
	joins             uint64
	leaves            uint64
	rejectedJoins     uint64
	broadcasts        uint64
	droppedDeliveries uint64
	started           time.Time
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Joins             uint64 `json:"joins"`
	Leaves            uint64 `json:"leaves"`
	RejectedJoins     uint64 `json:"rejected_joins"`
	Broadcasts        uint64 `json:"broadcasts"`
	DroppedDeliveries uint64 `json:"dropped_deliveries"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
}

func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

func (s *Stats) IncrJoins()             { atomic.AddUint64(&s.joins, 1) }
func (s *Stats) IncrLeaves()            { atomic.AddUint64(&s.leaves, 1) }
func (s *Stats) IncrRejectedJoins()     { atomic.AddUint64(&s.rejectedJoins, 1) }
func (s *Stats) IncrBroadcasts()        { atomic.AddUint64(&s.broadcasts, 1) }
func (s *Stats) IncrDroppedDeliveries() { atomic.AddUint64(&s.droppedDeliveries, 1) }

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Joins:             atomic.LoadUint64(&s.joins),
		Leaves:            atomic.LoadUint64(&s.leaves),
		RejectedJoins:     atomic.LoadUint64(&s.rejectedJoins),
		Broadcasts:        atomic.LoadUint64(&s.broadcasts),
		DroppedDeliveries: atomic.LoadUint64(&s.droppedDeliveries),
		UptimeSeconds:     int64(time.Since(s.started).Seconds()),
	}
}
