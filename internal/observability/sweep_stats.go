package observability

import (
	"sync/atomic"
	"time"
)

// SweepStats are in-process counters for the worker's /stats endpoint.
// Prometheus carries the same signal for dashboards.
type SweepStats struct {
	runs       atomic.Uint64
	failed     atomic.Uint64
	skipped    atomic.Uint64
	activated  atomic.Uint64
	completed  atomic.Uint64
	reconciled atomic.Uint64

	// duration stats (nanoseconds)
	durationCount atomic.Uint64
	durationTotal atomic.Int64
	durationMax   atomic.Int64
}

func NewSweepStats() *SweepStats {
	return &SweepStats{}
}

func (m *SweepStats) IncRuns() {
	m.runs.Add(1)
}

func (m *SweepStats) IncFailed() {
	m.failed.Add(1)
}

// IncSkipped counts ticks skipped while backing off after failures.
func (m *SweepStats) IncSkipped() {
	m.skipped.Add(1)
}

func (m *SweepStats) AddTransitions(activated, completed int) {
	m.activated.Add(uint64(activated))
	m.completed.Add(uint64(completed))
}

func (m *SweepStats) AddReconciled(n int) {
	m.reconciled.Add(uint64(n))
}

func (m *SweepStats) ObserveDuration(d time.Duration) {
	ns := d.Nanoseconds()
	m.durationCount.Add(1)
	m.durationTotal.Add(ns)

	for {
		curr := m.durationMax.Load()
		if ns <= curr {
			return
		}
		if m.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type SweepStatsSnapshot struct {
	Runs            uint64        `json:"runs"`
	Failed          uint64        `json:"failed"`
	Skipped         uint64        `json:"skipped"`
	Activated       uint64        `json:"activated"`
	Completed       uint64        `json:"completed"`
	Reconciled      uint64        `json:"reconciled"`
	AverageDuration time.Duration `json:"averageDurationNs"`
	MaxDuration     time.Duration `json:"maxDurationNs"`
}

func (m *SweepStats) Snapshot() SweepStatsSnapshot {
	count := m.durationCount.Load()
	total := m.durationTotal.Load()

	var avg time.Duration
	if count > 0 {
		avg = time.Duration(total / int64(count))
	}

	return SweepStatsSnapshot{
		Runs:            m.runs.Load(),
		Failed:          m.failed.Load(),
		Skipped:         m.skipped.Load(),
		Activated:       m.activated.Load(),
		Completed:       m.completed.Load(),
		Reconciled:      m.reconciled.Load(),
		AverageDuration: avg,
		MaxDuration:     time.Duration(m.durationMax.Load()),
	}
}
