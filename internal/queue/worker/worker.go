package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/yardsale/internal/clock"
	"github.com/geocoder89/yardsale/internal/observability"
	"github.com/geocoder89/yardsale/internal/service/lifecycle"
)

// Sweeper is the maintenance work run on every tick.
type Sweeper interface {
	Sweep(ctx context.Context) (lifecycle.SweepResult, error)
	ReconcileFavoriteCounts(ctx context.Context) (int, error)
}

type Config struct {
	WorkerID     string
	PollInterval time.Duration
	// ReconcileEvery runs the favorite reconciliation on every Nth tick.
	ReconcileEvery int
	// SweepTimeout bounds a single tick.
	SweepTimeout time.Duration
}

type Worker struct {
	cfg     Config
	sweeper Sweeper
	clock   clock.Clock
	log     *slog.Logger
	stats   *observability.SweepStats

	readyMu sync.RWMutex
	ready   bool

	ticks       int
	failures    int
	nextAttempt time.Time
}

func New(cfg Config, sweeper Sweeper, clk clock.Clock, log *slog.Logger, stats *observability.SweepStats) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.ReconcileEvery <= 0 {
		cfg.ReconcileEvery = 60
	}
	if cfg.SweepTimeout <= 0 {
		cfg.SweepTimeout = 30 * time.Second
	}
	if stats == nil {
		stats = observability.NewSweepStats()
	}

	return &Worker{
		cfg:     cfg,
		sweeper: sweeper,
		clock:   clk,
		log:     log.With("worker_id", cfg.WorkerID),
		stats:   stats,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.setReady(true)
	defer w.setReady(false)

	w.log.Info("worker started", "poll_interval", w.cfg.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal")
			return nil

		case <-ticker.C:
			if _, err := w.Tick(ctx); err != nil && ctx.Err() == nil {
				w.log.Error("sweep failed",
					"err", err,
					"consecutive_failures", w.failures,
					"retry_at", w.nextAttempt,
				)
			}
		}
	}
}

func (w *Worker) Stats() observability.SweepStatsSnapshot {
	return w.stats.Snapshot()
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) isReady() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}
