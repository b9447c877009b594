package worker

import (
	"context"
	"fmt"
)

// Tick runs one round of maintenance. It reports false when the round was
// skipped because the worker is backing off after failures.
func (w *Worker) Tick(ctx context.Context) (bool, error) {
	now := w.clock.Now()
	if now.Before(w.nextAttempt) {
		w.stats.IncSkipped()
		return false, nil
	}

	w.ticks++
	w.stats.IncRuns()

	tickCtx, cancel := context.WithTimeout(ctx, w.cfg.SweepTimeout)
	defer cancel()

	start := w.clock.Now()
	err := w.run(tickCtx)
	w.stats.ObserveDuration(w.clock.Now().Sub(start))

	if err != nil {
		w.stats.IncFailed()
		w.nextAttempt = w.clock.Now().Add(ExponentialBackoff(w.failures))
		w.failures++
		return true, err
	}

	w.failures = 0
	w.nextAttempt = now
	return true, nil
}

func (w *Worker) run(ctx context.Context) error {
	res, err := w.sweeper.Sweep(ctx)
	w.stats.AddTransitions(res.Activated, res.Completed)
	if err != nil {
		return fmt.Errorf("lifecycle sweep: %w", err)
	}

	if w.ticks%w.cfg.ReconcileEvery != 0 {
		return nil
	}

	fixed, err := w.sweeper.ReconcileFavoriteCounts(ctx)
	w.stats.AddReconciled(fixed)
	if err != nil {
		return fmt.Errorf("reconcile favorites: %w", err)
	}

	return nil
}
