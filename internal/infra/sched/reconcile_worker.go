// File: internal/infra/sched/reconcile_worker.go
package sched

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"hmk-docs-backend/internal/infra/metrics"
	"hmk-docs-backend/internal/usecase"
)

// ReconcileWorker periodically polls the provider for pending payments and
// drives them through the state machine. It covers webhooks that were lost
// or never delivered.
type ReconcileWorker struct {
	interval time.Duration
	payUC    usecase.PaymentUseCase
	inFlight atomic.Bool
	log      *zerolog.Logger
}

func NewReconcileWorker(interval time.Duration, payUC usecase.PaymentUseCase, logger *zerolog.Logger) *ReconcileWorker {
	compLog := logger.With().Str("component", "ReconcileWorker").Logger()
	return &ReconcileWorker{
		interval: interval,
		payUC:    payUC,
		log:      &compLog,
	}
}

func (w *ReconcileWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting payment reconcile worker")
	// Run once on startup, then on every tick
	w.runSweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconcile worker")
			return ctx.Err()
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

// runSweep skips the tick when the previous sweep is still running. A slow
// provider must not pile up overlapping sweeps.
func (w *ReconcileWorker) runSweep(ctx context.Context) {
	if !w.inFlight.CompareAndSwap(false, true) {
		metrics.IncJobSkipped("payment_reconcile")
		w.log.Warn().Msg("previous reconcile sweep still running; skipping tick")
		return
	}
	defer w.inFlight.Store(false)

	checked, err := w.payUC.ReconcilePending(ctx)
	metrics.IncJobRun("payment_reconcile", err)
	if err != nil {
		w.log.Error().Err(err).Msg("reconcile sweep failed")
		return
	}
	if checked > 0 {
		w.log.Info().Int("checked", checked).Msg("reconcile sweep done")
	}
}
