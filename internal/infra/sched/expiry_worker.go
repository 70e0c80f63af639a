// File: internal/infra/sched/expiry_worker.go
package sched

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"hmk-docs-backend/internal/infra/metrics"
	"hmk-docs-backend/internal/usecase"
)

// ExpiryWorker periodically flips elapsed subscriptions to EXPIRED.
type ExpiryWorker struct {
	interval time.Duration
	subUC    usecase.SubscriptionUseCase
	inFlight atomic.Bool
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, subUC usecase.SubscriptionUseCase, logger *zerolog.Logger) *ExpiryWorker {
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		subUC:    subUC,
		log:      &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

func (w *ExpiryWorker) runSweep(ctx context.Context) {
	if !w.inFlight.CompareAndSwap(false, true) {
		metrics.IncJobSkipped("subscription_expiry")
		w.log.Warn().Msg("previous expiry sweep still running; skipping tick")
		return
	}
	defer w.inFlight.Store(false)

	n, err := w.subUC.ExpireOutdated(ctx)
	metrics.IncJobRun("subscription_expiry", err)
	if err != nil {
		w.log.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	if n > 0 {
		w.log.Info().Int64("count", n).Msg("subscriptions expired")
	}
}
