package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Evaluator probes endpoints and records the outcome in their entries.
type Evaluator struct {
	network  NetworkDescriptor
	clock    clock.Clock
	logger   *zap.Logger
	metrics  *metrics
	observer Observer
}

// Evaluate runs the liveness probe against entry's endpoint. Probe failures
// are recorded, never returned. A probe cut short by ctx leaves the record
// untouched.
func (ev *Evaluator) Evaluate(ctx context.Context, entry *EvaluationEntry) {
	start := ev.clock.Now()
	_, err := entry.endpoint.BlockNumber(ctx)
	elapsed := ev.clock.Since(start)
	now := ev.clock.Now()

	// A probe aborted by its own context says nothing about the endpoint.
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		ev.logger.Debug("probe cancelled", zap.String("endpoint", entry.name), zap.Error(err))
		return
	}

	rec := entry.update(func(r *PerformanceRecord) {
		if err != nil {
			r.FailureRate++
		} else {
			r.Latency = elapsed
			r.FailureRate = 0
		}
		r.LastEvaluated = now
	})

	ev.metrics.observeProbe(entry.name, elapsed, err)
	if err != nil {
		ev.logger.Warn("probe failed",
			zap.String("endpoint", entry.name),
			zap.Uint64("failureRate", rec.FailureRate),
			zap.Error(err))
	} else {
		ev.logger.Debug("probe succeeded",
			zap.String("endpoint", entry.name),
			zap.Duration("latency", rec.Latency))
	}
	ev.observer.ObserveEvaluation(EvaluationEvent{
		Network:  ev.network,
		Endpoint: entry.name,
		Index:    entry.index,
		Record:   rec,
		Err:      err,
	})
}

// IsStale reports whether rec is due for another probe at now.
func IsStale(rec PerformanceRecord, now time.Time, interval time.Duration) bool {
	return now.Sub(rec.LastEvaluated) >= interval
}
