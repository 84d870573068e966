package gateway

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultEvaluationInterval is the staleness interval used when none is configured.
const DefaultEvaluationInterval = 30 * time.Second

// Option configures a Gateway.
type Option func(*options)

type options struct {
	logger             *zap.Logger
	clock              clock.Clock
	evaluationInterval time.Duration
	periodic           bool
	lenient            bool
	registerer         prometheus.Registerer
	observer           Observer
	blockEvents        BlockEvents
}

func defaultOptions() options {
	return options{
		logger:             zap.NewNop(),
		clock:              clock.New(),
		evaluationInterval: DefaultEvaluationInterval,
		observer:           nopObserver{},
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithEvaluationInterval sets the staleness interval after which an
// endpoint is probed again.
func WithEvaluationInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.evaluationInterval = d
		}
	}
}

// WithPeriodicEvaluation refreshes stale endpoints on a ticker even when no
// calls are made.
func WithPeriodicEvaluation() Option {
	return func(o *options) { o.periodic = true }
}

// WithLenientNetworkCheck logs network mismatches instead of failing New.
func WithLenientNetworkCheck() Option {
	return func(o *options) { o.lenient = true }
}

func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithBlockEvents enables the block-scoped cache used by PerformCached.
func WithBlockEvents(ev BlockEvents) Option {
	return func(o *options) { o.blockEvents = ev }
}
