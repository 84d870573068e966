package gateway

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// UnmeasuredLatency is the latency of an endpoint that never answered a probe.
const UnmeasuredLatency = time.Duration(math.MaxInt64)

// PerformanceRecord is the health state of one endpoint.
type PerformanceRecord struct {
	Latency       time.Duration
	FailureRate   uint64
	LastEvaluated time.Time
}

func newPerformanceRecord() PerformanceRecord {
	return PerformanceRecord{Latency: UnmeasuredLatency}
}

// Score is latency multiplied by failure rate. Lower is better.
func (r PerformanceRecord) Score() float64 {
	return float64(r.Latency) * float64(r.FailureRate)
}

// Evaluated reports whether the record was ever refreshed by a probe.
func (r PerformanceRecord) Evaluated() bool {
	return !r.LastEvaluated.IsZero()
}

// EvaluationEntry pairs an endpoint with its performance record.
type EvaluationEntry struct {
	index    int
	name     string
	endpoint Endpoint

	mu     sync.RWMutex
	record PerformanceRecord

	probing atomic.Bool
}

func newEvaluationEntry(index int, ep Endpoint) *EvaluationEntry {
	name := fmt.Sprintf("endpoint-%d", index)
	if n, ok := ep.(Namer); ok && n.Name() != "" {
		name = n.Name()
	}
	return &EvaluationEntry{
		index:    index,
		name:     name,
		endpoint: ep,
		record:   newPerformanceRecord(),
	}
}

func (e *EvaluationEntry) Endpoint() Endpoint { return e.endpoint }

// Index is the position of the endpoint in the pool passed to New.
func (e *EvaluationEntry) Index() int { return e.index }

func (e *EvaluationEntry) Name() string { return e.name }

// Record returns a snapshot of the performance record.
func (e *EvaluationEntry) Record() PerformanceRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.record
}

func (e *EvaluationEntry) update(fn func(r *PerformanceRecord)) PerformanceRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.record)
	return e.record
}
