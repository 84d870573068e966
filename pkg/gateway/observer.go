package gateway

import (
	"time"

	"github.com/google/uuid"
)

// EvaluationEvent describes the outcome of one probe.
type EvaluationEvent struct {
	Network  NetworkDescriptor
	Endpoint string
	Index    int
	Record   PerformanceRecord
	Err      error
}

// BroadcastAttempt is the outcome of submitting a transaction to one endpoint.
type BroadcastAttempt struct {
	Endpoint string
	Index    int
	Hash     string
	Err      error
}

// BroadcastEvent describes a settled sendTransaction fan-out.
type BroadcastEvent struct {
	TraceID  uuid.UUID
	Network  NetworkDescriptor
	Hash     string
	Attempts []BroadcastAttempt
	Started  time.Time
	Settled  time.Time
}

// Succeeded reports whether at least one endpoint accepted the transaction.
func (e BroadcastEvent) Succeeded() bool {
	return e.Hash != ""
}

// Observer receives gateway events. Implementations must not block.
type Observer interface {
	ObserveEvaluation(EvaluationEvent)
	ObserveBroadcast(BroadcastEvent)
}

type nopObserver struct{}

func (nopObserver) ObserveEvaluation(EvaluationEvent) {}
func (nopObserver) ObserveBroadcast(BroadcastEvent)   {}
