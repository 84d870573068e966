package monitor

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"multi-rpc-gateway/pkg/gateway"
)

const DefaultSinkBuffer = 1024

// EventQueue is the stream side of the sink (queue.RedisStreams).
type EventQueue interface {
	PushEvaluation(ctx context.Context, ev gateway.EvaluationEvent) (string, error)
	PushBroadcast(ctx context.Context, ev gateway.BroadcastEvent) (string, error)
}

// Journal persists broadcast outcomes (storage.JournalRepo).
type Journal interface {
	RecordBroadcast(ctx context.Context, ev gateway.BroadcastEvent) error
}

type sinkEvent struct {
	eval      *gateway.EvaluationEvent
	broadcast *gateway.BroadcastEvent
}

// Sink is a gateway.Observer that hands events to a worker over a bounded
// buffer. Events are dropped when the buffer is full so the gateway never
// blocks on Redis or Postgres.
type Sink struct {
	events  chan sinkEvent
	queue   EventQueue
	journal Journal
	logger  *zap.Logger
	dropped atomic.Uint64
}

var _ gateway.Observer = (*Sink)(nil)

// NewSink builds a sink. queue and journal may be nil.
func NewSink(queue EventQueue, journal Journal, logger *zap.Logger, buffer int) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = DefaultSinkBuffer
	}
	return &Sink{
		events:  make(chan sinkEvent, buffer),
		queue:   queue,
		journal: journal,
		logger:  logger.Named("sink"),
	}
}

func (s *Sink) ObserveEvaluation(ev gateway.EvaluationEvent) {
	s.offer(sinkEvent{eval: &ev})
}

func (s *Sink) ObserveBroadcast(ev gateway.BroadcastEvent) {
	s.offer(sinkEvent{broadcast: &ev})
}

// Dropped is the number of events discarded because the buffer was full.
func (s *Sink) Dropped() uint64 { return s.dropped.Load() }

func (s *Sink) offer(e sinkEvent) {
	select {
	case s.events <- e:
	default:
		if s.dropped.Add(1) == 1 {
			s.logger.Warn("event buffer full, dropping events")
		}
	}
}

// Run drains events until ctx is cancelled.
func (s *Sink) Run(ctx context.Context) error {
	for {
		select {
		case e := <-s.events:
			s.write(ctx, e)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Sink) write(ctx context.Context, e sinkEvent) {
	switch {
	case e.eval != nil:
		if s.queue == nil {
			return
		}
		if _, err := s.queue.PushEvaluation(ctx, *e.eval); err != nil {
			s.logger.Warn("push evaluation", zap.Error(err))
		}
	case e.broadcast != nil:
		if s.journal != nil {
			if err := s.journal.RecordBroadcast(ctx, *e.broadcast); err != nil {
				s.logger.Warn("journal broadcast",
					zap.Stringer("trace", e.broadcast.TraceID), zap.Error(err))
			}
		}
		if s.queue != nil {
			if _, err := s.queue.PushBroadcast(ctx, *e.broadcast); err != nil {
				s.logger.Warn("push broadcast", zap.Error(err))
			}
		}
	}
}
