package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"multi-rpc-gateway/pkg/gateway"
)

func TestSinkWritesEvents(t *testing.T) {
	q := &fakeQueue{}
	j := &fakeJournal{}
	s := NewSink(q, j, nil, 8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.ObserveEvaluation(gateway.EvaluationEvent{Network: testNetwork, Endpoint: "a"})
	s.ObserveBroadcast(gateway.BroadcastEvent{TraceID: uuid.New(), Network: testNetwork, Hash: "0xabc"})

	require.Eventually(t, func() bool {
		evals, bcasts := q.counts()
		return evals == 1 && bcasts == 1 && j.count() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestSinkDropsWhenFull(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := NewSink(nil, nil, zap.New(core), 1)

	s.ObserveEvaluation(gateway.EvaluationEvent{})
	s.ObserveEvaluation(gateway.EvaluationEvent{})
	s.ObserveBroadcast(gateway.BroadcastEvent{})

	require.Equal(t, uint64(2), s.Dropped())
	require.Equal(t, 1, logs.FilterMessage("event buffer full, dropping events").Len())
}

func TestSinkKeepsStreamingWhenJournalFails(t *testing.T) {
	q := &fakeQueue{}
	j := &fakeJournal{err: errors.New("pg down")}
	core, logs := observer.New(zap.WarnLevel)
	s := NewSink(q, j, zap.New(core), 8)

	s.write(context.Background(), sinkEvent{broadcast: &gateway.BroadcastEvent{TraceID: uuid.New()}})

	_, bcasts := q.counts()
	require.Equal(t, 1, bcasts)
	require.Equal(t, 1, logs.FilterMessage("journal broadcast").Len())
}
