package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"multi-rpc-gateway/pkg/ethws"
	"multi-rpc-gateway/pkg/gateway"
)

var testNetwork = gateway.NetworkDescriptor{Name: "sepolia", ChainID: 11155111}

type stubEndpoint struct {
	name string
	head atomic.Uint64
	down bool
}

func newStub(name string, head uint64) *stubEndpoint {
	s := &stubEndpoint{name: name}
	s.head.Store(head)
	return s
}

func (s *stubEndpoint) Name() string                       { return s.name }
func (s *stubEndpoint) Network() gateway.NetworkDescriptor { return testNetwork }

func (s *stubEndpoint) BlockNumber(context.Context) (uint64, error) {
	if s.down {
		return 0, errors.New("dial tcp: connection refused")
	}
	return s.head.Load(), nil
}

func (s *stubEndpoint) Perform(ctx context.Context, method string, _ any) (any, error) {
	switch method {
	case gateway.MethodGetBlockNumber:
		return s.BlockNumber(ctx)
	case gateway.MethodSendTransaction:
		return "0xabc", nil
	}
	return nil, gateway.ErrMethodUnsupported
}

type fakeQueue struct {
	mu          sync.Mutex
	evaluations []gateway.EvaluationEvent
	broadcasts  []gateway.BroadcastEvent
}

func (q *fakeQueue) PushEvaluation(_ context.Context, ev gateway.EvaluationEvent) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.evaluations = append(q.evaluations, ev)
	return "1-0", nil
}

func (q *fakeQueue) PushBroadcast(_ context.Context, ev gateway.BroadcastEvent) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.broadcasts = append(q.broadcasts, ev)
	return "1-1", nil
}

func (q *fakeQueue) counts() (int, int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.evaluations), len(q.broadcasts)
}

type fakeJournal struct {
	mu     sync.Mutex
	events []gateway.BroadcastEvent
	err    error
}

func (j *fakeJournal) RecordBroadcast(_ context.Context, ev gateway.BroadcastEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, ev)
	return j.err
}

func (j *fakeJournal) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.events)
}

type chanHeads chan ethws.NewHead

func (c chanHeads) ListenNewHeads(context.Context) <-chan ethws.NewHead { return c }
