package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// scheduler owns background probes. At most one probe per entry is in
// flight, and every probe is stopped and awaited by stop.
type scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	clock  clock.Clock
	eval   func(ctx context.Context, entry *EvaluationEntry)

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func newScheduler(c clock.Clock, eval func(ctx context.Context, entry *EvaluationEntry)) *scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &scheduler{ctx: ctx, cancel: cancel, clock: c, eval: eval}
}

// spawn runs fn in a goroutine tracked by the scheduler.
func (s *scheduler) spawn(fn func(ctx context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
	return true
}

// trigger starts a probe of entry unless one is already running.
func (s *scheduler) trigger(entry *EvaluationEntry) {
	if !entry.probing.CompareAndSwap(false, true) {
		return
	}
	started := s.spawn(func(ctx context.Context) {
		defer entry.probing.Store(false)
		s.eval(ctx, entry)
	})
	if !started {
		entry.probing.Store(false)
	}
}

// refreshStale triggers a probe for every entry that is stale at now.
func (s *scheduler) refreshStale(entries []*EvaluationEntry, interval time.Duration) {
	now := s.clock.Now()
	for _, e := range entries {
		if IsStale(e.Record(), now, interval) {
			s.trigger(e)
		}
	}
}

// loop refreshes stale entries on every tick until stop is called.
func (s *scheduler) loop(entries []*EvaluationEntry, interval time.Duration) {
	s.spawn(func(ctx context.Context) {
		s.refreshStale(entries, interval)
		t := s.clock.Ticker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.refreshStale(entries, interval)
			case <-ctx.Done():
				return
			}
		}
	})
}

func (s *scheduler) stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
