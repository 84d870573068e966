package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"multi-rpc-gateway/pkg/ethws"
	"multi-rpc-gateway/pkg/gateway"
)

// Router is the part of *gateway.Gateway the service drives.
type Router interface {
	Entries() []*gateway.EvaluationEntry
	EvaluateAll(ctx context.Context)
	BlockNumber(ctx context.Context) (uint64, error)
}

// HeadSource streams new chain heads (ethws.Client).
type HeadSource interface {
	ListenNewHeads(ctx context.Context) <-chan ethws.NewHead
}

type Deps struct {
	Router Router
	Feed   *gateway.HeadFeed
	// Heads is optional; without it the head is polled through Router.
	Heads        HeadSource
	PollInterval time.Duration
	Sink         *Sink
	Clock        clock.Clock
	Logger       *zap.Logger
}

// Service keeps the gateway's block feed current and ships its events.
type Service struct {
	router       Router
	feed         *gateway.HeadFeed
	heads        HeadSource
	pollInterval time.Duration
	sink         *Sink
	clock        clock.Clock
	logger       *zap.Logger

	mu      sync.Mutex
	primary string
}

func New(d Deps) *Service {
	s := &Service{
		router:       d.Router,
		feed:         d.Feed,
		heads:        d.Heads,
		pollInterval: d.PollInterval,
		sink:         d.Sink,
		clock:        d.Clock,
		logger:       d.Logger,
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.pollInterval <= 0 {
		s.pollInterval = 12 * time.Second
	}
	return s
}

func (s *Service) Run(ctx context.Context) error {
	s.router.EvaluateAll(ctx)
	s.checkPrimary()

	g, gctx := errgroup.WithContext(ctx)
	if s.sink != nil {
		g.Go(func() error { return s.sink.Run(gctx) })
	}
	g.Go(func() error {
		if s.heads != nil {
			return s.followHeads(gctx)
		}
		return s.pollHeads(gctx)
	})
	return g.Wait()
}

func (s *Service) followHeads(ctx context.Context) error {
	heads := s.heads.ListenNewHeads(ctx)
	for {
		select {
		case h, ok := <-heads:
			if !ok {
				return ctx.Err()
			}
			s.onHead(h.Number)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Service) pollHeads(ctx context.Context) error {
	ticker := s.clock.Ticker(s.pollInterval)
	defer ticker.Stop()

	for {
		n, err := s.router.BlockNumber(ctx)
		switch {
		case err != nil:
			s.logger.Warn("poll head", zap.Error(err))
		default:
			s.onHead(n)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Service) onHead(number uint64) {
	if s.feed != nil && s.feed.Publish(number) {
		s.logger.Debug("new head", zap.Uint64("number", number))
	}
	s.checkPrimary()
}

func (s *Service) checkPrimary() {
	p := gateway.SelectPrimary(s.router.Entries())
	if p == nil {
		return
	}
	s.mu.Lock()
	prev := s.primary
	s.primary = p.Name()
	s.mu.Unlock()
	if prev == p.Name() {
		return
	}
	rec := p.Record()
	s.logger.Info("primary endpoint changed",
		zap.String("from", prev),
		zap.String("to", p.Name()),
		zap.Duration("latency", rec.Latency),
		zap.Uint64("failure_rate", rec.FailureRate))
}

// Primary is the name of the last primary endpoint the service logged.
func (s *Service) Primary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.primary
}
