package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Gateway spreads one logical network over a pool of endpoints. Reads go to
// the best scored endpoint, transactions are broadcast to all of them.
type Gateway struct {
	network  NetworkDescriptor
	entries  []*EvaluationEntry
	interval time.Duration

	clock     clock.Clock
	logger    *zap.Logger
	metrics   *metrics
	observer  Observer
	evaluator *Evaluator
	sched     *scheduler
	cache     *BlockCache
}

// New validates endpoints and builds a gateway over them. Call Close to stop
// background evaluation.
func New(endpoints []Endpoint, opts ...Option) (*Gateway, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	network, err := validate(endpoints, o.lenient, o.logger)
	if err != nil {
		return nil, err
	}
	m, err := newMetrics(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	entries := make([]*EvaluationEntry, len(endpoints))
	for i, ep := range endpoints {
		entries[i] = newEvaluationEntry(i, ep)
	}

	logger := o.logger.With(zap.Stringer("network", network))
	g := &Gateway{
		network:  network,
		entries:  entries,
		interval: o.evaluationInterval,
		clock:    o.clock,
		logger:   logger,
		metrics:  m,
		observer: o.observer,
		evaluator: &Evaluator{
			network:  network,
			clock:    o.clock,
			logger:   logger,
			metrics:  m,
			observer: o.observer,
		},
	}
	g.sched = newScheduler(o.clock, g.evaluator.Evaluate)
	if o.blockEvents != nil {
		g.cache = NewBlockCache(o.blockEvents)
	}
	if o.periodic {
		g.sched.loop(g.entries, g.interval)
	}

	logger.Info("gateway created",
		zap.Int("endpoints", len(entries)),
		zap.Duration("evaluationInterval", g.interval))
	return g, nil
}

var _ Endpoint = (*Gateway)(nil)

func (g *Gateway) Network() NetworkDescriptor { return g.network }

// Entries returns the evaluation entries in pool order.
func (g *Gateway) Entries() []*EvaluationEntry {
	out := make([]*EvaluationEntry, len(g.entries))
	copy(out, g.entries)
	return out
}

// Snapshot ranks the pool as the next call would.
func (g *Gateway) Snapshot() []RankedEntry {
	return Rank(g.entries)
}

// Evaluate probes entry synchronously, regardless of staleness.
func (g *Gateway) Evaluate(ctx context.Context, entry *EvaluationEntry) {
	g.evaluator.Evaluate(ctx, entry)
}

// EvaluateAll probes every endpoint concurrently and waits for all of them.
func (g *Gateway) EvaluateAll(ctx context.Context) {
	done := make(chan struct{}, len(g.entries))
	for _, e := range g.entries {
		go func() {
			g.evaluator.Evaluate(ctx, e)
			done <- struct{}{}
		}()
	}
	for range g.entries {
		<-done
	}
}

// Perform runs method on the pool. sendTransaction is broadcast to every
// endpoint and returns the transaction hash; other methods are delegated to
// the current primary.
func (g *Gateway) Perform(ctx context.Context, method string, params any) (any, error) {
	primary := SelectPrimary(g.entries)
	g.metrics.setPrimary(g.network.Name, primary.index)
	g.sched.refreshStale(g.entries, g.interval)

	if method == MethodSendTransaction {
		hash, err := g.broadcast(ctx, params)
		if err != nil {
			return nil, err
		}
		return hash, nil
	}
	return g.dispatch(ctx, primary, method, params)
}

// SendTransaction broadcasts a signed, hex encoded transaction.
func (g *Gateway) SendTransaction(ctx context.Context, signedTx string) (string, error) {
	g.sched.refreshStale(g.entries, g.interval)
	return g.broadcast(ctx, SendTransactionParams{SignedTransaction: signedTx})
}

// BlockNumber asks the primary for the latest block. It lets a Gateway be
// pooled as an Endpoint of another Gateway.
func (g *Gateway) BlockNumber(ctx context.Context) (uint64, error) {
	res, err := g.Perform(ctx, MethodGetBlockNumber, nil)
	if err != nil {
		return 0, err
	}
	n, ok := res.(uint64)
	if !ok {
		return 0, fmt.Errorf("unexpected block number type %T", res)
	}
	return n, nil
}

// PerformCached is Perform with results shared until the next block. It
// falls back to Perform when the gateway has no block events.
func (g *Gateway) PerformCached(ctx context.Context, method string, params any) (any, error) {
	if g.cache == nil || method == MethodSendTransaction {
		return g.Perform(ctx, method, params)
	}
	key, err := cacheKey(method, params)
	if err != nil {
		return nil, err
	}
	return g.cache.Get(ctx, key, func(ctx context.Context) (any, error) {
		return g.Perform(ctx, method, params)
	})
}

func (g *Gateway) dispatch(ctx context.Context, primary *EvaluationEntry, method string, params any) (any, error) {
	if s, ok := primary.endpoint.(MethodSupporter); ok && !s.Supports(method) {
		err := fmt.Errorf("%w: %s", ErrMethodUnsupported, method)
		g.metrics.observeCall(primary.name, method, err)
		return nil, err
	}
	res, err := primary.endpoint.Perform(ctx, method, params)
	g.metrics.observeCall(primary.name, method, err)
	if err != nil {
		g.logger.Debug("call failed",
			zap.String("endpoint", primary.name),
			zap.String("method", method),
			zap.Error(err))
	}
	return res, err
}

// Close stops background evaluation and waits for in-flight probes.
func (g *Gateway) Close() error {
	g.sched.stop()
	return nil
}

func cacheKey(method string, params any) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("cache key for %s: %w", method, err)
	}
	return method + ":" + string(raw), nil
}
