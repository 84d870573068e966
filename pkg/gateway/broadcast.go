package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// broadcast submits the same signed transaction to every endpoint and waits
// for all of them to settle.
func (g *Gateway) broadcast(ctx context.Context, params any) (string, error) {
	ev := BroadcastEvent{
		TraceID:  uuid.New(),
		Network:  g.network,
		Attempts: make([]BroadcastAttempt, len(g.entries)),
		Started:  g.clock.Now(),
	}

	var eg errgroup.Group
	for i, e := range g.entries {
		eg.Go(func() error {
			a := BroadcastAttempt{Endpoint: e.name, Index: e.index}
			res, err := e.endpoint.Perform(ctx, MethodSendTransaction, params)
			if err == nil {
				a.Hash, err = transactionHash(res)
			}
			a.Err = err
			ev.Attempts[i] = a
			return nil
		})
	}
	_ = eg.Wait()
	ev.Settled = g.clock.Now()

	errs := make([]error, len(ev.Attempts))
	for i, a := range ev.Attempts {
		g.metrics.observeBroadcast(a.Endpoint, a.Err)
		if a.Err == nil && ev.Hash == "" {
			ev.Hash = a.Hash
		}
		errs[i] = a.Err
	}
	g.observer.ObserveBroadcast(ev)

	if ev.Succeeded() {
		g.logger.Info("transaction broadcast",
			zap.Stringer("trace", ev.TraceID),
			zap.String("hash", ev.Hash),
			zap.Error(multierr.Combine(errs...)))
		return ev.Hash, nil
	}

	g.logger.Warn("transaction rejected by every endpoint",
		zap.Stringer("trace", ev.TraceID),
		zap.Error(multierr.Combine(errs...)))
	return "", &BroadcastError{Errors: errs}
}

func transactionHash(res any) (string, error) {
	switch v := res.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("empty transaction hash")
		}
		return v, nil
	case json.RawMessage:
		var hash string
		if err := json.Unmarshal(v, &hash); err != nil {
			return "", fmt.Errorf("decode transaction hash: %w", err)
		}
		return transactionHash(hash)
	case fmt.Stringer:
		return transactionHash(v.String())
	default:
		return "", fmt.Errorf("unexpected transaction hash type %T", res)
	}
}
