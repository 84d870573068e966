package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"multi-rpc-gateway/pkg/config"
	"multi-rpc-gateway/pkg/ethrpc"
	"multi-rpc-gateway/pkg/gateway"
)

func networkOf(cfg config.Config) gateway.NetworkDescriptor {
	return gateway.NetworkDescriptor{
		Name:       cfg.Network.Name,
		ChainID:    cfg.Network.ChainID,
		ENSAddress: cfg.Network.ENSAddress,
	}
}

func newAdapters(cfg config.Config) []*ethrpc.Adapter {
	network := networkOf(cfg)
	out := make([]*ethrpc.Adapter, len(cfg.Endpoints))
	for i, e := range cfg.Endpoints {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("rpc-%d", i)
		}
		out[i] = ethrpc.NewAdapter(name, e.URL, e.Timeout, network)
	}
	return out
}

// buildGateway wires the configured HTTP endpoints into a gateway. With
// VerifyChainID set, endpoints serving another chain are dropped.
func buildGateway(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...gateway.Option) (*gateway.Gateway, error) {
	adapters := newAdapters(cfg)
	endpoints := make([]gateway.Endpoint, 0, len(adapters))
	for _, a := range adapters {
		if cfg.Gateway.VerifyChainID {
			if err := a.VerifyChainID(ctx); err != nil {
				logger.Warn("dropping endpoint", zap.String("endpoint", a.Name()), zap.Error(err))
				continue
			}
		}
		endpoints = append(endpoints, a)
	}

	opts = append([]gateway.Option{
		gateway.WithLogger(logger),
		gateway.WithEvaluationInterval(cfg.Gateway.EvaluationInterval),
	}, opts...)
	if cfg.Gateway.PeriodicEvaluation {
		opts = append(opts, gateway.WithPeriodicEvaluation())
	}
	if cfg.Gateway.LenientNetworks {
		opts = append(opts, gateway.WithLenientNetworkCheck())
	}
	return gateway.New(endpoints, opts...)
}
