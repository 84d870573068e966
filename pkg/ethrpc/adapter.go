package ethrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"multi-rpc-gateway/pkg/gateway"
)

// Adapter is a gateway.Endpoint backed by one JSON-RPC HTTP node.
type Adapter struct {
	name    string
	network gateway.NetworkDescriptor
	hc      *HTTPClient
}

var (
	_ gateway.Endpoint        = (*Adapter)(nil)
	_ gateway.MethodSupporter = (*Adapter)(nil)
	_ gateway.Namer           = (*Adapter)(nil)
)

func NewAdapter(name, url string, timeout time.Duration, network gateway.NetworkDescriptor) *Adapter {
	if name == "" {
		name = url
	}
	return &Adapter{
		name:    name,
		network: network,
		hc:      NewHTTP(url, timeout),
	}
}

func (a *Adapter) Name() string                       { return a.name }
func (a *Adapter) Network() gateway.NetworkDescriptor { return a.network }

func (a *Adapter) BlockNumber(ctx context.Context) (uint64, error) {
	return a.hc.BlockNumber(ctx)
}

// VerifyChainID checks that the node serves the configured chain.
func (a *Adapter) VerifyChainID(ctx context.Context) error {
	id, err := a.hc.ChainID(ctx)
	if err != nil {
		return err
	}
	if id != a.network.ChainID {
		return fmt.Errorf("%s: node reports chain id %d, configured %d", a.name, id, a.network.ChainID)
	}
	return nil
}

func (a *Adapter) Supports(method string) bool {
	if method == gateway.MethodSendTransaction {
		return true
	}
	_, ok := nodeMethod(method)
	return ok
}

// Perform runs method on the node. getBlockNumber returns a uint64,
// sendTransaction the transaction hash, everything else the raw JSON result.
func (a *Adapter) Perform(ctx context.Context, method string, params any) (any, error) {
	switch method {
	case gateway.MethodSendTransaction:
		return a.sendTransaction(ctx, params)
	case gateway.MethodGetBlockNumber:
		return a.hc.BlockNumber(ctx)
	}

	nm, ok := nodeMethod(method)
	if !ok {
		return nil, fmt.Errorf("%w: %s", gateway.ErrMethodUnsupported, method)
	}
	p, err := positional(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	var raw json.RawMessage
	if err := a.hc.Call(ctx, nm, p, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
