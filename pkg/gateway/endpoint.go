package gateway

import "context"

const (
	MethodSendTransaction = "sendTransaction"
	MethodCall            = "call"
	MethodGetBlockNumber  = "getBlockNumber"
)

// Endpoint is a client for a single node of the network.
type Endpoint interface {
	// Network returns the descriptor the endpoint was configured for.
	Network() NetworkDescriptor
	// BlockNumber returns the latest block height. It is used as the liveness probe.
	BlockNumber(ctx context.Context) (uint64, error)
	// Perform executes method with params on the node.
	Perform(ctx context.Context, method string, params any) (any, error)
}

// MethodSupporter is implemented by endpoints that can tell up front
// whether a method is serviceable.
type MethodSupporter interface {
	Supports(method string) bool
}

// Namer is implemented by endpoints that carry a human readable name.
type Namer interface {
	Name() string
}

// SendTransactionParams are the params of MethodSendTransaction.
type SendTransactionParams struct {
	SignedTransaction string `json:"signedTransaction"`
}
