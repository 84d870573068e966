package ethrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"multi-rpc-gateway/pkg/gateway"
	"multi-rpc-gateway/pkg/util"
)

// methodTable maps gateway method names to node methods. Params of these
// methods are forwarded verbatim as positional params.
var methodTable = map[string]string{
	gateway.MethodCall:           "eth_call",
	gateway.MethodGetBlockNumber: "eth_blockNumber",
	"estimateGas":                "eth_estimateGas",
	"getBalance":                 "eth_getBalance",
	"getTransactionCount":        "eth_getTransactionCount",
	"getCode":                    "eth_getCode",
	"getStorageAt":               "eth_getStorageAt",
	"getBlock":                   "eth_getBlockByNumber",
	"getBlockByHash":             "eth_getBlockByHash",
	"getTransaction":             "eth_getTransactionByHash",
	"getTransactionReceipt":      "eth_getTransactionReceipt",
	"getLogs":                    "eth_getLogs",
	"getGasPrice":                "eth_gasPrice",
	"getChainId":                 "eth_chainId",
	"getFeeHistory":              "eth_feeHistory",
	"getMaxPriorityFeePerGas":    "eth_maxPriorityFeePerGas",
}

// nodeMethod resolves method to the node method name. Raw eth_ and net_
// names pass through unchanged.
func nodeMethod(method string) (string, bool) {
	if m, ok := methodTable[method]; ok {
		return m, true
	}
	if strings.HasPrefix(method, "eth_") || strings.HasPrefix(method, "net_") {
		return method, true
	}
	return "", false
}

func positional(params any) (any, error) {
	switch p := params.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return p, nil
	case json.RawMessage:
		if len(p) == 0 || p[0] != '[' {
			return nil, fmt.Errorf("params must be a JSON array")
		}
		return p, nil
	default:
		// typed slices such as []string are marshalled as arrays as well
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 || raw[0] != '[' {
			return nil, fmt.Errorf("params must be positional, got %T", params)
		}
		return json.RawMessage(raw), nil
	}
}

func signedTransaction(params any) (string, error) {
	var tx string
	switch p := params.(type) {
	case gateway.SendTransactionParams:
		tx = p.SignedTransaction
	case *gateway.SendTransactionParams:
		if p != nil {
			tx = p.SignedTransaction
		}
	case map[string]any:
		tx, _ = p["signedTransaction"].(string)
	case string:
		tx = p
	default:
		return "", fmt.Errorf("unsupported sendTransaction params %T", params)
	}
	if !util.IsHexData(tx) {
		return "", fmt.Errorf("signed transaction is not hex data")
	}
	return tx, nil
}

func (a *Adapter) sendTransaction(ctx context.Context, params any) (string, error) {
	tx, err := signedTransaction(params)
	if err != nil {
		return "", err
	}
	var hash string
	if err := a.hc.Call(ctx, "eth_sendRawTransaction", []any{tx}, &hash); err != nil {
		return "", err
	}
	return hash, nil
}
