package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"multi-rpc-gateway/pkg/gateway"
)

type countingNode struct {
	mu    sync.Mutex
	calls map[string]int
}

func (n *countingNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func newCountingNode(t *testing.T) (*countingNode, *httptest.Server) {
	t.Helper()
	n := &countingNode{calls: make(map[string]int)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64  `json:"id"`
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		n.mu.Lock()
		n.calls[req.Method]++
		n.mu.Unlock()

		result := "0x3b9aca00"
		if req.Method == "eth_blockNumber" {
			result = "0x12a05f2"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	t.Cleanup(srv.Close)
	return n, srv
}

func TestRunCallServesRepeatsFromCache(t *testing.T) {
	node, srv := newCountingNode(t)
	feed := gateway.NewHeadFeed()
	gw, err := buildGateway(context.Background(), testConfig(srv.URL), zap.NewNop(), gateway.WithBlockEvents(feed))
	require.NoError(t, err)
	defer gw.Close()

	var out bytes.Buffer
	require.NoError(t, runCall(context.Background(), gw, feed, &out, "getGasPrice", nil, 3))

	require.Equal(t, 1, node.count("eth_gasPrice"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	for _, l := range lines {
		require.Equal(t, "19531250\t\"0x3b9aca00\"", l)
	}
}

func TestRunCallRejectsTransactions(t *testing.T) {
	_, srv := newCountingNode(t)
	feed := gateway.NewHeadFeed()
	gw, err := buildGateway(context.Background(), testConfig(srv.URL), zap.NewNop(), gateway.WithBlockEvents(feed))
	require.NoError(t, err)
	defer gw.Close()

	err = runCall(context.Background(), gw, feed, &bytes.Buffer{}, gateway.MethodSendTransaction, json.RawMessage(`["0x01"]`), 1)
	require.ErrorContains(t, err, "gateway send")
}
