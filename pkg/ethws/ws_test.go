package ethws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestDecodeHead(t *testing.T) {
	head, ok := decodeHead([]byte(`{"jsonrpc":"2.0","method":"eth_subscription","params":{"subscription":"0x9ce5","result":{"number":"0x1b4","hash":"0xaa","parentHash":"0xbb"}}}`))
	require.True(t, ok)
	require.Equal(t, NewHead{Number: 436, Hash: "0xaa", ParentHash: "0xbb"}, head)

	for _, msg := range []string{
		`not json`,
		`{"method":"eth_other"}`,
		`{"method":"eth_subscription","params":{"result":{"number":"zz","hash":"0xaa","parentHash":"0xbb"}}}`,
		`{"method":"eth_subscription","params":{"result":{"number":"0x1","hash":"","parentHash":"0xbb"}}}`,
	} {
		_, ok := decodeHead([]byte(msg))
		require.False(t, ok, msg)
	}
}

func TestListenNewHeads(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req subscribeReq
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": "0x9ce5"})
		for _, msg := range []string{
			`{"jsonrpc":"2.0","method":"eth_subscription","params":{"subscription":"0x9ce5","result":{"number":"0x10","hash":"0x10aa","parentHash":"0x0faa"}}}`,
			`garbage`,
			`{"jsonrpc":"2.0","method":"eth_subscription","params":{"subscription":"0x9ce5","result":{"number":"0x11","hash":"0x11aa","parentHash":"0x10aa"}}}`,
		} {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(msg))
		}
		// hold the connection until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	heads := New("ws"+strings.TrimPrefix(srv.URL, "http"), nil).ListenNewHeads(ctx)
	first := <-heads
	second := <-heads
	require.Equal(t, uint64(16), first.Number)
	require.Equal(t, uint64(17), second.Number)
	require.Equal(t, first.Hash, second.ParentHash)

	cancel()
	for range heads {
	}
}

func TestSubscriptionRejected(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req subscribeReq
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]any{"code": -32601, "message": "the method eth_subscribe does not exist/is not available"},
		})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := make(chan NewHead, 1)
	received, err := New("ws"+strings.TrimPrefix(srv.URL, "http"), nil).listenOnce(ctx, out)
	require.False(t, received)
	require.EqualError(t, err, "rpc error -32601: the method eth_subscribe does not exist/is not available")
}
