package ethws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"multi-rpc-gateway/pkg/util"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 20 * time.Second
)

type Client struct {
	url    string
	logger *zap.Logger
}

func New(url string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{url: url, logger: logger.With(zap.String("ws", url))}
}

type NewHead struct {
	Number     uint64
	Hash       string
	ParentHash string
}

type subscribeReq struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type subscribeResp struct {
	JSONRPC string  `json:"jsonrpc"`
	ID      int64   `json:"id"`
	Result  string  `json:"result"`
	Error   *rpcErr `json:"error,omitempty"`
}

type rpcErr struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcErr) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

type subMsg struct {
	Method string `json:"method"`
	Params struct {
		Subscription string `json:"subscription"`
		Result       struct {
			Number     string `json:"number"`
			Hash       string `json:"hash"`
			ParentHash string `json:"parentHash"`
		} `json:"result"`
	} `json:"params"`
}

// ListenNewHeads connects, subscribes to `newHeads`, and emits heads to the returned channel.
// It will reconnect automatically until ctx is canceled.
func (c *Client) ListenNewHeads(ctx context.Context) <-chan NewHead {
	out := make(chan NewHead, 256)
	go func() {
		defer close(out)
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = time.Second
		bo.MaxInterval = 15 * time.Second
		bo.MaxElapsedTime = 0
		for ctx.Err() == nil {
			received, err := c.listenOnce(ctx, out)
			if received {
				bo.Reset()
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				wait := bo.NextBackOff()
				c.logger.Warn("ws listen error, reconnecting", zap.Error(err), zap.Duration("backoff", wait))
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// listenOnce serves one connection. received reports whether at least one
// head was delivered.
func (c *Client) listenOnce(ctx context.Context, out chan<- NewHead) (received bool, err error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	var writeMu sync.Mutex
	done := make(chan struct{})
	defer close(done)

	go func() {
		t := time.NewTicker(pingInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				writeMu.Lock()
				_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
				writeMu.Unlock()
			case <-done:
				return
			case <-ctx.Done():
				// unblock ReadMessage
				_ = conn.Close()
				return
			}
		}
	}()

	subID := rand.Int63()
	req := subscribeReq{
		JSONRPC: "2.0",
		ID:      subID,
		Method:  "eth_subscribe",
		Params:  []interface{}{"newHeads"},
	}
	writeMu.Lock()
	err = conn.WriteJSON(req)
	writeMu.Unlock()
	if err != nil {
		return false, err
	}

	// read the subscription response first
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return false, err
	}
	var sr subscribeResp
	if err := json.Unmarshal(msg, &sr); err == nil && sr.ID == subID {
		if sr.Error != nil {
			return false, sr.Error
		}
		c.logger.Debug("subscribed to newHeads", zap.String("subscription", sr.Result))
	} // if not parseable, we still continue; some nodes may interleave messages.

	for ctx.Err() == nil {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return received, context.Canceled
			}
			return received, err
		}
		head, ok := decodeHead(msg)
		if !ok {
			continue
		}
		select {
		case out <- head:
			received = true
		case <-ctx.Done():
			return received, context.Canceled
		}
	}
	return received, context.Canceled
}

func decodeHead(msg []byte) (NewHead, bool) {
	var sm subMsg
	if err := json.Unmarshal(msg, &sm); err != nil {
		return NewHead{}, false
	}
	if sm.Method != "eth_subscription" {
		return NewHead{}, false
	}
	n, err := util.ParseHexUint64(sm.Params.Result.Number)
	if err != nil {
		return NewHead{}, false
	}
	h := sm.Params.Result.Hash
	ph := sm.Params.Result.ParentHash
	if h == "" || ph == "" {
		return NewHead{}, false
	}
	return NewHead{Number: n, Hash: h, ParentHash: ph}, true
}
