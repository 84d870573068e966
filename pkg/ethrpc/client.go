package ethrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"multi-rpc-gateway/pkg/util"
)

const DefaultTimeout = 15 * time.Second

type HTTPClient struct {
	url     string
	timeout time.Duration
	hc      *http.Client
}

func NewHTTP(url string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		url:     url,
		timeout: timeout,
		hc: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPClient) URL() string { return c.url }

type rpcReq struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcResp struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// HTTPError is returned when the node answers with a non 2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

func (c *HTTPClient) Call(ctx context.Context, method string, params interface{}, out interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	id := rand.Int63()
	reqBody, err := json.Marshal(rpcReq{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var rr rpcResp
	if err := json.Unmarshal(raw, &rr); err != nil {
		return fmt.Errorf("decode rpc response: %w (body=%s)", err, string(raw))
	}
	if rr.Error != nil {
		return rr.Error
	}
	if rr.ID != id {
		return fmt.Errorf("rpc response id mismatch: sent %d, got %d", id, rr.ID)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(rr.Result, out)
}

func (c *HTTPClient) BlockNumber(ctx context.Context) (uint64, error) {
	var hexNum string
	if err := c.Call(ctx, "eth_blockNumber", []interface{}{}, &hexNum); err != nil {
		return 0, err
	}
	return util.ParseHexUint64(hexNum)
}

func (c *HTTPClient) ChainID(ctx context.Context) (uint64, error) {
	var hexID string
	if err := c.Call(ctx, "eth_chainId", []interface{}{}, &hexID); err != nil {
		return 0, err
	}
	return util.ParseHexUint64(hexID)
}
