package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// Client sends JSON-RPC 2.0 requests to the endpoint registered for each chain.
// Connections are dialed lazily and reused. The client never retries.
type Client struct {
	registry   *Registry
	httpClient *http.Client
	logger     *zap.Logger

	mu      sync.Mutex
	clients map[uint64]*rpc.Client
}

// NewClient creates a client over the registry. A nil httpClient uses http.DefaultClient.
func NewClient(registry *Registry, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		registry:   registry,
		httpClient: httpClient,
		logger:     logger,
		clients:    make(map[uint64]*rpc.Client),
	}
}

// Close closes every dialed RPC client.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, rc := range c.clients {
		rc.Close()
		delete(c.clients, id)
	}
}

// Call performs a single JSON-RPC call and returns the raw result.
func (c *Client) Call(ctx context.Context, chainID uint64, method string, params ...interface{}) (json.RawMessage, error) {
	rc, err := c.dial(ctx, chainID)
	if err != nil {
		return nil, err
	}

	var result json.RawMessage
	if err := rc.CallContext(ctx, &result, method, params...); err != nil {
		return nil, classify(chainID, method, err)
	}
	c.logger.Debug("rpc call", zap.Uint64("chain_id", chainID), zap.String("method", method), zap.Int("bytes", len(result)))
	return result, nil
}

type callArgs struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// EthCall runs eth_call against the latest block and returns the decoded return data.
func (c *Client) EthCall(ctx context.Context, chainID uint64, to common.Address, data []byte) ([]byte, error) {
	raw, err := c.Call(ctx, chainID, "eth_call", callArgs{To: to, Data: data}, "latest")
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return nil, fmt.Errorf("eth_call on chain %d returned null: %w", chainID, ErrMalformedResult)
	}
	var out hexutil.Bytes
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode eth_call result on chain %d: %w: %v", chainID, ErrMalformedResult, err)
	}
	return out, nil
}

func (c *Client) dial(ctx context.Context, chainID uint64) (*rpc.Client, error) {
	entry, err := c.registry.Resolve(chainID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if rc, ok := c.clients[chainID]; ok {
		return rc, nil
	}
	rc, err := rpc.DialOptions(ctx, entry.RPCURL, rpc.WithHTTPClient(c.httpClient))
	if err != nil {
		return nil, &TransportError{ChainID: chainID, Method: "dial", Err: err}
	}
	c.clients[chainID] = rc
	return rc, nil
}

func classify(chainID uint64, method string, err error) error {
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return &TransportError{
			ChainID:    chainID,
			Method:     method,
			StatusCode: httpErr.StatusCode,
			Reason:     http.StatusText(httpErr.StatusCode),
			Err:        err,
		}
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return &RPCError{ChainID: chainID, Method: method, Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
	}
	if errors.Is(err, rpc.ErrNoResult) {
		return &RPCError{ChainID: chainID, Method: method, Message: err.Error()}
	}
	return &TransportError{ChainID: chainID, Method: method, Err: err}
}
