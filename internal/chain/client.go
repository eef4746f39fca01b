// Package chain provides EVM JSON-RPC access for the frame service.
package chain

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client provides EVM JSON-RPC client functionality.
type Client struct {
	rpc *rpc.Client
	eth *ethclient.Client
}

// Config holds client configuration.
type Config struct {
	RPCURL     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new JSON-RPC client. HTTP endpoints are not contacted
// until the first call.
func NewClient(cfg Config) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	rpcClient, err := rpc.DialOptions(context.Background(), cfg.RPCURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}

	return &Client{
		rpc: rpcClient,
		eth: ethclient.NewClient(rpcClient),
	}, nil
}

// Close releases the underlying RPC client.
func (c *Client) Close() {
	c.rpc.Close()
}

// =============================================================================
// Core RPC Methods
// =============================================================================

// ChainID returns the node's chain id.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return 0, wrapError("eth_chainId", err)
	}
	if !id.IsUint64() {
		return 0, fmt.Errorf("eth_chainId: chain id %s out of range", id)
	}
	return id.Uint64(), nil
}

// BlockNumber returns the current block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	height, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, wrapError("eth_blockNumber", err)
	}
	return height, nil
}
