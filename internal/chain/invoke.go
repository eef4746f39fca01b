package chain

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// Caller executes read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// =============================================================================
// Contract Invocation Methods
// =============================================================================

// CallContract executes eth_call against the latest block and returns the raw
// return data.
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.CallContractAt(ctx, to, data, nil)
}

// CallContractAt executes eth_call at block. A nil block means latest.
func (c *Client) CallContractAt(ctx context.Context, to common.Address, data []byte, block *big.Int) ([]byte, error) {
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, block)
	if err != nil {
		return nil, wrapError("eth_call", err)
	}
	return out, nil
}

var _ Caller = (*Client)(nil)
