package cultureindex

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// VoteCall is a wallet transaction descriptor for vote(uint256).
type VoteCall struct {
	ChainID string   `json:"chainId"`
	Method  string   `json:"method"`
	Params  TxParams `json:"params"`
}

// TxParams are the eth_sendTransaction parameters.
type TxParams struct {
	ABI   json.RawMessage `json:"abi"`
	To    string          `json:"to"`
	Data  string          `json:"data"`
	Value string          `json:"value"`
}

// BuildVoteCall encodes a vote for pieceID against the gateway's contract and
// chain. Eligibility and quorum are enforced on-chain, not here.
func (g *Gateway) BuildVoteCall(pieceID *big.Int) (*VoteCall, error) {
	if pieceID == nil || pieceID.Sign() < 0 {
		return nil, fmt.Errorf("piece id must be non-negative")
	}

	data, err := g.abi.Pack(MethodVote, pieceID)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", MethodVote, err)
	}

	return &VoteCall{
		ChainID: g.chainID,
		Method:  "eth_sendTransaction",
		Params: TxParams{
			ABI:   json.RawMessage(VoteABI),
			To:    g.address.Hex(),
			Data:  hexutil.Encode(data),
			Value: "0",
		},
	}, nil
}
