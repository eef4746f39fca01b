package cultureindex

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/mykcryptodev/vrbs-vote-frame/internal/chain"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/metrics"
)

// ErrPieceNotFound is returned when the contract reverts a piece lookup.
var ErrPieceNotFound = stderrors.New("piece not found")

// Config locates the contract.
type Config struct {
	Address string
	ChainID string
}

// Gateway performs typed reads against the CultureIndex contract. It is
// immutable and safe for concurrent use.
type Gateway struct {
	caller  chain.Caller
	address common.Address
	chainID string
	abi     abi.ABI
}

// NewGateway creates a gateway. Empty config fields take the Base mainnet
// defaults.
func NewGateway(caller chain.Caller, cfg Config) (*Gateway, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain caller required")
	}

	address := cfg.Address
	if address == "" {
		address = DefaultAddress
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}

	chainID := cfg.ChainID
	if chainID == "" {
		chainID = DefaultChainID
	}
	if !strings.HasPrefix(chainID, "eip155:") {
		return nil, fmt.Errorf("invalid chain id %q", chainID)
	}

	return &Gateway{
		caller:  caller,
		address: common.HexToAddress(address),
		chainID: chainID,
		abi:     parsedABI,
	}, nil
}

// Address returns the contract address.
func (g *Gateway) Address() common.Address {
	return g.address
}

// ChainID returns the CAIP-2 chain id.
func (g *Gateway) ChainID() string {
	return g.chainID
}

// PieceByID reads a piece.
func (g *Gateway) PieceByID(ctx context.Context, id *big.Int) (*Piece, error) {
	if id == nil || id.Sign() < 0 {
		return nil, fmt.Errorf("piece id must be non-negative")
	}

	out, err := g.call(ctx, MethodGetPieceByID, id)
	if err != nil {
		var rpcErr *chain.RPCError
		if stderrors.As(err, &rpcErr) && rpcErr.IsRevert() {
			return nil, fmt.Errorf("piece %s: %w", id, ErrPieceNotFound)
		}
		return nil, err
	}
	return unpackPiece(out)
}

// TopVotedPiece reads the piece with the highest vote weight.
func (g *Gateway) TopVotedPiece(ctx context.Context) (*Piece, error) {
	out, err := g.call(ctx, MethodGetTopVotedPiece)
	if err != nil {
		return nil, err
	}
	return unpackPiece(out)
}

// TopVotedPieceID reads the id of the top-voted piece.
func (g *Gateway) TopVotedPieceID(ctx context.Context) (*big.Int, error) {
	out, err := g.call(ctx, MethodTopVotedPieceID)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// PieceCount reads the number of pieces created.
func (g *Gateway) PieceCount(ctx context.Context) (*big.Int, error) {
	out, err := g.call(ctx, MethodPieceCount)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// HasVoted reports whether voter has voted for the piece.
func (g *Gateway) HasVoted(ctx context.Context, id *big.Int, voter common.Address) (bool, error) {
	out, err := g.call(ctx, MethodHasVoted, id, voter)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (g *Gateway) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := g.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	start := time.Now()
	raw, err := g.caller.CallContract(ctx, g.address, data)
	metrics.RecordChainCall(method, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	out, err := g.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return out, nil
}

func unpackPiece(out []interface{}) (piece *Piece, err error) {
	// ConvertType panics when the decoded tuple does not fit ArtPiece.
	defer func() {
		if r := recover(); r != nil {
			piece, err = nil, fmt.Errorf("convert art piece: %v", r)
		}
	}()

	art := abi.ConvertType(out[0], new(ArtPiece)).(*ArtPiece)
	return art.toPiece(), nil
}
