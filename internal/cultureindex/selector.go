package cultureindex

import (
	"bytes"
	"fmt"
	"math/big"

	"golang.org/x/crypto/sha3"
)

// Selector returns the 4-byte function selector for a canonical signature.
func Selector(signature string) [4]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))

	var sel [4]byte
	copy(sel[:], h.Sum(nil))
	return sel
}

// DecodeVoteCall extracts the piece id from vote(uint256) calldata.
func DecodeVoteCall(data []byte) (*big.Int, error) {
	sel := Selector(VoteSignature)
	if len(data) < 4 || !bytes.Equal(data[:4], sel[:]) {
		return nil, fmt.Errorf("calldata is not a %s call", VoteSignature)
	}

	method := parsedABI.Methods[MethodVote]
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("unpack %s arguments: %w", MethodVote, err)
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("unexpected argument count %d", len(args))
	}
	id, ok := args[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected argument type %T", args[0])
	}
	return id, nil
}
