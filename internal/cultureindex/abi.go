// Package cultureindex binds the CultureIndex contract methods the frame uses.
package cultureindex

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Defaults for the deployment on Base mainnet.
const (
	DefaultAddress = "0x5da551c18109b58831abe8a5b9edc5f9a8e4887c"
	DefaultChainID = "eip155:8453"
)

// Method names as they appear in the ABI, with their selectors.
const (
	MethodGetPieceByID     = "getPieceById"     // 0xdeb50c35
	MethodGetTopVotedPiece = "getTopVotedPiece" // 0xf8a8be40
	MethodTopVotedPieceID  = "topVotedPieceId"  // 0xb7b61494
	MethodPieceCount       = "pieceCount"       // 0x4a5c4dfe
	MethodHasVoted         = "hasVoted"         // 0x43859632
	MethodVote             = "vote"             // 0x0121b93f
)

// VoteSignature is the canonical signature of the vote method.
const VoteSignature = "vote(uint256)"

const artPieceOutput = `{
	"internalType": "struct ICultureIndex.ArtPiece",
	"name": "",
	"type": "tuple",
	"components": [
		{"internalType": "uint256", "name": "pieceId", "type": "uint256"},
		{"internalType": "struct ICultureIndex.ArtPieceMetadata", "name": "metadata", "type": "tuple", "components": [
			{"internalType": "string", "name": "name", "type": "string"},
			{"internalType": "string", "name": "description", "type": "string"},
			{"internalType": "enum ICultureIndex.MediaType", "name": "mediaType", "type": "uint8"},
			{"internalType": "string", "name": "image", "type": "string"},
			{"internalType": "string", "name": "text", "type": "string"},
			{"internalType": "string", "name": "animationUrl", "type": "string"}
		]},
		{"internalType": "struct ICultureIndex.CreatorBps[]", "name": "creators", "type": "tuple[]", "components": [
			{"internalType": "address", "name": "creator", "type": "address"},
			{"internalType": "uint256", "name": "bps", "type": "uint256"}
		]},
		{"internalType": "address", "name": "sponsor", "type": "address"},
		{"internalType": "bool", "name": "isDropped", "type": "bool"},
		{"internalType": "uint256", "name": "creationBlock", "type": "uint256"}
	]
}`

// VoteABI is the JSON fragment for vote(uint256), embedded in transaction
// descriptors so wallets can display the call.
const VoteABI = `[{"inputs":[{"internalType":"uint256","name":"pieceId","type":"uint256"}],"name":"vote","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

// ABI is the subset of the CultureIndex ABI used by this module.
const ABI = `[
	{"inputs":[{"internalType":"uint256","name":"pieceId","type":"uint256"}],"name":"getPieceById","outputs":[` + artPieceOutput + `],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getTopVotedPiece","outputs":[` + artPieceOutput + `],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"topVotedPieceId","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"pieceCount","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"pieceId","type":"uint256"},{"internalType":"address","name":"voter","type":"address"}],"name":"hasVoted","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"pieceId","type":"uint256"}],"name":"vote","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var parsedABI = mustParseABI(ABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("cultureindex: parse ABI: %v", err))
	}
	return parsed
}

// ParsedABI returns the parsed contract ABI.
func ParsedABI() abi.ABI {
	return parsedABI
}
