package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mykcryptodev/vrbs-vote-frame/internal/cultureindex"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10">  <rect x="0.000" y="0.000" width="10" height="10"/>  </svg>`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// rpcReturning answers every eth_call with result.
func rpcReturning(t *testing.T, result []byte) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID uint64 `json:"id"`
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":"%s"}`, req.ID, hexutil.Encode(result))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestDecodeVote(t *testing.T) {
	calldata := "0x0121b93f" + strings.Repeat("0", 62) + "2a"

	out, err := execute(t, "decode-vote", calldata)
	require.NoError(t, err)
	assert.Contains(t, out, "vote(uint256)")
	assert.Contains(t, out, "42")

	out, err = execute(t, "--json", "decode-vote", calldata)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pieceId":42}`, out)
}

func TestDecodeVote_RejectsOtherCalldata(t *testing.T) {
	_, err := execute(t, "decode-vote", "0xdeadbeef")
	require.Error(t, err)

	_, err = execute(t, "decode-vote", "not-hex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid calldata")
}

func TestVoteTx(t *testing.T) {
	out, err := execute(t, "vote-tx", "42")
	require.NoError(t, err)

	var call cultureindex.VoteCall
	require.NoError(t, json.Unmarshal([]byte(out), &call))
	assert.Equal(t, "eip155:8453", call.ChainID)
	assert.Equal(t, "eth_sendTransaction", call.Method)
	assert.Equal(t, "0x0121b93f"+strings.Repeat("0", 62)+"2a", call.Params.Data)
}

func TestNegativeIDsAreRejected(t *testing.T) {
	tests := [][]string{
		{"vote-tx", "--", "-1"},
		{"piece", "--", "-5"},
		{"has-voted", "--", "-2", "0x00000000000000000000000000000000000000cc"},
	}
	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid piece id")
		})
	}
}

func TestVoteTx_RejectsNonNumericID(t *testing.T) {
	_, err := execute(t, "vote-tx", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid piece id "abc"`)
}

func TestCount(t *testing.T) {
	packed, err := cultureindex.ParsedABI().Methods[cultureindex.MethodPieceCount].Outputs.Pack(big.NewInt(300))
	require.NoError(t, err)
	url := rpcReturning(t, packed)

	out, err := execute(t, "--rpc-url", url, "count")
	require.NoError(t, err)
	assert.Equal(t, "pieces: 300\n", out)
}

func TestPiece(t *testing.T) {
	piece := cultureindex.ArtPiece{
		PieceId: big.NewInt(216),
		Metadata: cultureindex.ArtPieceMetadata{
			Name:      "Verb",
			MediaType: uint8(cultureindex.MediaImage),
			Image:     "ipfs://image",
		},
		Creators:      []cultureindex.CreatorBps{},
		CreationBlock: big.NewInt(1000),
	}
	packed, err := cultureindex.ParsedABI().Methods[cultureindex.MethodGetPieceByID].Outputs.Pack(piece)
	require.NoError(t, err)
	url := rpcReturning(t, packed)

	out, err := execute(t, "--rpc-url", url, "piece", "216")
	require.NoError(t, err)
	assert.Contains(t, out, "piece:")
	assert.Contains(t, out, "Verb")
	assert.Contains(t, out, "ipfs://image")

	out, err = execute(t, "--rpc-url", url, "--json", "piece", "216")
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, float64(216), decoded["pieceId"])
}

func TestOptimize_FileToStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "piece.svg")
	require.NoError(t, os.WriteFile(path, []byte(testSVG), 0o600))

	out, err := execute(t, "optimize", path)
	require.NoError(t, err)
	assert.Less(t, len(out), len(testSVG))
	assert.Contains(t, out, "<svg")
}

func TestOptimize_UploadRequiresSecret(t *testing.T) {
	t.Setenv("THIRDWEB_SECRET_KEY", "")
	path := filepath.Join(t.TempDir(), "piece.svg")
	require.NoError(t, os.WriteFile(path, []byte(testSVG), 0o600))

	_, err := execute(t, "optimize", "--upload", path)
	require.Error(t, err)
}
