package chain

import (
	"context"
	stderrors "errors"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcReply struct {
	Result interface{}
	Error  map[string]interface{}
}

func newRPCServer(t *testing.T, handler func(req rpcRequest) rpcReply) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req rpcRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "2.0", req.JSONRPC)

		reply := handler(req)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if reply.Error != nil {
			resp["error"] = reply.Error
		} else {
			resp["result"] = reply.Result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	client, err := NewClient(Config{RPCURL: url})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestNewClient_RejectsUnknownScheme(t *testing.T) {
	_, err := NewClient(Config{RPCURL: "ftp://node.example"})
	require.Error(t, err)
}

func TestClient_ChainIDAndBlockNumber(t *testing.T) {
	srv := newRPCServer(t, func(req rpcRequest) rpcReply {
		switch req.Method {
		case "eth_chainId":
			return rpcReply{Result: "0x2105"}
		case "eth_blockNumber":
			return rpcReply{Result: "0x10"}
		}
		return rpcReply{Error: map[string]interface{}{"code": -32601, "message": "method not found"}}
	})
	client := newTestClient(t, srv.URL)

	id, err := client.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(8453), id)

	height, err := client.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(16), height)
}

func TestClient_CallContract(t *testing.T) {
	to := common.HexToAddress("0x5da551c18109b58831abe8a5b9edc5f9a8e4887c")

	srv := newRPCServer(t, func(req rpcRequest) rpcReply {
		require.Equal(t, "eth_call", req.Method)
		require.Len(t, req.Params, 2)

		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(req.Params[0], &msg))
		assert.True(t, strings.EqualFold(to.Hex(), msg["to"].(string)))
		assert.Equal(t, "0x4a5c4dfe", msg["input"])

		var block string
		require.NoError(t, json.Unmarshal(req.Params[1], &block))
		assert.Equal(t, "latest", block)

		return rpcReply{Result: "0x00000000000000000000000000000000000000000000000000000000000000d8"}
	})
	client := newTestClient(t, srv.URL)

	out, err := client.CallContract(context.Background(), to, []byte{0x4a, 0x5c, 0x4d, 0xfe})
	require.NoError(t, err)
	require.Len(t, out, 32)
	assert.Equal(t, byte(0xd8), out[31])
}

func TestClient_CallContractAtBlock(t *testing.T) {
	srv := newRPCServer(t, func(req rpcRequest) rpcReply {
		var block string
		require.NoError(t, json.Unmarshal(req.Params[1], &block))
		assert.Equal(t, "0x64", block)
		return rpcReply{Result: "0x01"}
	})
	client := newTestClient(t, srv.URL)

	out, err := client.CallContractAt(context.Background(), common.Address{}, []byte{0x01}, big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, out)
}

func TestClient_RevertIsRPCError(t *testing.T) {
	srv := newRPCServer(t, func(req rpcRequest) rpcReply {
		return rpcReply{Error: map[string]interface{}{
			"code":    3,
			"message": "execution reverted: Invalid piece ID",
			"data":    "0x08c379a0",
		}}
	})
	client := newTestClient(t, srv.URL)

	_, err := client.CallContract(context.Background(), common.Address{}, []byte{0x01})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eth_call")

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.True(t, rpcErr.IsRevert())
	assert.Equal(t, 3, rpcErr.Code)
	assert.Equal(t, "0x08c379a0", rpcErr.Data)
}

func TestRPCError_IsRevert(t *testing.T) {
	tests := []struct {
		err  RPCError
		want bool
	}{
		{RPCError{Code: 3, Message: "execution reverted"}, true},
		{RPCError{Code: -32000, Message: "Execution reverted"}, true},
		{RPCError{Code: -32601, Message: "method not found"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.IsRevert(), tt.err.Message)
	}
}

func TestClient_MethodErrorIsNotRevert(t *testing.T) {
	srv := newRPCServer(t, func(req rpcRequest) rpcReply {
		return rpcReply{Error: map[string]interface{}{"code": -32601, "message": "method not found"}}
	})
	client := newTestClient(t, srv.URL)

	_, err := client.CallContract(context.Background(), common.Address{}, []byte{0x01})
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.False(t, rpcErr.IsRevert())
}

func TestClient_HTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.BlockNumber(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eth_blockNumber")

	var rpcErr *RPCError
	assert.False(t, stderrors.As(err, &rpcErr))
}
