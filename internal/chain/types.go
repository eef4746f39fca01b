package chain

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// revertCode is the JSON-RPC error code nodes use for execution reverts.
const revertCode = 3

// RPCError is a JSON-RPC error object returned by the node. Reverts carry the
// revert data in Data.
type RPCError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsRevert reports whether the error is an execution revert. Some nodes use a
// generic server error code with an "execution reverted" message.
func (e *RPCError) IsRevert() bool {
	return e.Code == revertCode || strings.Contains(strings.ToLower(e.Message), "execution reverted")
}

// wrapError converts node-reported errors into *RPCError and prefixes the
// method. Transport errors are wrapped unchanged.
func wrapError(method string, err error) error {
	var rpcErr rpc.Error
	if !stderrors.As(err, &rpcErr) {
		return fmt.Errorf("%s: %w", method, err)
	}

	out := &RPCError{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
	var dataErr rpc.DataError
	if stderrors.As(err, &dataErr) {
		out.Data = dataErr.ErrorData()
	}
	return fmt.Errorf("%s: %w", method, out)
}
