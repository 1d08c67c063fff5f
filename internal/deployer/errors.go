package deployer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// Sentinel errors - Connection
var (
	ErrChainIDMismatch = errors.New("deployer: chain ID mismatch")
	ErrNoAccounts      = errors.New("deployer: no accounts available")
	ErrSignUnsupported = errors.New("deployer: node does not support eth_signTransaction")
)

// Sentinel errors - Deployment
var (
	ErrGasEstimation      = errors.New("deployer: cannot estimate gas")
	ErrDeploymentReverted = errors.New("deployer: contract deployment reverted")
	ErrNoCodeAfterDeploy  = errors.New("deployer: no contract code after deployment")
)

// Sentinel errors - Node
var (
	ErrInsufficientFunds = errors.New("deployer: insufficient funds")
	ErrNonceTooLow       = errors.New("deployer: nonce too low")
	ErrUnderpriced       = errors.New("deployer: transaction underpriced")
	ErrExecutionReverted = errors.New("deployer: execution reverted")
)

// NodeError is an error returned by the node for a JSON-RPC call.
type NodeError struct {
	Method  string
	Code    int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("%s: %s", e.Method, e.Message)
	}
	return fmt.Sprintf("%s: %s (code %d)", e.Method, e.Message, e.Code)
}

// Unwrap returns the underlying client error.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// Is maps the node's message onto the sentinel errors above. Nodes disagree
// on codes, so the message text is what is matched.
func (e *NodeError) Is(target error) bool {
	msg := strings.ToLower(e.Message)
	switch target {
	case ErrInsufficientFunds:
		return strings.Contains(msg, "insufficient funds")
	case ErrNonceTooLow:
		return strings.Contains(msg, "nonce too low")
	case ErrUnderpriced:
		return strings.Contains(msg, "underpriced")
	case ErrExecutionReverted:
		return strings.Contains(msg, "execution reverted") || e.Code == 3
	default:
		return false
	}
}

// wrapNodeError attaches the method name to an error from the node.
// Returns nil if the provided error is nil.
func wrapNodeError(method string, err error) error {
	if err == nil {
		return nil
	}
	nodeErr := &NodeError{
		Method:  method,
		Message: err.Error(),
		Err:     err,
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		nodeErr.Code = rpcErr.ErrorCode()
	}
	return nodeErr
}

// isMethodUnsupported reports whether the node rejected the method itself rather
// than the call's arguments. geth answers -32601, Hardhat -32004.
func isMethodUnsupported(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case -32601, -32004:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not supported") || strings.Contains(msg, "does not exist")
}
