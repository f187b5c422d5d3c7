package eth

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrWalletUnavailable = errors.New("wallet unavailable")
	ErrNotConnected      = errors.New("wallet not connected")
	ErrTxReverted        = errors.New("transaction reverted")
)

// Error codes follow the names wallet front-ends show to users, so the API
// and the CLI report the same code an ethers.js client would.
const (
	CodeCallException          = "CALL_EXCEPTION"
	CodeInsufficientFunds      = "INSUFFICIENT_FUNDS"
	CodeUnpredictableGasLimit  = "UNPREDICTABLE_GAS_LIMIT"
	CodeActionRejected         = "ACTION_REJECTED"
	CodeNetworkError           = "NETWORK_ERROR"
	CodeNonceExpired           = "NONCE_EXPIRED"
	CodeReplacementUnderpriced = "REPLACEMENT_UNDERPRICED"
	CodeTimeout                = "TIMEOUT"
	CodeWalletUnavailable      = "WALLET_UNAVAILABLE"
	CodeUnknown                = "UNKNOWN_ERROR"
)

// ChainError is a failed chain interaction with a stable code.
type ChainError struct {
	Code   string
	Reason string
	Err    error
}

func (e *ChainError) Error() string {
	msg := e.Code
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil && (e.Reason == "" || !strings.Contains(e.Err.Error(), e.Reason)) {
		msg += " (" + e.Err.Error() + ")"
	}
	return msg
}

func (e *ChainError) Unwrap() error {
	return e.Err
}

// ClassifyError maps an error from go-ethereum or the node into a ChainError.
// Returns nil for a nil error.
func ClassifyError(err error) *ChainError {
	if err == nil {
		return nil
	}

	var ce *ChainError
	if errors.As(err, &ce) {
		return ce
	}

	switch {
	case errors.Is(err, ErrWalletUnavailable), errors.Is(err, ErrNotConnected):
		return &ChainError{Code: CodeWalletUnavailable, Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &ChainError{Code: CodeTimeout, Err: err}
	case errors.Is(err, ErrTxReverted):
		return &ChainError{Code: CodeCallException, Reason: "transaction reverted", Err: err}
	}

	reason := revertReason(err)
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "insufficient funds"):
		return &ChainError{Code: CodeInsufficientFunds, Reason: reason, Err: err}
	case strings.Contains(msg, "failed to estimate gas"), strings.Contains(msg, "gas required exceeds"):
		return &ChainError{Code: CodeUnpredictableGasLimit, Reason: reason, Err: err}
	case strings.Contains(msg, "execution reverted"), reason != "":
		return &ChainError{Code: CodeCallException, Reason: reason, Err: err}
	case strings.Contains(msg, "nonce too low"), strings.Contains(msg, "nonce has already been used"):
		return &ChainError{Code: CodeNonceExpired, Err: err}
	case strings.Contains(msg, "replacement transaction underpriced"):
		return &ChainError{Code: CodeReplacementUnderpriced, Err: err}
	case strings.Contains(msg, "user denied"), strings.Contains(msg, "rejected"):
		return &ChainError{Code: CodeActionRejected, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") {
		return &ChainError{Code: CodeNetworkError, Err: err}
	}

	return &ChainError{Code: CodeUnknown, Err: err}
}

// revertReason extracts the Error(string) payload from a revert, either from
// the JSON-RPC error data or from the node's message text.
func revertReason(err error) string {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if hexData, ok := dataErr.ErrorData().(string); ok {
			if data, decErr := hexutil.Decode(hexData); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason
				}
			}
		}
	}

	const marker = "execution reverted: "
	msg := err.Error()
	if i := strings.Index(msg, marker); i >= 0 {
		return strings.TrimSpace(msg[i+len(marker):])
	}
	return ""
}
