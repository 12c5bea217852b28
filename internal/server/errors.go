package server

import "github.com/sourcegraph/jsonrpc2"

// codeServerNotInitialized and codeRequestCancelled are the LSP-specific
// codes reserved outside the base JSON-RPC range; the rest are the base
// JSON-RPC 2.0 codes.
const (
	codeParseError           = -32700
	codeInvalidRequest       = -32600
	codeMethodNotFound       = -32601
	codeInvalidParams        = -32602
	codeInternalError        = -32603
	codeServerNotInitialized = -32002
	codeRequestCancelled     = -32800
)

// rpcError builds the protocol error type the dispatcher returns from a
// handler; glsp's server surfaces this as the JSON-RPC response's "error"
// member.
func rpcError(code int64, message string) error {
	return &jsonrpc2.Error{Code: code, Message: message}
}

func errRequestCancelled() error {
	return rpcError(codeRequestCancelled, "request cancelled")
}

func errInternal(err error) error {
	return rpcError(codeInternalError, err.Error())
}
