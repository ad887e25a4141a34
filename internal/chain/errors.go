package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedChain is returned for chain ids outside the registry.
	ErrUnsupportedChain = errors.New("unsupported chain")
	// ErrMisconfiguredEndpoint is returned when a known chain has an empty or placeholder RPC URL.
	ErrMisconfiguredEndpoint = errors.New("misconfigured rpc endpoint")
	// ErrUnconfiguredContract is returned when a chain has no address for a required contract.
	ErrUnconfiguredContract = errors.New("contract address not configured")
	// ErrMalformedResult is returned when an RPC result cannot be read as the expected JSON type.
	ErrMalformedResult = errors.New("malformed rpc result")
)

// TransportError is an HTTP-level failure talking to an RPC endpoint.
// StatusCode is zero when no response was received.
type TransportError struct {
	ChainID    uint64
	Method     string
	StatusCode int
	Reason     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("rpc %s on chain %d: http %d %s", e.Method, e.ChainID, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("rpc %s on chain %d: %v", e.Method, e.ChainID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RPCError is an error object returned inside a JSON-RPC response envelope.
type RPCError struct {
	ChainID uint64
	Method  string
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s on chain %d: rpc error %d: %s", e.Method, e.ChainID, e.Code, e.Message)
}
