package apperrors

import "errors"

// Transport-level failures shared by every adapter. Wallet failures live in package domain.
var (
	// ErrNotFound means a configured resource (networks file, Chainlist entry, route target) does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput means a caller or configuration supplied a value that cannot be used.
	ErrInvalidInput = errors.New("invalid input provided")

	// ErrExternalServiceFailure means the wallet bridge, an RPC node or a network feed misbehaved.
	ErrExternalServiceFailure = errors.New("external service interaction failed")

	// ErrTimeout means an external call did not answer in time.
	ErrTimeout = errors.New("operation timed out")
)
