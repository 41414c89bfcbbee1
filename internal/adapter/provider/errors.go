package provider

import (
	"errors"
	"fmt"

	"educhain-wallet/internal/domain"
)

// Provider error codes as defined by EIP-1193 and the wallet JSON-RPC extensions.
const (
	codeUserRejected   = 4001
	codeUnrecognized   = 4902
	codeRequestPending = -32002
	codeInvalidParams  = -32602
)

// ProviderError is a JSON-RPC error object returned by the wallet.
type ProviderError struct {
	Method  string
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s returned provider error %d: %s", e.Method, e.Code, e.Message)
}

// normalize maps a raw failure of method onto the domain failure kinds.
// Errors that are not provider errors (transport, decoding) keep their own classification
// except for the prompting methods, where they are reported as the method's opaque failure.
func normalize(method string, err error) error {
	if err == nil {
		return nil
	}

	var pe *ProviderError
	if !errors.As(err, &pe) {
		switch method {
		case methodRequestAccounts:
			return fmt.Errorf("%w: %w", domain.ErrConnectFailed, err)
		case methodSwitchChain:
			return fmt.Errorf("%w: %w", domain.ErrSwitchFailed, err)
		case methodAddChain:
			return fmt.Errorf("%w: %w", domain.ErrAddFailed, err)
		default:
			return err
		}
	}

	switch pe.Code {
	case codeUserRejected:
		return fmt.Errorf("%w: %w", domain.ErrUserRejected, pe)
	case codeRequestPending:
		return fmt.Errorf("%w: %w", domain.ErrRequestAlreadyPending, pe)
	}

	switch method {
	case methodRequestAccounts:
		return fmt.Errorf("%w: %w", domain.ErrConnectFailed, pe)
	case methodSwitchChain:
		if pe.Code == codeUnrecognized {
			return fmt.Errorf("%w: %w", domain.ErrUnknownNetwork, pe)
		}
		return fmt.Errorf("%w: %w", domain.ErrSwitchFailed, pe)
	case methodAddChain:
		if pe.Code == codeInvalidParams {
			return fmt.Errorf("%w: %w", domain.ErrInvalidNetworkConfig, pe)
		}
		return fmt.Errorf("%w: %w", domain.ErrAddFailed, pe)
	default:
		return pe
	}
}
