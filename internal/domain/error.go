package domain

import "errors"

var (
	// ErrProviderAbsent means no wallet provider was detected in the host environment.
	ErrProviderAbsent = errors.New("wallet provider not detected")

	// ErrUserRejected means the user declined a wallet prompt.
	ErrUserRejected = errors.New("user rejected the request")

	// ErrRequestAlreadyPending means a previous wallet prompt is still unresolved.
	ErrRequestAlreadyPending = errors.New("wallet request already pending")

	// ErrUnknownNetwork means the wallet has no record of the target chain.
	ErrUnknownNetwork = errors.New("network unknown to wallet")

	// ErrInvalidNetworkConfig means a network descriptor is malformed.
	ErrInvalidNetworkConfig = errors.New("invalid network configuration")

	// ErrSwitchFailed is an opaque provider-side failure while switching networks.
	ErrSwitchFailed = errors.New("network switch failed")

	// ErrAddFailed is an opaque provider-side failure while adding a network.
	ErrAddFailed = errors.New("network addition failed")

	// ErrConnectFailed is an opaque provider-side failure while requesting account access.
	ErrConnectFailed = errors.New("wallet connection failed")

	// ErrNoAccounts means access was granted but the wallet exposes no account (usually locked).
	ErrNoAccounts = errors.New("no accounts available")
)
