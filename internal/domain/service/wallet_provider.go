package service

import (
	"context"
	"math/big"

	"educhain-wallet/internal/domain/entity"
)

// WalletProvider is the narrow boundary to the host wallet.
// Implementations map provider-specific error codes to the failures in package domain;
// nothing else in the module interprets raw provider codes.
//
// RequestAccounts, SwitchNetwork and AddNetwork may wait on a human answering a wallet
// prompt and can therefore block until ctx is done.
type WalletProvider interface {
	IsProviderPresent(ctx context.Context) bool

	// ReadAccounts never prompts the user.
	ReadAccounts(ctx context.Context) ([]string, error)

	// RequestAccounts may prompt; fails with domain.ErrUserRejected or domain.ErrRequestAlreadyPending.
	RequestAccounts(ctx context.Context) ([]string, error)

	ReadChainID(ctx context.Context) (string, error)

	// ReadNativeBalance returns the raw integer balance; callers scale it by the currency decimals.
	ReadNativeBalance(ctx context.Context, address string) (*big.Int, error)

	// SwitchNetwork fails with domain.ErrUnknownNetwork when the wallet has never seen the chain.
	SwitchNetwork(ctx context.Context, network entity.NetworkDescriptor) error

	AddNetwork(ctx context.Context, network entity.NetworkDescriptor) error

	// Events streams account and chain changes until ctx is done.
	Events(ctx context.Context) (<-chan entity.ProviderEvent, error)
}
