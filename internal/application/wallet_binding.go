package application

import (
	"context"
	"sync"
	"sync/atomic"

	"educhain-wallet/internal/application/port"
	"educhain-wallet/internal/domain/entity"
)

// WalletBinding is the view a single consumer holds on the wallet store.
// It keeps no wallet state of its own; every accessor reads the store.
type WalletBinding struct {
	store       port.WalletStore
	unsubscribe func()
	inFlight    atomic.Int32
	closeOnce   sync.Once
}

// NewWalletBinding subscribes onChange to store. onChange may be nil.
func NewWalletBinding(store port.WalletStore, onChange func(entity.WalletSnapshot)) *WalletBinding {
	if onChange == nil {
		onChange = func(entity.WalletSnapshot) {}
	}
	return &WalletBinding{
		store:       store,
		unsubscribe: store.Subscribe(onChange),
	}
}

// Snapshot returns the store's current snapshot.
func (b *WalletBinding) Snapshot() entity.WalletSnapshot {
	return b.store.CurrentSnapshot()
}

// Connected reports whether a wallet account is visible.
func (b *WalletBinding) Connected() bool {
	return b.Snapshot().Connected
}

// Address returns the connected address or "".
func (b *WalletBinding) Address() string {
	return b.Snapshot().AddressOrEmpty()
}

// Balance returns the formatted balance or "".
func (b *WalletBinding) Balance() string {
	return b.Snapshot().BalanceOrEmpty()
}

// OnExpectedNetwork reports whether the wallet is on the configured network.
func (b *WalletBinding) OnExpectedNetwork() bool {
	return b.Snapshot().OnExpectedNetwork
}

// Loading reports whether a refresh started through this binding is still running.
func (b *WalletBinding) Loading() bool {
	return b.inFlight.Load() > 0
}

// Refresh asks the store to re-read the wallet.
func (b *WalletBinding) Refresh(ctx context.Context) (entity.WalletSnapshot, error) {
	b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	return b.store.Refresh(ctx)
}

// Close stops change notifications.
func (b *WalletBinding) Close() {
	b.closeOnce.Do(b.unsubscribe)
}
