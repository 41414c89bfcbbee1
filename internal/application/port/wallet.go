package port

import (
	"context"

	"educhain-wallet/internal/domain/entity"
)

// WalletStore defines the single source of truth for the wallet snapshot.
type WalletStore interface {
	// Subscribe calls fn with the current snapshot right away and again on every publish.
	Subscribe(fn func(entity.WalletSnapshot)) (unsubscribe func())

	// CurrentSnapshot returns the last published snapshot.
	CurrentSnapshot() entity.WalletSnapshot

	// Refresh re-reads the wallet and publishes the result.
	Refresh(ctx context.Context) (entity.WalletSnapshot, error)

	// Publish replaces the snapshot and notifies subscribers.
	Publish(snapshot entity.WalletSnapshot)
}

// ConnectionWorkflow defines the user-initiated wallet operations.
type ConnectionWorkflow interface {
	// Connect obtains account access and publishes the connected snapshot.
	Connect(ctx context.Context) (entity.WalletSnapshot, error)

	// EnsureNetwork moves the wallet onto network, adding it when the wallet does not know it.
	EnsureNetwork(ctx context.Context, network entity.NetworkDescriptor) error

	// EnsureExpectedNetwork is EnsureNetwork for the configured network.
	EnsureExpectedNetwork(ctx context.Context) error
}

// Diagnosis is the outcome of a wallet connection check.
type Diagnosis struct {
	Valid       bool     `json:"isValid"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// WalletDiagnostics inspects the wallet without changing any published state.
type WalletDiagnostics interface {
	Check(ctx context.Context) Diagnosis
}
