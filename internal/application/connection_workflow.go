package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"educhain-wallet/internal/application/port"
	"educhain-wallet/internal/domain"
	"educhain-wallet/internal/domain/entity"
	domainService "educhain-wallet/internal/domain/service"
)

// Compile-time check
var _ port.ConnectionWorkflow = (*ConnectionWorkflow)(nil)

// WorkflowState is a step of a user-initiated wallet operation.
type WorkflowState string

const (
	StateIdle             WorkflowState = "Idle"
	StateRequestingAccess WorkflowState = "RequestingAccess"
	StateReadingIdentity  WorkflowState = "ReadingIdentity"
	StatePublished        WorkflowState = "Published"
	StateSwitching        WorkflowState = "Switching"
	StateAdding           WorkflowState = "Adding"
	StateDone             WorkflowState = "Done"
)

// WorkflowOption customizes a ConnectionWorkflow.
type WorkflowOption func(*ConnectionWorkflow)

// WithStateObserver reports every state the workflow enters.
func WithStateObserver(fn func(WorkflowState)) WorkflowOption {
	return func(w *ConnectionWorkflow) {
		w.observe = fn
	}
}

// publisher is the part of the store the workflow writes to.
type publisher interface {
	Publish(snapshot entity.WalletSnapshot)
	Refresh(ctx context.Context) (entity.WalletSnapshot, error)
}

// ConnectionWorkflow runs the connect and network-switch operations a user starts.
// It never switches networks on its own.
type ConnectionWorkflow struct {
	provider domainService.WalletProvider
	store    publisher
	expected entity.NetworkDescriptor
	logger   *zap.Logger
	observe  func(WorkflowState)
}

// NewConnectionWorkflow creates a workflow publishing into store.
func NewConnectionWorkflow(
	provider domainService.WalletProvider,
	store port.WalletStore,
	expected entity.NetworkDescriptor,
	logger *zap.Logger,
	opts ...WorkflowOption,
) *ConnectionWorkflow {
	w := &ConnectionWorkflow{
		provider: provider,
		store:    store,
		expected: expected,
		logger:   logger.Named("ConnectionWorkflow"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Connect obtains account access, prompting only when the wallet has not granted any account yet,
// then reads the identity of the first account and publishes it.
// On failure nothing is published.
func (w *ConnectionWorkflow) Connect(ctx context.Context) (entity.WalletSnapshot, error) {
	w.enter(StateIdle)
	if !w.provider.IsProviderPresent(ctx) {
		return entity.WalletSnapshot{}, domain.ErrProviderAbsent
	}

	w.enter(StateRequestingAccess)
	accounts, err := w.provider.ReadAccounts(ctx)
	if err != nil {
		w.logger.Warn("Reading granted accounts failed", zap.Error(err))
		return entity.WalletSnapshot{}, err
	}
	if len(accounts) == 0 {
		w.logger.Info("No granted accounts, requesting access")
		accounts, err = w.provider.RequestAccounts(ctx)
		if err != nil {
			w.logger.Info("Account access not granted", zap.String("kind", domain.Kind(err)), zap.Error(err))
			return entity.WalletSnapshot{}, err
		}
	}
	if len(accounts) == 0 {
		return entity.WalletSnapshot{}, domain.ErrNoAccounts
	}

	w.enter(StateReadingIdentity)
	snapshot, err := readIdentity(ctx, w.provider, w.expected, accounts[0])
	if err != nil {
		w.logger.Warn("Reading wallet identity failed", zap.String("address", accounts[0]), zap.Error(err))
		return entity.WalletSnapshot{}, err
	}

	w.store.Publish(snapshot)
	w.enter(StatePublished)

	w.logger.Info("Wallet connected",
		zap.String("address", snapshot.AddressOrEmpty()),
		zap.String("chainId", snapshot.ChainIDOrEmpty()),
		zap.Bool("onExpectedNetwork", snapshot.OnExpectedNetwork))
	return snapshot, nil
}

// EnsureNetwork asks the wallet to switch to network. When the wallet does not know the network
// it is added once and the result of the add is returned. Other switch failures are returned as is.
func (w *ConnectionWorkflow) EnsureNetwork(ctx context.Context, network entity.NetworkDescriptor) error {
	w.enter(StateIdle)

	w.enter(StateSwitching)
	err := w.provider.SwitchNetwork(ctx, network)
	if errors.Is(err, domain.ErrUnknownNetwork) {
		w.logger.Info("Wallet does not know the network, adding it",
			zap.String("chainId", network.ChainID), zap.String("name", network.Name))
		w.enter(StateAdding)
		err = w.provider.AddNetwork(ctx, network)
	}
	if err != nil {
		w.logger.Warn("Network switch failed",
			zap.String("chainId", network.ChainID), zap.String("kind", domain.Kind(err)), zap.Error(err))
		return err
	}
	w.enter(StateDone)

	if _, refreshErr := w.store.Refresh(ctx); refreshErr != nil {
		w.logger.Warn("Refresh after network switch failed", zap.Error(refreshErr))
	}
	return nil
}

// EnsureExpectedNetwork moves the wallet onto the configured network.
func (w *ConnectionWorkflow) EnsureExpectedNetwork(ctx context.Context) error {
	if err := w.EnsureNetwork(ctx, w.expected); err != nil {
		return fmt.Errorf("ensure %s: %w", w.expected.Name, err)
	}
	return nil
}

func (w *ConnectionWorkflow) enter(state WorkflowState) {
	w.logger.Debug("Workflow state", zap.String("state", string(state)))
	if w.observe != nil {
		w.observe(state)
	}
}
