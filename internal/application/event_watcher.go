package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"educhain-wallet/internal/domain/entity"
	domainService "educhain-wallet/internal/domain/service"
)

type refresher interface {
	Refresh(ctx context.Context) (entity.WalletSnapshot, error)
}

// EventWatcher refreshes the store whenever the wallet reports an account or chain change.
type EventWatcher struct {
	provider domainService.WalletProvider
	store    refresher
	logger   *zap.Logger
}

// NewEventWatcher creates a watcher refreshing store on provider events.
func NewEventWatcher(provider domainService.WalletProvider, store refresher, logger *zap.Logger) *EventWatcher {
	return &EventWatcher{
		provider: provider,
		store:    store,
		logger:   logger.Named("EventWatcher"),
	}
}

// Run blocks until ctx is done or the event stream ends.
// Failed refreshes are logged and do not stop the watcher.
func (w *EventWatcher) Run(ctx context.Context) error {
	events, err := w.provider.Events(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to wallet events: %w", err)
	}

	w.logger.Info("Watching wallet events")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Event watcher stopping due to context cancellation.")
			return nil
		case ev, ok := <-events:
			if !ok {
				w.logger.Info("Wallet event stream closed")
				return nil
			}
			w.logger.Debug("Wallet event received",
				zap.String("event", string(ev.Type)),
				zap.Strings("accounts", ev.Accounts),
				zap.String("chainId", ev.ChainID))

			snapshot, refreshErr := w.store.Refresh(ctx)
			if refreshErr != nil {
				w.logger.Warn("Refresh after wallet event failed",
					zap.String("event", string(ev.Type)), zap.Error(refreshErr))
				continue
			}
			w.logger.Debug("Wallet refreshed after event",
				zap.Bool("connected", snapshot.Connected),
				zap.String("chainId", snapshot.ChainIDOrEmpty()))
		}
	}
}
