package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"educhain-wallet/internal/adapter/provider/providertest"
	"educhain-wallet/internal/domain/entity"
)

func TestEventWatcher_AccountsChangedToEmptyDisconnects(t *testing.T) {
	p := providertest.New().SetAccounts(testAddress).SetChainID("0xa0a4c")
	store := newTestStore(t, p)
	_, err := store.Refresh(context.Background())
	require.NoError(t, err)
	require.True(t, store.CurrentSnapshot().Connected)

	rec := &recorder{}
	store.Subscribe(rec.record)

	watcher := NewEventWatcher(p, store, zaptest.NewLogger(t))
	done := make(chan error, 1)
	go func() { done <- watcher.Run(context.Background()) }()

	p.SetAccounts()
	p.Emit(entity.ProviderEvent{Type: entity.EventAccountsChanged, Accounts: []string{}})

	assert.Eventually(t, func() bool { return len(rec.all()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, entity.Disconnected(), rec.last())

	p.CloseEvents()
	require.NoError(t, <-done)
}

func TestEventWatcher_ChainChangedRefreshes(t *testing.T) {
	p := providertest.New().SetAccounts(testAddress).SetChainID("0x1")
	store := newTestStore(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewEventWatcher(p, store, zaptest.NewLogger(t)).Run(ctx) }()

	p.SetChainID("0xA0A4C")
	p.Emit(entity.ProviderEvent{Type: entity.EventChainChanged, ChainID: "0xA0A4C"})

	assert.Eventually(t, func() bool { return store.CurrentSnapshot().OnExpectedNetwork }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestEventWatcher_RefreshFailureIsNotFatal(t *testing.T) {
	p := providertest.New().SetAccountsError(errors.New("bridge down"))
	store := newTestStore(t, p)

	done := make(chan error, 1)
	go func() { done <- NewEventWatcher(p, store, zaptest.NewLogger(t)).Run(context.Background()) }()

	p.Emit(entity.ProviderEvent{Type: entity.EventChainChanged, ChainID: "0x1"})
	p.SetAccountsError(nil).SetAccounts(testAddress)
	p.Emit(entity.ProviderEvent{Type: entity.EventAccountsChanged, Accounts: []string{testAddress}})

	assert.Eventually(t, func() bool { return store.CurrentSnapshot().Connected }, time.Second, 5*time.Millisecond)

	p.CloseEvents()
	require.NoError(t, <-done)
}
