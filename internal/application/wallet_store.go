package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"educhain-wallet/internal/application/port"
	"educhain-wallet/internal/domain/entity"
	domainService "educhain-wallet/internal/domain/service"
)

// Compile-time check
var _ port.WalletStore = (*WalletStore)(nil)

// published pairs a snapshot with its publish sequence number.
type published struct {
	snapshot entity.WalletSnapshot
	version  uint64
}

type subscription struct {
	fn     func(entity.WalletSnapshot)
	active atomic.Bool

	// mu guards the mailbox below. Whichever goroutine finds the mailbox idle drains it,
	// calling fn without holding mu, so fn never runs concurrently with itself.
	mu       sync.Mutex
	seen     uint64
	pending  *published
	draining bool
}

// WalletStore owns the single wallet snapshot of the process and fans every change out to
// its subscribers.
//
// Concurrent refreshes race by default and the last one to finish its reads wins.
// WithSerializedRefresh makes refreshes and direct publishes run one at a time instead.
//
// Callbacks run on a publishing goroutine with no store lock held. A callback may publish or
// refresh; the nested snapshot reaches it once the current call returns.
type WalletStore struct {
	provider domainService.WalletProvider
	expected entity.NetworkDescriptor
	logger   *zap.Logger

	current atomic.Pointer[published]

	mu   sync.Mutex // guards subs and version bumps
	subs []*subscription

	serialize bool
	refreshMu sync.Mutex
}

// StoreOption customizes a WalletStore.
type StoreOption func(*WalletStore)

// WithSerializedRefresh makes Refresh calls run one after another. Publish waits for a
// running refresh, so a direct publish is never overwritten by an older refresh.
func WithSerializedRefresh() StoreOption {
	return func(s *WalletStore) {
		s.serialize = true
	}
}

// NewWalletStore creates a store holding the disconnected snapshot.
func NewWalletStore(
	provider domainService.WalletProvider,
	expected entity.NetworkDescriptor,
	logger *zap.Logger,
	opts ...StoreOption,
) *WalletStore {
	s := &WalletStore{
		provider: provider,
		expected: expected,
		logger:   logger.Named("WalletStore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&published{snapshot: entity.Disconnected(), version: 1})
	return s
}

// Expected returns the network the store compares the wallet's chain against.
func (s *WalletStore) Expected() entity.NetworkDescriptor {
	return s.expected
}

// CurrentSnapshot returns the last published snapshot without any I/O.
func (s *WalletStore) CurrentSnapshot() entity.WalletSnapshot {
	return s.current.Load().snapshot
}

// Subscribe registers fn and calls it once with the current snapshot before returning.
// The returned function removes the registration; calling it more than once is harmless.
func (s *WalletStore) Subscribe(fn func(entity.WalletSnapshot)) func() {
	sub := &subscription{fn: fn}
	sub.active.Store(true)

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	current := s.current.Load()
	count := len(s.subs)
	s.mu.Unlock()

	s.logger.Debug("Subscriber added", zap.Int("subscribers", count))
	s.deliver(sub, current)

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, candidate := range s.subs {
				if candidate == sub {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					break
				}
			}
			s.logger.Debug("Subscriber removed", zap.Int("subscribers", len(s.subs)))
		})
	}
}

// Publish replaces the snapshot and invokes every subscriber, in registration order.
// A panicking subscriber is logged and does not stop the others.
func (s *WalletStore) Publish(snapshot entity.WalletSnapshot) {
	if s.serialize {
		s.refreshMu.Lock()
		next, subs := s.commit(snapshot)
		s.refreshMu.Unlock()
		s.fanOut(next, subs)
		return
	}
	s.fanOut(s.commit(snapshot))
}

// Refresh re-reads the wallet and publishes the result.
// If any read fails nothing is published and the current snapshot is returned with the error.
func (s *WalletStore) Refresh(ctx context.Context) (entity.WalletSnapshot, error) {
	next, subs, err := s.readAndCommit(ctx)
	if err != nil {
		return s.CurrentSnapshot(), err
	}
	s.fanOut(next, subs)
	return next.snapshot, nil
}

func (s *WalletStore) readAndCommit(ctx context.Context) (*published, []*subscription, error) {
	if s.serialize {
		s.refreshMu.Lock()
		defer s.refreshMu.Unlock()
	}
	snapshot, err := s.read(ctx)
	if err != nil {
		return nil, nil, err
	}
	next, subs := s.commit(snapshot)
	return next, subs, nil
}

func (s *WalletStore) read(ctx context.Context) (entity.WalletSnapshot, error) {
	if !s.provider.IsProviderPresent(ctx) {
		s.logger.Debug("No wallet provider present, publishing disconnected snapshot")
		return entity.Disconnected(), nil
	}

	accounts, err := s.provider.ReadAccounts(ctx)
	if err != nil {
		s.logger.Warn("Wallet refresh failed reading accounts", zap.Error(err))
		return entity.WalletSnapshot{}, fmt.Errorf("read accounts: %w", err)
	}
	if len(accounts) == 0 {
		return entity.Disconnected(), nil
	}

	snapshot, err := readIdentity(ctx, s.provider, s.expected, accounts[0])
	if err != nil {
		s.logger.Warn("Wallet refresh failed reading identity",
			zap.String("address", accounts[0]), zap.Error(err))
		return entity.WalletSnapshot{}, err
	}
	return snapshot, nil
}

// commit makes snapshot current and returns it with the subscribers registered at that moment.
func (s *WalletStore) commit(snapshot entity.WalletSnapshot) (*published, []*subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := &published{snapshot: snapshot, version: s.current.Load().version + 1}
	s.current.Store(next)
	return next, s.subs
}

func (s *WalletStore) fanOut(next *published, subs []*subscription) {
	s.logger.Debug("Publishing wallet snapshot",
		zap.Uint64("version", next.version),
		zap.Bool("connected", next.snapshot.Connected),
		zap.String("address", next.snapshot.AddressOrEmpty()),
		zap.String("chainId", next.snapshot.ChainIDOrEmpty()),
		zap.Bool("onExpectedNetwork", next.snapshot.OnExpectedNetwork),
		zap.Int("subscribers", len(subs)))

	for _, sub := range subs {
		s.deliver(sub, next)
	}
}

// deliver queues p for sub and drains the queue unless another goroutine already does.
// Versions older than what sub has seen or has queued are dropped.
func (s *WalletStore) deliver(sub *subscription, p *published) {
	sub.mu.Lock()
	if p.version <= sub.seen || (sub.pending != nil && p.version <= sub.pending.version) {
		sub.mu.Unlock()
		return
	}
	sub.pending = p
	if sub.draining {
		sub.mu.Unlock()
		return
	}
	sub.draining = true

	for {
		next := sub.pending
		sub.pending = nil
		if next == nil || !sub.active.Load() {
			sub.draining = false
			sub.mu.Unlock()
			return
		}
		sub.seen = next.version
		sub.mu.Unlock()

		s.invoke(sub, next)

		sub.mu.Lock()
	}
}

func (s *WalletStore) invoke(sub *subscription, p *published) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Wallet subscriber panicked", zap.Any("panic", r), zap.Uint64("version", p.version))
		}
	}()
	sub.fn(p.snapshot)
}
