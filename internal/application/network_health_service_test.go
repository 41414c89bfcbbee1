package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"educhain-wallet/internal/adapter/storage/memory"
	"educhain-wallet/internal/config"
	"educhain-wallet/internal/domain/entity"
)

type checkResult struct {
	ok      bool
	latency time.Duration
	chainID string
	err     error
}

// stubChecker answers CheckRPC from a fixed table keyed by URL.
type stubChecker struct {
	mu      sync.Mutex
	results map[entity.RPCURL]checkResult
	calls   atomic.Int32
}

func (c *stubChecker) CheckRPC(_ context.Context, rpcURL entity.RPCURL) (bool, time.Duration, string, error) {
	c.calls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.results[rpcURL]
	return r.ok, r.latency, r.chainID, r.err
}

func newTestHealthService(t *testing.T, checker *stubChecker, interval time.Duration) *NetworkHealthService {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cache := memory.NewCacheRepository(config.CacheConfig{DefaultExpiration: time.Minute}, logger)
	return NewNetworkHealthService(cache, checker, config.CheckerConfig{
		CheckInterval: interval,
		CheckTimeout:  time.Second,
		MaxWorkers:    2,
		CacheTTL:      time.Minute,
	}, logger)
}

func healthNetwork() entity.NetworkDescriptor {
	network := EduChainTestnet()
	network.RPCEndpoints = []entity.RPCURL{
		"https://good.example",
		"https://down.example",
		"wss://other-chain.example",
		"ipc://local",
	}
	return network
}

func TestNetworkHealthService_CheckedRPCs(t *testing.T) {
	checker := &stubChecker{results: map[entity.RPCURL]checkResult{
		"https://good.example":      {ok: true, latency: 25 * time.Millisecond, chainID: "0xa0a4c"},
		"https://down.example":      {err: errors.New("connection refused")},
		"wss://other-chain.example": {ok: true, chainID: "0x1"},
	}}
	service := newTestHealthService(t, checker, 0)

	details, err := service.CheckedRPCs(context.Background(), healthNetwork())
	require.NoError(t, err)
	require.Len(t, details, 4)

	good := details[0]
	assert.Equal(t, entity.ProtocolHTTPS, good.Protocol)
	require.NotNil(t, good.IsWorking)
	assert.True(t, *good.IsWorking)
	require.NotNil(t, good.LatencyMs)
	assert.Equal(t, int64(25), *good.LatencyMs)

	down := details[1]
	require.NotNil(t, down.IsWorking)
	assert.False(t, *down.IsWorking)
	assert.Nil(t, down.LatencyMs)

	mismatch := details[2]
	assert.Equal(t, entity.ProtocolWSS, mismatch.Protocol)
	assert.False(t, *mismatch.IsWorking)
	assert.True(t, mismatch.ChainMismatch)
	assert.Equal(t, "0x1", mismatch.ReportedChain)

	unknown := details[3]
	assert.Equal(t, entity.ProtocolUnknown, unknown.Protocol)
	assert.False(t, *unknown.IsWorking)

	assert.Equal(t, int32(3), checker.calls.Load(), "unknown protocols are never dialled")

	_, err = service.CheckedRPCs(context.Background(), healthNetwork())
	require.NoError(t, err)
	assert.Equal(t, int32(3), checker.calls.Load(), "second call is served from cache")
}

func TestNetworkHealthService_StartDisabled(t *testing.T) {
	service := newTestHealthService(t, &stubChecker{}, 0)

	done := make(chan struct{})
	go func() {
		service.Start(context.Background(), healthNetwork())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start should return immediately when the interval is not positive")
	}
}

func TestNetworkHealthService_StartRechecks(t *testing.T) {
	checker := &stubChecker{results: map[entity.RPCURL]checkResult{}}
	service := newTestHealthService(t, checker, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		service.Start(ctx, healthNetwork())
		close(done)
	}()

	assert.Eventually(t, func() bool { return checker.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
