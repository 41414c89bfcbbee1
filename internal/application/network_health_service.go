package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"educhain-wallet/internal/application/port"
	"educhain-wallet/internal/config"
	"educhain-wallet/internal/domain/entity"
	domainRepo "educhain-wallet/internal/domain/repository"
	domainService "educhain-wallet/internal/domain/service"
)

// Compile-time check
var _ port.NetworkHealthService = (*NetworkHealthService)(nil)

// NetworkHealthService checks the RPC endpoints of a network and caches the results per chain.
type NetworkHealthService struct {
	cache      domainRepo.HealthCache
	rpcChecker domainService.RPCChecker
	cfg        config.CheckerConfig
	logger     *zap.Logger
	isChecking *atomic.Bool
}

// NewNetworkHealthService creates a new network health service.
func NewNetworkHealthService(
	cache domainRepo.HealthCache,
	rpcChecker domainService.RPCChecker,
	cfg config.CheckerConfig,
	logger *zap.Logger,
) *NetworkHealthService {
	return &NetworkHealthService{
		cache:      cache,
		rpcChecker: rpcChecker,
		cfg:        cfg,
		logger:     logger.Named("NetworkHealthService"),
		isChecking: new(atomic.Bool),
	}
}

// CheckedRPCs returns the checked endpoints of network, prioritizing cache.
func (s *NetworkHealthService) CheckedRPCs(ctx context.Context, network entity.NetworkDescriptor) ([]entity.RPCDetail, error) {
	chainID := entity.NormalizeChainID(network.ChainID)

	cached, found, err := s.cache.GetCheckedRPCs(ctx, chainID)
	if err != nil {
		s.logger.Warn("Cache error when getting checked RPCs", zap.String("chainId", chainID), zap.Error(err))
	}
	if found {
		s.logger.Debug("Cache hit for checked RPCs", zap.String("chainId", chainID))
		return cached, nil
	}

	s.logger.Debug("Cache miss for checked RPCs, checking endpoints",
		zap.String("chainId", chainID), zap.Int("rpcCount", len(network.RPCEndpoints)))
	return s.checkAndCache(ctx, network), nil
}

// Start re-checks network on every tick until ctx is done. A tick is skipped while the
// previous check is still running. It is a no-op when the interval is not positive.
func (s *NetworkHealthService) Start(ctx context.Context, network entity.NetworkDescriptor) {
	interval := s.cfg.GetCheckInterval()
	if interval <= 0 {
		s.logger.Info("Background checker disabled (interval <= 0)")
		return
	}

	s.logger.Info("Starting background checker",
		zap.Duration("interval", interval), zap.String("chainId", network.ChainID))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.isChecking.CompareAndSwap(false, true) {
				s.logger.Debug("Background checker tick: check already in progress.")
				continue
			}
			go func() {
				defer s.isChecking.Store(false)
				s.checkAndCache(ctx, network)
			}()

		case <-ctx.Done():
			s.logger.Info("Background checker stopping due to context cancellation.")
			return
		}
	}
}

func (s *NetworkHealthService) checkAndCache(ctx context.Context, network entity.NetworkDescriptor) []entity.RPCDetail {
	chainID := entity.NormalizeChainID(network.ChainID)
	details := s.checkNetworkRPCs(ctx, network)

	if ctx.Err() != nil {
		s.logger.Warn("Context cancelled before caching RPC check results, cache not updated.",
			zap.String("chainId", chainID), zap.Error(ctx.Err()))
		return details
	}
	s.logger.Info("RPC check finished",
		zap.String("chainId", chainID),
		zap.Int("rpcCount", len(details)),
		zap.Int("healthyCount", lo.CountBy(details, entity.RPCDetail.Healthy)))
	if err := s.cache.SetCheckedRPCs(ctx, chainID, details, s.cfg.GetCacheTTL()); err != nil {
		s.logger.Error("Failed to cache checked RPCs", zap.String("chainId", chainID), zap.Error(err))
	}
	return details
}

// checkNetworkRPCs checks every endpoint of network in parallel and returns one detail per endpoint,
// in endpoint order. An endpoint answering for another chain is reported as not working.
func (s *NetworkHealthService) checkNetworkRPCs(ctx context.Context, network entity.NetworkDescriptor) []entity.RPCDetail {
	rpcs := network.RPCEndpoints
	if len(rpcs) == 0 {
		return nil
	}

	details := make([]entity.RPCDetail, len(rpcs))
	var wg sync.WaitGroup

	numWorkers := s.cfg.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = 10
	}
	if len(rpcs) < numWorkers {
		numWorkers = len(rpcs)
	}

	type job struct {
		index int
		url   entity.RPCURL
	}
	jobs := make(chan job, len(rpcs))

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.logger.Debug("Starting RPC check worker", zap.Int("workerID", workerID))
			for j := range jobs {
				details[j.index] = s.checkOne(ctx, network.ChainID, j.url)
			}
		}(w)
	}

	for i, rpcURL := range rpcs {
		jobs <- job{index: i, url: rpcURL}
	}
	close(jobs)

	wg.Wait()
	return details
}

func (s *NetworkHealthService) checkOne(ctx context.Context, expectedChain string, rpcURL entity.RPCURL) entity.RPCDetail {
	detail := entity.RPCDetail{URL: rpcURL, Protocol: rpcURL.Protocol()}
	notWorking := false
	if detail.Protocol == entity.ProtocolUnknown {
		detail.IsWorking = &notWorking
		s.logger.Error("RPCURL with unknown protocol encountered", zap.String("url", rpcURL.String()))
		return detail
	}

	timeout := s.cfg.GetTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	isWorking, latency, reported, err := s.rpcChecker.CheckRPC(checkCtx, rpcURL)
	cancel()

	switch {
	case err != nil:
		s.logger.Debug("RPC check failed", zap.String("rpc", rpcURL.String()), zap.Error(err))
		detail.IsWorking = &notWorking
	case isWorking && !entity.SameChain(reported, expectedChain):
		s.logger.Warn("RPC answers for a different chain",
			zap.String("rpc", rpcURL.String()),
			zap.String("expectedChainId", expectedChain),
			zap.String("reportedChainId", reported))
		detail.ReportedChain = reported
		detail.ChainMismatch = true
		detail.IsWorking = &notWorking
	default:
		detail.IsWorking = &isWorking
		detail.ReportedChain = reported
		if isWorking {
			latencyMs := latency.Milliseconds()
			detail.LatencyMs = &latencyMs
			s.logger.Debug("RPC is working", zap.String("rpc", rpcURL.String()), zap.Duration("latency", latency))
		}
	}
	return detail
}
