package memory

import (
	"context"
	"fmt"
	"time"

	"educhain-wallet/internal/config"
	"educhain-wallet/internal/domain/entity"
	domainRepo "educhain-wallet/internal/domain/repository"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.HealthCache = (*CacheRepository)(nil)

// checkedRPCsKeyPrefix prefixes the normalized chain id in cache keys.
const checkedRPCsKeyPrefix = "network_checked_rpcs_"

// CacheRepository implements domainRepo.HealthCache using the go-cache in-memory library.
type CacheRepository struct {
	cache  *cache.Cache
	logger *zap.Logger
	cfg    config.CacheConfig
}

// NewCacheRepository creates a new in-memory cache repository instance.
func NewCacheRepository(cfg config.CacheConfig, logger *zap.Logger) *CacheRepository {
	defaultExpiration := cfg.GetDefaultExpiration()
	cleanupInterval := cfg.GetCleanupInterval()

	c := cache.New(defaultExpiration, cleanupInterval)
	logger.Info(
		"Initialized go-cache for memory storage",
		zap.Duration("defaultExpiration", defaultExpiration),
		zap.Duration("cleanupInterval", cleanupInterval),
	)

	return &CacheRepository{
		cache:  c,
		logger: logger.Named("MemoryCacheStorage"),
		cfg:    cfg,
	}
}

// GetCheckedRPCs retrieves cached checked RPCs for a chain, returning found status.
func (r *CacheRepository) GetCheckedRPCs(_ context.Context, chainID string) ([]entity.RPCDetail, bool, error) {
	key := checkedRPCsKey(chainID)
	if x, found := r.cache.Get(key); found {
		if rpcs, ok := x.([]entity.RPCDetail); ok {
			r.logger.Debug("Memory cache hit", zap.String("key", key))
			return rpcs, true, nil
		}
		r.logger.Warn(
			"Memory cache data type mismatch for key",
			zap.String("key", key),
			zap.Any("type", fmt.Sprintf("%T", x)),
		)
	}
	r.logger.Debug("Memory cache miss", zap.String("key", key))
	return nil, false, nil
}

// SetCheckedRPCs caches the checked RPCs for a chain. A non-positive ttl uses the default expiration.
func (r *CacheRepository) SetCheckedRPCs(
	_ context.Context,
	chainID string,
	rpcs []entity.RPCDetail,
	ttl time.Duration,
) error {
	key := checkedRPCsKey(chainID)
	if key == checkedRPCsKeyPrefix {
		return fmt.Errorf("cache checked rpcs: invalid chain id %q", chainID)
	}
	if ttl <= 0 {
		ttl = r.cfg.GetDefaultExpiration()
	}
	r.cache.Set(key, rpcs, ttl)
	r.logger.Debug("Memory cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// checkedRPCsKey generates the cache key for a chain's checked RPCs; any chain id encoding maps to one key.
func checkedRPCsKey(chainID string) string {
	return checkedRPCsKeyPrefix + entity.NormalizeChainID(chainID)
}
