package repository

import (
	"context"
	"time"

	"educhain-wallet/internal/domain/entity"
)

// HealthCache keeps the latest endpoint check results of each network, keyed by normalized chain id.
// A miss is reported as found == false with a nil error.
type HealthCache interface {
	GetCheckedRPCs(ctx context.Context, chainID string) ([]entity.RPCDetail, bool, error)

	// SetCheckedRPCs replaces the results of chainID. A non-positive ttl uses the cache default.
	SetCheckedRPCs(ctx context.Context, chainID string, rpcs []entity.RPCDetail, ttl time.Duration) error
}
