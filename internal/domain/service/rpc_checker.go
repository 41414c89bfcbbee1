package service

import (
	"context"
	"time"

	"educhain-wallet/internal/domain/entity"
)

// RPCChecker probes a single endpoint with eth_chainId.
// isWorking is true exactly when err is nil; chainID is the normalized id the endpoint reported.
type RPCChecker interface {
	CheckRPC(ctx context.Context, rpcURL entity.RPCURL) (isWorking bool, latency time.Duration, chainID string, err error)
}
