package port

import (
	"context"

	"educhain-wallet/internal/domain/entity"
)

// NetworkCatalog defines read access to the registered networks.
type NetworkCatalog interface {
	DescribeNetwork(useTestnet bool) entity.NetworkDescriptor
	FaucetURL(useTestnet bool) string
	Info(useTestnet bool) entity.NetworkInfo
	Lookup(chainID string) (entity.NetworkDescriptor, bool)
	Networks() []entity.NetworkDescriptor
}

// NetworkHealthService defines the interface for health-checking a network's RPC endpoints.
type NetworkHealthService interface {
	// CheckedRPCs returns the checked endpoints of network, served from cache when fresh.
	CheckedRPCs(ctx context.Context, network entity.NetworkDescriptor) ([]entity.RPCDetail, error)
}
