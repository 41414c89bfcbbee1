package repository

import (
	"context"

	"educhain-wallet/internal/domain/entity"
)

// NetworkSource defines the interface for loading network descriptors from outside the binary.
type NetworkSource interface {
	// GetNetworks retrieves every descriptor the source knows about.
	GetNetworks(ctx context.Context) ([]entity.NetworkDescriptor, error)
}
