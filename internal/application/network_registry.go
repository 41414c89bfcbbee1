package application

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"educhain-wallet/internal/application/port"
	"educhain-wallet/internal/domain/entity"
	domainRepo "educhain-wallet/internal/domain/repository"
	"educhain-wallet/internal/pkg/apperrors"
)

// Compile-time check
var _ port.NetworkCatalog = (*NetworkRegistry)(nil)

// EduChainTestnet returns the built-in EDU Chain testnet descriptor (chain 656476).
func EduChainTestnet() entity.NetworkDescriptor {
	return entity.NetworkDescriptor{
		ChainID: "0xA0A4C",
		Name:    "EDU Chain Testnet",
		Testnet: true,
		Currency: entity.Currency{
			Name:     "EDU Token",
			Symbol:   "EDU",
			Decimals: 18,
		},
		RPCEndpoints:      []entity.RPCURL{"https://rpc.open-campus-codex.gelato.digital"},
		ExplorerEndpoints: []string{"https://edu-chain-testnet.blockscout.com"},
		FaucetEndpoints: []string{
			"https://drpc.org/faucet/open-campus-codex",
			"https://educhain-community-faucet.vercel.app/",
			"https://www.hackquest.io/faucets",
		},
		IconURLs: []string{"https://edu-chain-testnet.blockscout.com/favicon.ico"},
	}
}

// EduChainMainnet returns the built-in EDU Chain mainnet descriptor (chain 41923). It has no faucet.
func EduChainMainnet() entity.NetworkDescriptor {
	return entity.NetworkDescriptor{
		ChainID: "0xA3E3",
		Name:    "EDU Chain",
		Currency: entity.Currency{
			Name:     "EDU Token",
			Symbol:   "EDU",
			Decimals: 18,
		},
		RPCEndpoints:      []entity.RPCURL{"https://rpc.edu-chain.raas.gelato.cloud"},
		ExplorerEndpoints: []string{"https://explorer.edu-chain.raas.gelato.cloud"},
	}
}

// NetworkRegistry holds every registered network by chain id, plus the testnet and mainnet
// slots selected by DescribeNetwork. The slots start on the EDU Chain networks and move only
// through SelectNetwork; registering a descriptor for a slot's chain id updates that slot.
type NetworkRegistry struct {
	mu           sync.RWMutex
	testnetChain string
	mainnetChain string
	byChain      map[string]entity.NetworkDescriptor
	logger       *zap.Logger
}

// NewNetworkRegistry creates a registry seeded with the EDU Chain networks and then registers
// every extra descriptor, in order. Any invalid descriptor fails construction.
func NewNetworkRegistry(logger *zap.Logger, descriptors ...entity.NetworkDescriptor) (*NetworkRegistry, error) {
	testnet, mainnet := EduChainTestnet(), EduChainMainnet()
	r := &NetworkRegistry{
		testnetChain: entity.NormalizeChainID(testnet.ChainID),
		mainnetChain: entity.NormalizeChainID(mainnet.ChainID),
		byChain:      make(map[string]entity.NetworkDescriptor),
		logger:       logger.Named("NetworkRegistry"),
	}
	for _, d := range append([]entity.NetworkDescriptor{testnet, mainnet}, descriptors...) {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates d and indexes it by chain id, replacing any network with the same chain id.
// An invalid descriptor leaves the registry unchanged.
func (r *NetworkRegistry) Register(d entity.NetworkDescriptor) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("register network %q: %w", d.Name, err)
	}
	d = cloneDescriptor(d)
	chainID := entity.NormalizeChainID(d.ChainID)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byChain[chainID] = d

	r.logger.Debug("Registered network",
		zap.String("chainId", d.ChainID),
		zap.String("name", d.Name),
		zap.Bool("testnet", d.Testnet),
		zap.Bool("selected", chainID == r.testnetChain || chainID == r.mainnetChain),
		zap.Int("rpcCount", len(d.RPCEndpoints)))
	return nil
}

// SelectNetwork points the testnet or mainnet slot at the registered network chainID.
// The network must be registered and its Testnet flag must match the slot.
func (r *NetworkRegistry) SelectNetwork(useTestnet bool, chainID string) error {
	normalized := entity.NormalizeChainID(chainID)

	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byChain[normalized]
	if !ok {
		return fmt.Errorf("%w: network %s is not registered", apperrors.ErrNotFound, chainID)
	}
	if d.Testnet != useTestnet {
		return fmt.Errorf("%w: network %s has testnet=%t", apperrors.ErrInvalidInput, chainID, d.Testnet)
	}
	if useTestnet {
		r.testnetChain = normalized
	} else {
		r.mainnetChain = normalized
	}
	r.logger.Info("Selected network",
		zap.String("chainId", d.ChainID), zap.String("name", d.Name), zap.Bool("testnet", useTestnet))
	return nil
}

// LoadFrom registers every descriptor produced by the given sources.
func (r *NetworkRegistry) LoadFrom(ctx context.Context, sources ...domainRepo.NetworkSource) error {
	for _, source := range sources {
		descriptors, err := source.GetNetworks(ctx)
		if err != nil {
			return fmt.Errorf("load networks: %w", err)
		}
		for _, d := range descriptors {
			if err := r.Register(d); err != nil {
				return err
			}
		}
		r.logger.Info("Loaded networks from source", zap.Int("count", len(descriptors)))
	}
	return nil
}

// DescribeNetwork returns the testnet network when useTestnet is set and the mainnet network otherwise.
func (r *NetworkRegistry) DescribeNetwork(useTestnet bool) entity.NetworkDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if useTestnet {
		return cloneDescriptor(r.byChain[r.testnetChain])
	}
	return cloneDescriptor(r.byChain[r.mainnetChain])
}

// FaucetURL returns the first faucet of the selected network, or "" when it has none.
func (r *NetworkRegistry) FaucetURL(useTestnet bool) string {
	return r.DescribeNetwork(useTestnet).PrimaryFaucet()
}

// Info returns the display view of the selected network.
func (r *NetworkRegistry) Info(useTestnet bool) entity.NetworkInfo {
	return r.DescribeNetwork(useTestnet).Info()
}

// Lookup finds a registered network by chain id in any encoding.
func (r *NetworkRegistry) Lookup(chainID string) (entity.NetworkDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byChain[entity.NormalizeChainID(chainID)]
	if !ok {
		return entity.NetworkDescriptor{}, false
	}
	return cloneDescriptor(d), true
}

// Networks returns every registered network, testnets first, then by chain id.
func (r *NetworkRegistry) Networks() []entity.NetworkDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := lo.Map(lo.Values(r.byChain), func(d entity.NetworkDescriptor, _ int) entity.NetworkDescriptor {
		return cloneDescriptor(d)
	})
	slices.SortFunc(out, func(a, b entity.NetworkDescriptor) int {
		if a.Testnet != b.Testnet {
			if a.Testnet {
				return -1
			}
			return 1
		}
		ai, bi := a.ChainIDDecimal(), b.ChainIDDecimal()
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	})
	return out
}

func cloneDescriptor(d entity.NetworkDescriptor) entity.NetworkDescriptor {
	d.RPCEndpoints = slices.Clone(d.RPCEndpoints)
	d.ExplorerEndpoints = slices.Clone(d.ExplorerEndpoints)
	d.FaucetEndpoints = slices.Clone(d.FaucetEndpoints)
	d.IconURLs = slices.Clone(d.IconURLs)
	return d
}
