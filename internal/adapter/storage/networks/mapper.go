package networks

import (
	"strings"

	dto "educhain-wallet/internal/adapter/storage/networks/dto"
	"educhain-wallet/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// templated reports whether a Chainlist URL still carries an API-key placeholder.
func templated(raw string) bool {
	return strings.Contains(raw, "${")
}

// toRPCURLs keeps the valid, untemplated URLs of raw.
func toRPCURLs(raw []string, chainID string, logger *zap.Logger) []entity.RPCURL {
	out := make([]entity.RPCURL, 0, len(raw))
	for _, rpcStr := range lo.Reject(raw, func(s string, _ int) bool { return templated(s) }) {
		rpcURL, err := entity.NewRPCURL(rpcStr)
		if err != nil {
			logger.Warn("Skipping invalid RPC URL during mapping",
				zap.String("rawUrl", rpcStr),
				zap.String("chainId", chainID),
				zap.Error(err))
			continue
		}
		out = append(out, rpcURL)
	}
	return out
}

// chainToDescriptor converts a Chainlist entry to a descriptor. Chainlist has no testnet flag on
// most entries, so the name is consulted as well.
func chainToDescriptor(raw dto.ChainRaw, logger *zap.Logger) entity.NetworkDescriptor {
	chainID := hexutil.EncodeUint64(uint64(raw.ChainID))
	return entity.NetworkDescriptor{
		ChainID: chainID,
		Name:    raw.Name,
		Testnet: raw.Network == "testnet" || strings.Contains(strings.ToLower(raw.Name), "testnet"),
		Currency: entity.Currency{
			Name:     raw.Currency.Name,
			Symbol:   raw.Currency.Symbol,
			Decimals: raw.Currency.Decimals,
		},
		RPCEndpoints: toRPCURLs(raw.RPC, chainID, logger),
		ExplorerEndpoints: lo.FilterMap(raw.Explorers, func(e dto.ExplorerRaw, _ int) (string, bool) {
			return e.URL, e.URL != ""
		}),
		FaucetEndpoints: lo.Reject(raw.Faucets, func(s string, _ int) bool { return templated(s) }),
		IconURLs: lo.Uniq(lo.FilterMap(raw.Explorers, func(e dto.ExplorerRaw, _ int) (string, bool) {
			return e.Icon, strings.HasPrefix(e.Icon, "http")
		})),
	}
}

// fileNetworkToDescriptor converts a YAML network entry. A chain id that does not parse is kept
// as written so that registration rejects it.
func fileNetworkToDescriptor(raw dto.NetworkRaw, logger *zap.Logger) entity.NetworkDescriptor {
	chainID := entity.NormalizeChainID(raw.ChainID)
	if chainID == "" {
		chainID = raw.ChainID
	}
	return entity.NetworkDescriptor{
		ChainID: chainID,
		Name:    raw.Name,
		Testnet: raw.Testnet,
		Currency: entity.Currency{
			Name:     raw.Currency.Name,
			Symbol:   raw.Currency.Symbol,
			Decimals: raw.Currency.Decimals,
		},
		RPCEndpoints:      toRPCURLs(raw.RPCURLs, chainID, logger),
		ExplorerEndpoints: lo.Compact(raw.ExplorerURLs),
		FaucetEndpoints:   lo.Compact(raw.FaucetURLs),
		IconURLs:          lo.Compact(raw.IconURLs),
	}
}
