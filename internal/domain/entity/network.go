package entity

import (
	"fmt"
	"strings"

	"educhain-wallet/internal/domain"
)

// Currency defines the native currency details of a chain.
type Currency struct {
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals int    `json:"decimals" yaml:"decimals"`
}

// NetworkDescriptor is the static description of a network the wallet can be asked to use.
// ChainID keeps the provider's hexadecimal encoding, e.g. "0xA0A4C".
type NetworkDescriptor struct {
	ChainID           string   `json:"chainId"`
	Name              string   `json:"name"`
	Testnet           bool     `json:"testnet"`
	Currency          Currency `json:"nativeCurrency"`
	RPCEndpoints      []RPCURL `json:"rpcUrls"`
	ExplorerEndpoints []string `json:"blockExplorerUrls"`
	FaucetEndpoints   []string `json:"faucetUrls"`
	IconURLs          []string `json:"iconUrls,omitempty"`
}

// Validate checks the invariants a descriptor must hold before it can be registered.
func (d NetworkDescriptor) Validate() error {
	if strings.TrimSpace(d.ChainID) == "" {
		return fmt.Errorf("%w: chain id is empty", domain.ErrInvalidNetworkConfig)
	}
	if _, err := ParseChainID(d.ChainID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidNetworkConfig, err)
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: network %s has no name", domain.ErrInvalidNetworkConfig, d.ChainID)
	}
	if len(d.RPCEndpoints) == 0 {
		return fmt.Errorf("%w: network %s has no rpc endpoints", domain.ErrInvalidNetworkConfig, d.ChainID)
	}
	for _, rpcURL := range d.RPCEndpoints {
		if _, err := NewRPCURL(rpcURL.String()); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidNetworkConfig, err)
		}
	}
	if d.Currency.Decimals < 0 {
		return fmt.Errorf("%w: network %s has negative currency decimals", domain.ErrInvalidNetworkConfig, d.ChainID)
	}
	return nil
}

// ChainIDDecimal returns the numeric chain id, or 0 when the descriptor is invalid.
func (d NetworkDescriptor) ChainIDDecimal() uint64 {
	id, err := ParseChainID(d.ChainID)
	if err != nil {
		return 0
	}
	return id
}

// PrimaryRPC returns the first RPC endpoint.
func (d NetworkDescriptor) PrimaryRPC() RPCURL {
	if len(d.RPCEndpoints) == 0 {
		return ""
	}
	return d.RPCEndpoints[0]
}

// PrimaryExplorer returns the first explorer base URL without a trailing slash.
func (d NetworkDescriptor) PrimaryExplorer() string {
	if len(d.ExplorerEndpoints) == 0 {
		return ""
	}
	return strings.TrimRight(d.ExplorerEndpoints[0], "/")
}

// PrimaryFaucet returns the first faucet URL, or an empty string when the network has none.
func (d NetworkDescriptor) PrimaryFaucet() string {
	if len(d.FaucetEndpoints) == 0 {
		return ""
	}
	return d.FaucetEndpoints[0]
}

// AddressURL links an address on the primary explorer.
func (d NetworkDescriptor) AddressURL(address string) string {
	explorer := d.PrimaryExplorer()
	if explorer == "" {
		return ""
	}
	return explorer + "/address/" + address
}

// NetworkInfo is a flattened, display-oriented view of a descriptor.
type NetworkInfo struct {
	Name           string `json:"name"`
	ChainID        string `json:"chainId"`
	ChainIDDecimal uint64 `json:"chainIdDecimal"`
	Testnet        bool   `json:"testnet"`
	CurrencySymbol string `json:"currencySymbol"`
	RPCURL         string `json:"rpcUrl"`
	Explorer       string `json:"explorer"`
	Faucet         string `json:"faucet"`
}

// Info builds the display view of the descriptor.
func (d NetworkDescriptor) Info() NetworkInfo {
	return NetworkInfo{
		Name:           d.Name,
		ChainID:        d.ChainID,
		ChainIDDecimal: d.ChainIDDecimal(),
		Testnet:        d.Testnet,
		CurrencySymbol: d.Currency.Symbol,
		RPCURL:         d.PrimaryRPC().String(),
		Explorer:       d.PrimaryExplorer(),
		Faucet:         d.PrimaryFaucet(),
	}
}
