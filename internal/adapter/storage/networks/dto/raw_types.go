package networks_dto

// ChainRaw represents the subset of a Chainlist chain entry the wallet needs.
type ChainRaw struct {
	Name      string        `json:"name"`
	Chain     string        `json:"chain"`
	RPC       []string      `json:"rpc"`
	Faucets   []string      `json:"faucets,omitempty"`
	Currency  CurrencyRaw   `json:"nativeCurrency"`
	ShortName string        `json:"shortName"`
	ChainID   int64         `json:"chainId"`
	Explorers []ExplorerRaw `json:"explorers,omitempty"`
	Network   string        `json:"network,omitempty"`
}

// CurrencyRaw defines the native currency details of a chain from raw data.
type CurrencyRaw struct {
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals int    `json:"decimals" yaml:"decimals"`
}

// ExplorerRaw defines details about a block explorer for a chain from raw data.
type ExplorerRaw struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Standard string `json:"standard"`
	Icon     string `json:"icon,omitempty"`
}

// NetworkFileRaw is the top level of a networks YAML file.
type NetworkFileRaw struct {
	Networks []NetworkRaw `yaml:"networks"`
}

// NetworkRaw is one network as written in a networks YAML file.
// ChainID may be written in hex or decimal.
type NetworkRaw struct {
	ChainID      string      `yaml:"chain_id"`
	Name         string      `yaml:"name"`
	Testnet      bool        `yaml:"testnet"`
	Currency     CurrencyRaw `yaml:"currency"`
	RPCURLs      []string    `yaml:"rpc_urls"`
	ExplorerURLs []string    `yaml:"explorer_urls"`
	FaucetURLs   []string    `yaml:"faucet_urls"`
	IconURLs     []string    `yaml:"icon_urls"`
}
