package entity

// WalletSnapshot is the published view of wallet connectivity.
// Address, Balance, ChainID and ExplorerURL are nil unless Connected.
// Balance may also be nil while a connected wallet's balance is unresolved.
type WalletSnapshot struct {
	Connected         bool    `json:"isConnected"`
	Address           *string `json:"address"`
	Balance           *string `json:"balance"`
	ChainID           *string `json:"chainId"`
	OnExpectedNetwork bool    `json:"isCorrectNetwork"`
	ExplorerURL       *string `json:"explorerUrl,omitempty"`
}

// Disconnected returns the snapshot published when no wallet account is visible.
func Disconnected() WalletSnapshot {
	return WalletSnapshot{}
}

// IsDisconnected reports whether s is exactly the disconnected value.
func (s WalletSnapshot) IsDisconnected() bool {
	return !s.Connected && s.Address == nil && s.Balance == nil &&
		s.ChainID == nil && !s.OnExpectedNetwork && s.ExplorerURL == nil
}

// Equal compares two snapshots field by field.
func (s WalletSnapshot) Equal(o WalletSnapshot) bool {
	return s.Connected == o.Connected &&
		s.OnExpectedNetwork == o.OnExpectedNetwork &&
		equalOptional(s.Address, o.Address) &&
		equalOptional(s.Balance, o.Balance) &&
		equalOptional(s.ChainID, o.ChainID) &&
		equalOptional(s.ExplorerURL, o.ExplorerURL)
}

// AddressOrEmpty returns the address, or "" when disconnected.
func (s WalletSnapshot) AddressOrEmpty() string { return valueOrEmpty(s.Address) }

// BalanceOrEmpty returns the formatted balance, or "" when unknown.
func (s WalletSnapshot) BalanceOrEmpty() string { return valueOrEmpty(s.Balance) }

// ChainIDOrEmpty returns the reported chain id, or "" when disconnected.
func (s WalletSnapshot) ChainIDOrEmpty() string { return valueOrEmpty(s.ChainID) }

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func valueOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// ProviderEventType names the wallet-driven events the provider reports.
type ProviderEventType string

const (
	EventAccountsChanged ProviderEventType = "accountsChanged"
	EventChainChanged    ProviderEventType = "chainChanged"
)

// ProviderEvent is a single account or chain change reported by the wallet.
type ProviderEvent struct {
	Type     ProviderEventType
	Accounts []string
	ChainID  string
}
