package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"educhain-wallet/internal/application/port"
	"educhain-wallet/internal/domain/entity"
	domainService "educhain-wallet/internal/domain/service"
)

// Compile-time check
var _ port.WalletDiagnostics = (*Diagnostics)(nil)

// Diagnostics explains why the wallet is not usable. It only reads from the provider.
type Diagnostics struct {
	provider domainService.WalletProvider
	expected entity.NetworkDescriptor
	logger   *zap.Logger
}

// NewDiagnostics creates a checker comparing the wallet against expected.
func NewDiagnostics(provider domainService.WalletProvider, expected entity.NetworkDescriptor, logger *zap.Logger) *Diagnostics {
	return &Diagnostics{
		provider: provider,
		expected: expected,
		logger:   logger.Named("Diagnostics"),
	}
}

// Check collects every problem found with the wallet connection and what to do about it.
func (d *Diagnostics) Check(ctx context.Context) port.Diagnosis {
	var diag port.Diagnosis
	add := func(issue, suggestion string) {
		diag.Issues = append(diag.Issues, issue)
		diag.Suggestions = append(diag.Suggestions, suggestion)
	}

	if !d.provider.IsProviderPresent(ctx) {
		add("No wallet provider is installed", "Install a browser wallet such as MetaMask")
		return d.finish(diag)
	}

	accounts, err := d.provider.ReadAccounts(ctx)
	if err != nil {
		d.logger.Debug("Diagnostics could not read accounts", zap.Error(err))
		add("The wallet did not respond", "Reload the page and make sure the wallet extension is enabled")
		return d.finish(diag)
	}
	if len(accounts) == 0 {
		add("The wallet is locked or has no accounts", "Unlock the wallet and make sure you have at least one account")
	}

	chainID, err := d.provider.ReadChainID(ctx)
	switch {
	case err != nil:
		d.logger.Debug("Diagnostics could not read chain id", zap.Error(err))
		add("The wallet did not report its network", "Reload the page and reconnect the wallet")
	case !entity.SameChain(chainID, d.expected.ChainID):
		add("Connected to the wrong network",
			fmt.Sprintf("Switch to %s (Chain ID: %d)", d.expected.Name, d.expected.ChainIDDecimal()))
	}

	return d.finish(diag)
}

func (d *Diagnostics) finish(diag port.Diagnosis) port.Diagnosis {
	diag.Valid = len(diag.Issues) == 0
	if diag.Issues == nil {
		diag.Issues = []string{}
		diag.Suggestions = []string{}
	}
	d.logger.Debug("Wallet diagnostics finished", zap.Bool("valid", diag.Valid), zap.Strings("issues", diag.Issues))
	return diag
}
