package application

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"educhain-wallet/internal/domain/entity"
	domainService "educhain-wallet/internal/domain/service"
)

// balanceDigits is the number of fractional digits shown for native balances.
const balanceDigits = 4

// FormatBalance scales a raw integer balance by decimals and renders it with four fractional digits.
func FormatBalance(raw *big.Int, decimals int) string {
	return decimal.NewFromBigInt(raw, -int32(decimals)).StringFixed(balanceDigits)
}

// readIdentity reads the chain id and balance of address and builds the connected snapshot.
// Nothing is published here; a failure returns the error and no snapshot.
func readIdentity(
	ctx context.Context,
	provider domainService.WalletProvider,
	expected entity.NetworkDescriptor,
	address string,
) (entity.WalletSnapshot, error) {
	var (
		chainID string
		raw     *big.Int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		id, err := provider.ReadChainID(gctx)
		if err != nil {
			return fmt.Errorf("read chain id: %w", err)
		}
		chainID = id
		return nil
	})
	g.Go(func() error {
		b, err := provider.ReadNativeBalance(gctx, address)
		if err != nil {
			return fmt.Errorf("read balance of %s: %w", address, err)
		}
		raw = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return entity.WalletSnapshot{}, err
	}

	return connectedSnapshot(address, chainID, raw, expected), nil
}

func connectedSnapshot(address, chainID string, raw *big.Int, expected entity.NetworkDescriptor) entity.WalletSnapshot {
	s := entity.WalletSnapshot{
		Connected:         true,
		Address:           &address,
		ChainID:           &chainID,
		OnExpectedNetwork: entity.SameChain(chainID, expected.ChainID),
	}
	if raw != nil {
		balance := FormatBalance(raw, expected.Currency.Decimals)
		s.Balance = &balance
	}
	if explorer := expected.AddressURL(address); explorer != "" {
		s.ExplorerURL = &explorer
	}
	return s
}
