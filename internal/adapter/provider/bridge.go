package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"educhain-wallet/internal/config"
	"educhain-wallet/internal/domain"
	"educhain-wallet/internal/domain/entity"
	domainService "educhain-wallet/internal/domain/service"
	"educhain-wallet/internal/pkg/apperrors"
)

// Compile-time check
var _ domainService.WalletProvider = (*Bridge)(nil)

// Bridge implements domainService.WalletProvider for a wallet exposed as an EIP-1193
// JSON-RPC endpoint, with account and chain changes pushed over a websocket.
type Bridge struct {
	client         *fasthttp.Client
	url            string
	eventsURL      string
	requestTimeout time.Duration
	promptTimeout  time.Duration
	retryAttempts  uint
	retryDelay     time.Duration
	reconnectDelay time.Duration
	logger         *zap.Logger
}

// NewBridge creates a provider bridge. An empty cfg.URL means no wallet is present.
func NewBridge(cfg config.ProviderConfig, logger *zap.Logger) *Bridge {
	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	reconnectDelay := cfg.ReconnectDelay
	if reconnectDelay <= 0 {
		reconnectDelay = 3 * time.Second
	}
	return &Bridge{
		client: &fasthttp.Client{
			Name: "educhain-wallet",
		},
		url:            strings.TrimSpace(cfg.URL),
		eventsURL:      strings.TrimSpace(cfg.EventsURL),
		requestTimeout: cfg.RequestTimeout,
		promptTimeout:  cfg.PromptTimeout,
		retryAttempts:  attempts,
		retryDelay:     cfg.RetryDelay,
		reconnectDelay: reconnectDelay,
		logger:         logger.Named("ProviderBridge"),
	}
}

// IsProviderPresent reports whether a wallet endpoint is configured.
func (b *Bridge) IsProviderPresent(_ context.Context) bool {
	return b.url != ""
}

// ReadAccounts returns the accounts the wallet already exposes to this origin.
func (b *Bridge) ReadAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	err := b.passive(ctx, methodAccounts, func() error {
		return b.call(ctx, methodAccounts, b.requestTimeout, &accounts)
	})
	if err != nil {
		return nil, normalize(methodAccounts, err)
	}
	return b.validAccounts(accounts), nil
}

// RequestAccounts asks the wallet for account access, which may prompt the user.
func (b *Bridge) RequestAccounts(ctx context.Context) ([]string, error) {
	ctx, cancel := b.promptContext(ctx)
	defer cancel()

	var accounts []string
	if err := b.call(ctx, methodRequestAccounts, 0, &accounts); err != nil {
		return nil, normalize(methodRequestAccounts, err)
	}
	return b.validAccounts(accounts), nil
}

// ReadChainID returns the chain id the wallet is currently on, as the wallet encodes it.
func (b *Bridge) ReadChainID(ctx context.Context) (string, error) {
	var chainID string
	err := b.passive(ctx, methodChainID, func() error {
		return b.call(ctx, methodChainID, b.requestTimeout, &chainID)
	})
	if err != nil {
		return "", normalize(methodChainID, err)
	}
	if _, err := entity.ParseChainID(chainID); err != nil {
		return "", fmt.Errorf("%w: %s returned %q: %v",
			apperrors.ErrExternalServiceFailure, methodChainID, chainID, err)
	}
	return chainID, nil
}

// ReadNativeBalance returns the latest native balance of address in the smallest unit.
func (b *Bridge) ReadNativeBalance(ctx context.Context, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q is not an address", apperrors.ErrInvalidInput, address)
	}

	var raw string
	err := b.passive(ctx, methodGetBalance, func() error {
		return b.call(ctx, methodGetBalance, b.requestTimeout, &raw, address, "latest")
	})
	if err != nil {
		return nil, normalize(methodGetBalance, err)
	}
	balance, err := decodeQuantity(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s returned %q: %v",
			apperrors.ErrExternalServiceFailure, methodGetBalance, raw, err)
	}
	return balance, nil
}

type switchChainParams struct {
	ChainID string `json:"chainId"`
}

// SwitchNetwork asks the wallet to make network the active chain.
func (b *Bridge) SwitchNetwork(ctx context.Context, network entity.NetworkDescriptor) error {
	chainID := entity.NormalizeChainID(network.ChainID)
	if chainID == "" {
		return fmt.Errorf("%w: invalid chain id %q", domain.ErrInvalidNetworkConfig, network.ChainID)
	}

	ctx, cancel := b.promptContext(ctx)
	defer cancel()

	b.logger.Info("Requesting network switch", zap.String("chainId", chainID), zap.String("name", network.Name))
	return normalize(methodSwitchChain, b.call(ctx, methodSwitchChain, 0, nil, switchChainParams{ChainID: chainID}))
}

type addChainParams struct {
	ChainID           string          `json:"chainId"`
	ChainName         string          `json:"chainName"`
	NativeCurrency    entity.Currency `json:"nativeCurrency"`
	RPCURLs           []string        `json:"rpcUrls"`
	BlockExplorerURLs []string        `json:"blockExplorerUrls,omitempty"`
	IconURLs          []string        `json:"iconUrls,omitempty"`
}

// AddNetwork registers network in the wallet. The descriptor is validated before the wallet is contacted.
func (b *Bridge) AddNetwork(ctx context.Context, network entity.NetworkDescriptor) error {
	if err := network.Validate(); err != nil {
		return err
	}

	params := addChainParams{
		ChainID:           entity.NormalizeChainID(network.ChainID),
		ChainName:         network.Name,
		NativeCurrency:    network.Currency,
		RPCURLs:           lo.Map(network.RPCEndpoints, func(u entity.RPCURL, _ int) string { return u.String() }),
		BlockExplorerURLs: network.ExplorerEndpoints,
		IconURLs:          network.IconURLs,
	}

	ctx, cancel := b.promptContext(ctx)
	defer cancel()

	b.logger.Info("Requesting network addition", zap.String("chainId", params.ChainID), zap.String("name", network.Name))
	return normalize(methodAddChain, b.call(ctx, methodAddChain, 0, nil, params))
}

// passive retries transport failures of read-only calls. Provider errors are final.
func (b *Bridge) passive(ctx context.Context, method string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(b.retryAttempts),
		retry.Delay(b.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			b.logger.Debug("Retrying provider read",
				zap.String("method", method), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}

func (b *Bridge) promptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.promptTimeout > 0 {
		return context.WithTimeout(ctx, b.promptTimeout)
	}
	return context.WithCancel(ctx)
}

func (b *Bridge) validAccounts(accounts []string) []string {
	return lo.Filter(accounts, func(a string, _ int) bool {
		if common.IsHexAddress(a) {
			return true
		}
		b.logger.Warn("Dropping malformed account reported by provider", zap.String("account", a))
		return false
	})
}

func isTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return false
	}
	return errors.Is(err, apperrors.ErrExternalServiceFailure) || errors.Is(err, apperrors.ErrTimeout)
}

// decodeQuantity accepts canonical hex quantities and the zero-padded ones some wallets emit.
func decodeQuantity(raw string) (*big.Int, error) {
	if v, err := hexutil.DecodeBig(raw); err == nil {
		return v, nil
	}
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, hexutil.ErrMissingPrefix
	}
	v, ok := new(big.Int).SetString(s[2:], 16)
	if !ok || v.Sign() < 0 {
		return nil, hexutil.ErrSyntax
	}
	return v, nil
}
