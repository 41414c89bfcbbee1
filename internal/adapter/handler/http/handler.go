package http

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"educhain-wallet/internal/application/port"
	"educhain-wallet/internal/domain"
	"educhain-wallet/internal/pkg/apperrors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Help  string `json:"help"`
}

// FaucetResponse is the body of GET /network/faucet.
type FaucetResponse struct {
	URL string `json:"url"`
}

// SwitchNetworkRequest is the optional body of POST /wallet/network.
type SwitchNetworkRequest struct {
	ChainID string `json:"chainId"`
}

// WalletHandler serves the wallet and network routes.
type WalletHandler struct {
	store       port.WalletStore
	workflow    port.ConnectionWorkflow
	diagnostics port.WalletDiagnostics
	networks    port.NetworkCatalog
	health      port.NetworkHealthService
	useTestnet  bool
	logger      *zap.Logger
}

// NewWalletHandler creates a handler; useTestnet selects the network reported by the network routes.
func NewWalletHandler(
	store port.WalletStore,
	workflow port.ConnectionWorkflow,
	diagnostics port.WalletDiagnostics,
	networks port.NetworkCatalog,
	health port.NetworkHealthService,
	useTestnet bool,
	logger *zap.Logger,
) *WalletHandler {
	return &WalletHandler{
		store:       store,
		workflow:    workflow,
		diagnostics: diagnostics,
		networks:    networks,
		health:      health,
		useTestnet:  useTestnet,
		logger:      logger.Named("WalletHandler"),
	}
}

// GetWallet returns the current snapshot without touching the wallet.
func (h *WalletHandler) GetWallet(ctx *fasthttp.RequestCtx) {
	h.writeJSON(ctx, fasthttp.StatusOK, h.store.CurrentSnapshot())
}

// RefreshWallet re-reads the wallet. On failure the published snapshot is left as it was.
func (h *WalletHandler) RefreshWallet(ctx *fasthttp.RequestCtx) {
	snapshot, err := h.store.Refresh(ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, snapshot)
}

// ConnectWallet runs the connect workflow; it may wait on a wallet prompt.
func (h *WalletHandler) ConnectWallet(ctx *fasthttp.RequestCtx) {
	snapshot, err := h.workflow.Connect(ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, snapshot)
}

// SwitchNetwork moves the wallet onto the configured network, or onto the registered network
// named by the optional chainId in the body.
func (h *WalletHandler) SwitchNetwork(ctx *fasthttp.RequestCtx) {
	var req SwitchNetworkRequest
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.writeError(ctx, fmt.Errorf("%w: malformed body: %v", apperrors.ErrInvalidInput, err))
			return
		}
	}

	var err error
	if req.ChainID == "" {
		err = h.workflow.EnsureExpectedNetwork(ctx)
	} else {
		network, ok := h.networks.Lookup(req.ChainID)
		if !ok {
			h.writeError(ctx, fmt.Errorf("%w: network %s is not registered", apperrors.ErrNotFound, req.ChainID))
			return
		}
		err = h.workflow.EnsureNetwork(ctx, network)
	}
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, h.store.CurrentSnapshot())
}

// Diagnose reports wallet problems and suggestions without publishing anything.
func (h *WalletHandler) Diagnose(ctx *fasthttp.RequestCtx) {
	h.writeJSON(ctx, fasthttp.StatusOK, h.diagnostics.Check(ctx))
}

// GetNetwork returns the display view of the configured network.
func (h *WalletHandler) GetNetwork(ctx *fasthttp.RequestCtx) {
	h.writeJSON(ctx, fasthttp.StatusOK, h.networks.Info(h.useTestnet))
}

// GetFaucet returns the faucet of the configured network, or an empty url.
func (h *WalletHandler) GetFaucet(ctx *fasthttp.RequestCtx) {
	h.writeJSON(ctx, fasthttp.StatusOK, FaucetResponse{URL: h.networks.FaucetURL(h.useTestnet)})
}

// GetNetworkRPCs returns the health-checked RPC endpoints of the configured network.
func (h *WalletHandler) GetNetworkRPCs(ctx *fasthttp.RequestCtx) {
	rpcs, err := h.health.CheckedRPCs(ctx, h.networks.DescribeNetwork(h.useTestnet))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, rpcs)
}

func (h *WalletHandler) writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *WalletHandler) writeError(ctx *fasthttp.RequestCtx, err error) {
	status := statusFor(err)
	if status >= fasthttp.StatusInternalServerError {
		h.logger.Warn("Request failed",
			zap.ByteString("uri", ctx.RequestURI()), zap.String("kind", domain.Kind(err)), zap.Error(err))
	} else {
		h.logger.Debug("Request rejected",
			zap.ByteString("uri", ctx.RequestURI()), zap.String("kind", domain.Kind(err)), zap.Error(err))
	}
	h.writeJSON(ctx, status, ErrorResponse{
		Error: err.Error(),
		Kind:  domain.Kind(err),
		Help:  domain.Help(err),
	})
}

// statusFor maps a failure to its HTTP status; provider and transport failures are 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProviderAbsent):
		return fasthttp.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUserRejected):
		return fasthttp.StatusForbidden
	case errors.Is(err, domain.ErrRequestAlreadyPending), errors.Is(err, domain.ErrNoAccounts):
		return fasthttp.StatusConflict
	case errors.Is(err, domain.ErrInvalidNetworkConfig):
		return fasthttp.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrInvalidInput):
		return fasthttp.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return fasthttp.StatusNotFound
	default:
		return fasthttp.StatusBadGateway
	}
}
