package http

import (
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	handler "educhain-wallet/internal/adapter/handler/http"
)

// RegisterRoutes sets up the wallet and network routes and the health check.
func RegisterRoutes(r *router.Router, h *handler.WalletHandler, logger *zap.Logger) {
	logger.Info("Setting up application-specific routes...")

	r.GET("/wallet", h.GetWallet)
	r.POST("/wallet/refresh", h.RefreshWallet)
	r.POST("/wallet/connect", h.ConnectWallet)
	r.POST("/wallet/network", h.SwitchNetwork)
	r.GET("/wallet/diagnostics", h.Diagnose)

	r.GET("/network", h.GetNetwork)
	r.GET("/network/faucet", h.GetFaucet)
	r.GET("/network/rpcs", h.GetNetworkRPCs)

	logger.Info("Setting up health check route...")
	r.GET("/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("OK")
	})

	logger.Info("All routes registered.")
}

// LoggingMiddleware logs every request with its status and duration.
func LoggingMiddleware(logger *zap.Logger, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	logger = logger.Named("HTTP")
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		logger.Info("Request handled",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("uri", ctx.RequestURI()),
			zap.Int("statusCode", ctx.Response.StatusCode()),
			zap.Duration("duration", time.Since(start)))
	}
}
