package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	deliveryhttp "educhain-wallet/internal/adapter/delivery/http"
	handlerhttp "educhain-wallet/internal/adapter/handler/http"
	"educhain-wallet/internal/adapter/provider"
	"educhain-wallet/internal/adapter/rpc"
	"educhain-wallet/internal/adapter/storage/memory"
	"educhain-wallet/internal/adapter/storage/networks"
	"educhain-wallet/internal/application"
	"educhain-wallet/internal/config"
	domainRepo "educhain-wallet/internal/domain/repository"
	"educhain-wallet/internal/logger"
	"educhain-wallet/internal/pkg/apperrors"
)

func main() {
	// --- Configuration ---
	cfgPath := "configs"
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}

	// --- Logger ---
	appLogger, err := logger.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("Failed to setup logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	appLogger.Info("Logger initialized", zap.Any("config", cfg.Logger))

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Dependency Injection (Manual) ---
	appLogger.Info("Initializing dependencies...")

	registry, err := application.NewNetworkRegistry(appLogger)
	if err != nil {
		appLogger.Fatal("Invalid built-in network configuration", zap.Error(err))
	}
	if err := loadNetworks(rootCtx, registry, cfg.Networks, appLogger); err != nil {
		appLogger.Fatal("Failed to load network descriptors", zap.Error(err))
	}
	if id := cfg.Network.ExpectedChainID; id != "" {
		if err := registry.SelectNetwork(cfg.Network.UseTestnet, id); err != nil {
			appLogger.Fatal("Failed to select expected network", zap.String("chainId", id), zap.Error(err))
		}
	}
	expected := registry.DescribeNetwork(cfg.Network.UseTestnet)
	appLogger.Info("Expected network selected",
		zap.String("name", expected.Name),
		zap.String("chainId", expected.ChainID),
		zap.Bool("testnet", expected.Testnet))

	// Adapters
	bridge := provider.NewBridge(cfg.Provider, appLogger)
	cacheRepo := memory.NewCacheRepository(cfg.Cache, appLogger)
	rpcChecker := rpc.NewChecker(appLogger)

	// Application
	var storeOpts []application.StoreOption
	if cfg.Wallet.SerializeRefresh {
		storeOpts = append(storeOpts, application.WithSerializedRefresh())
	}
	store := application.NewWalletStore(bridge, expected, appLogger, storeOpts...)
	workflow := application.NewConnectionWorkflow(bridge, store, expected, appLogger)
	diagnostics := application.NewDiagnostics(bridge, expected, appLogger)
	healthService := application.NewNetworkHealthService(cacheRepo, rpcChecker, cfg.Checker, appLogger)
	watcher := application.NewEventWatcher(bridge, store, appLogger)

	if _, err := store.Refresh(rootCtx); err != nil {
		appLogger.Warn("Initial wallet refresh failed", zap.Error(err))
	}

	// Handlers
	walletHandler := handlerhttp.NewWalletHandler(
		store, workflow, diagnostics, registry, healthService, cfg.Network.UseTestnet, appLogger,
	)

	// --- HTTP Router & Server ---
	appLogger.Info("Setting up HTTP router...")
	r := router.New()
	deliveryhttp.RegisterRoutes(r, walletHandler, appLogger)

	server := &fasthttp.Server{
		Handler: deliveryhttp.LoggingMiddleware(appLogger, r.Handler),
		Name:    cfg.App.Name,
	}
	serverAddr := ":" + cfg.Server.Port

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		healthService.Start(gctx, expected)
		return nil
	})
	if cfg.Provider.EventsURL != "" {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	} else {
		appLogger.Info("No provider events URL configured, wallet changes are picked up on explicit refresh only")
	}
	g.Go(func() error {
		appLogger.Info("Starting HTTP server", zap.String("address", serverAddr))
		return server.ListenAndServe(serverAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Fatal("Server stopped with error", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

// loadNetworks registers the descriptors of the configured file and Chainlist sources.
func loadNetworks(ctx context.Context, registry *application.NetworkRegistry, cfg config.NetworksConfig, logger *zap.Logger) error {
	var sources []domainRepo.NetworkSource
	if cfg.File != "" {
		sources = append(sources, networks.NewFileSource(cfg.File, logger))
	}
	if cfg.ChainlistURL != "" && len(cfg.ImportChainIDs) > 0 {
		sources = append(sources, networks.NewChainlistSource(cfg, logger))
	}
	if len(sources) == 0 {
		return nil
	}

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := registry.LoadFrom(loadCtx, sources...)
	if errors.Is(err, apperrors.ErrExternalServiceFailure) {
		logger.Warn("Network source unavailable, continuing with registered networks", zap.Error(err))
		return nil
	}
	return err
}
