package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"nav_checker/internal/app/port"
	"nav_checker/internal/app/provider"
	"nav_checker/internal/app/service"
	"nav_checker/internal/domain/entity"
	"nav_checker/internal/infrastructure/configloader"
	"nav_checker/internal/infrastructure/quoter"
	"nav_checker/internal/infrastructure/restapi"
	navrpc "nav_checker/internal/infrastructure/rpc"
	"nav_checker/internal/infrastructure/tokenlist"
	"nav_checker/internal/infrastructure/tokenmeta"
	"nav_checker/internal/pkg/logger"
	"nav_checker/internal/pkg/metrics"
	"nav_checker/internal/pkg/utils"
)

func main() {
	// Bootstrap logging for the config phase; the zap logger takes over
	// once the configured level is known.
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yml")
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(cfg.Logging.Level, false)
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()
	logger.InitSlogBridge(zapLogger)
	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	endpointCfg, err := navrpc.ParseEndpointConfiguration(cfg.Chain.Endpoints)
	if err != nil {
		zapLogger.Fatal("Invalid endpoint configuration", zap.Error(err))
	}
	rpcClient, err := navrpc.NewFailoverClient(ctx, endpointCfg, navrpc.FailoverConfig{
		Retries:           cfg.RPCClient.MaxRetries,
		SwitchoverSleep:   time.Duration(cfg.RPCClient.SwitchoverSleepSeconds) * time.Second,
		BackoffFactor:     cfg.RPCClient.BackoffFactor,
		RequestsPerSecond: cfg.RPCClient.RequestsPerSecond,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect JSON-RPC providers", zap.Error(err))
	}
	defer rpcClient.Close()

	chainID, err := rpcClient.ChainID(ctx)
	if err != nil {
		zapLogger.Fatal("Failed to read chain id", zap.Error(err))
	}
	if chainID != cfg.Chain.ChainID {
		zapLogger.Fatal("Connected chain does not match configuration",
			zap.Uint64("configured", cfg.Chain.ChainID),
			zap.Uint64("connected", chainID))
	}

	metadataCache := gocache.New(gocache.NoExpiration, gocache.NoExpiration)
	tokenReader := tokenmeta.NewReader(rpcClient, chainID, metadataCache, zapLogger)

	denomination, err := tokenReader.FetchTokenInfo(ctx, common.HexToAddress(cfg.Vault.DenominationToken))
	if err != nil {
		zapLogger.Fatal("Failed to resolve denomination token", zap.Error(err))
	}
	intermediaries := make([]entity.TokenInfo, 0, len(cfg.Vault.Intermediaries))
	for _, addr := range cfg.Vault.Intermediaries {
		info, err := tokenReader.FetchTokenInfo(ctx, common.HexToAddress(addr))
		if err != nil {
			zapLogger.Fatal("Failed to resolve intermediary token",
				zap.String("address", addr), zap.Error(err))
		}
		intermediaries = append(intermediaries, info)
	}

	var quoters []entity.Quoter
	if cfg.Valuation.UniswapV2Router != "" {
		quoters = append(quoters, quoter.NewUniswapV2Quoter(common.HexToAddress(cfg.Valuation.UniswapV2Router)))
	}
	if cfg.Valuation.UniswapV3Quoter != "" {
		quoters = append(quoters, quoter.NewUniswapV3Quoter(common.HexToAddress(cfg.Valuation.UniswapV3Quoter), cfg.Valuation.FeeTiers))
	}

	executor := navrpc.NewMulticallExecutor(rpcClient, cfg.Valuation.BatchSize, cfg.Valuation.MaxParallelBatches, zapLogger)
	calculator := service.NewNetAssetValueCalculator(denomination, intermediaries, quoters, executor, tokenReader, zapLogger)
	portfolioSvc := service.NewPortfolioService(tokenReader, zapLogger)

	var universeProviders []port.UniverseProvider
	if cfg.TokenList.URL != "" {
		universeProviders = append(universeProviders, tokenlist.NewClient(
			cfg.TokenList.URL, chainID,
			time.Duration(cfg.TokenList.TimeoutSeconds)*time.Second, zapLogger))
	}
	if len(cfg.TokenList.StaticTokens) > 0 {
		universeProviders = append(universeProviders, provider.NewStaticUniverseProvider(cfg.TokenList.StaticTokens))
	}
	universeProvider := provider.NewCompositeUniverseProvider(universeProviders...)

	runner := service.NewValuationRunner(
		common.HexToAddress(cfg.Vault.Address),
		universeProvider, portfolioSvc, calculator, rpcClient, zapLogger)

	handler := restapi.NewValuationHandler(runner, zapLogger)
	router := restapi.SetupRouter(handler, zapLogger, restapi.RouterOptions{
		SwaggerEnabled: cfg.Swagger.Enabled,
		SwaggerPath:    cfg.Swagger.Path,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}
