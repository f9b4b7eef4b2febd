// navcalc runs one NAV valuation pass against a live chain and prints the
// result with full route diagnostics. Intended for operators checking why
// a vault position is or is not being priced.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gocache "github.com/patrickmn/go-cache"
	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"

	"nav_checker/internal/app/port"
	"nav_checker/internal/app/provider"
	"nav_checker/internal/app/service"
	"nav_checker/internal/domain/entity"
	"nav_checker/internal/infrastructure/configloader"
	"nav_checker/internal/infrastructure/quoter"
	navrpc "nav_checker/internal/infrastructure/rpc"
	"nav_checker/internal/infrastructure/tokenlist"
	"nav_checker/internal/infrastructure/tokenmeta"
	"nav_checker/internal/pkg/utils"
)

func main() {
	configPath := flag.String("config", utils.GetEnv("CONFIG_PATH", "config/config.yml"), "path to the YAML configuration")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall pass deadline")
	flag.Parse()

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	slog.SetDefault(slog.New(slogzap.Option{Level: slog.LevelDebug, Logger: zapLogger}.NewZapHandler()))

	cfg, err := configloader.Load(*configPath)
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
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

	metadataCache := gocache.New(gocache.NoExpiration, gocache.NoExpiration)
	tokenReader := tokenmeta.NewReader(rpcClient, chainID, metadataCache, zapLogger)

	denomination, err := tokenReader.FetchTokenInfo(ctx, common.HexToAddress(cfg.Vault.DenominationToken))
	if err != nil {
		zapLogger.Fatal("Failed to resolve denomination token", zap.Error(err))
	}
	var intermediaries []entity.TokenInfo
	for _, addr := range cfg.Vault.Intermediaries {
		info, err := tokenReader.FetchTokenInfo(ctx, common.HexToAddress(addr))
		if err != nil {
			zapLogger.Fatal("Failed to resolve intermediary token", zap.String("address", addr), zap.Error(err))
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

	runner := service.NewValuationRunner(
		common.HexToAddress(cfg.Vault.Address),
		provider.NewCompositeUniverseProvider(universeProviders...),
		portfolioSvc, calculator, rpcClient, zapLogger)

	valuation, err := runner.RunValuation(ctx)
	if err != nil {
		zapLogger.Fatal("Valuation failed", zap.Error(err))
	}
	report, err := runner.RunDiagnostics(ctx)
	if err != nil {
		zapLogger.Fatal("Route diagnostics failed", zap.Error(err))
	}

	fmt.Printf("Vault:          %s\n", cfg.Vault.Address)
	fmt.Printf("Block:          %d\n", valuation.BlockNumber)
	fmt.Printf("Denomination:   %s\n", valuation.DenominationToken.Symbol)
	fmt.Printf("Total equity:   %s %s\n", valuation.TotalEquity().String(), valuation.DenominationToken.Symbol)
	if unvalued := valuation.UnvaluedTokens(); len(unvalued) > 0 {
		fmt.Printf("Unvalued:       %d token(s) excluded from total equity\n", len(unvalued))
	}
	fmt.Println()
	fmt.Println(report.Format())
}
