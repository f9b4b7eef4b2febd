package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"nav_checker/internal/app/port"
	"nav_checker/internal/domain/entity"
	"nav_checker/internal/pkg/metrics"
)

// BlockNumberReader reads the current chain head.
type BlockNumberReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// ValuationRunner ties universe discovery, portfolio snapshotting and NAV
// calculation into one pass pinned to a single block.
type ValuationRunner struct {
	vault     common.Address
	universe  port.UniverseProvider
	portfolio port.PortfolioReader
	valuation port.ValuationService
	blocks    BlockNumberReader
	logger    *zap.Logger
}

// NewValuationRunner creates a runner for one vault.
func NewValuationRunner(
	vault common.Address,
	universe port.UniverseProvider,
	portfolio port.PortfolioReader,
	valuation port.ValuationService,
	blocks BlockNumberReader,
	logger *zap.Logger,
) *ValuationRunner {
	return &ValuationRunner{
		vault:     vault,
		universe:  universe,
		portfolio: portfolio,
		valuation: valuation,
		blocks:    blocks,
		logger:    logger.Named("ValuationRunner"),
	}
}

// RunValuation performs one full NAV pass at the latest block.
func (r *ValuationRunner) RunValuation(ctx context.Context) (*entity.PortfolioValuation, error) {
	started := time.Now()
	portfolio, err := r.snapshot(ctx)
	if err != nil {
		metrics.ValuationPassesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	valuation, err := r.valuation.CalculateMarketSellNAV(ctx, portfolio)
	if err != nil {
		metrics.ValuationPassesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	for range valuation.UnvaluedTokens() {
		metrics.UnvaluedTokensTotal.Inc()
	}
	metrics.ValuationPassesTotal.WithLabelValues("ok").Inc()
	metrics.ValuationDurationSeconds.Observe(time.Since(started).Seconds())
	return valuation, nil
}

// RunDiagnostics performs one routing pass at the latest block, keeping
// every candidate route with its outcome.
func (r *ValuationRunner) RunDiagnostics(ctx context.Context) (*entity.RouteReport, error) {
	portfolio, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return r.valuation.CreateRouteDiagnostics(ctx, portfolio)
}

func (r *ValuationRunner) snapshot(ctx context.Context) (*entity.Portfolio, error) {
	universe, err := r.universe.FetchUniverse(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trading universe: %w", err)
	}

	blockNumber, err := r.blocks.LatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain head: %w", err)
	}

	r.logger.Debug("Starting valuation pass",
		zap.String("vault", r.vault.Hex()),
		zap.Uint64("block", blockNumber),
		zap.Int("universeTokens", len(universe.SpotTokenAddresses)))
	return r.portfolio.FetchPortfolio(ctx, r.vault, universe, blockNumber)
}
