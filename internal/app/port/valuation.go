package port

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"nav_checker/internal/domain/entity"
)

// PortfolioReader builds a block-pinned Portfolio from a vault's on-chain
// balances for a trading universe.
type PortfolioReader interface {
	FetchPortfolio(ctx context.Context, vault common.Address, universe entity.TradingUniverse, blockNumber uint64) (*entity.Portfolio, error)
}

// ValuationService computes NAV and route diagnostics for a portfolio.
type ValuationService interface {
	// CalculateMarketSellNAV values every portfolio position by simulating
	// a full-balance market sell into the denomination token and returns a
	// best-effort valuation with unpriced assets annotated.
	CalculateMarketSellNAV(ctx context.Context, portfolio *entity.Portfolio) (*entity.PortfolioValuation, error)

	// CreateRouteDiagnostics reruns the same routing decisions but retains
	// every candidate route with its outcome. Safe to call repeatedly.
	CreateRouteDiagnostics(ctx context.Context, portfolio *entity.Portfolio) (*entity.RouteReport, error)
}
