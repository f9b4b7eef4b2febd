package service

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"nav_checker/internal/app/port"
	"nav_checker/internal/domain/entity"
	"nav_checker/internal/pkg/metrics"
)

// NetAssetValueCalculator orchestrates route building, batched quote
// simulation and NAV aggregation for a vault portfolio. One instance is
// bound to a denomination token, an intermediary set and an ordered quoter
// list; valuation passes are read-only and independent of each other.
type NetAssetValueCalculator struct {
	denomination entity.TokenInfo
	catalog      *RouteCatalog
	executor     port.CallExecutor
	tokens       port.TokenMetadataProvider
	logger       *zap.Logger
}

// NewNetAssetValueCalculator creates a calculator. Quoter order is the
// evaluation priority: the first quoter that produces a positive quote for
// a route wins.
func NewNetAssetValueCalculator(
	denomination entity.TokenInfo,
	intermediaries []entity.TokenInfo,
	quoters []entity.Quoter,
	executor port.CallExecutor,
	tokens port.TokenMetadataProvider,
	logger *zap.Logger,
) *NetAssetValueCalculator {
	return &NetAssetValueCalculator{
		denomination: denomination,
		catalog:      NewRouteCatalog(denomination, intermediaries, quoters),
		executor:     executor,
		tokens:       tokens,
		logger:       logger.Named("NetAssetValueCalculator"),
	}
}

// tokenRouting is the per-token plan of one quote pass.
type tokenRouting struct {
	Address common.Address
	Info    entity.TokenInfo
	Balance decimal.Decimal
	Routes  []entity.Route

	// MetadataErr is set when the token's symbol/decimals could not be
	// resolved; such tokens cannot be quoted and degrade to unvalued.
	MetadataErr error
}

// quotePass holds everything one valuation pass dispatched and received.
type quotePass struct {
	BlockNumber uint64
	Tokens      []tokenRouting
	Outcomes    map[string]entity.CallOutcome
}

// CalculateMarketSellNAV values every portfolio position by simulating a
// market sell of the full held balance into the denomination token.
//
// Selling the whole balance in one simulated call deliberately embeds the
// route's price impact into the NAV; no further slippage correction is
// applied. Tokens no route can price carry the unvalued marker and are
// excluded from total equity but still enumerated.
func (c *NetAssetValueCalculator) CalculateMarketSellNAV(ctx context.Context, portfolio *entity.Portfolio) (*entity.PortfolioValuation, error) {
	pass, err := c.runQuotePass(ctx, portfolio)
	if err != nil {
		return nil, err
	}

	valuation := &entity.PortfolioValuation{
		DenominationToken: c.denomination,
		BlockNumber:       portfolio.BlockNumber,
		SpotValuations:    make(map[common.Address]entity.SpotValuation, len(pass.Tokens)),
	}

	for _, routing := range pass.Tokens {
		sv := entity.SpotValuation{
			Token:   routing.Info,
			Balance: routing.Balance,
			Value:   decimal.Zero,
		}

		switch {
		case routing.Address == c.denomination.Address:
			// Implicit identity route: the denomination token is worth
			// exactly its own balance.
			sv.Valued = true
			sv.Value = routing.Balance
			sv.RouteLabel = c.denomination.Symbol
		case routing.MetadataErr != nil:
			sv.Valued = false
		case routing.Balance.Sign() == 0:
			sv.Valued = true
		default:
			winner, amountOut := c.selectWinner(pass, routing)
			if winner != nil {
				sv.Valued = true
				sv.Value = c.denomination.ConvertToDecimals(amountOut)
				sv.RouteLabel = winner.PathLabel()
			}
		}

		if !sv.Valued {
			c.logger.Warn("No route could price token, marking unvalued",
				zap.String("token", routing.Address.Hex()),
				zap.String("balance", routing.Balance.String()))
		}
		valuation.SpotValuations[routing.Address] = sv
	}

	c.logger.Info("Market sell NAV calculated",
		zap.Uint64("block", portfolio.BlockNumber),
		zap.Int("positions", len(valuation.SpotValuations)),
		zap.Int("unvalued", len(valuation.UnvaluedTokens())),
		zap.String("totalEquity", valuation.TotalEquity().String()),
		zap.String("denomination", c.denomination.Symbol))
	return valuation, nil
}

// CreateRouteDiagnostics reruns the valuation routing and retains every
// candidate route with its outcome, ordered by token and then by route
// priority. It performs no mutation and is safe to call repeatedly.
func (c *NetAssetValueCalculator) CreateRouteDiagnostics(ctx context.Context, portfolio *entity.Portfolio) (*entity.RouteReport, error) {
	pass, err := c.runQuotePass(ctx, portfolio)
	if err != nil {
		return nil, err
	}

	report := &entity.RouteReport{BlockNumber: portfolio.BlockNumber}
	for _, routing := range pass.Tokens {
		base := entity.RouteDiagnostic{
			TokenSymbol:  routing.Info.Symbol,
			TokenAddress: routing.Address,
			Balance:      routing.Balance,
			Value:        decimal.Zero,
		}

		switch {
		case routing.Address == c.denomination.Address:
			row := base
			row.PathLabel = c.denomination.Symbol
			row.Outcome = entity.RouteIdentity
			row.Value = routing.Balance
			report.Rows = append(report.Rows, row)
		case routing.MetadataErr != nil:
			row := base
			row.TokenSymbol = routing.Address.Hex()
			row.PathLabel = routing.Address.Hex()
			row.Outcome = entity.RouteReverted
			report.Rows = append(report.Rows, row)
		case routing.Balance.Sign() == 0:
			row := base
			row.PathLabel = routing.Info.Symbol
			row.Outcome = entity.RouteIdentity
			report.Rows = append(report.Rows, row)
		default:
			winnerSeen := false
			for _, route := range routing.Routes {
				row := base
				row.PathLabel = route.PathLabel()
				row.QuoterName = route.Quoter.Name()
				if winnerSeen {
					row.Outcome = entity.RouteNotAttempted
					report.Rows = append(report.Rows, row)
					continue
				}
				outcome, amountOut := c.classifyRoute(pass, route)
				row.Outcome = outcome
				if outcome == entity.RouteSuccess {
					row.Value = c.denomination.ConvertToDecimals(amountOut)
					winnerSeen = true
				}
				report.Rows = append(report.Rows, row)
			}
		}
	}
	return report, nil
}

// runQuotePass builds all candidate routes for the portfolio, dispatches a
// full-balance sell simulation per route through the batch executor at the
// portfolio's block and demultiplexes the outcomes by route key.
func (c *NetAssetValueCalculator) runQuotePass(ctx context.Context, portfolio *entity.Portfolio) (*quotePass, error) {
	if err := c.checkQuotable(portfolio); err != nil {
		return nil, err
	}

	pass := &quotePass{
		BlockNumber: portfolio.BlockNumber,
		Outcomes:    make(map[string]entity.CallOutcome),
	}

	var calls []entity.BatchCall
	for _, addr := range portfolio.Tokens() {
		routing := tokenRouting{
			Address: addr,
			Balance: portfolio.SpotERC20[addr],
		}

		if addr == c.denomination.Address {
			routing.Info = c.denomination
			pass.Tokens = append(pass.Tokens, routing)
			continue
		}

		info, err := c.tokens.FetchTokenInfo(ctx, addr)
		if err != nil {
			c.logger.Warn("Token metadata unavailable, token degrades to unvalued",
				zap.String("token", addr.Hex()), zap.Error(err))
			routing.MetadataErr = err
			pass.Tokens = append(pass.Tokens, routing)
			continue
		}
		routing.Info = info

		// Zero balances value to zero regardless of routing; skip quoting.
		if routing.Balance.Sign() > 0 {
			routing.Routes = c.catalog.BuildRoutes(info)
			rawAmount := info.ConvertToRaw(routing.Balance)
			for _, route := range routing.Routes {
				call, err := route.Quoter.CreateBatchCall(route, rawAmount)
				if err != nil {
					c.logger.Warn("Failed to encode quote call",
						zap.String("route", route.PathLabel()), zap.Error(err))
					continue
				}
				calls = append(calls, call)
			}
		}
		pass.Tokens = append(pass.Tokens, routing)
	}

	outcomes, err := c.executor.Execute(ctx, calls, portfolio.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("quote dispatch failed: %w", err)
	}
	for _, outcome := range outcomes {
		pass.Outcomes[outcome.Route.Key()] = outcome
	}
	return pass, nil
}

// checkQuotable rejects structurally impossible passes before any network
// round trip.
func (c *NetAssetValueCalculator) checkQuotable(portfolio *entity.Portfolio) error {
	if c.catalog.QuoterCount() > 0 {
		return nil
	}
	for addr, balance := range portfolio.SpotERC20 {
		if addr != c.denomination.Address && balance.Sign() > 0 {
			return &entity.FatalValuationError{
				Reason: fmt.Sprintf("no quoters registered but portfolio holds %s", addr.Hex()),
			}
		}
	}
	return nil
}

// selectWinner walks a token's candidate routes in priority order and
// returns the first one whose quote succeeded with a strictly positive
// output, together with the decoded amount. The ordered-attempt walk
// short-circuits on the first success; remaining routes stay diagnostics
// only.
func (c *NetAssetValueCalculator) selectWinner(pass *quotePass, routing tokenRouting) (*entity.Route, *big.Int) {
	for i := range routing.Routes {
		route := routing.Routes[i]
		outcome, amountOut := c.classifyRoute(pass, route)
		if outcome == entity.RouteSuccess {
			return &routing.Routes[i], amountOut
		}
		metrics.QuoteFailuresTotal.WithLabelValues(route.Quoter.Name(), outcome.String()).Inc()
		c.logger.Debug("Route did not produce a usable quote",
			zap.String("route", route.PathLabel()),
			zap.String("quoter", route.Quoter.Name()),
			zap.String("outcome", outcome.String()))
	}
	return nil, nil
}

// classifyRoute maps a route's call outcome to a diagnostic classification
// and, when successful, the decoded output amount.
func (c *NetAssetValueCalculator) classifyRoute(pass *quotePass, route entity.Route) (entity.RouteOutcome, *big.Int) {
	outcome, ok := pass.Outcomes[route.Key()]
	if !ok {
		// Call could not be encoded or was never dispatched.
		return entity.RouteReverted, nil
	}
	if outcome.Err != nil {
		return entity.RouteTransportFailed, nil
	}
	if !outcome.Success {
		return entity.RouteReverted, nil
	}
	amount, err := route.Quoter.InterpretResult(route, outcome.ReturnData)
	if err != nil {
		return entity.RouteReverted, nil
	}
	if amount == nil || amount.Sign() <= 0 {
		return entity.RouteNoLiquidity, nil
	}
	return entity.RouteSuccess, amount
}
