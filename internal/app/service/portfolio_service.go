package service

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"nav_checker/internal/app/port"
	"nav_checker/internal/domain/entity"
)

// PortfolioService implements port.PortfolioReader: it reads the vault's
// balance of every universe token in one block-pinned batch and scales the
// raw amounts by each token's decimals.
type PortfolioService struct {
	tokens port.TokenMetadataProvider
	logger *zap.Logger
}

// NewPortfolioService creates a portfolio reader.
func NewPortfolioService(tokens port.TokenMetadataProvider, logger *zap.Logger) *PortfolioService {
	return &PortfolioService{
		tokens: tokens,
		logger: logger.Named("PortfolioService"),
	}
}

// FetchPortfolio builds the vault's holdings snapshot at the given block.
// Zero balances are included so downstream valuation enumerates every
// universe token. Tokens whose metadata cannot be resolved keep their raw
// unscaled amount; they are never priced, only reported.
func (s *PortfolioService) FetchPortfolio(ctx context.Context, vault common.Address, universe entity.TradingUniverse, blockNumber uint64) (*entity.Portfolio, error) {
	raw, err := s.tokens.FetchBalances(ctx, vault, universe.SpotTokenAddresses, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault balances: %w", err)
	}

	portfolio := &entity.Portfolio{
		VaultAddress: vault,
		BlockNumber:  blockNumber,
		SpotERC20:    make(map[common.Address]decimal.Decimal, len(universe.SpotTokenAddresses)),
	}
	for _, token := range universe.SpotTokenAddresses {
		balance, ok := raw[token]
		if !ok {
			portfolio.SpotERC20[token] = decimal.Zero
			continue
		}

		info, err := s.tokens.FetchTokenInfo(ctx, token)
		if err != nil {
			s.logger.Warn("Token metadata unavailable, keeping raw balance",
				zap.String("token", token.Hex()), zap.Error(err))
			portfolio.SpotERC20[token] = decimal.NewFromBigInt(balance, 0)
			continue
		}
		portfolio.SpotERC20[token] = info.ConvertToDecimals(balance)
	}

	s.logger.Debug("Portfolio snapshot taken",
		zap.String("vault", vault.Hex()),
		zap.Uint64("block", blockNumber),
		zap.Int("positions", portfolio.PositionCount()))
	return portfolio, nil
}
