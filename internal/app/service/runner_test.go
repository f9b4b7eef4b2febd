package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"nav_checker/internal/domain/entity"
)

type fakeUniverse struct {
	universe entity.TradingUniverse
	err      error
}

func (f *fakeUniverse) FetchUniverse(ctx context.Context) (entity.TradingUniverse, error) {
	return f.universe, f.err
}

type fakePortfolioReader struct {
	gotVault common.Address
	gotBlock uint64
}

func (f *fakePortfolioReader) FetchPortfolio(ctx context.Context, vault common.Address, universe entity.TradingUniverse, blockNumber uint64) (*entity.Portfolio, error) {
	f.gotVault = vault
	f.gotBlock = blockNumber
	return &entity.Portfolio{
		VaultAddress: vault,
		BlockNumber:  blockNumber,
		SpotERC20: map[common.Address]decimal.Decimal{
			usdc.Address: decimal.RequireFromString("0.35"),
		},
	}, nil
}

type fakeValuation struct {
	gotBlock uint64
}

func (f *fakeValuation) CalculateMarketSellNAV(ctx context.Context, portfolio *entity.Portfolio) (*entity.PortfolioValuation, error) {
	f.gotBlock = portfolio.BlockNumber
	return &entity.PortfolioValuation{
		DenominationToken: usdc,
		BlockNumber:       portfolio.BlockNumber,
		SpotValuations:    map[common.Address]entity.SpotValuation{},
	}, nil
}

func (f *fakeValuation) CreateRouteDiagnostics(ctx context.Context, portfolio *entity.Portfolio) (*entity.RouteReport, error) {
	return &entity.RouteReport{BlockNumber: portfolio.BlockNumber}, nil
}

type fakeBlocks struct {
	head uint64
	err  error
}

func (f *fakeBlocks) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return f.head, f.err
}

func TestRunValuationPinsOneBlock(t *testing.T) {
	vault := common.HexToAddress("0x7d704507b76571a51d9caE8AdDAbBFd0ba0e63d3")
	reader := &fakePortfolioReader{}
	valuation := &fakeValuation{}
	runner := NewValuationRunner(
		vault,
		&fakeUniverse{universe: entity.TradingUniverse{SpotTokenAddresses: []common.Address{usdc.Address}}},
		reader, valuation,
		&fakeBlocks{head: 21_000_000},
		zap.NewNop())

	result, err := runner.RunValuation(context.Background())
	if err != nil {
		t.Fatalf("RunValuation: %v", err)
	}
	if reader.gotVault != vault {
		t.Errorf("portfolio read for %s, want the configured vault", reader.gotVault.Hex())
	}
	if reader.gotBlock != 21_000_000 || valuation.gotBlock != 21_000_000 || result.BlockNumber != 21_000_000 {
		t.Errorf("block not pinned through the pass: read=%d valued=%d result=%d",
			reader.gotBlock, valuation.gotBlock, result.BlockNumber)
	}
}

func TestRunValuationSurfacesUniverseErrors(t *testing.T) {
	runner := NewValuationRunner(
		common.Address{},
		&fakeUniverse{err: errors.New("token list unavailable")},
		&fakePortfolioReader{}, &fakeValuation{},
		&fakeBlocks{head: 1},
		zap.NewNop())

	if _, err := runner.RunValuation(context.Background()); err == nil {
		t.Fatal("universe resolution errors must fail the pass")
	}
}

func TestRunDiagnostics(t *testing.T) {
	runner := NewValuationRunner(
		common.Address{},
		&fakeUniverse{},
		&fakePortfolioReader{}, &fakeValuation{},
		&fakeBlocks{head: 42},
		zap.NewNop())

	report, err := runner.RunDiagnostics(context.Background())
	if err != nil {
		t.Fatalf("RunDiagnostics: %v", err)
	}
	if report.BlockNumber != 42 {
		t.Errorf("report block = %d, want 42", report.BlockNumber)
	}
}
