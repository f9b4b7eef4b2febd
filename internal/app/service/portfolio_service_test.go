package service

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"nav_checker/internal/domain/entity"
)

type balanceTokens struct {
	fakeTokens
	balances map[common.Address]*big.Int
	block    uint64
}

func (f *balanceTokens) FetchBalances(ctx context.Context, holder common.Address, tokens []common.Address, blockNumber uint64) (map[common.Address]*big.Int, error) {
	f.block = blockNumber
	out := make(map[common.Address]*big.Int, len(tokens))
	for _, token := range tokens {
		if b, ok := f.balances[token]; ok {
			out[token] = b
		} else {
			out[token] = new(big.Int)
		}
	}
	return out, nil
}

func TestFetchPortfolioScalesBalances(t *testing.T) {
	dinoRaw, _ := new(big.Int).SetString("547942000069000000000000", 10)
	tokens := &balanceTokens{
		fakeTokens: *defaultTokens(),
		balances: map[common.Address]*big.Int{
			usdc.Address: big.NewInt(350_000),
			dino.Address: dinoRaw,
		},
	}
	svc := NewPortfolioService(tokens, zap.NewNop())

	universe := entity.TradingUniverse{SpotTokenAddresses: []common.Address{usdc.Address, weth.Address, dino.Address}}
	portfolio, err := svc.FetchPortfolio(context.Background(), common.HexToAddress("0x7d704507b76571a51d9caE8AdDAbBFd0ba0e63d3"), universe, 21_000_000)
	if err != nil {
		t.Fatalf("FetchPortfolio: %v", err)
	}

	if tokens.block != 21_000_000 {
		t.Errorf("balances read at block %d, want the pinned block", tokens.block)
	}
	if portfolio.BlockNumber != 21_000_000 {
		t.Errorf("portfolio block = %d", portfolio.BlockNumber)
	}
	if portfolio.PositionCount() != 3 {
		t.Fatalf("got %d positions, want zero balances included", portfolio.PositionCount())
	}
	if got := portfolio.SpotERC20[usdc.Address]; !got.Equal(decimal.RequireFromString("0.35")) {
		t.Errorf("USDC balance = %s, want 0.35", got)
	}
	if got := portfolio.SpotERC20[weth.Address]; !got.IsZero() {
		t.Errorf("WETH balance = %s, want 0", got)
	}
	if got := portfolio.SpotERC20[dino.Address]; !got.Equal(decimal.RequireFromString("547942.000069")) {
		t.Errorf("DINO balance = %s", got)
	}
}

func TestFetchPortfolioKeepsRawBalanceWithoutMetadata(t *testing.T) {
	tokens := &balanceTokens{
		fakeTokens: *defaultTokens(),
		balances: map[common.Address]*big.Int{
			dino.Address: big.NewInt(1000),
		},
	}
	tokens.failing[dino.Address] = true
	svc := NewPortfolioService(tokens, zap.NewNop())

	universe := entity.TradingUniverse{SpotTokenAddresses: []common.Address{dino.Address}}
	portfolio, err := svc.FetchPortfolio(context.Background(), common.Address{}, universe, 1)
	if err != nil {
		t.Fatalf("FetchPortfolio: %v", err)
	}
	if got := portfolio.SpotERC20[dino.Address]; !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance = %s, want raw 1000 kept for the unresolvable token", got)
	}
}
