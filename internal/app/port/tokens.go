package port

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nav_checker/internal/domain/entity"
)

// TokenMetadataProvider resolves ERC-20 identity and balances. Metadata is
// immutable once fetched and implementations cache it for the process
// lifetime keyed by (chain id, address).
type TokenMetadataProvider interface {
	// FetchTokenInfo resolves a contract address to its symbol and decimal
	// precision.
	FetchTokenInfo(ctx context.Context, address common.Address) (entity.TokenInfo, error)

	// FetchBalances reads the raw balances the holder has in each token,
	// pinned to the given block.
	FetchBalances(ctx context.Context, holder common.Address, tokens []common.Address, blockNumber uint64) (map[common.Address]*big.Int, error)
}

// UniverseProvider resolves the set of token addresses a valuation pass may
// consider.
type UniverseProvider interface {
	FetchUniverse(ctx context.Context) (entity.TradingUniverse, error)
}
