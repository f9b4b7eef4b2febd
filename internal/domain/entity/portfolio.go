package entity

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TradingUniverse is the set of token addresses a valuation pass is allowed
// to consider. It is supplied by the caller and defines which vault balances
// are read; the vault contract itself does not know which tokens it holds.
type TradingUniverse struct {
	SpotTokenAddresses []common.Address
}

// Contains reports whether the given token is part of the universe.
func (u TradingUniverse) Contains(address common.Address) bool {
	for _, a := range u.SpotTokenAddresses {
		if a == address {
			return true
		}
	}
	return false
}

// Portfolio maps held token addresses to exact decimal balances read at a
// single block. A Portfolio is built once per valuation pass and never
// mutated afterwards; re-valuation builds a new one.
type Portfolio struct {
	VaultAddress common.Address
	SpotERC20    map[common.Address]decimal.Decimal
	BlockNumber  uint64
}

// Tokens returns the held token addresses in a deterministic order.
func (p *Portfolio) Tokens() []common.Address {
	tokens := make([]common.Address, 0, len(p.SpotERC20))
	for addr := range p.SpotERC20 {
		tokens = append(tokens, addr)
	}
	sort.Slice(tokens, func(i, j int) bool {
		return strings.ToLower(tokens[i].Hex()) < strings.ToLower(tokens[j].Hex())
	})
	return tokens
}

// PositionCount returns the number of spot positions in the portfolio,
// zero balances included.
func (p *Portfolio) PositionCount() int {
	return len(p.SpotERC20)
}
