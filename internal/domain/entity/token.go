package entity

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ZeroAddress represents the Ethereum zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// TokenInfo holds the on-chain identity and metadata of an ERC-20 token.
// Instances are immutable once fetched and cached for the process lifetime
// keyed by (chain id, address).
type TokenInfo struct {
	ChainID  uint64
	Address  common.Address
	Symbol   string
	Decimals uint8
}

// CacheKey returns the process-wide cache key for this token's metadata.
func (t TokenInfo) CacheKey() string {
	return fmt.Sprintf("%d-%s", t.ChainID, strings.ToLower(t.Address.Hex()))
}

// Equal reports whether two tokens share the same on-chain identity.
func (t TokenInfo) Equal(other TokenInfo) bool {
	return t.ChainID == other.ChainID && t.Address == other.Address
}

// ConvertToRaw scales a human-readable amount to the token's smallest unit.
// Example: 1.5 WETH (18 decimals) => 1500000000000000000.
func (t TokenInfo) ConvertToRaw(amount decimal.Decimal) *big.Int {
	return amount.Shift(int32(t.Decimals)).BigInt()
}

// ConvertToDecimals scales a raw on-chain amount by the token's decimals.
func (t TokenInfo) ConvertToDecimals(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(t.Decimals))
}

func (t TokenInfo) String() string {
	return fmt.Sprintf("%s (%s)", t.Symbol, t.Address.Hex())
}
