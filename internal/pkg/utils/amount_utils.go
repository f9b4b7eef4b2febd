package utils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatRawAmount renders a raw on-chain amount as a human-readable decimal
// string scaled by the token's decimals.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatRawAmount(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
