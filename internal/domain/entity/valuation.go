package entity

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// SpotValuation is one token's contribution to the portfolio NAV, expressed
// in denomination-token units. Valued is false when no route produced a
// positive quote; such entries are still enumerated so callers can see
// unpriced assets instead of silently losing them.
type SpotValuation struct {
	Token   TokenInfo       `json:"token"`
	Balance decimal.Decimal `json:"balance"`
	Value   decimal.Decimal `json:"value"`
	Valued  bool            `json:"valued"`

	// RouteLabel is the winning route's path label, empty when unvalued.
	RouteLabel string `json:"route,omitempty"`
}

// PortfolioValuation is the read-only result of one valuation pass.
type PortfolioValuation struct {
	DenominationToken TokenInfo                         `json:"denominationToken"`
	BlockNumber       uint64                            `json:"blockNumber"`
	SpotValuations    map[common.Address]SpotValuation  `json:"spotValuations"`
}

// TotalEquity sums all valued spot valuations. Unvalued entries are
// excluded from the total but remain enumerated in SpotValuations.
func (v *PortfolioValuation) TotalEquity() decimal.Decimal {
	total := decimal.Zero
	for _, sv := range v.SpotValuations {
		if sv.Valued {
			total = total.Add(sv.Value)
		}
	}
	return total
}

// UnvaluedTokens returns the tokens no route could price.
func (v *PortfolioValuation) UnvaluedTokens() []TokenInfo {
	var out []TokenInfo
	for _, sv := range v.SpotValuations {
		if !sv.Valued {
			out = append(out, sv.Token)
		}
	}
	return out
}
