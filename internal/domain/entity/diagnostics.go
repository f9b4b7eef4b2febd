package entity

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// RouteOutcome classifies what happened to one candidate route during a
// valuation pass.
type RouteOutcome int

const (
	// RouteSuccess means the route produced a strictly positive quote and
	// was chosen for the token's valuation.
	RouteSuccess RouteOutcome = iota
	// RouteNoLiquidity means the simulated call succeeded but returned a
	// zero or unusable output amount.
	RouteNoLiquidity
	// RouteReverted means the simulated call reverted on-chain or its
	// result could not be decoded.
	RouteReverted
	// RouteNotAttempted means a higher-priority route for the same token
	// already succeeded.
	RouteNotAttempted
	// RouteTransportFailed means the whole batch carrying the call failed
	// after the connection layer's retries were exhausted.
	RouteTransportFailed
	// RouteIdentity marks the implicit route of the denomination token,
	// which values to its own balance without any quote call.
	RouteIdentity
)

func (o RouteOutcome) String() string {
	switch o {
	case RouteSuccess:
		return "yes"
	case RouteNoLiquidity:
		return "no liquidity"
	case RouteReverted:
		return "reverted"
	case RouteNotAttempted:
		return "not attempted"
	case RouteTransportFailed:
		return "transport failed"
	case RouteIdentity:
		return "identity"
	default:
		return "unknown"
	}
}

// RouteDiagnostic is one row of the route report: a single candidate route
// for a single token and what became of it.
type RouteDiagnostic struct {
	TokenSymbol  string          `json:"tokenSymbol"`
	TokenAddress common.Address  `json:"tokenAddress"`
	Balance      decimal.Decimal `json:"balance"`
	PathLabel    string          `json:"path"`
	QuoterName   string          `json:"quoter,omitempty"`
	Outcome      RouteOutcome    `json:"outcome"`

	// Value is the quoted output in denomination units; zero unless the
	// outcome is RouteSuccess or RouteIdentity.
	Value decimal.Decimal `json:"value"`
}

// RouteReport is the ordered, human-readable account of every route
// considered during one valuation pass: rows are ordered by token, then by
// route priority. Producing a report has no side effects and is safe to
// repeat.
type RouteReport struct {
	BlockNumber uint64            `json:"blockNumber"`
	Rows        []RouteDiagnostic `json:"rows"`
}

// Format renders the report as an aligned text table.
func (r *RouteReport) Format() string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Asset\tPath\tQuoter\tBalance\tWorks\tValue")
	for _, row := range r.Rows {
		value := "-"
		if row.Outcome == RouteSuccess || row.Outcome == RouteIdentity {
			value = row.Value.String()
		}
		quoter := row.QuoterName
		if quoter == "" {
			quoter = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.TokenSymbol, row.PathLabel, quoter, row.Balance.String(), row.Outcome, value)
	}
	w.Flush()
	return sb.String()
}
