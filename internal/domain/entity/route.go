package entity

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Quoter simulates the output amount of a swap along a route without
// submitting a transaction. Implementations are stateless across calls
// beyond their bound router/quoter contract address.
type Quoter interface {
	// Name identifies the quoter variant in route keys and diagnostics.
	Name() string

	// CreateRoutes yields the candidate routes this quoter can attempt for
	// selling source into target. A non-nil intermediary requests two-hop
	// routes through it. The returned order is deterministic.
	CreateRoutes(source, target TokenInfo, intermediary *TokenInfo) []Route

	// CreateBatchCall encodes a full-balance sell simulation for the route
	// into a call that can be scheduled into a multicall batch.
	CreateBatchCall(route Route, amountIn *big.Int) (BatchCall, error)

	// InterpretResult decodes the raw return data of a successful simulated
	// call into the route's output amount.
	InterpretResult(route Route, returnData []byte) (*big.Int, error)
}

// Route is an ordered sell path from a source token into a target token,
// optionally through one intermediary hop, bound to the quoter that will
// simulate it. Routes are value objects: two routes with identical path,
// fee tiers and quoter are the same route within one valuation pass.
type Route struct {
	Source       TokenInfo
	Target       TokenInfo
	Intermediary *TokenInfo

	// Fees holds one fee tier per hop for concentrated-liquidity routes;
	// nil for constant-product routes.
	Fees []uint32

	Quoter Quoter
}

// Path returns the token addresses along the route in swap order.
func (r Route) Path() []common.Address {
	if r.Intermediary != nil {
		return []common.Address{r.Source.Address, r.Intermediary.Address, r.Target.Address}
	}
	return []common.Address{r.Source.Address, r.Target.Address}
}

// PathTokens returns the token metadata along the route in swap order.
func (r Route) PathTokens() []TokenInfo {
	if r.Intermediary != nil {
		return []TokenInfo{r.Source, *r.Intermediary, r.Target}
	}
	return []TokenInfo{r.Source, r.Target}
}

// Key returns the identity of the route within one valuation pass. Routes
// with equal keys are deduplicated and quoted once.
func (r Route) Key() string {
	var sb strings.Builder
	sb.WriteString(r.Quoter.Name())
	for i, hop := range r.Path() {
		sb.WriteByte('-')
		sb.WriteString(strings.ToLower(hop.Hex()))
		if i < len(r.Fees) {
			fmt.Fprintf(&sb, "@%d", r.Fees[i])
		}
	}
	return sb.String()
}

// PathLabel renders the route as a human-readable chain of symbols,
// e.g. "DINO -> WETH -> USDC".
func (r Route) PathLabel() string {
	symbols := make([]string, 0, 3)
	for _, t := range r.PathTokens() {
		symbols = append(symbols, t.Symbol)
	}
	return strings.Join(symbols, " -> ")
}

// DeduplicateRoutes drops later routes with keys already seen, preserving
// the priority order of the first occurrence.
func DeduplicateRoutes(routes []Route) []Route {
	seen := make(map[string]struct{}, len(routes))
	out := make([]Route, 0, len(routes))
	for _, r := range routes {
		key := r.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
