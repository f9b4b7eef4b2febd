package entity

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type stubQuoter struct {
	name string
}

func (q *stubQuoter) Name() string { return q.name }

func (q *stubQuoter) CreateRoutes(source, target TokenInfo, intermediary *TokenInfo) []Route {
	return []Route{{Source: source, Target: target, Intermediary: intermediary, Quoter: q}}
}

func (q *stubQuoter) CreateBatchCall(route Route, amountIn *big.Int) (BatchCall, error) {
	return BatchCall{Route: route, AmountIn: amountIn}, nil
}

func (q *stubQuoter) InterpretResult(route Route, returnData []byte) (*big.Int, error) {
	return new(big.Int).SetBytes(returnData), nil
}

var (
	testUSDC = TokenInfo{ChainID: 1, Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Symbol: "USDC", Decimals: 6}
	testWETH = TokenInfo{ChainID: 1, Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Symbol: "WETH", Decimals: 18}
	testDINO = TokenInfo{ChainID: 1, Address: common.HexToAddress("0xD100000000000000000000000000000000000001"), Symbol: "DINO", Decimals: 18}
)

func TestRoutePath(t *testing.T) {
	q := &stubQuoter{name: "stub"}

	direct := Route{Source: testDINO, Target: testUSDC, Quoter: q}
	if got := len(direct.Path()); got != 2 {
		t.Fatalf("direct path length = %d, want 2", got)
	}

	hop := testWETH
	twoHop := Route{Source: testDINO, Target: testUSDC, Intermediary: &hop, Quoter: q}
	path := twoHop.Path()
	if len(path) != 3 {
		t.Fatalf("two-hop path length = %d, want 3", len(path))
	}
	if path[1] != testWETH.Address {
		t.Errorf("intermediary = %s, want %s", path[1].Hex(), testWETH.Address.Hex())
	}
}

func TestRoutePathLabel(t *testing.T) {
	q := &stubQuoter{name: "stub"}
	hop := testWETH
	route := Route{Source: testDINO, Target: testUSDC, Intermediary: &hop, Quoter: q}
	if got := route.PathLabel(); got != "DINO -> WETH -> USDC" {
		t.Errorf("PathLabel() = %q", got)
	}
}

func TestRouteKeyIncludesQuoterAndFees(t *testing.T) {
	q1 := &stubQuoter{name: "quoterA"}
	q2 := &stubQuoter{name: "quoterB"}

	base := Route{Source: testDINO, Target: testUSDC, Quoter: q1}
	sameQuoterWithFee := Route{Source: testDINO, Target: testUSDC, Fees: []uint32{3000}, Quoter: q1}
	otherQuoter := Route{Source: testDINO, Target: testUSDC, Quoter: q2}

	if base.Key() == sameQuoterWithFee.Key() {
		t.Error("fee tier must distinguish route keys")
	}
	if base.Key() == otherQuoter.Key() {
		t.Error("quoter name must distinguish route keys")
	}
}

func TestDeduplicateRoutesKeepsFirstOccurrence(t *testing.T) {
	q := &stubQuoter{name: "stub"}
	direct := Route{Source: testDINO, Target: testUSDC, Quoter: q}
	hop := testWETH
	twoHop := Route{Source: testDINO, Target: testUSDC, Intermediary: &hop, Quoter: q}

	out := DeduplicateRoutes([]Route{direct, twoHop, direct})
	if len(out) != 2 {
		t.Fatalf("got %d routes, want 2", len(out))
	}
	if out[0].Key() != direct.Key() || out[1].Key() != twoHop.Key() {
		t.Error("deduplication must preserve priority order")
	}
}

func TestConvertRoundtrip(t *testing.T) {
	balance := decimal.RequireFromString("547942.000069")
	raw := testDINO.ConvertToRaw(balance)
	want, _ := new(big.Int).SetString("547942000069000000000000", 10)
	if raw.Cmp(want) != 0 {
		t.Fatalf("ConvertToRaw = %s, want %s", raw, want)
	}
	if got := testDINO.ConvertToDecimals(raw); !got.Equal(balance) {
		t.Errorf("ConvertToDecimals = %s, want %s", got, balance)
	}
}
