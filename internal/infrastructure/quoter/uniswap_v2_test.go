package quoter

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"nav_checker/internal/domain/entity"
)

var (
	usdc = entity.TokenInfo{ChainID: 1, Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Symbol: "USDC", Decimals: 6}
	weth = entity.TokenInfo{ChainID: 1, Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Symbol: "WETH", Decimals: 18}
	dino = entity.TokenInfo{ChainID: 1, Address: common.HexToAddress("0xD100000000000000000000000000000000000001"), Symbol: "DINO", Decimals: 18}

	routerAddr = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
)

func TestV2CreateRoutes(t *testing.T) {
	q := NewUniswapV2Quoter(routerAddr)

	direct := q.CreateRoutes(dino, usdc, nil)
	if len(direct) != 1 {
		t.Fatalf("got %d direct routes, want 1", len(direct))
	}
	if direct[0].Fees != nil {
		t.Error("constant-product routes must not carry fee tiers")
	}

	hop := weth
	twoHop := q.CreateRoutes(dino, usdc, &hop)
	if len(twoHop) != 1 {
		t.Fatalf("got %d two-hop routes, want 1", len(twoHop))
	}
	if twoHop[0].PathLabel() != "DINO -> WETH -> USDC" {
		t.Errorf("PathLabel() = %q", twoHop[0].PathLabel())
	}
}

func TestV2BatchCallRoundtrip(t *testing.T) {
	q := NewUniswapV2Quoter(routerAddr)
	route := q.CreateRoutes(dino, usdc, nil)[0]
	amountIn, _ := new(big.Int).SetString("547942000069000000000000", 10)

	call, err := q.CreateBatchCall(route, amountIn)
	if err != nil {
		t.Fatalf("CreateBatchCall: %v", err)
	}
	if call.Target != routerAddr {
		t.Errorf("call target = %s, want the router", call.Target.Hex())
	}

	// Decode our own calldata the way the router contract would.
	routerABI, err := v2ABIInstance()
	if err != nil {
		t.Fatal(err)
	}
	method, err := routerABI.MethodById(call.CallData[:4])
	if err != nil || method.Name != "getAmountsOut" {
		t.Fatalf("unexpected method: %v, %v", method, err)
	}
	inputs, err := method.Inputs.Unpack(call.CallData[4:])
	if err != nil {
		t.Fatalf("failed to decode calldata: %v", err)
	}
	if got := inputs[0].(*big.Int); got.Cmp(amountIn) != 0 {
		t.Errorf("amountIn = %s, want %s", got, amountIn)
	}
	path := inputs[1].([]common.Address)
	if len(path) != 2 || path[0] != dino.Address || path[1] != usdc.Address {
		t.Errorf("path = %v", path)
	}

	// Simulate the contract response and decode it back.
	amounts := []*big.Int{amountIn, big.NewInt(1_234_560_000)}
	returnData, err := method.Outputs.Pack(amounts)
	if err != nil {
		t.Fatal(err)
	}
	out, err := q.InterpretResult(route, returnData)
	if err != nil {
		t.Fatalf("InterpretResult: %v", err)
	}
	if out.Cmp(big.NewInt(1_234_560_000)) != 0 {
		t.Errorf("amountOut = %s, want last amounts element", out)
	}
}

func TestV2InterpretResultRejectsShortPath(t *testing.T) {
	q := NewUniswapV2Quoter(routerAddr)
	route := q.CreateRoutes(dino, usdc, nil)[0]

	routerABI, err := v2ABIInstance()
	if err != nil {
		t.Fatal(err)
	}
	returnData, err := routerABI.Methods["getAmountsOut"].Outputs.Pack([]*big.Int{big.NewInt(1)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := q.InterpretResult(route, returnData); err == nil {
		t.Error("amounts array shorter than the path must be rejected")
	}
}

func TestV2InterpretResultRejectsGarbage(t *testing.T) {
	q := NewUniswapV2Quoter(routerAddr)
	route := q.CreateRoutes(dino, usdc, nil)[0]
	if _, err := q.InterpretResult(route, bytes.Repeat([]byte{0xde}, 7)); err == nil {
		t.Error("undecodable return data must be rejected")
	}
}
