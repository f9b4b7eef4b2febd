package tokenmeta

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var (
	usdcAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	mkrAddr  = common.HexToAddress("0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2")
)

// fakeBatchCaller answers metadata and balance batches from canned data.
type fakeBatchCaller struct {
	symbolData   []byte
	decimalsData []byte
	balances     map[common.Address]*big.Int
	failing      map[common.Address]error

	batches int
	blocks  []string
}

func (f *fakeBatchCaller) BatchCallContext(ctx context.Context, b []gethrpc.BatchElem) error {
	f.batches++
	for i := range b {
		args := b[i].Args[0].(map[string]any)
		to := args["to"].(common.Address)
		data := args["data"].(hexutil.Bytes)
		f.blocks = append(f.blocks, b[i].Args[1].(string))

		if err, ok := f.failing[to]; ok {
			b[i].Error = err
			continue
		}

		tokenABI, _ := erc20ABIInstance()
		var out []byte
		switch {
		case len(data) >= 4 && string(data[:4]) == string(tokenABI.Methods["symbol"].ID):
			out = f.symbolData
		case len(data) >= 4 && string(data[:4]) == string(tokenABI.Methods["decimals"].ID):
			out = f.decimalsData
		case len(data) >= 4 && string(data[:4]) == string(tokenABI.Methods["balanceOf"].ID):
			out = common.LeftPadBytes(f.balances[to].Bytes(), 32)
		}
		*b[i].Result.(*hexutil.Bytes) = out
	}
	return nil
}

func packedSymbol(t *testing.T, symbol string) []byte {
	t.Helper()
	tokenABI, err := erc20ABIInstance()
	if err != nil {
		t.Fatal(err)
	}
	out, err := tokenABI.Methods["symbol"].Outputs.Pack(symbol)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestFetchTokenInfoCachesMetadata(t *testing.T) {
	caller := &fakeBatchCaller{
		symbolData:   packedSymbol(t, "USDC"),
		decimalsData: common.LeftPadBytes([]byte{6}, 32),
	}
	reader := NewReader(caller, 1, gocache.New(gocache.NoExpiration, gocache.NoExpiration), zap.NewNop())

	info, err := reader.FetchTokenInfo(context.Background(), usdcAddr)
	if err != nil {
		t.Fatalf("FetchTokenInfo: %v", err)
	}
	if info.Symbol != "USDC" || info.Decimals != 6 || info.ChainID != 1 {
		t.Errorf("info = %+v", info)
	}

	// Second fetch is served from cache without another batch.
	if _, err := reader.FetchTokenInfo(context.Background(), usdcAddr); err != nil {
		t.Fatalf("cached FetchTokenInfo: %v", err)
	}
	if caller.batches != 1 {
		t.Errorf("dispatched %d batches, want 1", caller.batches)
	}
}

func TestFetchTokenInfoBytes32SymbolFallback(t *testing.T) {
	// MKR-style token returning symbol as a right-padded bytes32.
	raw := make([]byte, 32)
	copy(raw, "MKR")
	caller := &fakeBatchCaller{
		symbolData:   raw,
		decimalsData: common.LeftPadBytes([]byte{18}, 32),
	}
	reader := NewReader(caller, 1, gocache.New(gocache.NoExpiration, gocache.NoExpiration), zap.NewNop())

	info, err := reader.FetchTokenInfo(context.Background(), mkrAddr)
	if err != nil {
		t.Fatalf("FetchTokenInfo: %v", err)
	}
	if info.Symbol != "MKR" {
		t.Errorf("symbol = %q, want MKR", info.Symbol)
	}
}

func TestFetchTokenInfoPropagatesCallErrors(t *testing.T) {
	caller := &fakeBatchCaller{
		failing: map[common.Address]error{usdcAddr: errors.New("execution reverted")},
	}
	reader := NewReader(caller, 1, gocache.New(gocache.NoExpiration, gocache.NoExpiration), zap.NewNop())

	if _, err := reader.FetchTokenInfo(context.Background(), usdcAddr); err == nil {
		t.Fatal("metadata call errors must surface to the caller")
	}
}

func TestFetchBalancesPinnedToBlock(t *testing.T) {
	caller := &fakeBatchCaller{
		balances: map[common.Address]*big.Int{
			usdcAddr: big.NewInt(350_000),
			mkrAddr:  new(big.Int),
		},
	}
	reader := NewReader(caller, 1, gocache.New(gocache.NoExpiration, gocache.NoExpiration), zap.NewNop())

	holder := common.HexToAddress("0x7d704507b76571a51d9caE8AdDAbBFd0ba0e63d3")
	balances, err := reader.FetchBalances(context.Background(), holder, []common.Address{usdcAddr, mkrAddr}, 21_000_000)
	if err != nil {
		t.Fatalf("FetchBalances: %v", err)
	}

	if got := balances[usdcAddr]; got.Cmp(big.NewInt(350_000)) != 0 {
		t.Errorf("USDC balance = %s", got)
	}
	if got := balances[mkrAddr]; got.Sign() != 0 {
		t.Errorf("MKR balance = %s, want 0", got)
	}
	want := hexutil.EncodeUint64(21_000_000)
	for _, tag := range caller.blocks {
		if tag != want {
			t.Errorf("balance call at %s, want pinned block %s", tag, want)
		}
	}
}

func TestFetchBalancesAbsorbsPerTokenErrors(t *testing.T) {
	caller := &fakeBatchCaller{
		balances: map[common.Address]*big.Int{usdcAddr: big.NewInt(350_000)},
		failing:  map[common.Address]error{mkrAddr: errors.New("execution reverted")},
	}
	reader := NewReader(caller, 1, gocache.New(gocache.NoExpiration, gocache.NoExpiration), zap.NewNop())

	balances, err := reader.FetchBalances(context.Background(), common.Address{}, []common.Address{usdcAddr, mkrAddr}, 1)
	if err != nil {
		t.Fatalf("per-token errors must not fail the batch: %v", err)
	}
	if got := balances[mkrAddr]; got == nil || got.Sign() != 0 {
		t.Errorf("failed token balance = %v, want zero", got)
	}
	if got := balances[usdcAddr]; got.Cmp(big.NewInt(350_000)) != 0 {
		t.Errorf("sibling balance = %s", got)
	}
}
