package quoter

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"nav_checker/internal/domain/entity"
)

// Minimal QuoterV2 ABI for quoteExactInput.
const uniswapV3QuoterABI = `[{"inputs":[{"internalType":"bytes","name":"path","type":"bytes"},{"internalType":"uint256","name":"amountIn","type":"uint256"}],"name":"quoteExactInput","outputs":[{"internalType":"uint256","name":"amountOut","type":"uint256"},{"internalType":"uint160[]","name":"sqrtPriceX96AfterList","type":"uint160[]"},{"internalType":"uint32[]","name":"initializedTicksCrossedList","type":"uint32[]"},{"internalType":"uint256","name":"gasEstimate","type":"uint256"}],"stateMutability":"nonpayable","type":"function"}]`

var (
	parsedV3ABI abi.ABI
	parsedV3Err error
	parsedV3    sync.Once
)

func v3ABIInstance() (abi.ABI, error) {
	parsedV3.Do(func() {
		parsedV3ABI, parsedV3Err = abi.JSON(strings.NewReader(uniswapV3QuoterABI))
	})
	return parsedV3ABI, parsedV3Err
}

// DefaultFeeTiers are the standard concentrated-liquidity fee tiers tried
// per pair, in priority order: 0.05%, 0.3%, 1%.
var DefaultFeeTiers = []uint32{500, 3000, 10000}

// UniswapV3Quoter simulates sells through the QuoterV2 periphery contract
// using quoteExactInput over a packed path. Pools are segregated by fee
// tier, so each candidate pair expands into one route per configured tier.
type UniswapV3Quoter struct {
	quoter   common.Address
	feeTiers []uint32
}

// NewUniswapV3Quoter binds a quoter to a QuoterV2 deployment. A nil or
// empty feeTiers falls back to DefaultFeeTiers.
func NewUniswapV3Quoter(quoterContract common.Address, feeTiers []uint32) *UniswapV3Quoter {
	if len(feeTiers) == 0 {
		feeTiers = DefaultFeeTiers
	}
	return &UniswapV3Quoter{quoter: quoterContract, feeTiers: feeTiers}
}

func (q *UniswapV3Quoter) Name() string {
	return "UniswapV3Quoter"
}

// QuoterContract returns the bound QuoterV2 contract address.
func (q *UniswapV3Quoter) QuoterContract() common.Address {
	return q.quoter
}

// CreateRoutes expands the pair into one route per fee tier. All hops of a
// two-hop route share the tier.
func (q *UniswapV3Quoter) CreateRoutes(source, target entity.TokenInfo, intermediary *entity.TokenInfo) []entity.Route {
	hops := 1
	if intermediary != nil {
		hops = 2
	}
	routes := make([]entity.Route, 0, len(q.feeTiers))
	for _, tier := range q.feeTiers {
		fees := make([]uint32, hops)
		for i := range fees {
			fees[i] = tier
		}
		routes = append(routes, entity.Route{
			Source:       source,
			Target:       target,
			Intermediary: intermediary,
			Fees:         fees,
			Quoter:       q,
		})
	}
	return routes
}

func (q *UniswapV3Quoter) CreateBatchCall(route entity.Route, amountIn *big.Int) (entity.BatchCall, error) {
	quoterABI, err := v3ABIInstance()
	if err != nil {
		return entity.BatchCall{}, err
	}
	path, err := EncodePath(route.Path(), route.Fees)
	if err != nil {
		return entity.BatchCall{}, fmt.Errorf("failed to encode path for %s: %w", route.PathLabel(), err)
	}
	callData, err := quoterABI.Pack("quoteExactInput", path, amountIn)
	if err != nil {
		return entity.BatchCall{}, fmt.Errorf("failed to encode quoteExactInput for %s: %w", route.PathLabel(), err)
	}
	return entity.BatchCall{
		Route:    route,
		AmountIn: amountIn,
		Target:   q.quoter,
		CallData: callData,
	}, nil
}

// InterpretResult decodes the amountOut of quoteExactInput; the price
// impact and gas fields are discarded.
func (q *UniswapV3Quoter) InterpretResult(route entity.Route, returnData []byte) (*big.Int, error) {
	quoterABI, err := v3ABIInstance()
	if err != nil {
		return nil, err
	}
	unpacked, err := quoterABI.Unpack("quoteExactInput", returnData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode quoteExactInput result for %s: %w", route.PathLabel(), err)
	}
	return abi.ConvertType(unpacked[0], new(big.Int)).(*big.Int), nil
}

// EncodePath packs a token path with per-hop fee tiers into the byte
// layout quoteExactInput expects: 20-byte token address, 3-byte big-endian
// fee, repeated, terminated by the final token address. One hop encodes to
// 43 bytes, two hops to 66.
func EncodePath(tokens []common.Address, fees []uint32) ([]byte, error) {
	if len(tokens) < 2 {
		return nil, fmt.Errorf("path needs at least two tokens, got %d", len(tokens))
	}
	if len(fees) != len(tokens)-1 {
		return nil, fmt.Errorf("path with %d tokens needs %d fees, got %d", len(tokens), len(tokens)-1, len(fees))
	}

	encoded := make([]byte, 0, len(tokens)*common.AddressLength+len(fees)*3)
	for i, fee := range fees {
		encoded = append(encoded, tokens[i].Bytes()...)
		encoded = append(encoded, byte(fee>>16), byte(fee>>8), byte(fee))
	}
	encoded = append(encoded, tokens[len(tokens)-1].Bytes()...)
	return encoded, nil
}
