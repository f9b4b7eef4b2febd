// Package quoter provides swap price simulators for constant-product and
// concentrated-liquidity AMMs. A quoter encodes a read-only sell simulation
// for a route, hands it to the batch executor and decodes the raw result
// back into an output amount.
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

// Minimal UniswapV2Router02 ABI for getAmountsOut.
const uniswapV2RouterABI = `[{"constant":true,"inputs":[{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"address[]","name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],"payable":false,"stateMutability":"view","type":"function"}]`

var (
	parsedV2ABI abi.ABI
	parsedV2Err error
	parsedV2    sync.Once
)

func v2ABIInstance() (abi.ABI, error) {
	parsedV2.Do(func() {
		parsedV2ABI, parsedV2Err = abi.JSON(strings.NewReader(uniswapV2RouterABI))
	})
	return parsedV2ABI, parsedV2Err
}

// UniswapV2Quoter simulates sells through a UniswapV2Router02-compatible
// router using getAmountsOut. Constant-product pools carry no fee tiers, so
// each (source, target, intermediary) triple yields exactly one route.
type UniswapV2Quoter struct {
	router common.Address
}

// NewUniswapV2Quoter binds a quoter to a router deployment.
func NewUniswapV2Quoter(router common.Address) *UniswapV2Quoter {
	return &UniswapV2Quoter{router: router}
}

func (q *UniswapV2Quoter) Name() string {
	return "UniswapV2Router02Quoter"
}

// Router returns the bound router contract address.
func (q *UniswapV2Quoter) Router() common.Address {
	return q.router
}

func (q *UniswapV2Quoter) CreateRoutes(source, target entity.TokenInfo, intermediary *entity.TokenInfo) []entity.Route {
	return []entity.Route{{
		Source:       source,
		Target:       target,
		Intermediary: intermediary,
		Quoter:       q,
	}}
}

func (q *UniswapV2Quoter) CreateBatchCall(route entity.Route, amountIn *big.Int) (entity.BatchCall, error) {
	routerABI, err := v2ABIInstance()
	if err != nil {
		return entity.BatchCall{}, err
	}
	callData, err := routerABI.Pack("getAmountsOut", amountIn, route.Path())
	if err != nil {
		return entity.BatchCall{}, fmt.Errorf("failed to encode getAmountsOut for %s: %w", route.PathLabel(), err)
	}
	return entity.BatchCall{
		Route:    route,
		AmountIn: amountIn,
		Target:   q.router,
		CallData: callData,
	}, nil
}

// InterpretResult decodes the amounts array of getAmountsOut; the last
// element is the output in the route's target token.
func (q *UniswapV2Quoter) InterpretResult(route entity.Route, returnData []byte) (*big.Int, error) {
	routerABI, err := v2ABIInstance()
	if err != nil {
		return nil, err
	}
	unpacked, err := routerABI.Unpack("getAmountsOut", returnData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode getAmountsOut result for %s: %w", route.PathLabel(), err)
	}
	amounts := *abi.ConvertType(unpacked[0], new([]*big.Int)).(*[]*big.Int)
	if len(amounts) != len(route.Path()) {
		return nil, fmt.Errorf("getAmountsOut returned %d amounts for a %d-token path", len(amounts), len(route.Path()))
	}
	return amounts[len(amounts)-1], nil
}
