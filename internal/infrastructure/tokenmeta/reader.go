// Package tokenmeta reads ERC-20 identity and balances over batched
// JSON-RPC eth_call requests.
package tokenmeta

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"nav_checker/internal/domain/entity"
)

// Minimal ERC-20 ABI for metadata and balance reads.
const erc20ABI = `[{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"},{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"},{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`

var (
	parsedERC20ABI abi.ABI
	parsedERC20Err error
	parsedERC20    sync.Once
)

func erc20ABIInstance() (abi.ABI, error) {
	parsedERC20.Do(func() {
		parsedERC20ABI, parsedERC20Err = abi.JSON(strings.NewReader(erc20ABI))
	})
	return parsedERC20ABI, parsedERC20Err
}

// BatchCaller issues JSON-RPC batches. *rpc.FailoverClient satisfies it.
type BatchCaller interface {
	BatchCallContext(ctx context.Context, b []gethrpc.BatchElem) error
}

// Reader implements port.TokenMetadataProvider over batched eth_call
// requests. Symbol and decimals are immutable on-chain, so resolved
// metadata is cached for the process lifetime.
type Reader struct {
	client  BatchCaller
	chainID uint64
	cache   *gocache.Cache
	logger  *zap.Logger
}

// NewReader creates a reader. The cache is injected so tooling and the
// daemon can share one instance across calculators.
func NewReader(client BatchCaller, chainID uint64, cache *gocache.Cache, logger *zap.Logger) *Reader {
	return &Reader{
		client:  client,
		chainID: chainID,
		cache:   cache,
		logger:  logger.Named("TokenMetadataReader"),
	}
}

// FetchTokenInfo resolves a contract address to its symbol and decimals,
// serving repeats from cache.
func (r *Reader) FetchTokenInfo(ctx context.Context, address common.Address) (entity.TokenInfo, error) {
	key := entity.TokenInfo{ChainID: r.chainID, Address: address}.CacheKey()
	if cached, ok := r.cache.Get(key); ok {
		return cached.(entity.TokenInfo), nil
	}

	tokenABI, err := erc20ABIInstance()
	if err != nil {
		return entity.TokenInfo{}, err
	}

	symbolData := tokenABI.Methods["symbol"].ID
	decimalsData := tokenABI.Methods["decimals"].ID
	batch := []gethrpc.BatchElem{
		{
			Method: "eth_call",
			Args:   []any{map[string]any{"to": address, "data": hexutil.Bytes(symbolData)}, "latest"},
			Result: new(hexutil.Bytes),
		},
		{
			Method: "eth_call",
			Args:   []any{map[string]any{"to": address, "data": hexutil.Bytes(decimalsData)}, "latest"},
			Result: new(hexutil.Bytes),
		},
	}
	if err := r.client.BatchCallContext(ctx, batch); err != nil {
		return entity.TokenInfo{}, fmt.Errorf("metadata batch for %s failed: %w", address.Hex(), err)
	}
	for _, elem := range batch {
		if elem.Error != nil {
			return entity.TokenInfo{}, fmt.Errorf("metadata call for %s failed: %w", address.Hex(), elem.Error)
		}
	}

	symbol, err := decodeSymbol(tokenABI, *batch[0].Result.(*hexutil.Bytes))
	if err != nil {
		return entity.TokenInfo{}, fmt.Errorf("undecodable symbol for %s: %w", address.Hex(), err)
	}
	decimals, err := decodeDecimals(*batch[1].Result.(*hexutil.Bytes))
	if err != nil {
		return entity.TokenInfo{}, fmt.Errorf("undecodable decimals for %s: %w", address.Hex(), err)
	}

	info := entity.TokenInfo{
		ChainID:  r.chainID,
		Address:  address,
		Symbol:   symbol,
		Decimals: decimals,
	}
	r.cache.Set(key, info, gocache.NoExpiration)
	r.logger.Debug("Resolved token metadata",
		zap.String("address", address.Hex()),
		zap.String("symbol", symbol),
		zap.Uint8("decimals", decimals))
	return info, nil
}

// FetchBalances reads the holder's raw balance of each token in one
// JSON-RPC batch pinned to the given block. A token whose individual call
// fails is reported with a zero balance rather than failing the batch.
func (r *Reader) FetchBalances(ctx context.Context, holder common.Address, tokens []common.Address, blockNumber uint64) (map[common.Address]*big.Int, error) {
	balances := make(map[common.Address]*big.Int, len(tokens))
	if len(tokens) == 0 {
		return balances, nil
	}

	tokenABI, err := erc20ABIInstance()
	if err != nil {
		return nil, err
	}
	callData, err := tokenABI.Pack("balanceOf", holder)
	if err != nil {
		return nil, fmt.Errorf("failed to encode balanceOf: %w", err)
	}

	blockTag := hexutil.EncodeUint64(blockNumber)
	batch := make([]gethrpc.BatchElem, len(tokens))
	for i, token := range tokens {
		batch[i] = gethrpc.BatchElem{
			Method: "eth_call",
			Args:   []any{map[string]any{"to": token, "data": hexutil.Bytes(callData)}, blockTag},
			Result: new(hexutil.Bytes),
		}
	}
	if err := r.client.BatchCallContext(ctx, batch); err != nil {
		return nil, fmt.Errorf("balance batch at block %d failed: %w", blockNumber, err)
	}

	for i, elem := range batch {
		if elem.Error != nil {
			r.logger.Warn("Balance call failed, reporting zero",
				zap.String("token", tokens[i].Hex()),
				zap.Uint64("block", blockNumber),
				zap.Error(elem.Error))
			balances[tokens[i]] = new(big.Int)
			continue
		}
		raw := *elem.Result.(*hexutil.Bytes)
		balances[tokens[i]] = new(big.Int).SetBytes(raw)
	}
	return balances, nil
}

// decodeSymbol handles both the standard string return and the legacy
// bytes32 variant some older tokens use.
func decodeSymbol(tokenABI abi.ABI, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty return data")
	}
	unpacked, err := tokenABI.Unpack("symbol", data)
	if err == nil {
		return *abi.ConvertType(unpacked[0], new(string)).(*string), nil
	}
	if len(data) == 32 {
		return string(bytes.TrimRight(data, "\x00")), nil
	}
	return "", err
}

func decodeDecimals(data []byte) (uint8, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty return data")
	}
	value := new(big.Int).SetBytes(data)
	if !value.IsUint64() || value.Uint64() > 255 {
		return 0, fmt.Errorf("decimals out of range: %s", value.String())
	}
	return uint8(value.Uint64()), nil
}
