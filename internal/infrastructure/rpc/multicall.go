package rpc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nav_checker/internal/domain/entity"
	"nav_checker/internal/pkg/metrics"
	"nav_checker/internal/pkg/utils"
)

// Multicall3Address is the canonical Multicall3 deployment, identical on
// all major EVM chains.
var Multicall3Address = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

// Minimal Multicall3 ABI for aggregate3.
const multicall3ABI = `[{"inputs":[{"components":[{"internalType":"address","name":"target","type":"address"},{"internalType":"bool","name":"allowFailure","type":"bool"},{"internalType":"bytes","name":"callData","type":"bytes"}],"internalType":"struct Multicall3.Call3[]","name":"calls","type":"tuple[]"}],"name":"aggregate3","outputs":[{"components":[{"internalType":"bool","name":"success","type":"bool"},{"internalType":"bytes","name":"returnData","type":"bytes"}],"internalType":"struct Multicall3.Result[]","name":"returnData","type":"tuple[]"}],"stateMutability":"payable","type":"function"}]`

var (
	parsedMulticallABI abi.ABI
	parsedMulticallErr error
	parsedMulticall    sync.Once
)

func multicallABIInstance() (abi.ABI, error) {
	parsedMulticall.Do(func() {
		parsedMulticallABI, parsedMulticallErr = abi.JSON(strings.NewReader(multicall3ABI))
	})
	return parsedMulticallABI, parsedMulticallErr
}

type multicall3Call struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

type multicall3Result struct {
	Success    bool
	ReturnData []byte
}

// ContractCaller issues eth_call requests. *FailoverClient satisfies it.
type ContractCaller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// MulticallExecutor schedules simulated calls into fixed-size Multicall3
// aggregate3 batches pinned to one block. Every inner call is dispatched
// with allowFailure, so a reverting quote never invalidates its batch
// siblings. Batches run concurrently up to maxParallel.
type MulticallExecutor struct {
	caller      ContractCaller
	multicall   common.Address
	batchSize   int
	maxParallel int
	logger      *zap.Logger
}

// NewMulticallExecutor creates an executor. Non-positive batchSize and
// maxParallel fall back to 40 and 4.
func NewMulticallExecutor(caller ContractCaller, batchSize, maxParallel int, logger *zap.Logger) *MulticallExecutor {
	if batchSize <= 0 {
		batchSize = 40
	}
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &MulticallExecutor{
		caller:      caller,
		multicall:   Multicall3Address,
		batchSize:   batchSize,
		maxParallel: maxParallel,
		logger:      logger.Named("MulticallExecutor"),
	}
}

// Execute runs all calls at the given block and returns one outcome per
// call in input order. A batch whose transport fails after retries yields
// outcomes carrying a CallFailure instead of failing the whole pass.
func (e *MulticallExecutor) Execute(ctx context.Context, calls []entity.BatchCall, blockNumber uint64) ([]entity.CallOutcome, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	mcABI, err := multicallABIInstance()
	if err != nil {
		return nil, fmt.Errorf("multicall ABI unavailable: %w", err)
	}

	batches := utils.Chunk(calls, e.batchSize)
	e.logger.Debug("Dispatching quote calls",
		zap.Int("calls", len(calls)),
		zap.Int("batches", len(batches)),
		zap.Int("batchSize", e.batchSize),
		zap.Uint64("block", blockNumber))

	outcomes := make([]entity.CallOutcome, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)

	offset := 0
	for i, batch := range batches {
		batchIndex, batchOffset, batchCalls := i, offset, batch
		offset += len(batch)

		g.Go(func() error {
			results, err := e.executeBatch(gctx, mcABI, batchCalls, blockNumber)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failure := &entity.CallFailure{BatchIndex: batchIndex, Err: err}
				metrics.MulticallBatchesTotal.WithLabelValues("transport_error").Inc()
				e.logger.Warn("Multicall batch failed, degrading its routes",
					zap.Int("batch", batchIndex),
					zap.Int("calls", len(batchCalls)),
					zap.Error(err))
				for j, call := range batchCalls {
					outcomes[batchOffset+j] = entity.CallOutcome{Route: call.Route, Err: failure}
				}
				return nil
			}

			metrics.MulticallBatchesTotal.WithLabelValues("ok").Inc()
			for j, call := range batchCalls {
				outcomes[batchOffset+j] = entity.CallOutcome{
					Route:      call.Route,
					Success:    results[j].Success,
					ReturnData: results[j].ReturnData,
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (e *MulticallExecutor) executeBatch(ctx context.Context, mcABI abi.ABI, calls []entity.BatchCall, blockNumber uint64) ([]multicall3Result, error) {
	aggregated := make([]multicall3Call, len(calls))
	for i, call := range calls {
		aggregated[i] = multicall3Call{
			Target:       call.Target,
			AllowFailure: true,
			CallData:     call.CallData,
		}
	}

	payload, err := mcABI.Pack("aggregate3", aggregated)
	if err != nil {
		return nil, fmt.Errorf("failed to encode aggregate3: %w", err)
	}

	callArgs := map[string]any{
		"to":   e.multicall,
		"data": hexutil.Bytes(payload),
	}
	var raw hexutil.Bytes
	if err := e.caller.CallContext(ctx, &raw, "eth_call", callArgs, hexutil.EncodeUint64(blockNumber)); err != nil {
		return nil, err
	}

	unpacked, err := mcABI.Unpack("aggregate3", raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode aggregate3 result: %w", err)
	}
	results := *abi.ConvertType(unpacked[0], new([]multicall3Result)).(*[]multicall3Result)
	if len(results) != len(calls) {
		return nil, fmt.Errorf("aggregate3 returned %d results for %d calls", len(results), len(calls))
	}
	return results, nil
}
