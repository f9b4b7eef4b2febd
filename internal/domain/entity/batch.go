package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BatchCall is one simulated read-only call scheduled into an on-chain
// multicall batch. It is owned by the batch executor for the duration of
// one batch and discarded after result demultiplexing.
type BatchCall struct {
	Route    Route
	AmountIn *big.Int

	// Target is the contract receiving the simulated call, e.g. a swap
	// router or a quoter contract.
	Target   common.Address
	CallData []byte
}

// CallOutcome is the demultiplexed result of one BatchCall.
type CallOutcome struct {
	Route Route

	// Success is false when the individual call reverted inside the batch.
	// Sibling calls in the same batch are unaffected.
	Success    bool
	ReturnData []byte

	// Err is set when the whole batch failed at the transport level after
	// the connection layer's retries were exhausted.
	Err error
}
