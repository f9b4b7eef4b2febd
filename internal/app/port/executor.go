package port

import (
	"context"

	"nav_checker/internal/domain/entity"
)

// CallExecutor groups simulated calls into fixed-size on-chain multicall
// batches, executes them at a fixed block and demultiplexes the results
// back to their originating routes.
//
// A reverting call inside a batch must never invalidate its siblings: it is
// reported as a per-route failure on the corresponding outcome. A transport
// failure of a whole batch is absorbed into the batch's outcomes as well;
// Execute returns an error only for structural problems or context
// cancellation.
type CallExecutor interface {
	Execute(ctx context.Context, calls []entity.BatchCall, blockNumber uint64) ([]entity.CallOutcome, error)
}
