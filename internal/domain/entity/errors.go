package entity

import "fmt"

// ConfigurationError reports a malformed endpoint list or engine
// configuration. It is fatal at setup, surfaced immediately and never
// retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// NewConfigurationError builds a ConfigurationError with a formatted reason.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// QuoteFailure is a recoverable per-route failure: a revert, a decode
// failure or a non-positive output. It eliminates one route from
// consideration and never fails the valuation pass.
type QuoteFailure struct {
	RouteKey string
	Reason   string
	Err      error
}

func (e *QuoteFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quote failed for route %s: %s: %v", e.RouteKey, e.Reason, e.Err)
	}
	return fmt.Sprintf("quote failed for route %s: %s", e.RouteKey, e.Reason)
}

func (e *QuoteFailure) Unwrap() error {
	return e.Err
}

// CallFailure is a transport-level failure of a whole batch after the
// connection layer's retries were exhausted. The batch's routes degrade to
// unvalued; the pass completes with a partial valuation.
type CallFailure struct {
	BatchIndex int
	Err        error
}

func (e *CallFailure) Error() string {
	return fmt.Sprintf("batch %d failed after retries: %v", e.BatchIndex, e.Err)
}

func (e *CallFailure) Unwrap() error {
	return e.Err
}

// FatalValuationError means no route of any kind could be attempted, e.g.
// the quoter set is empty while non-denomination tokens are held. It aborts
// the pass.
type FatalValuationError struct {
	Reason string
}

func (e *FatalValuationError) Error() string {
	return "valuation impossible: " + e.Reason
}
