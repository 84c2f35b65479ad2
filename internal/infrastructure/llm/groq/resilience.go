package groq

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RateLimitError is the provider's throttle signal.
type RateLimitError struct {
	Model      string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e == nil {
		return "rate limited"
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("model %s rate limited, retry after %s", e.Model, e.RetryAfter)
	}
	return fmt.Sprintf("model %s rate limited", e.Model)
}

// HTTPStatusError is any non-throttle provider HTTP failure.
type HTTPStatusError struct {
	Model      string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "provider status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("model %s status: %s", e.Model, e.Status)
	}
	return fmt.Sprintf("model %s status: %s: %s", e.Model, e.Status, e.Body)
}

// callOutcome is the typed classification of one model attempt, so the
// failover walk is an explicit control loop rather than exception-style
// flow.
type callOutcome int

const (
	outcomeFailure callOutcome = iota
	outcomeRateLimited
	outcomeCanceled
)

// classifyCallError decides whether one attempt's error should stop the
// pool walk. Context errors only count as cancellation when the request
// context itself is done: the HTTP client's per-call timeout also
// surfaces as context.DeadlineExceeded, and a hung model must not block
// failover to the next one.
func classifyCallError(ctx context.Context, err error) callOutcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if ctx.Err() != nil {
			return outcomeCanceled
		}
		return outcomeFailure
	}
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return outcomeRateLimited
	}
	return outcomeFailure
}
