// internal/crawler/retry.go
package crawler

import (
	"context"

	"github.com/shelfscout/shelfscout/internal/utils"
)

var retryLogger = utils.NewComponentLogger("retry")

// RetryExecutor re-runs failing operations up to a bounded number of
// attempts. Retries are immediate; the operations here go through a
// rate-limited browser session, which already spaces navigations out.
type RetryExecutor struct {
	logger utils.Logger
}

// NewRetryExecutor creates a retry executor.
func NewRetryExecutor() *RetryExecutor {
	return &RetryExecutor{logger: retryLogger}
}

// Execute runs op until it succeeds or maxAttempts attempts have failed. A
// maxAttempts below 1 counts as 1. The context is checked between attempts;
// cancellation surfaces as the context error, not an exhaustion error.
func (r *RetryExecutor) Execute(ctx context.Context, name string, maxAttempts int, op func(ctx context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		remaining := maxAttempts - attempt
		if remaining > 0 {
			r.logger.Warnf("Error in %s, retrying %d more time(s): %v", name, remaining, lastErr)
		}
	}

	r.logger.Errorf("Error in %s, no attempts left, skipping: %v", name, lastErr)
	return &ExhaustedRetriesError{Op: name, Attempts: maxAttempts, Err: lastErr}
}
