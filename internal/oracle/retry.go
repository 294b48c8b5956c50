package oracle

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBackoff = 100 * time.Millisecond
	maxBackoff     = 10 * time.Second
)

// permanentError marks a failure that another call cannot fix, such as an
// undecodable response.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return permanentError{err: err} }

// retryPolicy retries oracle reads with doubling delay, capped at maxBackoff.
type retryPolicy struct {
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
}

func newRetryPolicy(maxRetries int, backoff time.Duration, logger *zap.Logger) retryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return retryPolicy{attempts: maxRetries + 1, backoff: backoff, logger: logger}
}

func (r retryPolicy) do(ctx context.Context, block uint64, fn func(context.Context) error) error {
	delay := r.backoff
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		var perm permanentError
		if errors.As(err, &perm) || attempt == r.attempts {
			return err
		}
		r.logger.Warn("pricePerShare call failed, retrying",
			zap.Uint64("block_number", block),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if delay *= 2; delay > maxBackoff {
			delay = maxBackoff
		}
	}
	return err
}
