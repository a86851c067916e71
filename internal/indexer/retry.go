package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// retryPolicy retries an RPC with doubling backoff capped at maxDelay.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *zap.Logger
}

func newRetryPolicy(maxRetries int, baseDelay time.Duration, logger *zap.Logger) retryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return retryPolicy{maxRetries: maxRetries, baseDelay: baseDelay, maxDelay: 30 * time.Second, logger: logger}
}

func (p retryPolicy) do(ctx context.Context, op string, fn func(context.Context) error, fields ...zap.Field) error {
	delay := p.baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.maxRetries {
			return err
		}
		p.logger.Warn(op+" failed, retrying",
			append(fields, zap.Error(err), zap.Int("attempt", attempt+1), zap.Duration("backoff", delay))...)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > p.maxDelay {
			delay = p.maxDelay
		}
	}
}
