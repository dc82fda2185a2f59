package retry

import (
	"context"
	"time"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// Executor runs an operation until it succeeds, fails fatally, or the
// strategy runs out of attempts.
//
// Executor is safe for concurrent use. WithOnRetry returns a copy, so
// callbacks configured for one caller never leak into another.
type Executor struct {
	classifier mnx.ErrorClassifier
	strategy   mnx.BackoffStrategy
	logger     mnx.Logger
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a retry executor. A nil logger disables retry logging.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier mnx.ErrorClassifier, strategy mnx.BackoffStrategy, logger mnx.Logger) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy, logger: logger}
}

// WithOnRetry returns a new Executor calling callback before each retry.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute runs operation and returns the error of the last attempt.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	lastErr := operation(ctx)
	if lastErr == nil || !e.classifier.IsTransient(lastErr) {
		return lastErr
	}

	maxAttempts := e.strategy.MaxAttempts()
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := e.strategy.NextDelay(attempt)
		if e.logger != nil {
			e.logger.Verbose("Transient failure (retry %d in %v): %v", attempt+1, delay, lastErr)
		}
		if e.onRetry != nil {
			e.onRetry(attempt, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		lastErr = operation(ctx)
		if lastErr == nil || !e.classifier.IsTransient(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
