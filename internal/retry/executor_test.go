package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// flakyOperation fails with a transient error until failUntil invocations
// have happened, optionally ending with a fatal error instead of success.
type flakyOperation struct {
	invocations int
	failUntil   int
	fatalErr    error
}

func (f *flakyOperation) execute(context.Context) error {
	f.invocations++
	if f.invocations < f.failUntil {
		return &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
	}
	if f.invocations == f.failUntil && f.fatalErr != nil {
		return f.fatalErr
	}
	return nil
}

func fastBackoff(attempts int) *ExponentialBackoff {
	return NewExponentialBackoff(attempts, WithInitialDelay(time.Millisecond), WithJitter(0))
}

func TestExecutor_SuccessOnFirstAttempt(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(3), nil)
	op := &flakyOperation{failUntil: 1}

	require.NoError(t, executor.Execute(context.Background(), op.execute))
	assert.Equal(t, 1, op.invocations)
}

func TestExecutor_SuccessAfterRetries(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(5), nil)
	op := &flakyOperation{failUntil: 4}

	require.NoError(t, executor.Execute(context.Background(), op.execute))
	assert.Equal(t, 4, op.invocations)
}

func TestExecutor_FatalErrorStopsRetrying(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(5), nil)
	fatal := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	op := &flakyOperation{failUntil: 2, fatalErr: fatal}

	err := executor.Execute(context.Background(), op.execute)

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 2, op.invocations)
}

func TestExecutor_ReferentialRejectionIsNeverRetried(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(5), nil)
	calls := 0
	err := executor.Execute(context.Background(), func(context.Context) error {
		calls++
		return mnx.ErrReferentialIntegrity
	})

	assert.ErrorIs(t, err, mnx.ErrReferentialIntegrity)
	assert.Equal(t, 1, calls)
}

func TestExecutor_ExhaustsAttempts(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(2), nil)
	op := &flakyOperation{failUntil: 100}

	err := executor.Execute(context.Background(), op.execute)

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "40P01", pgErr.Code)
	assert.Equal(t, 3, op.invocations, "initial attempt plus two retries")
}

func TestExecutor_WithOnRetryDoesNotMutateOriginal(t *testing.T) {
	base := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(3), nil)
	var delays []time.Duration
	withCallback := base.WithOnRetry(func(_ int, _ error, d time.Duration) {
		delays = append(delays, d)
	})

	require.NoError(t, withCallback.Execute(context.Background(), (&flakyOperation{failUntil: 3}).execute))
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, delays)

	delays = nil
	require.NoError(t, base.Execute(context.Background(), (&flakyOperation{failUntil: 3}).execute))
	assert.Empty(t, delays)
}

func TestExecutor_ContextCancelledDuringBackoff(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(),
		NewExponentialBackoff(5, WithInitialDelay(time.Hour), WithJitter(0)), nil)
	ctx, cancel := context.WithCancel(context.Background())
	executor = executor.WithOnRetry(func(int, error, time.Duration) { cancel() })

	err := executor.Execute(ctx, (&flakyOperation{failUntil: 100}).execute)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewExecutor_PanicsOnNilDependencies(t *testing.T) {
	assert.Panics(t, func() { NewExecutor(nil, fastBackoff(1), nil) })
	assert.Panics(t, func() { NewExecutor(NewPostgreSQLErrorClassifier(), nil, nil) })
}
