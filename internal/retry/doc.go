// Package retry retries sink writes and database connections that fail for
// transient reasons.
//
// An Executor combines an mnx.ErrorClassifier, which decides whether an
// error is worth another attempt, with an mnx.BackoffStrategy, which decides
// how long to wait first.
//
//	executor := retry.NewExecutor(
//	    retry.NewPostgreSQLErrorClassifier(),
//	    retry.NewExponentialBackoff(3),
//	    logger,
//	)
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return sink.writeBatch(ctx, g)
//	})
//
// The PostgreSQL classifier recognises connection exceptions, serialization
// failures, deadlocks and resource exhaustion. The SQLite classifier
// recognises busy and locked databases. Classifiers can be combined with Any.
//
// Executors are safe for concurrent use.
package retry
