// Package postgres is the PostgreSQL sink. A write runs in one transaction
// using pgx batches, retried as a whole on transient server errors.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/mnxnorm/internal/loader"
	"github.com/vvka-141/mnxnorm/internal/retry"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// Sink writes resolved graphs to PostgreSQL.
type Sink struct {
	pool      *pgxpool.Pool
	logger    mnx.Logger
	retry     *retry.Executor
	batchSize int
	now       func() time.Time
}

// Option configures a Sink.
type Option func(*Sink)

// WithBatchSize sets how many statements go into one pgx batch.
func WithBatchSize(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithRetryExecutor replaces the default transient-error retry policy.
func WithRetryExecutor(e *retry.Executor) Option {
	return func(s *Sink) { s.retry = e }
}

// NewSink panics if pool or logger is nil.
func NewSink(pool *pgxpool.Pool, logger mnx.Logger, opts ...Option) *Sink {
	if pool == nil {
		panic("pool cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	s := &Sink{
		pool:      pool,
		logger:    logger,
		retry:     retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), retry.NewDefaultBackoff(), logger),
		batchSize: mnx.DefaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates missing tables. It is idempotent.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Reset drops every sink table and recreates the schema in one transaction.
func (s *Sink) Reset(ctx context.Context) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		quoted := make([]string, len(tables))
		for i, t := range tables {
			quoted[i] = pgx.Identifier{t}.Sanitize()
		}
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+strings.Join(quoted, ", ")+" CASCADE"); err != nil {
			return fmt.Errorf("failed to drop tables: %w", err)
		}
		if _, err := tx.Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		return nil
	})
}

// Write implements mnx.Sink.
func (s *Sink) Write(ctx context.Context, g *mnx.ResolvedGraph, run mnx.RunInfo) (mnx.WriteSummary, error) {
	if err := loader.CheckReferences(g); err != nil {
		return mnx.WriteSummary{}, err
	}
	rows := loader.Rows(g)
	summary := rows.Summary()

	err := s.retry.Execute(ctx, func(ctx context.Context) error {
		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			return s.write(ctx, tx, rows, run, summary)
		})
		return classify(err)
	})
	if err != nil {
		return mnx.WriteSummary{}, err
	}
	s.logger.Verbose("Wrote %d entities and %d edges for run %s", summary.Entities, summary.Edges, run.ID)
	return summary, nil
}

func (s *Sink) write(ctx context.Context, tx pgx.Tx, rows *loader.Tables, run mnx.RunInfo, summary mnx.WriteSummary) error {
	runID := run.ID.String()

	if err := s.sendChunks(ctx, tx, len(rows.Entities), func(b *pgx.Batch, i int) {
		e := rows.Entities[i]
		b.Queue(sqlUpsertEntity, e.ID, e.Kind, e.Namespace, e.Identifier, e.Structure, e.Ambiguous, runID)
	}); err != nil {
		return fmt.Errorf("entities: %w", err)
	}

	ids := rows.EntityIDs()
	for _, stmt := range []string{sqlDeleteAliases, sqlDeleteNames, sqlDeleteAttributes} {
		if _, err := tx.Exec(ctx, stmt, ids); err != nil {
			return fmt.Errorf("clearing entity details: %w", err)
		}
	}

	if err := s.sendChunks(ctx, tx, len(rows.Aliases), func(b *pgx.Batch, i int) {
		a := rows.Aliases[i]
		b.Queue(sqlInsertAlias, a.EntityID, a.Namespace, a.Identifier, a.Collision)
	}); err != nil {
		return fmt.Errorf("aliases: %w", err)
	}
	if err := s.sendChunks(ctx, tx, len(rows.Names), func(b *pgx.Batch, i int) {
		n := rows.Names[i]
		b.Queue(sqlInsertName, n.EntityID, n.Namespace, n.Name)
	}); err != nil {
		return fmt.Errorf("names: %w", err)
	}
	if err := s.sendChunks(ctx, tx, len(rows.Attributes), func(b *pgx.Batch, i int) {
		a := rows.Attributes[i]
		b.Queue(sqlInsertAttribute, a.EntityID, a.Key, a.Value)
	}); err != nil {
		return fmt.Errorf("attributes: %w", err)
	}

	if err := s.sendChunks(ctx, tx, len(rows.Edges), func(b *pgx.Batch, i int) {
		e := rows.Edges[i]
		identifiers := e.Identifiers
		if identifiers == nil {
			identifiers = []string{}
		}
		b.Queue(sqlUpsertEdge, e.SourceID, e.TargetID, e.Kind, identifiers, e.Description, runID)
		if e.Kind == string(mnx.EdgeParticipant) {
			b.Queue(sqlDeleteTerms, e.SourceID, e.TargetID)
		}
	}); err != nil {
		return fmt.Errorf("edges: %w", err)
	}
	if err := s.sendChunks(ctx, tx, len(rows.Terms), func(b *pgx.Batch, i int) {
		t := rows.Terms[i]
		b.Queue(sqlInsertTerm, t.SourceID, t.TargetID, t.Ordinal, t.Coefficient, t.Value, t.CompartmentID, t.Side)
	}); err != nil {
		return fmt.Errorf("participant terms: %w", err)
	}

	started := run.StartedAt
	if started.IsZero() {
		started = s.now()
	}
	if _, err := tx.Exec(ctx, sqlInsertRun, runID, started, s.now(),
		summary.Entities, summary.Edges, summary.Aliases, summary.Names); err != nil {
		return fmt.Errorf("run record: %w", err)
	}
	return s.sendChunks(ctx, tx, len(run.Inputs), func(b *pgx.Batch, i int) {
		in := run.Inputs[i]
		b.Queue(sqlInsertRunInput, runID, string(in.Kind), in.Location, in.Version, in.SHA256, in.ContentSHA256, in.Bytes)
	})
}

// sendChunks queues n statements into batches of at most batchSize and
// sends each batch, stopping at the first failure.
func (s *Sink) sendChunks(ctx context.Context, tx pgx.Tx, n int, queue func(b *pgx.Batch, i int)) error {
	for start := 0; start < n; start += s.batchSize {
		end := min(start+s.batchSize, n)
		b := &pgx.Batch{}
		for i := start; i < end; i++ {
			queue(b, i)
		}
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return err
		}
	}
	return nil
}

// classify maps constraint violations raised by the server onto the
// load-rejected sentinel so they are not retried.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation, pgUniqueViolation:
			return fmt.Errorf("%s: %w: %w", pgErr.ConstraintName, mnx.ErrReferentialIntegrity, err)
		}
	}
	return err
}

var _ mnx.Sink = (*Sink)(nil)
