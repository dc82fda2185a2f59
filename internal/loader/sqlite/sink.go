// Package sqlite is the embedded single-file sink. It mirrors the PostgreSQL
// tables with SQLite types and enforces foreign keys on every connection.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vvka-141/mnxnorm/internal/loader"
	"github.com/vvka-141/mnxnorm/internal/retry"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

var tables = []string{
	"mnx_participant_term",
	"mnx_edge",
	"mnx_attribute",
	"mnx_name",
	"mnx_alias",
	"mnx_entity",
	"mnx_run_input",
	"mnx_run",
}

const (
	sqlUpsertEntity = `
INSERT INTO mnx_entity (id, kind, namespace, identifier, structure, ambiguous, last_run)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    kind = excluded.kind,
    namespace = excluded.namespace,
    identifier = excluded.identifier,
    structure = excluded.structure,
    ambiguous = excluded.ambiguous,
    last_run = excluded.last_run`

	sqlDeleteAliases    = `DELETE FROM mnx_alias WHERE entity_id = ?`
	sqlDeleteNames      = `DELETE FROM mnx_name WHERE entity_id = ?`
	sqlDeleteAttributes = `DELETE FROM mnx_attribute WHERE entity_id = ?`

	sqlInsertAlias     = `INSERT OR IGNORE INTO mnx_alias (entity_id, namespace, identifier, collision) VALUES (?, ?, ?, ?)`
	sqlInsertName      = `INSERT OR IGNORE INTO mnx_name (entity_id, namespace, name) VALUES (?, ?, ?)`
	sqlInsertAttribute = `INSERT INTO mnx_attribute (entity_id, key, value) VALUES (?, ?, ?)`

	sqlUpsertEdge = `
INSERT INTO mnx_edge (source_id, target_id, kind, identifiers, description, last_run)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (source_id, target_id, kind) DO UPDATE SET
    identifiers = excluded.identifiers,
    description = excluded.description,
    last_run = excluded.last_run`

	sqlDeleteTerms = `DELETE FROM mnx_participant_term WHERE source_id = ? AND target_id = ?`
	sqlInsertTerm  = `
INSERT INTO mnx_participant_term (source_id, target_id, ordinal, coefficient, value, compartment_id, side)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	sqlInsertRun = `
INSERT INTO mnx_run (run_id, started_at, finished_at, entities, edges, aliases, names)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	sqlInsertRunInput = `
INSERT INTO mnx_run_input (run_id, kind, location, version, sha256, content_sha256, bytes)
VALUES (?, ?, ?, ?, ?, ?, ?)`
)

// Sink writes resolved graphs to a SQLite file.
type Sink struct {
	db     *sql.DB
	path   string
	logger mnx.Logger
	retry  *retry.Executor
	now    func() time.Time
}

// Open creates the parent directory and opens (or creates) the database at path.
func Open(path string, logger mnx.Logger) (*Sink, error) {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty: %w", mnx.ErrInvalidConfig)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; concurrent connections only add lock contention.
	db.SetMaxOpenConns(1)
	return &Sink{
		db:     db,
		path:   path,
		logger: logger,
		retry:  retry.NewExecutor(retry.NewSQLiteErrorClassifier(), retry.NewDefaultBackoff(), logger),
		now:    time.Now,
	}, nil
}

func (s *Sink) Close() error {
	return s.db.Close()
}

// Path returns the database file the sink writes to.
func (s *Sink) Path() string {
	return s.path
}

// EnsureSchema creates missing tables. It is idempotent.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Reset drops every sink table and recreates the schema.
func (s *Sink) Reset(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
				return fmt.Errorf("failed to drop %s: %w", t, err)
			}
		}
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
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
		return classify(s.inTx(ctx, func(tx *sql.Tx) error {
			return s.write(ctx, tx, rows, run, summary)
		}))
	})
	if err != nil {
		return mnx.WriteSummary{}, err
	}
	s.logger.Verbose("Wrote %d entities and %d edges to %s", summary.Entities, summary.Edges, s.path)
	return summary, nil
}

func (s *Sink) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Sink) write(ctx context.Context, tx *sql.Tx, rows *loader.Tables, run mnx.RunInfo, summary mnx.WriteSummary) error {
	runID := run.ID.String()

	err := execEach(ctx, tx, sqlUpsertEntity, len(rows.Entities), func(i int) []any {
		e := rows.Entities[i]
		return []any{e.ID, e.Kind, e.Namespace, e.Identifier, e.Structure, e.Ambiguous, runID}
	})
	if err != nil {
		return fmt.Errorf("entities: %w", err)
	}
	for _, stmt := range []string{sqlDeleteAliases, sqlDeleteNames, sqlDeleteAttributes} {
		ids := rows.EntityIDs()
		if err := execEach(ctx, tx, stmt, len(ids), func(i int) []any { return []any{ids[i]} }); err != nil {
			return fmt.Errorf("clearing entity details: %w", err)
		}
	}

	if err := execEach(ctx, tx, sqlInsertAlias, len(rows.Aliases), func(i int) []any {
		a := rows.Aliases[i]
		return []any{a.EntityID, a.Namespace, a.Identifier, a.Collision}
	}); err != nil {
		return fmt.Errorf("aliases: %w", err)
	}
	if err := execEach(ctx, tx, sqlInsertName, len(rows.Names), func(i int) []any {
		n := rows.Names[i]
		return []any{n.EntityID, n.Namespace, n.Name}
	}); err != nil {
		return fmt.Errorf("names: %w", err)
	}
	if err := execEach(ctx, tx, sqlInsertAttribute, len(rows.Attributes), func(i int) []any {
		a := rows.Attributes[i]
		return []any{a.EntityID, a.Key, a.Value}
	}); err != nil {
		return fmt.Errorf("attributes: %w", err)
	}

	for _, e := range rows.Edges {
		identifiers := e.Identifiers
		if identifiers == nil {
			identifiers = []string{}
		}
		encoded, err := json.Marshal(identifiers)
		if err != nil {
			return fmt.Errorf("edges: %w", err)
		}
		if _, err := tx.ExecContext(ctx, sqlUpsertEdge, e.SourceID, e.TargetID, e.Kind, string(encoded), e.Description, runID); err != nil {
			return fmt.Errorf("edges: %w", err)
		}
		if e.Kind == string(mnx.EdgeParticipant) {
			if _, err := tx.ExecContext(ctx, sqlDeleteTerms, e.SourceID, e.TargetID); err != nil {
				return fmt.Errorf("edges: %w", err)
			}
		}
	}
	if err := execEach(ctx, tx, sqlInsertTerm, len(rows.Terms), func(i int) []any {
		t := rows.Terms[i]
		var value any
		if t.Value != "" {
			value = t.Value
		}
		return []any{t.SourceID, t.TargetID, t.Ordinal, t.Coefficient, value, t.CompartmentID, t.Side}
	}); err != nil {
		return fmt.Errorf("participant terms: %w", err)
	}

	started := run.StartedAt
	if started.IsZero() {
		started = s.now()
	}
	if _, err := tx.ExecContext(ctx, sqlInsertRun, runID, started.UTC().Format(time.RFC3339Nano), s.now().UTC().Format(time.RFC3339Nano),
		summary.Entities, summary.Edges, summary.Aliases, summary.Names); err != nil {
		return fmt.Errorf("run record: %w", err)
	}
	return execEach(ctx, tx, sqlInsertRunInput, len(run.Inputs), func(i int) []any {
		in := run.Inputs[i]
		return []any{runID, string(in.Kind), in.Location, in.Version, in.SHA256, in.ContentSHA256, in.Bytes}
	})
}

// execEach runs one prepared statement n times with the arguments args(i).
func execEach(ctx context.Context, tx *sql.Tx, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
	}
	return nil
}

// classify maps constraint failures onto the load-rejected sentinel.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "foreign key constraint failed") || strings.Contains(msg, "unique constraint failed") {
		return fmt.Errorf("%w: %w", mnx.ErrReferentialIntegrity, err)
	}
	return err
}

var _ mnx.Sink = (*Sink)(nil)
