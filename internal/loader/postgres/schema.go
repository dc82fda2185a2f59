package postgres

import (
	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

// Tables in drop order: children before parents.
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
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    kind = EXCLUDED.kind,
    namespace = EXCLUDED.namespace,
    identifier = EXCLUDED.identifier,
    structure = EXCLUDED.structure,
    ambiguous = EXCLUDED.ambiguous,
    last_run = EXCLUDED.last_run`

	sqlDeleteAliases    = `DELETE FROM mnx_alias WHERE entity_id = ANY($1::uuid[])`
	sqlDeleteNames      = `DELETE FROM mnx_name WHERE entity_id = ANY($1::uuid[])`
	sqlDeleteAttributes = `DELETE FROM mnx_attribute WHERE entity_id = ANY($1::uuid[])`

	sqlInsertAlias     = `INSERT INTO mnx_alias (entity_id, namespace, identifier, collision) VALUES ($1, $2, $3, $4)`
	sqlInsertName      = `INSERT INTO mnx_name (entity_id, namespace, name) VALUES ($1, $2, $3)`
	sqlInsertAttribute = `INSERT INTO mnx_attribute (entity_id, key, value) VALUES ($1, $2, $3)`

	sqlUpsertEdge = `
INSERT INTO mnx_edge (source_id, target_id, kind, identifiers, description, last_run)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (source_id, target_id, kind) DO UPDATE SET
    identifiers = EXCLUDED.identifiers,
    description = EXCLUDED.description,
    last_run = EXCLUDED.last_run`

	sqlDeleteTerms = `DELETE FROM mnx_participant_term WHERE source_id = $1 AND target_id = $2`
	sqlInsertTerm  = `
INSERT INTO mnx_participant_term (source_id, target_id, ordinal, coefficient, value, compartment_id, side)
VALUES ($1, $2, $3, $4, NULLIF($5, '')::numeric, $6, $7)`

	sqlInsertRun = `
INSERT INTO mnx_run (run_id, started_at, finished_at, entities, edges, aliases, names)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	sqlInsertRunInput = `
INSERT INTO mnx_run_input (run_id, kind, location, version, sha256, content_sha256, bytes)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
)
