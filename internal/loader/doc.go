// Package loader implements the write side of a run.
//
// Every sink follows the same contract: it re-checks that each edge
// references only entities of the same batch (CheckReferences), then
// upserts entities by canonical id and edges by (source, target, kind)
// in a single transaction. A rejected batch writes nothing and returns an
// error wrapping mnx.ErrReferentialIntegrity.
//
// Rows flattens a graph into the relational rows shared by the SQL sinks
// (postgres, sqlite). MemorySink keeps the same data in maps and backs
// dry runs and tests.
package loader
