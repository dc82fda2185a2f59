// Package ingest turns MetaNetX dump tables into RawRecords and parses their
// structural payloads.
//
// Each table's header is checked against the known MNXref releases before
// any row is read; an unknown header aborts with
// mnx.ErrUnsupportedSchemaVersion. Rows that do not fit the header are
// dropped with a MalformedRecord diagnostic.
//
// Structural parsing (formulas, equations) runs on a bounded worker pool.
// Results are written into index-addressed slots, so the merged output is
// always in record order regardless of scheduling.
package ingest
