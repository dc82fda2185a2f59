package ingest

import (
	"fmt"
	"strconv"

	"github.com/vvka-141/mnxnorm/internal/grammar"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// attributeFields are copied verbatim into RawRecord.Attributes when present.
var attributeFields = []string{
	FieldMass, FieldInChI, FieldInChIKey, FieldSMILES, FieldReference,
	FieldBalanced, FieldTransport, FieldEC, FieldEvidence,
}

// Converter turns table rows into RawRecords. Record indexes continue across
// tables so that the concatenated output is one ordered input.
// A Converter is not safe for concurrent use.
type Converter struct {
	refs *grammar.RefParser
	next int
}

// NewConverter creates a converter resolving source prefixes with refs.
func NewConverter(refs *grammar.RefParser) *Converter {
	if refs == nil {
		panic("refs cannot be nil")
	}
	return &Converter{refs: refs}
}

// Convert maps every row of t to records. Rows with the wrong number of
// columns or unparseable identifiers are dropped with a diagnostic; the ids
// of dropped property rows are returned so later stages can tell a dropped
// record from one that never existed.
func (c *Converter) Convert(t *Table) (records []mnx.RawRecord, dropped []mnx.SourceRef, diags []mnx.Diagnostic) {
	kind := t.Kind.EntityKind()
	records = make([]mnx.RawRecord, 0, len(t.Rows))

	for _, row := range t.Rows {
		if len(row.Fields) != len(t.Schema.Columns) {
			d := malformedRow(t, row, fmt.Sprintf("expected %d columns, found %d", len(t.Schema.Columns), len(row.Fields)))
			if !t.Kind.IsXref() {
				if ref, err := c.refs.Parse(t.Schema.Field(row.Fields, FieldID), kind); err == nil {
					dropped = append(dropped, ref)
					d.Context["id"] = ref.String()
				}
			}
			diags = append(diags, d)
			continue
		}
		field := func(name string) string { return t.Schema.Field(row.Fields, name) }

		id, err := c.refs.Parse(field(FieldID), kind)
		if err != nil {
			diags = append(diags, malformedRow(t, row, err.Error()))
			continue
		}

		if t.Kind.IsXref() {
			source, err := c.refs.Parse(field(FieldSource), kind)
			if err != nil {
				diags = append(diags, malformedRow(t, row, err.Error()))
				continue
			}
			rec := c.record(t, row, mnx.KindXref)
			rec.Ref = source
			rec.Target = id
			rec.TargetKind = kind
			rec.Names = grammar.SplitNames(field(FieldDescription))
			rec.Attributes = attributes(field)
			records = append(records, rec)
			continue
		}

		rec := c.record(t, row, kind)
		rec.Ref = id
		rec.Names = grammar.SplitNames(field(FieldName))
		rec.Formula = field(FieldFormula)
		rec.Charge = field(FieldCharge)
		rec.Equation = field(FieldEquation)
		rec.Attributes = attributes(field)
		records = append(records, rec)

		// The reference column names the record's origin; it is an implicit cross-reference.
		if refText := field(FieldReference); refText != "" {
			ref, err := c.refs.Parse(refText, kind)
			if err != nil {
				diags = append(diags, mnx.Diagnostic{
					Severity: mnx.SeverityWarning,
					Code:     mnx.CodeMalformedRecord,
					Stage:    "ingest",
					Context:  map[string]string{"record": location(t, row), "reference": refText, "reason": err.Error()},
				})
				continue
			}
			if ref != id {
				xref := c.record(t, row, mnx.KindXref)
				xref.Ref = ref
				xref.Target = id
				xref.TargetKind = kind
				records = append(records, xref)
			}
		}
	}
	return records, dropped, diags
}

func (c *Converter) record(t *Table, row Row, kind mnx.Kind) mnx.RawRecord {
	rec := mnx.RawRecord{Index: c.next, File: t.File, Line: row.Line, Kind: kind}
	c.next++
	return rec
}

func attributes(field func(string) string) map[string]string {
	attrs := make(map[string]string)
	for _, name := range attributeFields {
		if v := field(name); v != "" {
			attrs[name] = v
		}
	}
	return attrs
}

func malformedRow(t *Table, row Row, reason string) mnx.Diagnostic {
	return mnx.Diagnostic{
		Severity: mnx.SeverityError,
		Code:     mnx.CodeMalformedRecord,
		Stage:    "ingest",
		Context:  map[string]string{"record": location(t, row), "reason": reason},
	}
}

func location(t *Table, row Row) string {
	return t.File + ":" + strconv.Itoa(row.Line)
}
