package ingest

import (
	"fmt"
	"strings"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// Logical field names shared by all releases.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldReference   = "reference"
	FieldFormula     = "formula"
	FieldCharge      = "charge"
	FieldMass        = "mass"
	FieldInChI       = "inchi"
	FieldInChIKey    = mnx.AttrInChIKey
	FieldSMILES      = "smiles"
	FieldEquation    = "equation"
	FieldEC          = mnx.AttrEC
	FieldBalanced    = "balanced"
	FieldTransport   = "transport"
	FieldSource      = "source"
	FieldDescription = "description"
	FieldEvidence    = "evidence"
)

type column struct {
	header string
	field  string
}

// layouts lists the known header of every table per release.
var layouts = map[string]map[mnx.InputKind][]column{
	"4": {
		mnx.InputChemProp: {
			{"ID", FieldID}, {"name", FieldName}, {"reference", FieldReference}, {"formula", FieldFormula},
			{"charge", FieldCharge}, {"mass", FieldMass}, {"InChI", FieldInChI}, {"InChIKey", FieldInChIKey},
			{"SMILES", FieldSMILES},
		},
		mnx.InputChemXref: {{"source", FieldSource}, {"ID", FieldID}, {"description", FieldDescription}},
		mnx.InputCompProp: {{"ID", FieldID}, {"name", FieldName}, {"reference", FieldReference}},
		mnx.InputCompXref: {{"source", FieldSource}, {"ID", FieldID}, {"description", FieldDescription}},
		mnx.InputReacProp: {
			{"ID", FieldID}, {"mnx_equation", FieldEquation}, {"reference", FieldReference},
			{"classifs", FieldEC}, {"is_balanced", FieldBalanced}, {"is_transport", FieldTransport},
		},
		mnx.InputReacXref: {{"source", FieldSource}, {"ID", FieldID}, {"description", FieldDescription}},
	},
	"3": {
		mnx.InputChemProp: {
			{"MNX_ID", FieldID}, {"Description", FieldName}, {"Formula", FieldFormula}, {"Charge", FieldCharge},
			{"Mass", FieldMass}, {"InChI", FieldInChI}, {"SMILES", FieldSMILES}, {"Source", FieldReference},
			{"InChIKey", FieldInChIKey},
		},
		mnx.InputChemXref: {{"XREF", FieldSource}, {"MNX_ID", FieldID}, {"Evidence", FieldEvidence}, {"Description", FieldDescription}},
		mnx.InputCompProp: {{"MNX_ID", FieldID}, {"Description", FieldName}, {"Source", FieldReference}},
		mnx.InputCompXref: {{"XREF", FieldSource}, {"MNX_ID", FieldID}, {"Description", FieldDescription}},
		mnx.InputReacProp: {
			{"MNX_ID", FieldID}, {"Equation", FieldEquation}, {"Description", FieldName},
			{"Balance", FieldBalanced}, {"EC", FieldEC}, {"Source", FieldReference},
		},
		mnx.InputReacXref: {{"XREF", FieldSource}, {"MNX_ID", FieldID}, {"Description", FieldDescription}},
	},
}

// versionOrder makes detection deterministic.
var versionOrder = []string{"4", "3"}

// Schema is the column layout of one table.
type Schema struct {
	Version string
	Kind    mnx.InputKind
	Columns []string
	index   map[string]int
}

// SchemaError reports a header that matches no known release.
type SchemaError struct {
	File   string
	Kind   mnx.InputKind
	Header []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s (%s): header [%s] matches no known MNXref release: %v",
		e.File, e.Kind, strings.Join(e.Header, ", "), mnx.ErrUnsupportedSchemaVersion)
}

func (e *SchemaError) Unwrap() error {
	return mnx.ErrUnsupportedSchemaVersion
}

// DetectSchema matches a header against the known releases.
func DetectSchema(file string, kind mnx.InputKind, header []string) (*Schema, error) {
	for _, version := range versionOrder {
		cols, ok := layouts[version][kind]
		if !ok || len(cols) != len(header) {
			continue
		}
		match := true
		for i, c := range cols {
			if c.header != header[i] {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		s := &Schema{Version: version, Kind: kind, Columns: header, index: make(map[string]int, len(cols))}
		for i, c := range cols {
			s.index[c.field] = i
		}
		return s, nil
	}
	return nil, &SchemaError{File: file, Kind: kind, Header: header}
}

// Field returns the value of a logical field in a row, or "" when the
// release has no such column.
func (s *Schema) Field(row []string, field string) string {
	i, ok := s.index[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
