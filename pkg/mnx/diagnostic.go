package mnx

import (
	"fmt"
	"sort"
	"strings"
)

// Severity of a diagnostic record.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Code identifies the kind of finding.
type Code string

const (
	CodeMalformedFormula   Code = "MalformedFormula"
	CodeMalformedEquation  Code = "MalformedEquation"
	CodeMalformedRecord    Code = "MalformedRecord"
	CodeAmbiguousIdentity  Code = "AmbiguousIdentity"
	CodeDegenerateReaction Code = "DegenerateReaction"
	CodeUnknownNamespace   Code = "UnknownNamespace"
	CodeDroppedDependency  Code = "DroppedDependency"
)

// Diagnostic is a structured, non-fatal finding of a run.
type Diagnostic struct {
	Severity Severity          `json:"severity"`
	Code     Code              `json:"code"`
	Stage    string            `json:"stage"`
	Context  map[string]string `json:"context,omitempty"`
}

// String renders the diagnostic on one line with context keys sorted.
func (d Diagnostic) String() string {
	keys := make([]string, 0, len(d.Context))
	for k := range d.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, d.Context[k]))
	}
	return fmt.Sprintf("%s %s [%s] %s", d.Severity, d.Code, d.Stage, strings.Join(parts, " "))
}
