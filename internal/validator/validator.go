// Package validator checks a resolved graph before it is handed to a sink.
//
// Rules report two kinds of findings. Violations mean the graph cannot be
// trusted and abort the run. Diagnostics are surfaced and the run continues.
package validator

import (
	"context"
	"errors"
	"fmt"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// maxReportedViolations caps the violations listed in one error.
const maxReportedViolations = 20

// Rule is one integrity check over a graph.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, g *mnx.ResolvedGraph) (Result, error)
}

// Result aggregates the findings of one or more rules.
type Result struct {
	Diagnostics []mnx.Diagnostic
	Violations  []error
}

// Merge appends the findings of other.
func (r *Result) Merge(other Result) {
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
	r.Violations = append(r.Violations, other.Violations...)
}

// Err returns nil when there are no violations, otherwise an error joining
// them that matches each violation's sentinel with errors.Is.
func (r Result) Err() error {
	if len(r.Violations) == 0 {
		return nil
	}
	errs := r.Violations
	if len(errs) > maxReportedViolations {
		more := len(errs) - maxReportedViolations
		errs = append(errs[:maxReportedViolations:maxReportedViolations], fmt.Errorf("... and %d more", more))
	}
	return fmt.Errorf("integrity validation failed with %d violation(s): %w", len(r.Violations), errors.Join(errs...))
}

// Validator runs registered rules in order.
type Validator struct {
	rules  []Rule
	logger mnx.Logger
}

// New creates a validator without rules.
// Panics if logger is nil.
func New(logger mnx.Logger) *Validator {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Validator{logger: logger}
}

// NewDefault creates a validator with the built-in rule set.
func NewDefault(logger mnx.Logger) *Validator {
	v := New(logger)
	v.Register(DanglingEdgeRule{})
	v.Register(DuplicateKeyRule{})
	v.Register(AmbiguityRule{})
	v.Register(DegenerateReactionRule{})
	return v
}

// Register appends a rule.
func (v *Validator) Register(rule Rule) {
	v.rules = append(v.rules, rule)
}

// Validate evaluates every rule and returns the graph with the diagnostics
// the rules produced appended. Any violation fails validation.
func (v *Validator) Validate(ctx context.Context, g *mnx.ResolvedGraph) (*mnx.ResolvedGraph, error) {
	var combined Result
	for _, rule := range v.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := rule.Evaluate(ctx, g)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		v.logger.Verbose("Rule %s: %d diagnostic(s), %d violation(s)", rule.Name(), len(res.Diagnostics), len(res.Violations))
		combined.Merge(res)
	}
	if err := combined.Err(); err != nil {
		return nil, err
	}
	return g.WithDiagnostics(combined.Diagnostics), nil
}
