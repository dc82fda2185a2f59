package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/vvka-141/mnxnorm/internal/resolver"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

const stage = "validate"

// DanglingEdgeError reports an edge referencing an id that is not an entity.
type DanglingEdgeError struct {
	Edge    mnx.Edge
	Missing mnx.CanonicalID
}

func (e *DanglingEdgeError) Error() string {
	return fmt.Sprintf("%s edge %s -> %s references missing entity %s: %v",
		e.Edge.Kind, e.Edge.Source, e.Edge.Target, e.Missing, mnx.ErrDanglingEdge)
}

func (e *DanglingEdgeError) Unwrap() error {
	return mnx.ErrDanglingEdge
}

// DuplicateKeyError reports entities sharing one canonical id.
type DuplicateKeyError struct {
	ID   mnx.CanonicalID
	Keys []mnx.SourceRef
}

func (e *DuplicateKeyError) Error() string {
	keys := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		keys[i] = k.String()
	}
	return fmt.Sprintf("canonical id %s is shared by %s: %v", e.ID, strings.Join(keys, ", "), mnx.ErrDuplicateCanonicalKey)
}

func (e *DuplicateKeyError) Unwrap() error {
	return mnx.ErrDuplicateCanonicalKey
}

// DanglingEdgeRule requires every edge endpoint and term compartment to be an entity.
type DanglingEdgeRule struct{}

func (DanglingEdgeRule) Name() string { return "dangling_edge" }

func (DanglingEdgeRule) Evaluate(_ context.Context, g *mnx.ResolvedGraph) (Result, error) {
	var res Result
	for _, e := range g.Edges {
		for _, id := range e.References() {
			if !g.Has(id) {
				res.Violations = append(res.Violations, &DanglingEdgeError{Edge: e, Missing: id})
				break
			}
		}
	}
	return res, nil
}

// DuplicateKeyRule requires canonical ids to be unique across entities.
type DuplicateKeyRule struct{}

func (DuplicateKeyRule) Name() string { return "duplicate_canonical_key" }

func (DuplicateKeyRule) Evaluate(_ context.Context, g *mnx.ResolvedGraph) (Result, error) {
	keys := make(map[mnx.CanonicalID][]mnx.SourceRef, len(g.Entities))
	var order []mnx.CanonicalID
	for _, ent := range g.Entities {
		if _, seen := keys[ent.ID]; !seen {
			order = append(order, ent.ID)
		}
		keys[ent.ID] = append(keys[ent.ID], ent.Key)
	}
	var res Result
	for _, id := range order {
		if len(keys[id]) > 1 {
			res.Violations = append(res.Violations, &DuplicateKeyError{ID: id, Keys: keys[id]})
		}
	}
	return res, nil
}

// AmbiguityRule requires every ambiguous entity to be covered by an
// AmbiguousIdentity diagnostic. Missing diagnostics are synthesized.
type AmbiguityRule struct{}

func (AmbiguityRule) Name() string { return "ambiguous_identity" }

func (AmbiguityRule) Evaluate(_ context.Context, g *mnx.ResolvedGraph) (Result, error) {
	reported := make(map[string]bool)
	for _, d := range g.Diagnostics {
		if d.Code == mnx.CodeAmbiguousIdentity {
			reported[d.Context["canonical_id"]] = true
		}
	}
	var res Result
	for _, ent := range g.Entities {
		if !ent.Ambiguous && len(ent.Collisions) == 0 {
			continue
		}
		if reported[ent.ID.String()] {
			continue
		}
		collisions := ent.Collisions
		if len(collisions) == 0 {
			collisions = sameNamespaceAliases(ent.Aliases)
		}
		res.Diagnostics = append(res.Diagnostics, resolver.AmbiguityDiagnostic(ent.ID, ent.Kind, ent.Key, collisions, stage))
	}
	return res, nil
}

func sameNamespaceAliases(aliases map[string][]string) map[string][]string {
	out := make(map[string][]string)
	for ns, ids := range aliases {
		if len(ids) > 1 {
			out[ns] = ids
		}
	}
	return out
}

// DegenerateReactionRule warns about reactions without participants or with
// only zero coefficients.
type DegenerateReactionRule struct{}

func (DegenerateReactionRule) Name() string { return "degenerate_reaction" }

func (DegenerateReactionRule) Evaluate(_ context.Context, g *mnx.ResolvedGraph) (Result, error) {
	terms := make(map[mnx.CanonicalID][]mnx.EdgeTerm)
	for _, e := range g.Edges {
		if e.Kind == mnx.EdgeParticipant {
			terms[e.Source] = append(terms[e.Source], e.Terms...)
		}
	}

	var res Result
	for _, ent := range g.Entities {
		if ent.Kind != mnx.KindReaction {
			continue
		}
		reason := degenerate(terms[ent.ID])
		if reason == "" {
			continue
		}
		res.Diagnostics = append(res.Diagnostics, mnx.Diagnostic{
			Severity: mnx.SeverityWarning,
			Code:     mnx.CodeDegenerateReaction,
			Stage:    stage,
			Context:  map[string]string{"canonical_id": ent.ID.String(), "id": ent.Key.String(), "reason": reason},
		})
	}
	return res, nil
}

func degenerate(terms []mnx.EdgeTerm) string {
	if len(terms) == 0 {
		return "no participants"
	}
	for _, t := range terms {
		if !t.Coefficient.IsZero() {
			return ""
		}
	}
	return "all coefficients are zero"
}
