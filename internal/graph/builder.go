package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vvka-141/mnxnorm/internal/namespace"
	"github.com/vvka-141/mnxnorm/internal/resolver"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// RegistryNamespace is the namespace of the keys of namespace entities.
const RegistryNamespace = "identifiers.org"

// NamespaceID returns the canonical id of the entity representing a namespace.
func NamespaceID(prefix string) mnx.CanonicalID {
	return resolver.CanonicalID(mnx.KindNamespace, mnx.Ref(RegistryNamespace, prefix))
}

// Builder assembles resolved graphs.
type Builder struct {
	resolver *resolver.Resolver
	registry *namespace.Registry
	logger   mnx.Logger
}

// NewBuilder creates a builder. A nil registry synthesizes namespace
// entities from the prefixes seen; otherwise cross-references in prefixes
// the registry lacks are skipped with a warning.
// Panics if res or logger is nil.
func NewBuilder(res *resolver.Resolver, registry *namespace.Registry, logger mnx.Logger) *Builder {
	if res == nil {
		panic("resolver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Builder{resolver: res, registry: registry, logger: logger}
}

// build carries the state of one Build call.
type build struct {
	*Builder
	dropped    map[mnx.SourceRef]bool
	diags      []mnx.Diagnostic
	unresolved []error
}

// members groups the records that resolved to one identity.
type members struct {
	props []mnx.ParsedRecord
	xrefs []mnx.RawRecord
}

// Build resolves records and assembles the graph. dropped lists ids whose
// records were removed before this stage.
func (b *Builder) Build(ctx context.Context, records []mnx.ParsedRecord, dropped []mnx.SourceRef) (*mnx.ResolvedGraph, error) {
	run := &build{Builder: b, dropped: make(map[mnx.SourceRef]bool)}

	declared := make(map[mnx.SourceRef]bool)
	for _, pr := range records {
		if pr.Raw.Kind != mnx.KindXref {
			declared[pr.Raw.Ref] = true
		}
	}
	for _, ref := range dropped {
		if !declared[ref] {
			run.dropped[ref] = true
		}
	}

	kept := run.cascade(records)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, diags := b.resolver.Resolve(kept)
	run.diags = append(run.diags, diags...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	grouped := make(map[*resolver.Set]*members, len(res.Sets()))
	for _, pr := range kept {
		rec := pr.Raw
		kind := rec.Kind
		if kind == mnx.KindXref {
			kind = rec.TargetKind
			if !res.IsDefined(rec.TargetKind, rec.Target) {
				run.unresolved = append(run.unresolved, &ReferenceError{Record: rec, Ref: rec.Target, Kind: rec.TargetKind, Role: "cross-reference target"})
				continue
			}
		}
		s, _ := res.Lookup(kind, rec.Ref)
		m := grouped[s]
		if m == nil {
			m = &members{}
			grouped[s] = m
		}
		if rec.Kind == mnx.KindXref {
			m.xrefs = append(m.xrefs, rec)
		} else {
			m.props = append(m.props, pr)
		}
	}
	if len(run.unresolved) > 0 {
		return nil, joinReferenceErrors(run.unresolved)
	}

	var entities []mnx.Entity
	var edges []mnx.Edge
	namespaces := make(map[string]bool)
	for _, s := range res.Sets() {
		m := grouped[s]
		if m == nil {
			m = &members{}
		}
		ent, source := run.entity(s, m)
		entities = append(entities, ent)

		xrefEdges := crossReferences(ent, m)
		if ent.Kind == mnx.KindReaction {
			if codes := ecCodes(m.props); len(codes) > 0 {
				xrefEdges = append(xrefEdges, mnx.Edge{
					Source: ent.ID, Target: NamespaceID(mnx.NamespaceECCode),
					Kind: mnx.EdgeCrossReference, Identifiers: codes,
				})
				namespaces[mnx.NamespaceECCode] = true
			}
			edges = append(edges, run.participants(res, ent, source)...)
		}
		for ns := range ent.Aliases {
			namespaces[ns] = true
		}
		edges = append(edges, xrefEdges...)
	}
	if len(run.unresolved) > 0 {
		return nil, joinReferenceErrors(run.unresolved)
	}
	entities = append(entities, run.namespaceEntities(namespaces)...)

	g := mnx.NewResolvedGraph(entities, edges, run.diags)
	counts := g.Counts()
	b.logger.Verbose("Built graph: %d compounds, %d reactions, %d compartments, %d namespaces, %d edges",
		counts[mnx.KindCompound], counts[mnx.KindReaction], counts[mnx.KindCompartment], counts[mnx.KindNamespace], len(g.Edges))
	return g, nil
}

// cascade removes reactions and cross-references that depend on dropped
// records. A dropped reaction is itself added to the dropped set so that its
// cross-references follow it.
func (run *build) cascade(records []mnx.ParsedRecord) []mnx.ParsedRecord {
	kept := make([]mnx.ParsedRecord, 0, len(records))
	for _, pr := range records {
		if eq, ok := pr.Structure.(*mnx.Equation); ok {
			if dep, found := run.droppedDependency(eq); found {
				run.dropDependent(pr.Raw, dep)
				run.dropped[pr.Raw.Ref] = true
				continue
			}
		}
		kept = append(kept, pr)
	}

	out := kept[:0]
	unknown := make(map[string]int)
	for _, pr := range kept {
		rec := pr.Raw
		if rec.Kind != mnx.KindXref {
			out = append(out, pr)
			continue
		}
		switch {
		case run.dropped[rec.Target]:
			run.dropDependent(rec, rec.Target)
		case namespace.Ignored(rec.Ref.Namespace):
		case run.registry != nil && !run.known(rec.Ref.Namespace):
			unknown[rec.Ref.Namespace]++
		default:
			out = append(out, pr)
		}
	}

	prefixes := make([]string, 0, len(unknown))
	for p := range unknown {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		run.diags = append(run.diags, mnx.Diagnostic{
			Severity: mnx.SeverityWarning,
			Code:     mnx.CodeUnknownNamespace,
			Stage:    "build",
			Context:  map[string]string{"prefix": p, "skipped": fmt.Sprint(unknown[p])},
		})
		run.logger.Warn("Skipped %d cross-references in unregistered namespace %q", unknown[p], p)
	}
	return out
}

func (run *build) droppedDependency(eq *mnx.Equation) (mnx.SourceRef, bool) {
	for _, t := range eq.Terms {
		if run.dropped[t.Compound] {
			return t.Compound, true
		}
		if run.dropped[t.Compartment] {
			return t.Compartment, true
		}
	}
	return mnx.SourceRef{}, false
}

func (run *build) dropDependent(rec mnx.RawRecord, dep mnx.SourceRef) {
	run.diags = append(run.diags, mnx.Diagnostic{
		Severity: mnx.SeverityWarning,
		Code:     mnx.CodeDroppedDependency,
		Stage:    "build",
		Context:  map[string]string{"record": rec.Location(), "id": rec.Ref.String(), "dependency": dep.String()},
	})
}

func (run *build) known(prefix string) bool {
	if _, ok := run.registry.Lookup(prefix); ok {
		return true
	}
	return isPrimary(prefix)
}

func isPrimary(ns string) bool {
	return ns == mnx.NamespaceChemical || ns == mnx.NamespaceReaction || ns == mnx.NamespaceCompartment
}

// entity builds the entity of one identity and returns the property record
// its structure came from.
func (run *build) entity(s *resolver.Set, m *members) (mnx.Entity, *mnx.ParsedRecord) {
	props := append([]mnx.ParsedRecord(nil), m.props...)
	sort.SliceStable(props, func(i, j int) bool {
		ri, rj := run.resolver.Rank(props[i].Raw.Ref.Namespace), run.resolver.Rank(props[j].Raw.Ref.Namespace)
		if ri != rj {
			return ri < rj
		}
		return props[i].Raw.Index < props[j].Raw.Index
	})

	ent := mnx.Entity{
		ID:         s.ID,
		Kind:       s.Kind,
		Key:        s.Representative,
		Aliases:    make(map[string][]string),
		Names:      make(map[string][]string),
		Attributes: make(map[string]string),
		Ambiguous:  s.Ambiguous,
		Collisions: s.Collisions,
	}
	for _, ref := range s.Members {
		ent.Aliases[ref.Namespace] = append(ent.Aliases[ref.Namespace], ref.ID)
	}

	var source *mnx.ParsedRecord
	for i := range props {
		rec := props[i].Raw
		if source == nil && props[i].Structure != nil {
			source = &props[i]
			ent.Structure = props[i].Structure
		}
		addNames(ent.Names, rec.Ref.Namespace, rec.Names)
		for k, v := range rec.Attributes {
			if _, set := ent.Attributes[k]; !set {
				ent.Attributes[k] = v
			}
		}
	}
	for _, rec := range m.xrefs {
		addNames(ent.Names, rec.Ref.Namespace, rec.Names)
	}
	return ent, source
}

func addNames(into map[string][]string, ns string, names []string) {
	for _, n := range names {
		dup := false
		for _, have := range into[ns] {
			if have == n {
				dup = true
				break
			}
		}
		if !dup {
			into[ns] = append(into[ns], n)
		}
	}
}

// crossReferences links an entity to each namespace of its aliases.
func crossReferences(ent mnx.Entity, m *members) []mnx.Edge {
	descriptions := make(map[string][]string)
	for _, rec := range m.xrefs {
		addNames(descriptions, rec.Ref.Namespace, rec.Names)
	}
	namespaces := make([]string, 0, len(ent.Aliases))
	for ns := range ent.Aliases {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	edges := make([]mnx.Edge, 0, len(namespaces))
	for _, ns := range namespaces {
		edges = append(edges, mnx.Edge{
			Source:      ent.ID,
			Target:      NamespaceID(ns),
			Kind:        mnx.EdgeCrossReference,
			Identifiers: ent.Aliases[ns],
			Description: strings.Join(descriptions[ns], "|"),
		})
	}
	return edges
}

func ecCodes(props []mnx.ParsedRecord) []string {
	var codes []string
	seen := make(map[string]bool)
	for _, pr := range props {
		for _, c := range namespace.ECCodes(pr.Raw) {
			if !seen[c] {
				seen[c] = true
				codes = append(codes, c)
			}
		}
	}
	return codes
}

// participants normalizes the terms of a reaction's equation into one edge
// per compound and one membership edge per compartment. Coefficients are
// signed by side: negative terms are reactants.
func (run *build) participants(res *resolver.Resolution, rxn mnx.Entity, source *mnx.ParsedRecord) []mnx.Edge {
	if source == nil {
		return nil
	}
	eq, ok := source.Structure.(*mnx.Equation)
	if !ok {
		return nil
	}

	var edges []mnx.Edge
	byCompound := make(map[mnx.CanonicalID]int)
	compartments := make(map[mnx.CanonicalID]bool)
	for _, t := range eq.Terms {
		compound, ok := run.lookup(res, source.Raw, mnx.KindCompound, t.Compound, "participant")
		if !ok {
			continue
		}
		compartment, ok := run.lookup(res, source.Raw, mnx.KindCompartment, t.Compartment, "compartment")
		if !ok {
			continue
		}

		term := normalize(t)
		term.Compartment = compartment
		if i, seen := byCompound[compound]; seen {
			edges[i].Terms = append(edges[i].Terms, term)
		} else {
			byCompound[compound] = len(edges)
			edges = append(edges, mnx.Edge{Source: rxn.ID, Target: compound, Kind: mnx.EdgeParticipant, Terms: []mnx.EdgeTerm{term}})
		}
		if !compartments[compartment] {
			compartments[compartment] = true
			edges = append(edges, mnx.Edge{Source: rxn.ID, Target: compartment, Kind: mnx.EdgeCompartmentMembership})
		}
	}
	return edges
}

func (run *build) lookup(res *resolver.Resolution, rec mnx.RawRecord, kind mnx.Kind, ref mnx.SourceRef, role string) (mnx.CanonicalID, bool) {
	s, ok := res.Lookup(kind, ref)
	if !ok || !s.Defined {
		run.unresolved = append(run.unresolved, &ReferenceError{Record: rec, Ref: ref, Kind: kind, Role: role})
		return mnx.CanonicalID{}, false
	}
	return s.ID, true
}

// normalize applies the side of a term to its coefficient. A negative
// effective coefficient makes the term a reactant whatever side it was
// written on; a zero coefficient keeps the written side.
func normalize(t mnx.Term) mnx.EdgeTerm {
	c := t.Coefficient
	if t.Side == mnx.SideReactant {
		c = c.Neg()
	}
	side := t.Side
	switch {
	case c.IsZero():
	case c.Sign() < 0:
		side = mnx.SideReactant
	default:
		side = mnx.SideProduct
	}
	return mnx.EdgeTerm{Coefficient: c, Side: side}
}

// namespaceEntities builds one entity per namespace used by the graph.
func (run *build) namespaceEntities(used map[string]bool) []mnx.Entity {
	prefixes := make([]string, 0, len(used))
	for p := range used {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	entities := make([]mnx.Entity, 0, len(prefixes))
	for _, p := range prefixes {
		ns := namespace.Synthesize(p)
		if run.registry != nil {
			if entry, ok := run.registry.Lookup(p); ok {
				ns = entry
			} else {
				run.diags = append(run.diags, mnx.Diagnostic{
					Severity: mnx.SeverityInfo,
					Code:     mnx.CodeUnknownNamespace,
					Stage:    "build",
					Context:  map[string]string{"prefix": p, "action": "synthesized"},
				})
			}
		}
		entities = append(entities, mnx.Entity{
			ID:         NamespaceID(p),
			Kind:       mnx.KindNamespace,
			Key:        mnx.Ref(RegistryNamespace, p),
			Aliases:    map[string][]string{},
			Names:      map[string][]string{RegistryNamespace: {ns.Name}},
			Attributes: ns.Attributes(),
		})
	}
	return entities
}
