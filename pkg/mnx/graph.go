package mnx

import (
	"sort"

	"github.com/google/uuid"
)

// CanonicalID identifies one real-world entity after alias resolution.
type CanonicalID = uuid.UUID

// Entity is a canonical compound, reaction, compartment or namespace.
type Entity struct {
	ID   CanonicalID
	Kind Kind
	// Key is the representative source id the canonical id was derived from.
	Key       SourceRef
	Structure Structure

	Aliases    map[string][]string
	Names      map[string][]string
	Attributes map[string]string

	// Ambiguous is set when more than one id of a single namespace resolved
	// to this entity. Collisions lists those ids per namespace.
	Ambiguous  bool
	Collisions map[string][]string
}

// EdgeKind classifies relationships between entities.
type EdgeKind string

const (
	EdgeParticipant           EdgeKind = "participant"
	EdgeCrossReference        EdgeKind = "cross-reference"
	EdgeCompartmentMembership EdgeKind = "compartment-membership"
)

// EdgeTerm is one normalized occurrence of a compound in a reaction.
// Coefficient is negative for reactants and positive for products.
type EdgeTerm struct {
	Coefficient Coefficient
	Compartment CanonicalID
	Side        Side
}

// Edge links two entities. Edges are unique by (Source, Target, Kind).
type Edge struct {
	Source CanonicalID
	Target CanonicalID
	Kind   EdgeKind

	// Terms is set on participant edges.
	Terms []EdgeTerm
	// Identifiers and Description are set on cross-reference edges, which
	// point from an entity to the namespace entity the identifiers belong to.
	Identifiers []string
	Description string
}

// EdgeKey is the upsert key of an edge.
type EdgeKey struct {
	Source CanonicalID
	Target CanonicalID
	Kind   EdgeKind
}

func (e Edge) Key() EdgeKey {
	return EdgeKey{Source: e.Source, Target: e.Target, Kind: e.Kind}
}

// References returns every canonical id the edge depends on.
func (e Edge) References() []CanonicalID {
	refs := []CanonicalID{e.Source, e.Target}
	for _, t := range e.Terms {
		refs = append(refs, t.Compartment)
	}
	return refs
}

// ResolvedGraph is the complete output of one run handed to a Sink.
type ResolvedGraph struct {
	Entities    []Entity
	Edges       []Edge
	Diagnostics []Diagnostic

	index map[CanonicalID]int
}

// NewResolvedGraph orders entities and edges deterministically and indexes
// entities by id. When ids repeat the first entity wins the index.
func NewResolvedGraph(entities []Entity, edges []Edge, diags []Diagnostic) *ResolvedGraph {
	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].Kind != entities[j].Kind {
			return kindRank(entities[i].Kind) < kindRank(entities[j].Kind)
		}
		return entities[i].Key.String() < entities[j].Key.String()
	})
	sort.SliceStable(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Source != b.Source {
			return a.Source.String() < b.Source.String()
		}
		return a.Target.String() < b.Target.String()
	})
	g := &ResolvedGraph{Entities: entities, Edges: edges, Diagnostics: diags}
	g.index = make(map[CanonicalID]int, len(entities))
	for i, e := range entities {
		if _, ok := g.index[e.ID]; !ok {
			g.index[e.ID] = i
		}
	}
	return g
}

func kindRank(k Kind) int {
	switch k {
	case KindNamespace:
		return 0
	case KindCompartment:
		return 1
	case KindCompound:
		return 2
	case KindReaction:
		return 3
	default:
		return 4
	}
}

// Entity looks up an entity by canonical id.
func (g *ResolvedGraph) Entity(id CanonicalID) (Entity, bool) {
	i, ok := g.index[id]
	if !ok {
		return Entity{}, false
	}
	return g.Entities[i], true
}

// Has reports whether an entity with the id exists.
func (g *ResolvedGraph) Has(id CanonicalID) bool {
	_, ok := g.index[id]
	return ok
}

// EdgesFrom returns the edges of a kind leaving the entity.
func (g *ResolvedGraph) EdgesFrom(id CanonicalID, kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Counts returns the number of entities per kind.
func (g *ResolvedGraph) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, e := range g.Entities {
		counts[e.Kind]++
	}
	return counts
}

// WithDiagnostics returns a graph sharing entities and edges with extra diagnostics appended.
func (g *ResolvedGraph) WithDiagnostics(extra []Diagnostic) *ResolvedGraph {
	if len(extra) == 0 {
		return g
	}
	diags := make([]Diagnostic, 0, len(g.Diagnostics)+len(extra))
	diags = append(diags, g.Diagnostics...)
	diags = append(diags, extra...)
	return &ResolvedGraph{Entities: g.Entities, Edges: g.Edges, Diagnostics: diags, index: g.index}
}
