package loader

import (
	"sort"
	"strings"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

type EntityRow struct {
	ID         string
	Kind       string
	Namespace  string
	Identifier string
	Structure  string
	Ambiguous  bool
}

type AliasRow struct {
	EntityID   string
	Namespace  string
	Identifier string
	Collision  bool
}

type NameRow struct {
	EntityID  string
	Namespace string
	Name      string
}

type AttributeRow struct {
	EntityID string
	Key      string
	Value    string
}

type EdgeRow struct {
	SourceID    string
	TargetID    string
	Kind        string
	Identifiers []string
	Description string
}

// TermRow is one stoichiometric occurrence on a participant edge. Value is
// the decimal rendering of numeric coefficients and empty for symbolic ones.
type TermRow struct {
	SourceID      string
	TargetID      string
	Ordinal       int
	Coefficient   string
	Value         string
	CompartmentID string
	Side          string
}

// Tables is a graph flattened into rows, in deterministic order.
type Tables struct {
	Entities   []EntityRow
	Aliases    []AliasRow
	Names      []NameRow
	Attributes []AttributeRow
	Edges      []EdgeRow
	Terms      []TermRow
}

// Summary reports the row counts a sink writes for these tables.
func (t *Tables) Summary() mnx.WriteSummary {
	return mnx.WriteSummary{
		Entities: len(t.Entities),
		Edges:    len(t.Edges),
		Aliases:  len(t.Aliases),
		Names:    len(t.Names),
	}
}

// EntityIDs lists the ids of all entity rows.
func (t *Tables) EntityIDs() []string {
	ids := make([]string, len(t.Entities))
	for i, e := range t.Entities {
		ids[i] = e.ID
	}
	return ids
}

// Rows flattens g. Namespaces, names and attribute keys are sorted.
func Rows(g *mnx.ResolvedGraph) *Tables {
	t := &Tables{}
	for _, e := range g.Entities {
		id := e.ID.String()
		row := EntityRow{
			ID:         id,
			Kind:       string(e.Kind),
			Namespace:  e.Key.Namespace,
			Identifier: e.Key.ID,
			Ambiguous:  e.Ambiguous,
		}
		if e.Structure != nil {
			row.Structure = e.Structure.String()
		}
		t.Entities = append(t.Entities, row)

		for _, ns := range sortedKeys(e.Aliases) {
			collisions := make(map[string]bool)
			for _, c := range e.Collisions[ns] {
				collisions[c] = true
			}
			for _, ident := range e.Aliases[ns] {
				t.Aliases = append(t.Aliases, AliasRow{EntityID: id, Namespace: ns, Identifier: ident, Collision: collisions[ident]})
			}
		}
		for _, ns := range sortedKeys(e.Names) {
			for _, name := range e.Names[ns] {
				t.Names = append(t.Names, NameRow{EntityID: id, Namespace: ns, Name: name})
			}
		}
		attrKeys := make([]string, 0, len(e.Attributes))
		for k := range e.Attributes {
			attrKeys = append(attrKeys, k)
		}
		sort.Strings(attrKeys)
		for _, k := range attrKeys {
			t.Attributes = append(t.Attributes, AttributeRow{EntityID: id, Key: k, Value: e.Attributes[k]})
		}
	}

	for _, edge := range g.Edges {
		src, dst := edge.Source.String(), edge.Target.String()
		t.Edges = append(t.Edges, EdgeRow{
			SourceID:    src,
			TargetID:    dst,
			Kind:        string(edge.Kind),
			Identifiers: append([]string(nil), edge.Identifiers...),
			Description: edge.Description,
		})
		for i, term := range edge.Terms {
			row := TermRow{
				SourceID:      src,
				TargetID:      dst,
				Ordinal:       i,
				Coefficient:   term.Coefficient.String(),
				CompartmentID: term.Compartment.String(),
				Side:          term.Side.String(),
			}
			if term.Coefficient.Value != nil {
				row.Value = strings.TrimRight(strings.TrimRight(term.Coefficient.Value.FloatString(6), "0"), ".")
			}
			t.Terms = append(t.Terms, row)
		}
	}
	return t
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
