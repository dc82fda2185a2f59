// Package loadertest builds small resolved graphs for sink tests.
package loadertest

import (
	"github.com/google/uuid"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

var space = uuid.MustParse("6f1f3c9e-6a77-4c0e-9d8b-2f1d1f0a5e11")

// ID derives a stable id from a key so expectations can be written inline.
func ID(key string) mnx.CanonicalID {
	return uuid.NewSHA1(space, []byte(key))
}

// Graph is a water-forming reaction in the cytosol with one chebi
// cross-reference, one ambiguous compound and an EC annotation.
func Graph() *mnx.ResolvedGraph {
	cyto := ID("MNXC3")
	h2 := ID("MNXM2")
	o2 := ID("MNXM4")
	h2o := ID("MNXM1")
	rxn := ID("MNXR1")
	chebi := ID("ns:chebi")

	entities := []mnx.Entity{
		{ID: chebi, Kind: mnx.KindNamespace, Key: mnx.Ref("identifiers.org", "chebi"), Attributes: map[string]string{"mir": "MIR:00000002"}},
		{ID: cyto, Kind: mnx.KindCompartment, Key: mnx.Ref(mnx.NamespaceCompartment, "MNXC3"), Names: map[string][]string{mnx.NamespaceCompartment: {"cytosol"}}},
		{ID: h2, Kind: mnx.KindCompound, Key: mnx.Ref(mnx.NamespaceChemical, "MNXM2"), Structure: &mnx.Formula{Elements: map[string]int{"H": 2}}},
		{ID: o2, Kind: mnx.KindCompound, Key: mnx.Ref(mnx.NamespaceChemical, "MNXM4"), Structure: &mnx.Formula{Elements: map[string]int{"O": 2}}},
		{
			ID: h2o, Kind: mnx.KindCompound, Key: mnx.Ref(mnx.NamespaceChemical, "MNXM1"),
			Structure:  &mnx.Formula{Elements: map[string]int{"H": 2, "O": 1}},
			Aliases:    map[string][]string{"chebi": {"15377", "29375"}, mnx.NamespaceChemical: {"MNXM1"}},
			Names:      map[string][]string{mnx.NamespaceChemical: {"water", "H2O"}},
			Attributes: map[string]string{mnx.AttrInChIKey: "XLYOFNOQVPJJNP-UHFFFAOYSA-N"},
			Ambiguous:  true,
			Collisions: map[string][]string{"chebi": {"15377", "29375"}},
		},
		{
			ID: rxn, Kind: mnx.KindReaction, Key: mnx.Ref(mnx.NamespaceReaction, "MNXR1"),
			Structure: &mnx.Equation{Direction: mnx.DirectionForward, Terms: []mnx.Term{
				{Coefficient: mnx.NewCoefficient(2, 1), Compound: mnx.Ref(mnx.NamespaceChemical, "MNXM2"), Compartment: mnx.Ref(mnx.NamespaceCompartment, "MNXC3"), Side: mnx.SideReactant},
				{Coefficient: mnx.NewCoefficient(1, 1), Compound: mnx.Ref(mnx.NamespaceChemical, "MNXM4"), Compartment: mnx.Ref(mnx.NamespaceCompartment, "MNXC3"), Side: mnx.SideReactant},
				{Coefficient: mnx.NewCoefficient(2, 1), Compound: mnx.Ref(mnx.NamespaceChemical, "MNXM1"), Compartment: mnx.Ref(mnx.NamespaceCompartment, "MNXC3"), Side: mnx.SideProduct},
			}},
			Aliases: map[string][]string{mnx.NamespaceECCode: {"1.1.1.1"}},
		},
	}

	term := func(p, q int64, side mnx.Side) []mnx.EdgeTerm {
		return []mnx.EdgeTerm{{Coefficient: mnx.NewCoefficient(p, q), Compartment: cyto, Side: side}}
	}
	edges := []mnx.Edge{
		{Source: rxn, Target: h2, Kind: mnx.EdgeParticipant, Terms: term(-2, 1, mnx.SideReactant)},
		{Source: rxn, Target: o2, Kind: mnx.EdgeParticipant, Terms: term(-1, 1, mnx.SideReactant)},
		{Source: rxn, Target: h2o, Kind: mnx.EdgeParticipant, Terms: term(2, 1, mnx.SideProduct)},
		{Source: rxn, Target: cyto, Kind: mnx.EdgeCompartmentMembership},
		{Source: h2o, Target: chebi, Kind: mnx.EdgeCrossReference, Identifiers: []string{"15377", "29375"}, Description: "water"},
	}
	return mnx.NewResolvedGraph(entities, edges, nil)
}

// Dangling returns Graph with an extra edge pointing outside the batch.
func Dangling() *mnx.ResolvedGraph {
	g := Graph()
	edges := append(append([]mnx.Edge(nil), g.Edges...), mnx.Edge{
		Source: ID("MNXR1"), Target: ID("MNXM999"), Kind: mnx.EdgeParticipant,
		Terms: []mnx.EdgeTerm{{Coefficient: mnx.NewCoefficient(1, 1), Compartment: ID("MNXC3"), Side: mnx.SideProduct}},
	})
	return mnx.NewResolvedGraph(append([]mnx.Entity(nil), g.Entities...), edges, nil)
}
