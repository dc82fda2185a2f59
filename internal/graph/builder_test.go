package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/mnxnorm/internal/grammar"
	"github.com/vvka-141/mnxnorm/internal/logging"
	"github.com/vvka-141/mnxnorm/internal/namespace"
	"github.com/vvka-141/mnxnorm/internal/resolver"
	"github.com/vvka-141/mnxnorm/internal/validator"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// fixture accumulates records the way the ingest stage emits them.
type fixture struct {
	t         *testing.T
	equations *grammar.EquationParser
	formulas  *grammar.FormulaParser
	records   []mnx.ParsedRecord
}

func newFixture(t *testing.T, defaultCompartment string) *fixture {
	refs := grammar.NewRefParser(nil)
	return &fixture{t: t, equations: grammar.NewEquationParser(refs, defaultCompartment), formulas: grammar.NewFormulaParser()}
}

func (f *fixture) add(rec mnx.RawRecord, s mnx.Structure) *fixture {
	rec.Index = len(f.records)
	f.records = append(f.records, mnx.ParsedRecord{Raw: rec, Structure: s})
	return f
}

func (f *fixture) compartment(id string) *fixture {
	return f.add(mnx.RawRecord{Kind: mnx.KindCompartment, Ref: mnx.Ref(mnx.NamespaceCompartment, id)}, nil)
}

func (f *fixture) compound(ns, id, formula string, names ...string) *fixture {
	var s mnx.Structure
	if formula != "" {
		parsed, err := f.formulas.Parse(formula)
		require.NoError(f.t, err)
		s = parsed
	}
	return f.add(mnx.RawRecord{Kind: mnx.KindCompound, Ref: mnx.Ref(ns, id), Names: names}, s)
}

func (f *fixture) reaction(id, equation string, attrs map[string]string) *fixture {
	eq, err := f.equations.Parse(equation)
	require.NoError(f.t, err)
	return f.add(mnx.RawRecord{Kind: mnx.KindReaction, Ref: mnx.Ref(mnx.NamespaceReaction, id), Attributes: attrs}, eq)
}

func (f *fixture) xref(kind mnx.Kind, source, target mnx.SourceRef, names ...string) *fixture {
	return f.add(mnx.RawRecord{Kind: mnx.KindXref, Ref: source, Target: target, TargetKind: kind, Names: names}, nil)
}

func newBuilder(registry *namespace.Registry) *Builder {
	return NewBuilder(resolver.New(resolver.Options{}), registry, logging.NewNullLogger())
}

func chemID(id string) mnx.CanonicalID {
	return resolver.CanonicalID(mnx.KindCompound, mnx.Ref(mnx.NamespaceChemical, id))
}

func reacID(id string) mnx.CanonicalID {
	return resolver.CanonicalID(mnx.KindReaction, mnx.Ref(mnx.NamespaceReaction, id))
}

func TestBuild_SimpleForwardReaction(t *testing.T) {
	f := newFixture(t, "cytosol").
		compartment("cytosol").
		compound(mnx.NamespaceChemical, "A", "").
		compound(mnx.NamespaceChemical, "B", "").
		reaction("R1", "A --> B", nil)

	g, err := newBuilder(nil).Build(context.Background(), f.records, nil)
	require.NoError(t, err)

	edges := g.EdgesFrom(reacID("R1"), mnx.EdgeParticipant)
	require.Len(t, edges, 2)
	cytosol := resolver.CanonicalID(mnx.KindCompartment, mnx.Ref(mnx.NamespaceCompartment, "cytosol"))

	terms := map[mnx.CanonicalID]mnx.EdgeTerm{}
	for _, e := range edges {
		require.Len(t, e.Terms, 1)
		terms[e.Target] = e.Terms[0]
	}
	a, b := terms[chemID("A")], terms[chemID("B")]
	assert.Equal(t, "-1", a.Coefficient.String())
	assert.Equal(t, mnx.SideReactant, a.Side)
	assert.Equal(t, cytosol, a.Compartment)
	assert.Equal(t, "1", b.Coefficient.String())
	assert.Equal(t, mnx.SideProduct, b.Side)

	membership := g.EdgesFrom(reacID("R1"), mnx.EdgeCompartmentMembership)
	require.Len(t, membership, 1)
	assert.Equal(t, cytosol, membership[0].Target)
}

func TestBuild_ParticipantTermsAggregatePerCompound(t *testing.T) {
	f := newFixture(t, "MNXD1").
		compartment("MNXD1").
		compartment("MNXD2").
		compound(mnx.NamespaceChemical, "MNXM1", "H+").
		reaction("MNXR1", "1 MNXM1@MNXD1 = 1 MNXM1@MNXD2", nil)

	g, err := newBuilder(nil).Build(context.Background(), f.records, nil)
	require.NoError(t, err)

	edges := g.EdgesFrom(reacID("MNXR1"), mnx.EdgeParticipant)
	require.Len(t, edges, 1, "edge key (source, target, kind) stays unique")
	require.Len(t, edges[0].Terms, 2)
	assert.Equal(t, -1, edges[0].Terms[0].Coefficient.Sign())
	assert.Equal(t, 1, edges[0].Terms[1].Coefficient.Sign())
	assert.NotEqual(t, edges[0].Terms[0].Compartment, edges[0].Terms[1].Compartment)
	assert.Len(t, g.EdgesFrom(reacID("MNXR1"), mnx.EdgeCompartmentMembership), 2)
}

func TestBuild_NegativeProductCoefficientBecomesReactant(t *testing.T) {
	f := newFixture(t, "MNXD1").
		compartment("MNXD1").
		compound(mnx.NamespaceChemical, "A", "").
		compound(mnx.NamespaceChemical, "B", "").
		reaction("R1", "A = -2 B", nil)

	g, err := newBuilder(nil).Build(context.Background(), f.records, nil)
	require.NoError(t, err)

	for _, e := range g.EdgesFrom(reacID("R1"), mnx.EdgeParticipant) {
		assert.Equal(t, mnx.SideReactant, e.Terms[0].Side)
		assert.Equal(t, -1, e.Terms[0].Coefficient.Sign())
	}
}

func TestBuild_EntityCollectsAliasesNamesAndStructure(t *testing.T) {
	mnxRef := mnx.Ref(mnx.NamespaceChemical, "MNXM2")
	f := newFixture(t, "MNXD1").
		compound("chebi", "15377", "HO", "water").
		compound(mnx.NamespaceChemical, "MNXM2", "OH2", "H2O", "water").
		xref(mnx.KindCompound, mnx.Ref("chebi", "15377"), mnxRef, "water").
		xref(mnx.KindCompound, mnx.Ref("kegg.compound", "C00001"), mnxRef, "H2O", "Water")

	g, err := newBuilder(nil).Build(context.Background(), f.records, nil)
	require.NoError(t, err)

	ent, ok := g.Entity(chemID("MNXM2"))
	require.True(t, ok)
	assert.Equal(t, mnxRef, ent.Key)
	assert.Equal(t, map[string][]string{
		mnx.NamespaceChemical: {"MNXM2"},
		"chebi":               {"15377"},
		"kegg.compound":       {"C00001"},
	}, ent.Aliases)
	assert.Equal(t, []string{"H2O", "water"}, ent.Names[mnx.NamespaceChemical])
	assert.Equal(t, []string{"H2O", "Water"}, ent.Names["kegg.compound"])
	assert.Equal(t, "H2O", ent.Structure.String())
	assert.False(t, ent.Ambiguous)

	xrefs := g.EdgesFrom(ent.ID, mnx.EdgeCrossReference)
	require.Len(t, xrefs, 3)
	for _, e := range xrefs {
		assert.True(t, g.Has(e.Target), "namespace entity exists for %s", e.Target)
	}
	assert.Equal(t, 3, g.Counts()[mnx.KindNamespace])
}

func TestBuild_StructureFallsBackToLowerPriorityRecord(t *testing.T) {
	mnxRef := mnx.Ref(mnx.NamespaceChemical, "MNXM5")
	f := newFixture(t, "MNXD1").
		compound(mnx.NamespaceChemical, "MNXM5", "").
		compound("chebi", "5", "C6H12O6").
		xref(mnx.KindCompound, mnx.Ref("chebi", "5"), mnxRef)

	g, err := newBuilder(nil).Build(context.Background(), f.records, nil)
	require.NoError(t, err)
	ent, ok := g.Entity(chemID("MNXM5"))
	require.True(t, ok)
	require.NotNil(t, ent.Structure)
	assert.Equal(t, "C6H12O6", ent.Structure.String())
}

func TestBuild_EmptyEquationIsDegenerateNotFatal(t *testing.T) {
	f := newFixture(t, "MNXD1").
		compound(mnx.NamespaceChemical, "A", "").
		reaction("R0", "=", nil).
		reaction("R1", "A =", nil)

	g, err := newBuilder(nil).Build(context.Background(), f.records, nil)
	require.NoError(t, err)

	empty, ok := g.Entity(reacID("R0"))
	require.True(t, ok)
	eq, ok := empty.Structure.(*mnx.Equation)
	require.True(t, ok)
	assert.Empty(t, eq.Terms)
	assert.Empty(t, g.EdgesFrom(reacID("R0"), mnx.EdgeParticipant))

	validated, err := validator.NewDefault(logging.NewNullLogger()).Validate(context.Background(), g)
	require.NoError(t, err)

	degenerate := map[string]string{}
	for _, d := range validated.Diagnostics {
		if d.Code == mnx.CodeDegenerateReaction {
			degenerate[d.Context["canonical_id"]] = d.Context["reason"]
			assert.Equal(t, mnx.SeverityWarning, d.Severity)
		}
	}
	assert.Equal(t, "no participants", degenerate[reacID("R0").String()])
	assert.NotContains(t, degenerate, reacID("R1").String())
}

func TestBuild_UnresolvedParticipant(t *testing.T) {
	f := newFixture(t, "MNXD1").
		compartment("MNXD1").
		compound(mnx.NamespaceChemical, "A", "").
		reaction("R1", "A = GHOST", nil)

	_, err := newBuilder(nil).Build(context.Background(), f.records, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, mnx.ErrUnresolvedReference)

	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, mnx.Ref(mnx.NamespaceChemical, "GHOST"), refErr.Ref)
	assert.Equal(t, "participant", refErr.Role)
}

func TestBuild_UnresolvedCrossReferenceTarget(t *testing.T) {
	f := newFixture(t, "MNXD1").
		xref(mnx.KindCompound, mnx.Ref("chebi", "1"), mnx.Ref(mnx.NamespaceChemical, "MNXM404"))

	_, err := newBuilder(nil).Build(context.Background(), f.records, nil)
	assert.ErrorIs(t, err, mnx.ErrUnresolvedReference)
}

func TestBuild_DroppedRecordsCascade(t *testing.T) {
	bad := mnx.Ref(mnx.NamespaceChemical, "BAD")
	f := newFixture(t, "MNXD1").
		compartment("MNXD1").
		compound(mnx.NamespaceChemical, "A", "").
		reaction("R1", "A = BAD", nil).
		reaction("R2", "A = A", nil).
		xref(mnx.KindCompound, mnx.Ref("chebi", "9"), bad).
		xref(mnx.KindReaction, mnx.Ref("rhea", "1"), mnx.Ref(mnx.NamespaceReaction, "R1"))

	g, err := newBuilder(nil).Build(context.Background(), f.records, []mnx.SourceRef{bad})
	require.NoError(t, err)

	assert.False(t, g.Has(reacID("R1")))
	assert.True(t, g.Has(reacID("R2")))

	var dropped []string
	for _, d := range g.Diagnostics {
		if d.Code == mnx.CodeDroppedDependency {
			dropped = append(dropped, d.Context["id"])
		}
	}
	assert.ElementsMatch(t, []string{"metanetx.reaction:R1", "chebi:9", "rhea:1"}, dropped)
}

func TestBuild_AmbiguousIdentityKeepsUnion(t *testing.T) {
	x1 := mnx.Ref(mnx.NamespaceChemical, "MNXM1")
	f := newFixture(t, "MNXD1").
		compound(mnx.NamespaceChemical, "MNXM1", "").
		compound(mnx.NamespaceChemical, "MNXM4", "").
		xref(mnx.KindCompound, mnx.Ref(mnx.NamespaceChemical, "MNXM4"), x1)

	g, err := newBuilder(nil).Build(context.Background(), f.records, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Counts()[mnx.KindCompound])

	ent, ok := g.Entity(chemID("MNXM1"))
	require.True(t, ok)
	assert.True(t, ent.Ambiguous)
	require.Len(t, g.Diagnostics, 1)
	assert.Equal(t, mnx.CodeAmbiguousIdentity, g.Diagnostics[0].Code)
}

func TestBuild_ECCodesBecomeCrossReferences(t *testing.T) {
	f := newFixture(t, "MNXD1").
		compartment("MNXD1").
		compound(mnx.NamespaceChemical, "A", "").
		reaction("R1", "A = A", map[string]string{mnx.AttrEC: "1.1.1.1;2.7.1.1"})

	g, err := newBuilder(nil).Build(context.Background(), f.records, nil)
	require.NoError(t, err)

	var ec *mnx.Edge
	for _, e := range g.EdgesFrom(reacID("R1"), mnx.EdgeCrossReference) {
		if e.Target == NamespaceID(mnx.NamespaceECCode) {
			ec = &e
		}
	}
	require.NotNil(t, ec)
	assert.Equal(t, []string{"1.1.1.1", "2.7.1.1"}, ec.Identifiers)
	assert.True(t, g.Has(NamespaceID(mnx.NamespaceECCode)))
}

func TestBuild_RegistrySkipsUnknownNamespaces(t *testing.T) {
	reg, err := namespace.Parse([]byte(`{"chebi": {"mirId": "MIR:00000002", "name": "ChEBI", "pattern": "^\\d+$"}}`))
	require.NoError(t, err)

	mnxRef := mnx.Ref(mnx.NamespaceChemical, "MNXM2")
	f := newFixture(t, "MNXD1").
		compound(mnx.NamespaceChemical, "MNXM2", "").
		xref(mnx.KindCompound, mnx.Ref("chebi", "15377"), mnxRef).
		xref(mnx.KindCompound, mnx.Ref("madeup", "1"), mnxRef).
		xref(mnx.KindCompound, mnx.Ref("madeup", "2"), mnxRef)

	g, err := newBuilder(reg).Build(context.Background(), f.records, nil)
	require.NoError(t, err)

	ent, ok := g.Entity(chemID("MNXM2"))
	require.True(t, ok)
	assert.NotContains(t, ent.Aliases, "madeup")

	var unknown []mnx.Diagnostic
	for _, d := range g.Diagnostics {
		if d.Code == mnx.CodeUnknownNamespace && d.Severity == mnx.SeverityWarning {
			unknown = append(unknown, d)
		}
	}
	require.Len(t, unknown, 1)
	assert.Equal(t, "madeup", unknown[0].Context["prefix"])
	assert.Equal(t, "2", unknown[0].Context["skipped"])

	chebi, ok := g.Entity(NamespaceID("chebi"))
	require.True(t, ok)
	assert.Equal(t, "MIR:00000002", chebi.Attributes["mir_id"])
}

func TestBuild_EveryEdgeEndpointExists(t *testing.T) {
	f := newFixture(t, "MNXD1").
		compartment("MNXD1").
		compound(mnx.NamespaceChemical, "A", "C2").
		compound(mnx.NamespaceChemical, "B", "").
		reaction("R1", "2 A@MNXD1 <=> B", map[string]string{mnx.AttrEC: "1.2.3.4"}).
		xref(mnx.KindReaction, mnx.Ref("rhea", "10"), mnx.Ref(mnx.NamespaceReaction, "R1"))

	g, err := newBuilder(nil).Build(context.Background(), f.records, nil)
	require.NoError(t, err)
	for _, e := range g.Edges {
		for _, id := range e.References() {
			assert.True(t, g.Has(id), "%s edge references missing %s", e.Kind, id)
		}
	}
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newBuilder(nil).Build(ctx, newFixture(t, "MNXD1").compartment("MNXD1").records, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBuilder_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewBuilder(nil, nil, logging.NewNullLogger()) })
	assert.Panics(t, func() { NewBuilder(resolver.New(resolver.Options{}), nil, nil) })
}
