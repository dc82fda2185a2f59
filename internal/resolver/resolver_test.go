package resolver

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

type recordSet struct {
	records []mnx.ParsedRecord
}

func (rs *recordSet) prop(kind mnx.Kind, ns, id string, attrs map[string]string) *recordSet {
	rs.records = append(rs.records, mnx.ParsedRecord{Raw: mnx.RawRecord{
		Index: len(rs.records), Kind: kind, Ref: mnx.Ref(ns, id), Attributes: attrs,
	}})
	return rs
}

func (rs *recordSet) xref(kind mnx.Kind, source, target mnx.SourceRef) *recordSet {
	rs.records = append(rs.records, mnx.ParsedRecord{Raw: mnx.RawRecord{
		Index: len(rs.records), Kind: mnx.KindXref, Ref: source, Target: target, TargetKind: kind,
	}})
	return rs
}

func TestResolve_LinkedIdsShareCanonicalID(t *testing.T) {
	x1, x2, x3 := mnx.Ref("ns1", "X1"), mnx.Ref("ns2", "X2"), mnx.Ref("ns1", "X3")
	rs := (&recordSet{}).
		prop(mnx.KindCompound, "ns1", "X1", nil).
		prop(mnx.KindCompound, "ns1", "X3", nil).
		xref(mnx.KindCompound, x2, x1)

	res, diags := New(Options{Priority: []string{"ns1", "ns2"}}).Resolve(rs.records)
	assert.Empty(t, diags)

	a, ok := res.Lookup(mnx.KindCompound, x1)
	require.True(t, ok)
	b, ok := res.Lookup(mnx.KindCompound, x2)
	require.True(t, ok)
	c, ok := res.Lookup(mnx.KindCompound, x3)
	require.True(t, ok)

	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.Equal(t, x1, a.Representative)
	assert.Equal(t, []mnx.SourceRef{x1, x2}, a.Members)
	assert.False(t, a.Ambiguous)
	assert.Len(t, res.Sets(), 2)
}

func TestResolve_SameNamespaceCollisionIsFlagged(t *testing.T) {
	x1, x4 := mnx.Ref("ns1", "X1"), mnx.Ref("ns1", "X4")
	rs := (&recordSet{}).
		prop(mnx.KindCompound, "ns1", "X1", nil).
		prop(mnx.KindCompound, "ns1", "X4", nil).
		xref(mnx.KindCompound, x4, x1)

	res, diags := New(Options{}).Resolve(rs.records)

	a, _ := res.Lookup(mnx.KindCompound, x1)
	b, _ := res.Lookup(mnx.KindCompound, x4)
	assert.Same(t, a, b)
	assert.True(t, a.Ambiguous)
	assert.Equal(t, map[string][]string{"ns1": {"X1", "X4"}}, a.Collisions)

	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, mnx.CodeAmbiguousIdentity, d.Code)
	assert.Equal(t, mnx.SeverityWarning, d.Severity)
	assert.Equal(t, a.ID.String(), d.Context["canonical_id"])
	assert.Contains(t, d.Context["collisions"], "X1")
	assert.Contains(t, d.Context["collisions"], "X4")
}

func TestResolve_RepresentativeFollowsPriority(t *testing.T) {
	mnxID := mnx.Ref(mnx.NamespaceChemical, "MNXM2")
	chebi := mnx.Ref("chebi", "15377")
	kegg := mnx.Ref("kegg.compound", "C00001")
	rs := (&recordSet{}).
		xref(mnx.KindCompound, kegg, chebi).
		prop(mnx.KindCompound, mnx.NamespaceChemical, "MNXM2", nil).
		xref(mnx.KindCompound, chebi, mnxID)

	tests := []struct {
		name     string
		priority []string
		want     mnx.SourceRef
	}{
		{"default puts metanetx first", nil, mnxID},
		{"configured namespace wins", []string{"chebi", mnx.NamespaceChemical}, chebi},
		{"unlisted namespaces fall back to first seen", []string{"bigg.metabolite"}, chebi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := New(Options{Priority: tt.priority}).Resolve(rs.records)
			s, ok := res.Lookup(mnx.KindCompound, kegg)
			require.True(t, ok)
			assert.Equal(t, tt.want, s.Representative)
			assert.Equal(t, CanonicalID(mnx.KindCompound, tt.want), s.ID)
		})
	}
}

func TestResolve_EqualRankKeepsEarliestSeen(t *testing.T) {
	x9, x1 := mnx.Ref("ns1", "X9"), mnx.Ref("ns1", "X1")
	rs := (&recordSet{}).
		prop(mnx.KindCompound, "ns1", "X9", nil).
		prop(mnx.KindCompound, "ns1", "X1", nil).
		xref(mnx.KindCompound, x1, x9)

	res, _ := New(Options{Priority: []string{"ns1"}}).Resolve(rs.records)

	s, ok := res.Lookup(mnx.KindCompound, x1)
	require.True(t, ok)
	assert.Equal(t, x9, s.Representative)
	assert.Equal(t, CanonicalID(mnx.KindCompound, x9), s.ID)
}

func TestResolve_KindsDoNotMix(t *testing.T) {
	shared := mnx.Ref("reactome", "R-ALL-1")
	rs := (&recordSet{}).
		prop(mnx.KindCompound, mnx.NamespaceChemical, "MNXM1", nil).
		prop(mnx.KindReaction, mnx.NamespaceReaction, "MNXR1", nil).
		xref(mnx.KindCompound, shared, mnx.Ref(mnx.NamespaceChemical, "MNXM1")).
		xref(mnx.KindReaction, shared, mnx.Ref(mnx.NamespaceReaction, "MNXR1"))

	res, diags := New(Options{}).Resolve(rs.records)
	assert.Empty(t, diags)
	c, _ := res.Lookup(mnx.KindCompound, shared)
	r, _ := res.Lookup(mnx.KindReaction, shared)
	assert.NotEqual(t, c.ID, r.ID)
	assert.Equal(t, mnx.KindCompound, c.Kind)
	assert.Equal(t, mnx.KindReaction, r.Kind)
}

func TestResolve_InChIKeyMerge(t *testing.T) {
	key := map[string]string{mnx.AttrInChIKey: "XLYOFNOQVPJJNP-UHFFFAOYSA-N"}
	rs := (&recordSet{}).
		prop(mnx.KindCompound, mnx.NamespaceChemical, "MNXM2", key).
		prop(mnx.KindCompound, mnx.NamespaceChemical, "MNXM10", key)

	off, _ := New(Options{}).Resolve(rs.records)
	assert.Len(t, off.Sets(), 2)

	on, diags := New(Options{MergeByInChIKey: true}).Resolve(rs.records)
	require.Len(t, on.Sets(), 1)
	assert.True(t, on.Sets()[0].Ambiguous)
	assert.Len(t, diags, 1)
}

func TestResolve_DefinedTracksPropertyRecords(t *testing.T) {
	target := mnx.Ref(mnx.NamespaceChemical, "MNXM404")
	rs := (&recordSet{}).xref(mnx.KindCompound, mnx.Ref("chebi", "1"), target)

	res, _ := New(Options{}).Resolve(rs.records)
	assert.False(t, res.IsDefined(mnx.KindCompound, target))
	s, ok := res.Lookup(mnx.KindCompound, target)
	require.True(t, ok)
	assert.False(t, s.Defined)
}

func TestResolve_CanonicalIDsAreStableAcrossRuns(t *testing.T) {
	rs := (&recordSet{}).
		prop(mnx.KindCompound, mnx.NamespaceChemical, "MNXM1", nil).
		xref(mnx.KindCompound, mnx.Ref("chebi", "24636"), mnx.Ref(mnx.NamespaceChemical, "MNXM1"))

	first, _ := New(Options{}).Resolve(rs.records)
	second, _ := New(Options{}).Resolve(rs.records)
	require.Len(t, first.Sets(), 1)
	assert.Equal(t, first.Sets()[0].ID, second.Sets()[0].ID)
}

// Random unions must yield a mapping that agrees with a naive connected
// components computation, which makes it transitive and symmetric.
func TestResolve_MappingIsTransitive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const ids = 200
	ref := func(i int) mnx.SourceRef { return mnx.Ref(fmt.Sprintf("ns%d", i%5), fmt.Sprintf("X%d", i)) }

	rs := &recordSet{}
	for i := 0; i < ids; i++ {
		rs.prop(mnx.KindCompound, ref(i).Namespace, ref(i).ID, nil)
	}
	adjacency := make(map[int][]int)
	for n := 0; n < 150; n++ {
		a, b := rng.Intn(ids), rng.Intn(ids)
		rs.xref(mnx.KindCompound, ref(a), ref(b))
		adjacency[a] = append(adjacency[a], b)
		adjacency[b] = append(adjacency[b], a)
	}

	component := make([]int, ids)
	for i := range component {
		component[i] = -1
	}
	for i := 0; i < ids; i++ {
		if component[i] >= 0 {
			continue
		}
		stack := []int{i}
		component[i] = i
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, m := range adjacency[n] {
				if component[m] < 0 {
					component[m] = i
					stack = append(stack, m)
				}
			}
		}
	}

	res, _ := New(Options{}).Resolve(rs.records)
	for i := 0; i < ids; i++ {
		for j := i + 1; j < ids; j++ {
			a, _ := res.Lookup(mnx.KindCompound, ref(i))
			b, _ := res.Lookup(mnx.KindCompound, ref(j))
			assert.Equal(t, component[i] == component[j], a.ID == b.ID, "ids %d and %d", i, j)
		}
	}
}

func TestForest(t *testing.T) {
	var f forest
	for i := 0; i < 6; i++ {
		f.add()
	}
	f.union(0, 1)
	f.union(2, 3)
	f.union(1, 3)
	assert.Equal(t, f.find(0), f.find(2))
	assert.NotEqual(t, f.find(0), f.find(4))
	f.union(4, 4)
	assert.Equal(t, 4, f.find(4))
}
