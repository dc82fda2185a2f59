package grammar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

func TestRefParser_Parse(t *testing.T) {
	tests := []struct {
		input string
		kind  mnx.Kind
		want  mnx.SourceRef
	}{
		{"chebi:12345", mnx.KindCompound, mnx.Ref("chebi", "12345")},
		{"CHEBI:12345", mnx.KindCompound, mnx.Ref("chebi", "12345")},
		{"mnx:MNXM1", mnx.KindCompound, mnx.Ref(mnx.NamespaceChemical, "MNXM1")},
		{"mnx:MNXR101", mnx.KindReaction, mnx.Ref(mnx.NamespaceReaction, "MNXR101")},
		{"MNXC3", mnx.KindCompartment, mnx.Ref(mnx.NamespaceCompartment, "MNXC3")},
		{"biggM:glc__D", mnx.KindCompound, mnx.Ref("bigg.metabolite", "glc__D")},
		{"bigg:glc__D", mnx.KindCompound, mnx.Ref("bigg.metabolite", "glc__D")},
		{"bigg:PGI", mnx.KindReaction, mnx.Ref("bigg.reaction", "PGI")},
		{"keggR:R00001", mnx.KindReaction, mnx.Ref("kegg.reaction", "R00001")},
		{"envipath:32de/compound/1", mnx.KindCompound, mnx.Ref("envipath", "32de/compound/1")},
		{"lipidmaps:LMFA:01", mnx.KindCompound, mnx.Ref("lipidmaps", "LMFA:01")},
		{"  rhea:10000 ", mnx.KindReaction, mnx.Ref("rhea", "10000")},
	}
	p := NewRefParser(nil)
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := p.Parse(tt.input, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRefParser_Overrides(t *testing.T) {
	p := NewRefParser(map[string]string{"SLM": "swisslipids", "reaction/foo": "foo.reaction"})

	got, err := p.Parse("slm:000000001", mnx.KindCompound)
	require.NoError(t, err)
	assert.Equal(t, mnx.Ref("swisslipids", "000000001"), got)

	got, err = p.Parse("foo:1", mnx.KindReaction)
	require.NoError(t, err)
	assert.Equal(t, "foo.reaction", got.Namespace)

	got, err = p.Parse("foo:1", mnx.KindCompound)
	require.NoError(t, err)
	assert.Equal(t, "foo", got.Namespace)
}

func TestRefParser_Malformed(t *testing.T) {
	p := NewRefParser(nil)
	for _, input := range []string{"", "   ", ":123", "chebi:"} {
		t.Run(input, func(t *testing.T) {
			_, err := p.Parse(input, mnx.KindCompound)
			require.Error(t, err)
			assert.True(t, errors.Is(err, mnx.ErrMalformedRecord))
		})
	}

	_, err := p.Parse("orphan", mnx.KindXref)
	assert.True(t, errors.Is(err, mnx.ErrMalformedRecord))
}

func TestSplitNames(t *testing.T) {
	assert.Equal(t, []string{"water", "H2O", "oxidane"}, SplitNames(" water | H2O|oxidane|water| "))
	assert.Nil(t, SplitNames(""))
	assert.Nil(t, SplitNames("   "))
}

func TestSplitECCodes(t *testing.T) {
	assert.Equal(t, []string{"1.1.1.1", "1.1.1.2"}, SplitECCodes("1.1.1.1;1.1.1.2, 1.1.1.1"))
	assert.Nil(t, SplitECCodes(""))
}
