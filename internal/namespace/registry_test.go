package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

const registryJSON = `{
  "chebi": {"prefix": "chebi", "mirId": "MIR:00000002", "name": "ChEBI", "pattern": "^CHEBI:\\d+$",
            "description": "Chemical Entities of Biological Interest", "namespaceEmbeddedInLui": true,
            "created": "2019-06-11 14:15:28.483000+00:00"},
  "metanetx.chemical": {"prefix": "metanetx.chemical", "mirId": "MIR:00000567", "name": "MetaNetX chemical",
            "pattern": "^(MNXM\\d+|BIOMASS|WATER)$", "description": "MetaNetX compounds", "namespaceEmbeddedInLui": false}
}`

func TestParse(t *testing.T) {
	reg, err := Parse([]byte(registryJSON))
	require.NoError(t, err)

	chebi, ok := reg.Lookup("chebi")
	require.True(t, ok)
	assert.Equal(t, "MIR:00000002", chebi.MIRID)
	assert.True(t, chebi.EmbeddedPrefix)
	assert.Equal(t, "true", chebi.Attributes()["embedded_prefix"])

	envipath, ok := reg.Lookup("envipath")
	require.True(t, ok, "envipath is patched in")
	assert.Equal(t, "MIR:00000000", envipath.MIRID)
	assert.Equal(t, 3, reg.Len())
}

func TestParse_InvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"short MIR id", `{"x": {"mirId": "MIR:123", "name": "x", "pattern": "^.+$"}}`},
		{"bad pattern", `{"x": {"mirId": "MIR:00000001", "name": "x", "pattern": "(["}}`},
		{"not an object", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.json))
			assert.Error(t, err)
		})
	}
}

func TestParse_ValidationErrorsWrapInvalidConfig(t *testing.T) {
	_, err := Parse([]byte(`{"x": {"mirId": "nope"}, "y": {"mirId": "MIR:1"}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, mnx.ErrInvalidConfig)
	assert.Contains(t, err.Error(), `"x"`)
	assert.Contains(t, err.Error(), `"y"`)
}

func TestCheck(t *testing.T) {
	reg, err := Parse([]byte(registryJSON))
	require.NoError(t, err)

	records := []mnx.RawRecord{
		{Kind: mnx.KindCompound, Ref: mnx.Ref(mnx.NamespaceChemical, "MNXM1")},
		{Kind: mnx.KindXref, Ref: mnx.Ref("chebi", "1"), Target: mnx.Ref(mnx.NamespaceChemical, "MNXM1"), TargetKind: mnx.KindCompound},
		{Kind: mnx.KindXref, Ref: mnx.Ref("bigg.metabolite", "h"), Target: mnx.Ref(mnx.NamespaceChemical, "MNXM1"), TargetKind: mnx.KindCompound},
		{Kind: mnx.KindXref, Ref: mnx.Ref("name", "proton"), Target: mnx.Ref(mnx.NamespaceChemical, "MNXM1"), TargetKind: mnx.KindCompound},
	}
	report := Check(records, reg)
	assert.Equal(t, []string{"bigg.metabolite", "chebi", mnx.NamespaceECCode, mnx.NamespaceChemical}, report.Required)
	assert.Equal(t, []string{"bigg.metabolite", mnx.NamespaceECCode}, report.Missing)

	noRegistry := Check(records, nil)
	assert.Equal(t, noRegistry.Required, noRegistry.Missing)
}

func TestECCodes(t *testing.T) {
	rec := mnx.RawRecord{Kind: mnx.KindReaction, Attributes: map[string]string{mnx.AttrEC: "1.1.1.1;1.1.1.71"}}
	assert.Equal(t, []string{"1.1.1.1", "1.1.1.71"}, ECCodes(rec))
	assert.Nil(t, ECCodes(mnx.RawRecord{Kind: mnx.KindCompound}))
}
