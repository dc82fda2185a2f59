package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

const registryWithoutChEBI = `{
  "metanetx.chemical": {"prefix": "metanetx.chemical", "mirId": "MIR:00000567", "name": "MetaNetX chemical", "pattern": "^(MNXM\\d+|BIOMASS|WATER)$"},
  "metanetx.reaction": {"prefix": "metanetx.reaction", "mirId": "MIR:00000570", "name": "MetaNetX reaction", "pattern": "^(MNXR\\d+|EMPTY)$"},
  "metanetx.compartment": {"prefix": "metanetx.compartment", "mirId": "MIR:00000569", "name": "MetaNetX compartment", "pattern": "^(MNX[CD]\\d+|BOUNDARY|IN|OUT)$"},
  "ec-code": {"prefix": "ec-code", "mirId": "MIR:00000004", "name": "Enzyme Nomenclature", "pattern": "^\\d+\\.-\\.-\\.-|\\d+\\.\\d+\\.-\\.-|\\d+\\.\\d+\\.\\d+\\.-|\\d+\\.\\d+\\.\\d+\\.(n)?\\d+$"}
}`

func TestNamespaces_ListsRequiredPrefixes(t *testing.T) {
	stdout, err := execute(t, "namespaces", writeRelease(t, nil))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for _, want := range []string{"chebi", mnx.NamespaceECCode, mnx.NamespaceChemical, mnx.NamespaceReaction, mnx.NamespaceCompartment} {
		assert.Contains(t, lines, want)
	}
	assert.IsNonDecreasing(t, lines)
}

func TestNamespaces_ReportsRegistryGaps(t *testing.T) {
	registry := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(registry, []byte(registryWithoutChEBI), 0o644))

	stdout, err := execute(t, "namespaces", writeRelease(t, nil), "--registry", registry)

	require.Error(t, err)
	assert.ErrorIs(t, err, mnx.ErrUnknownNamespace)
	assert.Equal(t, mnx.ExitConfigError, mnx.ExitCodeForError(err))
	assert.Contains(t, stdout, "Missing from registry")
	assert.Contains(t, stdout, "  chebi\n")
}

func TestNamespaces_RejectsBadAlias(t *testing.T) {
	_, err := execute(t, "namespaces", writeRelease(t, nil), "--alias", "noequals")
	require.Error(t, err)
}
