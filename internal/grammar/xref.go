package grammar

import (
	"strings"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// prefixMNX is MetaNetX's own prefix; it always maps to the primary namespace of the record kind.
const prefixMNX = "mnx"

// defaultAliases maps dump prefixes to identifiers.org namespaces. Keys are
// lower case and either "prefix" or "kind/prefix" for kind-dependent prefixes.
var defaultAliases = map[string]string{
	// MNXref 4.x abbreviated prefixes
	"biggm":      "bigg.metabolite",
	"biggr":      "bigg.reaction",
	"biggc":      "bigg.compartment",
	"keggc":      "kegg.compound",
	"keggd":      "kegg.drug",
	"keggg":      "kegg.glycan",
	"keggr":      "kegg.reaction",
	"seedm":      "seed.compound",
	"seedr":      "seed.reaction",
	"seedc":      "seed.compartment",
	"metacycm":   "metacyc.compound",
	"metacycr":   "metacyc.reaction",
	"sabiorkm":   "sabiork.compound",
	"sabiorkr":   "sabiork.reaction",
	"envipathm":  "envipath",
	"envipathr":  "envipath",
	"lipidmapsm": "lipidmaps",
	"reactomem":  "reactome",
	"reactomer":  "reactome",
	"rhear":      "rhea",
	"cco":        "cco",
	"go":         "go",

	// MNXref 3.x prefixes whose namespace depends on the table
	"compound/bigg":       "bigg.metabolite",
	"reaction/bigg":       "bigg.reaction",
	"compartment/bigg":    "bigg.compartment",
	"compound/kegg":       "kegg.compound",
	"reaction/kegg":       "kegg.reaction",
	"compound/seed":       "seed.compound",
	"reaction/seed":       "seed.reaction",
	"compartment/seed":    "seed.compartment",
	"compound/metacyc":    "metacyc.compound",
	"reaction/metacyc":    "metacyc.reaction",
	"compound/sabiork":    "sabiork.compound",
	"reaction/sabiork":    "sabiork.reaction",
	"compound/reactome":   "reactome",
	"reaction/reactome":   "reactome",
	"compound/lipidmaps":  "lipidmaps",
	"compound/envipath":   "envipath",
	"reaction/envipath":   "envipath",
	"compartment/cco":     "cco",
	"compartment/go":      "go",
	"compound/hmdb":       "hmdb",
	"compound/chebi":      "chebi",
	"compound/swisslipid": "slm",
	"reaction/rhea":       "rhea",
}

// RefParser parses "prefix:identifier" strings into namespace-qualified refs.
// It is safe for concurrent use after construction.
type RefParser struct {
	aliases map[string]string
}

// NewRefParser combines the built-in alias table with overrides.
// Override keys follow the same "prefix" or "kind/prefix" form.
func NewRefParser(overrides map[string]string) *RefParser {
	aliases := make(map[string]string, len(defaultAliases)+len(overrides))
	for k, v := range defaultAliases {
		aliases[k] = v
	}
	for k, v := range overrides {
		aliases[strings.ToLower(k)] = v
	}
	return &RefParser{aliases: aliases}
}

// Parse interprets s as a reference of the given kind. A bare identifier
// belongs to the kind's MetaNetX namespace.
func (p *RefParser) Parse(s string, kind mnx.Kind) (mnx.SourceRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return mnx.SourceRef{}, refError(s, "empty reference")
	}
	prefix, id, ok := strings.Cut(s, ":")
	if !ok {
		ns := kind.PrimaryNamespace()
		if ns == "" {
			return mnx.SourceRef{}, refError(s, "bare identifier has no namespace for kind %s", kind)
		}
		return mnx.Ref(ns, s), nil
	}
	if prefix == "" {
		return mnx.SourceRef{}, refError(s, "empty prefix")
	}
	if id == "" {
		return mnx.SourceRef{}, refError(s, "empty identifier")
	}
	return mnx.Ref(p.Namespace(prefix, kind), id), nil
}

// Namespace resolves a prefix for a record kind.
func (p *RefParser) Namespace(prefix string, kind mnx.Kind) string {
	key := strings.ToLower(prefix)
	if key == prefixMNX {
		if ns := kind.PrimaryNamespace(); ns != "" {
			return ns
		}
	}
	if ns, ok := p.aliases[string(kind)+"/"+key]; ok {
		return ns
	}
	if ns, ok := p.aliases[key]; ok {
		return ns
	}
	return key
}

// SplitNames splits a '|' separated name list, trimming blanks and dropping
// empty and repeated entries while keeping first-seen order.
func SplitNames(s string) []string {
	return splitList(s, "|")
}

// SplitECCodes splits an EC number column, which uses ';' or ',' as separators.
func SplitECCodes(s string) []string {
	return splitList(strings.ReplaceAll(s, ",", ";"), ";")
}

func splitList(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
