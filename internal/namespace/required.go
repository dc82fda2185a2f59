package namespace

import (
	"sort"

	"github.com/vvka-141/mnxnorm/internal/grammar"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// RequiredPrefixes returns the sorted namespaces a set of records refers to.
// ec-code is always required.
func RequiredPrefixes(records []mnx.RawRecord) []string {
	seen := map[string]bool{mnx.NamespaceECCode: true}
	for _, rec := range records {
		if rec.Ref.Namespace != "" {
			seen[rec.Ref.Namespace] = true
		}
		if !rec.Target.IsZero() {
			seen[rec.Target.Namespace] = true
		}
		if rec.Kind.PrimaryNamespace() != "" {
			seen[rec.Kind.PrimaryNamespace()] = true
		}
	}
	delete(seen, "")
	out := make([]string, 0, len(seen))
	for p := range seen {
		if ignoredPrefixes[p] {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Report summarises registry coverage of a run's prefixes.
type Report struct {
	Required []string
	Missing  []string
}

// Check compares the prefixes of records with a registry. A nil registry
// reports every required prefix as missing.
func Check(records []mnx.RawRecord, registry *Registry) Report {
	required := RequiredPrefixes(records)
	if registry == nil {
		return Report{Required: required, Missing: required}
	}
	return Report{Required: required, Missing: registry.Missing(required)}
}

// ECCodes returns the EC numbers recorded on a reaction record.
func ECCodes(rec mnx.RawRecord) []string {
	if rec.Kind != mnx.KindReaction {
		return nil
	}
	return grammar.SplitECCodes(rec.Attributes[mnx.AttrEC])
}
