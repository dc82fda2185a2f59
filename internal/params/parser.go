package params

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// ParseKeyValuePairs converts a slice of "key=value" strings into a map.
//
// Example:
//
//	aliases, err := ParseKeyValuePairs([]string{"kegg=kegg.compound", "reaction/kegg=kegg.reaction"})
func ParseKeyValuePairs(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%q is not in key=value format (example: --alias kegg=kegg.compound): %w", pair, mnx.ErrInvalidConfig)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%q has an empty key: %w", pair, mnx.ErrInvalidConfig)
		}
		result[key] = strings.TrimSpace(value)
	}

	return result, nil
}

// ParseInputs reads --input values. Each is either "kind=location" or a bare
// location whose file name names the kind, such as "data/chem_prop.tsv" or
// "s3://bucket/4.4/reac_xref.tsv". A kind given twice is an error.
func ParseInputs(values []string) (map[mnx.InputKind]string, error) {
	result := make(map[mnx.InputKind]string, len(values))

	for _, v := range values {
		name, location, ok := strings.Cut(v, "=")
		if !ok {
			location = v
			name = path.Base(strings.ReplaceAll(v, "\\", "/"))
		}
		location = strings.TrimSpace(location)
		if location == "" {
			return nil, fmt.Errorf("input %q has an empty location: %w", v, mnx.ErrInvalidConfig)
		}
		kind, err := mnx.ParseInputKind(name)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", v, err)
		}
		if prev, dup := result[kind]; dup {
			return nil, fmt.Errorf("input %s given twice (%s and %s): %w", kind, prev, location, mnx.ErrInvalidConfig)
		}
		result[kind] = location
	}

	return result, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
