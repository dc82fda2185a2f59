// Package namespace models the identifiers.org namespace registry that
// cross-reference prefixes are checked against.
package namespace

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

var mirIDPattern = regexp.MustCompile(`^MIR:\d{8}$`)

// Namespace is one identifiers.org registry entry.
type Namespace struct {
	Prefix         string `json:"prefix"`
	MIRID          string `json:"mirId"`
	Name           string `json:"name"`
	Pattern        string `json:"pattern"`
	Description    string `json:"description"`
	EmbeddedPrefix bool   `json:"namespaceEmbeddedInLui"`
	// Created and Modified are kept as written; registry dumps disagree on the timestamp layout.
	Created  string `json:"created,omitempty"`
	Modified string `json:"modified,omitempty"`
}

// Attributes renders the entry as entity attributes.
func (n Namespace) Attributes() map[string]string {
	attrs := map[string]string{"prefix": n.Prefix}
	for k, v := range map[string]string{
		"mir_id":      n.MIRID,
		"name":        n.Name,
		"pattern":     n.Pattern,
		"description": n.Description,
	} {
		if v != "" {
			attrs[k] = v
		}
	}
	if n.EmbeddedPrefix {
		attrs["embedded_prefix"] = "true"
	}
	return attrs
}

// Registry indexes namespaces by prefix.
type Registry struct {
	entries map[string]Namespace
}

// patches are namespaces MetaNetX uses that identifiers.org does not register.
var patches = []Namespace{{
	Prefix:      "envipath",
	MIRID:       "MIR:00000000",
	Name:        "enviPath",
	Pattern:     `^.+$`,
	Description: "A placeholder until envipath is added to the Identifiers.org registry.",
}}

// ignoredPrefixes appear as dump prefixes but do not denote namespaces.
var ignoredPrefixes = map[string]bool{"name": true}

// Parse reads a registry JSON object mapping prefix to entry. Every entry is
// validated and all problems are reported together. Patched namespaces are
// added when the registry lacks them.
func Parse(data []byte) (*Registry, error) {
	var raw map[string]Namespace
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode namespace registry: %w", err)
	}

	var errs []error
	entries := make(map[string]Namespace, len(raw)+len(patches))
	for prefix, ns := range raw {
		if ns.Prefix == "" {
			ns.Prefix = prefix
		}
		if err := ns.validate(); err != nil {
			errs = append(errs, fmt.Errorf("registry entry %q: %w", prefix, err))
			continue
		}
		entries[prefix] = ns
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", mnx.ErrInvalidConfig, errors.Join(errs...))
	}
	for _, p := range patches {
		if _, ok := entries[p.Prefix]; !ok {
			entries[p.Prefix] = p
		}
	}
	return &Registry{entries: entries}, nil
}

func (n Namespace) validate() error {
	if !mirIDPattern.MatchString(n.MIRID) {
		return fmt.Errorf("MIR id %q does not match %s", n.MIRID, mirIDPattern)
	}
	if n.Pattern != "" {
		if _, err := regexp.Compile(n.Pattern); err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
	}
	return nil
}

// Lookup returns the entry for a prefix.
func (r *Registry) Lookup(prefix string) (Namespace, bool) {
	ns, ok := r.entries[prefix]
	return ns, ok
}

// Len returns the number of entries including patches.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Missing returns the sorted prefixes from required that the registry lacks.
// Ignored pseudo-prefixes are never reported.
func (r *Registry) Missing(required []string) []string {
	var missing []string
	for _, p := range required {
		if ignoredPrefixes[p] {
			continue
		}
		if _, ok := r.entries[p]; !ok {
			missing = append(missing, p)
		}
	}
	sort.Strings(missing)
	return missing
}

// Ignored reports whether a dump prefix is a pseudo-prefix rather than a namespace.
func Ignored(prefix string) bool {
	return ignoredPrefixes[prefix]
}

// Synthesize returns a minimal entry for a prefix without registry data.
func Synthesize(prefix string) Namespace {
	return Namespace{Prefix: prefix, Name: prefix}
}
