package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// canonicalSpace is the UUID namespace canonical ids are derived in.
var canonicalSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://www.metanetx.org/mnxref"))

// CanonicalID derives the canonical id of an entity from its representative.
func CanonicalID(kind mnx.Kind, representative mnx.SourceRef) mnx.CanonicalID {
	return uuid.NewSHA1(canonicalSpace, []byte(string(kind)+"/"+representative.String()))
}

// Options configure identity resolution.
type Options struct {
	// Priority orders namespaces for representative selection. Namespaces
	// not listed rank after all listed ones. Empty means mnx.DefaultPriority.
	Priority []string
	// MergeByInChIKey unions compounds whose records carry the same InChIKey.
	MergeByInChIKey bool
}

// Resolver computes canonical identities. It holds no per-run state and is
// safe for concurrent use.
type Resolver struct {
	rank            map[string]int
	mergeByInChIKey bool
}

// New creates a resolver.
func New(opts Options) *Resolver {
	priority := opts.Priority
	if len(priority) == 0 {
		priority = mnx.DefaultPriority
	}
	rank := make(map[string]int, len(priority))
	for i, ns := range priority {
		if _, dup := rank[ns]; !dup {
			rank[ns] = i
		}
	}
	return &Resolver{rank: rank, mergeByInChIKey: opts.MergeByInChIKey}
}

type nodeKey struct {
	kind mnx.Kind
	ref  mnx.SourceRef
}

// Set is one resolved identity.
type Set struct {
	ID             mnx.CanonicalID
	Kind           mnx.Kind
	Representative mnx.SourceRef
	// Members lists every source id of the set in first-seen order.
	Members []mnx.SourceRef
	// Defined is true when at least one member is backed by a property record.
	Defined    bool
	Ambiguous  bool
	Collisions map[string][]string
}

// Resolution is the canonical mapping of one run.
type Resolution struct {
	sets    []*Set
	byNode  map[nodeKey]*Set
	defined map[nodeKey]bool
}

// Sets returns all identities ordered by the first appearance of their members.
func (r *Resolution) Sets() []*Set {
	return r.sets
}

// Lookup returns the identity a source id of the given kind resolved to.
func (r *Resolution) Lookup(kind mnx.Kind, ref mnx.SourceRef) (*Set, bool) {
	s, ok := r.byNode[nodeKey{kind, ref}]
	return s, ok
}

// IsDefined reports whether a property record declared the id itself.
func (r *Resolution) IsDefined(kind mnx.Kind, ref mnx.SourceRef) bool {
	return r.defined[nodeKey{kind, ref}]
}

// resolveRun carries the per-call state of Resolve.
type resolveRun struct {
	forest  forest
	nodes   []nodeKey
	index   map[nodeKey]int
	defined map[nodeKey]bool
}

func (run *resolveRun) node(kind mnx.Kind, ref mnx.SourceRef) int {
	k := nodeKey{kind, ref}
	if i, ok := run.index[k]; ok {
		return i
	}
	i := run.forest.add()
	run.index[k] = i
	run.nodes = append(run.nodes, k)
	return i
}

// Resolve builds the canonical mapping for records. Property records declare
// ids, cross-reference records union a source id with its target. Records of
// other kinds are ignored. Ambiguous sets are reported as warnings.
func (r *Resolver) Resolve(records []mnx.ParsedRecord) (*Resolution, []mnx.Diagnostic) {
	run := &resolveRun{index: make(map[nodeKey]int), defined: make(map[nodeKey]bool)}
	byInChIKey := make(map[string]int)

	for _, pr := range records {
		rec := pr.Raw
		switch rec.Kind {
		case mnx.KindCompound, mnx.KindReaction, mnx.KindCompartment:
			n := run.node(rec.Kind, rec.Ref)
			run.defined[nodeKey{rec.Kind, rec.Ref}] = true
			if r.mergeByInChIKey && rec.Kind == mnx.KindCompound {
				if key := rec.Attributes[mnx.AttrInChIKey]; key != "" {
					if first, ok := byInChIKey[key]; ok {
						run.forest.union(first, n)
					} else {
						byInChIKey[key] = n
					}
				}
			}
		case mnx.KindXref:
			target := run.node(rec.TargetKind, rec.Target)
			source := run.node(rec.TargetKind, rec.Ref)
			run.forest.union(target, source)
		}
	}

	res := &Resolution{byNode: make(map[nodeKey]*Set, len(run.nodes)), defined: run.defined}
	byRoot := make(map[int]*Set)
	for i, k := range run.nodes {
		root := run.forest.find(i)
		s, ok := byRoot[root]
		if !ok {
			s = &Set{Kind: k.kind}
			byRoot[root] = s
			res.sets = append(res.sets, s)
		}
		s.Members = append(s.Members, k.ref)
		if run.defined[k] {
			s.Defined = true
		}
		res.byNode[k] = s
	}

	var diags []mnx.Diagnostic
	for _, s := range res.sets {
		s.Representative = r.representative(s.Members)
		s.ID = CanonicalID(s.Kind, s.Representative)
		s.Collisions = collisions(s.Members)
		if len(s.Collisions) > 0 {
			s.Ambiguous = true
			diags = append(diags, AmbiguityDiagnostic(s.ID, s.Kind, s.Representative, s.Collisions, "resolve"))
		}
	}
	return res, diags
}

// representative picks the member of the highest-priority namespace, the
// earliest seen among equals. members must be in first-seen order.
func (r *Resolver) representative(members []mnx.SourceRef) mnx.SourceRef {
	best, bestRank := members[0], r.Rank(members[0].Namespace)
	for _, m := range members[1:] {
		if rank := r.Rank(m.Namespace); rank < bestRank {
			best, bestRank = m, rank
		}
	}
	return best
}

// Rank returns the priority position of a namespace; lower wins.
func (r *Resolver) Rank(ns string) int {
	if rank, ok := r.rank[ns]; ok {
		return rank
	}
	return len(r.rank)
}

// collisions returns the namespaces contributing more than one id.
func collisions(members []mnx.SourceRef) map[string][]string {
	perNS := make(map[string][]string)
	for _, m := range members {
		perNS[m.Namespace] = append(perNS[m.Namespace], m.ID)
	}
	var out map[string][]string
	for ns, ids := range perNS {
		if len(ids) < 2 {
			continue
		}
		if out == nil {
			out = make(map[string][]string)
		}
		out[ns] = ids
	}
	return out
}

// AmbiguityDiagnostic describes an ambiguous identity.
func AmbiguityDiagnostic(id mnx.CanonicalID, kind mnx.Kind, representative mnx.SourceRef, collisions map[string][]string, stage string) mnx.Diagnostic {
	return mnx.Diagnostic{
		Severity: mnx.SeverityWarning,
		Code:     mnx.CodeAmbiguousIdentity,
		Stage:    stage,
		Context: map[string]string{
			"canonical_id":   id.String(),
			"kind":           string(kind),
			"representative": representative.String(),
			"collisions":     FormatCollisions(collisions),
		},
	}
}

// FormatCollisions renders collisions as "ns=[a b]; ns2=[c d]" sorted by namespace.
func FormatCollisions(collisions map[string][]string) string {
	namespaces := make([]string, 0, len(collisions))
	for ns := range collisions {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)
	parts := make([]string, len(namespaces))
	for i, ns := range namespaces {
		parts[i] = fmt.Sprintf("%s=[%s]", ns, strings.Join(collisions[ns], " "))
	}
	return strings.Join(parts, "; ")
}
