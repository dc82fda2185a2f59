package loader

import (
	"errors"
	"fmt"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// maxReportedViolations caps the joined error so a corrupt batch does not
// produce megabytes of output.
const maxReportedViolations = 20

// CheckReferences rejects a batch containing an edge whose source, target
// or term compartment is not an entity of the batch, or repeating an
// entity id or an edge key.
func CheckReferences(g *mnx.ResolvedGraph) error {
	if g == nil {
		return fmt.Errorf("nil graph: %w", mnx.ErrReferentialIntegrity)
	}

	var (
		errs  []error
		total int
	)
	report := func(err error) {
		total++
		if len(errs) < maxReportedViolations {
			errs = append(errs, err)
		}
	}

	ids := make(map[mnx.CanonicalID]struct{}, len(g.Entities))
	for _, e := range g.Entities {
		if _, dup := ids[e.ID]; dup {
			report(fmt.Errorf("entity %s (%s) appears twice", e.ID, e.Key))
			continue
		}
		ids[e.ID] = struct{}{}
	}

	keys := make(map[mnx.EdgeKey]struct{}, len(g.Edges))
	for _, edge := range g.Edges {
		if _, dup := keys[edge.Key()]; dup {
			report(fmt.Errorf("%s edge %s -> %s appears twice", edge.Kind, edge.Source, edge.Target))
			continue
		}
		keys[edge.Key()] = struct{}{}
		for _, ref := range edge.References() {
			if _, ok := ids[ref]; !ok {
				report(fmt.Errorf("%s edge %s -> %s references unknown entity %s", edge.Kind, edge.Source, edge.Target, ref))
			}
		}
	}

	if total == 0 {
		return nil
	}
	if total > len(errs) {
		errs = append(errs, fmt.Errorf("... and %d more", total-len(errs)))
	}
	return fmt.Errorf("batch rejected with %d violation(s): %w: %w", total, mnx.ErrReferentialIntegrity, errors.Join(errs...))
}
