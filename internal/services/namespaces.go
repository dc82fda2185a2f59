package services

import (
	"context"
	"fmt"

	"github.com/vvka-141/mnxnorm/internal/grammar"
	"github.com/vvka-141/mnxnorm/internal/ingest"
	"github.com/vvka-141/mnxnorm/internal/namespace"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// NamespaceQuery selects the dumps and registry a namespace report covers.
type NamespaceQuery struct {
	Inputs        map[mnx.InputKind]string
	RegistryPath  string
	PrefixAliases map[string]string
}

// Namespaces reports the prefixes the dumps refer to and which of them the
// registry lacks. Without a registry every prefix is reported missing.
func (p *Pipeline) Namespaces(ctx context.Context, q NamespaceQuery) (namespace.Report, error) {
	if len(q.Inputs) == 0 {
		return namespace.Report{}, fmt.Errorf("at least one input table is required: %w", mnx.ErrInvalidConfig)
	}
	inputs, err := p.acquirer.AcquireAll(ctx, q.Inputs)
	if err != nil {
		return namespace.Report{}, err
	}

	converter := ingest.NewConverter(grammar.NewRefParser(q.PrefixAliases))
	var records []mnx.RawRecord
	for _, in := range inputs {
		table, err := ingest.ReadTable(in.Location, in.Kind, in.Content)
		if err != nil {
			return namespace.Report{}, err
		}
		recs, _, _ := converter.Convert(table)
		records = append(records, recs...)
	}

	var registry *namespace.Registry
	if q.RegistryPath != "" {
		data, err := p.acquirer.Fetch(ctx, q.RegistryPath)
		if err != nil {
			return namespace.Report{}, fmt.Errorf("failed to read namespace registry: %w", err)
		}
		if registry, err = namespace.Parse(data); err != nil {
			return namespace.Report{}, err
		}
	}
	return namespace.Check(records, registry), nil
}
