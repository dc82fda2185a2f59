package loader

import (
	"context"
	"sync"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// MemorySink keeps upserted rows in memory. Safe for concurrent use.
type MemorySink struct {
	mu       sync.Mutex
	entities map[string]EntityRow
	aliases  map[string][]AliasRow
	names    map[string][]NameRow
	edges    map[mnx.EdgeKey]mnx.Edge
	runs     []mnx.RunInfo
}

func NewMemorySink() *MemorySink {
	return &MemorySink{
		entities: make(map[string]EntityRow),
		aliases:  make(map[string][]AliasRow),
		names:    make(map[string][]NameRow),
		edges:    make(map[mnx.EdgeKey]mnx.Edge),
	}
}

func (s *MemorySink) Write(ctx context.Context, g *mnx.ResolvedGraph, run mnx.RunInfo) (mnx.WriteSummary, error) {
	if err := CheckReferences(g); err != nil {
		return mnx.WriteSummary{}, err
	}
	if err := ctx.Err(); err != nil {
		return mnx.WriteSummary{}, err
	}
	t := Rows(g)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range t.Entities {
		s.entities[e.ID] = e
		delete(s.aliases, e.ID)
		delete(s.names, e.ID)
	}
	for _, a := range t.Aliases {
		s.aliases[a.EntityID] = append(s.aliases[a.EntityID], a)
	}
	for _, n := range t.Names {
		s.names[n.EntityID] = append(s.names[n.EntityID], n)
	}
	for _, edge := range g.Edges {
		s.edges[edge.Key()] = edge
	}
	s.runs = append(s.runs, run)
	return t.Summary(), nil
}

func (s *MemorySink) Entity(id mnx.CanonicalID) (EntityRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id.String()]
	return e, ok
}

func (s *MemorySink) Aliases(id mnx.CanonicalID) []AliasRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AliasRow(nil), s.aliases[id.String()]...)
}

func (s *MemorySink) Edge(key mnx.EdgeKey) (mnx.Edge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.edges[key]
	return e, ok
}

func (s *MemorySink) Counts() (entities, edges int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities), len(s.edges)
}

// Runs returns the provenance of every accepted write.
func (s *MemorySink) Runs() []mnx.RunInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mnx.RunInfo(nil), s.runs...)
}

var _ mnx.Sink = (*MemorySink)(nil)
