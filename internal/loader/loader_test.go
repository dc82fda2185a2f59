package loader_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/mnxnorm/internal/loader"
	"github.com/vvka-141/mnxnorm/internal/loader/loadertest"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

func TestCheckReferences(t *testing.T) {
	require.NoError(t, loader.CheckReferences(loadertest.Graph()))

	err := loader.CheckReferences(loadertest.Dangling())
	require.Error(t, err)
	assert.True(t, errors.Is(err, mnx.ErrReferentialIntegrity))
	assert.Contains(t, err.Error(), loadertest.ID("MNXM999").String())
	assert.Equal(t, mnx.ExitLoadRejected, mnx.ExitCodeForError(err))
}

func TestCheckReferences_DuplicatesAndCompartments(t *testing.T) {
	g := loadertest.Graph()
	entities := append(append([]mnx.Entity(nil), g.Entities...), g.Entities[0])
	edges := append(append([]mnx.Edge(nil), g.Edges...), g.Edges[0], mnx.Edge{
		Source: loadertest.ID("MNXR1"), Target: loadertest.ID("MNXM1"), Kind: mnx.EdgeCrossReference,
		Terms: []mnx.EdgeTerm{{Compartment: uuid.New()}},
	})

	err := loader.CheckReferences(mnx.NewResolvedGraph(entities, edges, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 violation(s)")
	assert.Contains(t, err.Error(), "appears twice")
}

func TestCheckReferences_CapsReport(t *testing.T) {
	g := loadertest.Graph()
	edges := append([]mnx.Edge(nil), g.Edges...)
	for i := 0; i < 30; i++ {
		edges = append(edges, mnx.Edge{Source: uuid.New(), Target: g.Entities[0].ID, Kind: mnx.EdgeCrossReference})
	}
	err := loader.CheckReferences(mnx.NewResolvedGraph(append([]mnx.Entity(nil), g.Entities...), edges, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "... and 10 more")
}

func TestRows(t *testing.T) {
	tables := loader.Rows(loadertest.Graph())

	assert.Equal(t, mnx.WriteSummary{Entities: 6, Edges: 5, Aliases: 4, Names: 3}, tables.Summary())
	assert.Len(t, tables.Terms, 3)
	assert.Len(t, tables.EntityIDs(), 6)

	water := loadertest.ID("MNXM1").String()
	var collisions []string
	for _, a := range tables.Aliases {
		if a.EntityID == water && a.Collision {
			collisions = append(collisions, a.Identifier)
		}
	}
	assert.Equal(t, []string{"15377", "29375"}, collisions)

	for _, e := range tables.Entities {
		if e.ID == water {
			assert.Equal(t, "H2O", e.Structure)
			assert.True(t, e.Ambiguous)
		}
	}

	values := map[string]string{}
	for _, term := range tables.Terms {
		values[term.TargetID] = term.Value
		assert.Equal(t, loadertest.ID("MNXC3").String(), term.CompartmentID)
	}
	assert.Equal(t, "-2", values[loadertest.ID("MNXM2").String()])
	assert.Equal(t, "2", values[water])
}

func TestMemorySink_Upsert(t *testing.T) {
	ctx := context.Background()
	sink := loader.NewMemorySink()
	run := mnx.RunInfo{ID: uuid.New()}

	summary, err := sink.Write(ctx, loadertest.Graph(), run)
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Entities)

	_, err = sink.Write(ctx, loadertest.Graph(), mnx.RunInfo{ID: uuid.New()})
	require.NoError(t, err)

	entities, edges := sink.Counts()
	assert.Equal(t, 6, entities, "second write upserts")
	assert.Equal(t, 5, edges)
	assert.Len(t, sink.Aliases(loadertest.ID("MNXM1")), 3, "aliases are replaced, not duplicated")
	assert.Len(t, sink.Runs(), 2)

	edge, ok := sink.Edge(mnx.EdgeKey{Source: loadertest.ID("MNXR1"), Target: loadertest.ID("MNXM2"), Kind: mnx.EdgeParticipant})
	require.True(t, ok)
	assert.Equal(t, -1, edge.Terms[0].Coefficient.Sign())
}

func TestMemorySink_RejectsWholeBatch(t *testing.T) {
	sink := loader.NewMemorySink()
	_, err := sink.Write(context.Background(), loadertest.Dangling(), mnx.RunInfo{})
	assert.ErrorIs(t, err, mnx.ErrReferentialIntegrity)

	entities, edges := sink.Counts()
	assert.Zero(t, entities)
	assert.Zero(t, edges)
	assert.Empty(t, sink.Runs())
}
