package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/mnxnorm/internal/loader/loadertest"
	"github.com/vvka-141/mnxnorm/internal/loader/postgres"
	"github.com/vvka-141/mnxnorm/internal/logging"
	testhelpers "github.com/vvka-141/mnxnorm/internal/testing"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

func newTestSink(t *testing.T) (*postgres.Sink, func(query string, args ...any) int) {
	t.Helper()
	connString := testhelpers.CreateTestDB(t, testhelpers.RequireDatabase(t))
	pool := testhelpers.GetTestPool(t, connString)

	sink := postgres.NewSink(pool, logging.NewNullLogger(), postgres.WithBatchSize(2))
	require.NoError(t, sink.EnsureSchema(context.Background()))

	count := func(query string, args ...any) int {
		t.Helper()
		var n int
		require.NoError(t, pool.QueryRow(context.Background(), query, args...).Scan(&n))
		return n
	}
	return sink, count
}

func runInfo() mnx.RunInfo {
	return mnx.RunInfo{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Inputs: []mnx.InputFingerprint{
			{Kind: mnx.InputChemProp, Location: "chem_prop.tsv", Version: "4.4", SHA256: "aa", ContentSHA256: "bb", Bytes: 10},
		},
	}
}

func TestSink_WriteIsIdempotent(t *testing.T) {
	sink, count := newTestSink(t)
	ctx := context.Background()

	first, err := sink.Write(ctx, loadertest.Graph(), runInfo())
	require.NoError(t, err)
	assert.Equal(t, mnx.WriteSummary{Entities: 6, Edges: 5, Aliases: 4, Names: 3}, first)

	second, err := sink.Write(ctx, loadertest.Graph(), runInfo())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 6, count("SELECT count(*) FROM mnx_entity"))
	assert.Equal(t, 5, count("SELECT count(*) FROM mnx_edge"))
	assert.Equal(t, 4, count("SELECT count(*) FROM mnx_alias"))
	assert.Equal(t, 3, count("SELECT count(*) FROM mnx_participant_term"))
	assert.Equal(t, 2, count("SELECT count(*) FROM mnx_run"))
	assert.Equal(t, 2, count("SELECT count(*) FROM mnx_run_input"))
	assert.Equal(t, 2, count("SELECT count(*) FROM mnx_alias WHERE collision AND entity_id = $1", loadertest.ID("MNXM1")))
	assert.Equal(t, 1, count("SELECT count(*) FROM mnx_participant_term WHERE value = -2"))
}

func TestSink_RejectsDanglingEdges(t *testing.T) {
	sink, count := newTestSink(t)

	_, err := sink.Write(context.Background(), loadertest.Dangling(), runInfo())
	require.Error(t, err)
	assert.True(t, errors.Is(err, mnx.ErrReferentialIntegrity))
	assert.Equal(t, 0, count("SELECT count(*) FROM mnx_entity"))
	assert.Equal(t, 0, count("SELECT count(*) FROM mnx_run"))
}

func TestSink_Reset(t *testing.T) {
	sink, count := newTestSink(t)
	ctx := context.Background()

	_, err := sink.Write(ctx, loadertest.Graph(), runInfo())
	require.NoError(t, err)
	require.NoError(t, sink.Reset(ctx))

	assert.Equal(t, 0, count("SELECT count(*) FROM mnx_entity"))
	assert.Equal(t, 0, count("SELECT count(*) FROM mnx_run"))

	_, err = sink.Write(ctx, loadertest.Graph(), runInfo())
	require.NoError(t, err)
}

func TestNewSink_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { postgres.NewSink(nil, logging.NewNullLogger()) })
}
