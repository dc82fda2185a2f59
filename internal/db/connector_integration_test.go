package db_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/mnxnorm/internal/db"
	"github.com/vvka-141/mnxnorm/internal/logging"
	testhelpers "github.com/vvka-141/mnxnorm/internal/testing"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

func connect(t *testing.T, cfg *mnx.ConnectionConfig) (*pgxpool.Pool, error) {
	t.Helper()
	connector, err := db.NewConnector(cfg, logging.NewNullLogger())
	require.NoError(t, err)
	pool, err := connector.Connect(context.Background())
	if pool != nil {
		t.Cleanup(pool.Close)
	}
	return pool, err
}

func containerConfig(t *testing.T) *mnx.ConnectionConfig {
	t.Helper()
	cfg, err := db.ParseConnectionString(testhelpers.RequireDatabase(t))
	require.NoError(t, err)
	return cfg
}

func TestStandardConnector_Connects(t *testing.T) {
	pool, err := connect(t, containerConfig(t))
	require.NoError(t, err)

	var version string
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT version()").Scan(&version))
	assert.Contains(t, version, "PostgreSQL")
}

func TestStandardConnector_WrongPassword(t *testing.T) {
	cfg := containerConfig(t)
	cfg.Password = "definitely-wrong-password"

	_, err := connect(t, cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, mnx.ErrConnectionFailed)
	assert.Contains(t, err.Error(), "password authentication failed")
}

func TestResolvedConnection_FlagsOverEnvironment(t *testing.T) {
	cfg := containerConfig(t)
	t.Setenv("PGHOST", "unreachable.invalid")
	t.Setenv("PGPASSWORD", cfg.Password)
	t.Setenv("PGSSLMODE", "disable")

	resolved, _, err := db.ResolveConnectionParams("",
		&db.GranularConnFlags{Host: cfg.Host, Port: cfg.Port, Username: cfg.Username, Database: cfg.Database},
		nil, db.LoadFromEnvironment(), nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.Host, resolved.Host)

	pool, err := connect(t, resolved)
	require.NoError(t, err)
	assert.NoError(t, pool.Ping(context.Background()))
}
