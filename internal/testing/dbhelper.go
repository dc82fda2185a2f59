// Package testing holds helpers shared by database integration tests.
package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/mnxnorm/internal/db"
	"github.com/vvka-141/mnxnorm/internal/db/manager"
	"github.com/vvka-141/mnxnorm/internal/testinfra"
)

// TestConnEnv overrides the auto-started container.
const TestConnEnv = "MNXNORM_TEST_CONN"

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		container, err := testinfra.StartSimplePostgres(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the maintenance connection string:
// MNXNORM_TEST_CONN if set, else a shared testcontainer, else the test is skipped.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv(TestConnEnv); connString != "" {
		return connString
	}
	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", TestConnEnv, err)
	}
	return connString
}

func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString.
func RequireDatabase(t *testing.T) string {
	t.Helper()
	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// CreateTestDB creates a uniquely named database and returns its connection
// string. The database is dropped when the test finishes.
func CreateTestDB(t *testing.T, connString string) string {
	t.Helper()
	ctx := context.Background()

	name := "mnx_test_" + strings.ReplaceAll(uuid.NewString()[:13], "-", "")

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect for test DB creation: %v", err)
	}
	created, err := manager.New().Ensure(ctx, db.NewPoolAdapter(pool), name)
	pool.Close()
	if err != nil || !created {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	t.Cleanup(func() { dropTestDB(t, connString, name) })

	cfg, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	cfg.Database = name
	return db.BuildConnectionString(cfg)
}

func dropTestDB(t *testing.T, connString, name string) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Logf("Warning: failed to connect for cleanup: %v", err)
		return
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()`, name); err != nil {
		t.Logf("Warning: failed to terminate connections to %s: %v", name, err)
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", pgx.Identifier{name}.Sanitize())); err != nil {
		t.Logf("Warning: failed to drop database %s: %v", name, err)
	}
}

// GetTestPool opens a pool on connString that is closed when the test finishes.
func GetTestPool(t *testing.T, connString string) *pgxpool.Pool {
	t.Helper()
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
