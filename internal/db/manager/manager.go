package manager

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

const queryDatabaseExists = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"

// Manager implements mnx.DatabaseManager. It is stateless; thread safety
// depends on the injected DBConnection.
type Manager struct{}

func New() *Manager {
	return &Manager{}
}

func (m *Manager) Exists(ctx context.Context, conn mnx.DBConnection, dbName string) (bool, error) {
	var exists bool
	if err := conn.QueryRow(ctx, queryDatabaseExists, dbName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

func (m *Manager) Create(ctx context.Context, conn mnx.DBConnection, dbName string) error {
	pooled, err := conn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer pooled.Release()

	query := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{dbName}.Sanitize())
	if _, err := pooled.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return nil
}

// Ensure creates dbName unless it exists and reports whether it was created.
func (m *Manager) Ensure(ctx context.Context, conn mnx.DBConnection, dbName string) (bool, error) {
	exists, err := m.Exists(ctx, conn, dbName)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := m.Create(ctx, conn, dbName); err != nil {
		return false, err
	}
	return true, nil
}

var _ mnx.DatabaseManager = (*Manager)(nil)
