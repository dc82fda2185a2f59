package mnx

import (
	"context"
)

// DatabaseManager creates the target database for the init command.
// Implementations are NOT safe for concurrent use.
type DatabaseManager interface {
	// Exists checks if a database exists.
	Exists(ctx context.Context, conn DBConnection, dbName string) (bool, error)

	// Create creates a new database.
	Create(ctx context.Context, conn DBConnection, dbName string) error
}
