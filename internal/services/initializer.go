package services

import (
	"context"
	"fmt"

	"github.com/vvka-141/mnxnorm/internal/db"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// EnsureDatabaseManager is a DatabaseManager that can create-if-missing.
type EnsureDatabaseManager interface {
	mnx.DatabaseManager
	Ensure(ctx context.Context, conn mnx.DBConnection, dbName string) (bool, error)
}

// Initializer creates the target database when needed and applies the schema.
type Initializer struct {
	sinks            SinkOpener
	connectorFactory ConnectorFactory
	dbManager        EnsureDatabaseManager
	logger           mnx.Logger
}

// NewInitializer panics if any dependency is nil.
func NewInitializer(sinks SinkOpener, connectorFactory ConnectorFactory, dbManager EnsureDatabaseManager, logger mnx.Logger) *Initializer {
	if sinks == nil {
		panic("sinks cannot be nil")
	}
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if dbManager == nil {
		panic("dbManager cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Initializer{sinks: sinks, connectorFactory: connectorFactory, dbManager: dbManager, logger: logger}
}

// Init is idempotent: an existing database and existing tables are kept.
func (i *Initializer) Init(ctx context.Context, cfg mnx.InitConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	target := Target{
		Kind:             cfg.Sink,
		ConnectionString: cfg.ConnectionString,
		SQLitePath:       cfg.SQLitePath,
		Connection:       cfg.Connection,
	}
	if cfg.Sink == mnx.SinkPostgres {
		if err := i.ensureDatabase(ctx, target, cfg.MaintenanceDatabase); err != nil {
			return err
		}
	}

	sink, cleanup, err := i.sinks.Open(ctx, target)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := sink.EnsureSchema(ctx); err != nil {
		return err
	}
	i.logger.Info("✓ Schema ready in %s", target.Name())
	return nil
}

func (i *Initializer) ensureDatabase(ctx context.Context, target Target, maintenanceDB string) error {
	connConfig, err := target.ConnectionConfig()
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}
	dbName := connConfig.Database
	if dbName == "" {
		return fmt.Errorf("no target database given: %w", mnx.ErrInvalidConfig)
	}
	if maintenanceDB == "" {
		maintenanceDB = mnx.DefaultManagementDB
	}

	mgmt := *connConfig
	mgmt.Database = maintenanceDB
	connector, err := i.connectorFactory(&mgmt)
	if err != nil {
		return fmt.Errorf("failed to create connector: %w", err)
	}
	pool, err := connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to management database: %w", err)
	}
	defer pool.Close()

	created, err := i.dbManager.Ensure(ctx, db.NewPoolAdapter(pool), dbName)
	if err != nil {
		return err
	}
	if created {
		i.logger.Info("✓ Created database %s", dbName)
	} else {
		i.logger.Verbose("Database %s already exists", dbName)
	}
	return nil
}
