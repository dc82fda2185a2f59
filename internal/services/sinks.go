package services

import (
	"context"
	"fmt"

	"github.com/vvka-141/mnxnorm/internal/db"
	"github.com/vvka-141/mnxnorm/internal/loader/postgres"
	"github.com/vvka-141/mnxnorm/internal/loader/sqlite"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// ManagedSink is a sink whose tables can be created and reset.
type ManagedSink interface {
	mnx.Sink
	EnsureSchema(ctx context.Context) error
	Reset(ctx context.Context) error
}

// Target identifies a sink backend and where it lives.
type Target struct {
	Kind             mnx.SinkKind
	ConnectionString string
	SQLitePath       string
	Connection       mnx.ConnectionConfig
}

// Name is the human readable target shown in prompts and logs.
func (t Target) Name() string {
	if t.Kind == mnx.SinkSQLite {
		return t.SQLitePath
	}
	if t.Connection.Database != "" {
		return t.Connection.Database
	}
	if cfg, err := db.ParseConnectionString(t.ConnectionString); err == nil {
		return cfg.Database
	}
	return string(t.Kind)
}

// ConnectionConfig returns the parsed connection of a postgres target.
// Explicit Connection fields win over the connection string.
func (t Target) ConnectionConfig() (*mnx.ConnectionConfig, error) {
	if t.ConnectionString == "" {
		cfg := t.Connection
		return &cfg, nil
	}
	cfg, err := db.ParseConnectionString(t.ConnectionString)
	if err != nil {
		return nil, err
	}
	if t.Connection.Database != "" {
		cfg.Database = t.Connection.Database
	}
	cfg.AuthMethod = t.Connection.AuthMethod
	cfg.AWSRegion = t.Connection.AWSRegion
	cfg.GoogleInstance = t.Connection.GoogleInstance
	cfg.AzureTenantID = t.Connection.AzureTenantID
	cfg.AzureClientID = t.Connection.AzureClientID
	cfg.AzureClientSecret = t.Connection.AzureClientSecret
	return cfg, nil
}

// SinkOpener opens the sink of a target. The returned cleanup must be called
// when the sink is no longer used.
type SinkOpener interface {
	Open(ctx context.Context, target Target) (ManagedSink, func(), error)
}

// ConnectorFactory builds a database connector for a connection config.
type ConnectorFactory func(*mnx.ConnectionConfig) (mnx.Connector, error)

// BackendOpener opens the PostgreSQL and SQLite sinks.
type BackendOpener struct {
	connectorFactory ConnectorFactory
	logger           mnx.Logger
	batchSize        int
}

// NewBackendOpener panics if connectorFactory or logger is nil.
func NewBackendOpener(connectorFactory ConnectorFactory, logger mnx.Logger, batchSize int) *BackendOpener {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &BackendOpener{connectorFactory: connectorFactory, logger: logger, batchSize: batchSize}
}

func (o *BackendOpener) Open(ctx context.Context, target Target) (ManagedSink, func(), error) {
	switch target.Kind {
	case mnx.SinkPostgres:
		connConfig, err := target.ConnectionConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse connection string: %w", err)
		}
		if connConfig.AppName == "" {
			connConfig.AppName = "mnxnorm"
		}
		connector, err := o.connectorFactory(connConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connector: %w", err)
		}
		pool, err := connector.Connect(ctx)
		if err != nil {
			return nil, nil, err
		}
		o.logger.Verbose("Connected to %s:%d/%s", connConfig.Host, connConfig.Port, connConfig.Database)
		return postgres.NewSink(pool, o.logger, postgres.WithBatchSize(o.batchSize)), pool.Close, nil

	case mnx.SinkSQLite:
		sink, err := sqlite.Open(target.SQLitePath, o.logger)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() { _ = sink.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("sink %q cannot be opened: %w", target.Kind, mnx.ErrInvalidConfig)
	}
}

var _ SinkOpener = (*BackendOpener)(nil)
