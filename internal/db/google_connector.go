package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// GoogleCloudSQLConnector connects through the Cloud SQL Go Connector with
// IAM database authentication. Callers must Close it after closing the pool.
type GoogleCloudSQLConnector struct {
	config   *mnx.ConnectionConfig
	instance string
	dialer   *cloudsqlconn.Dialer
	logger   mnx.Logger
}

// NewGoogleCloudSQLConnector takes the instance connection name (project:region:instance).
func NewGoogleCloudSQLConnector(config *mnx.ConnectionConfig, instance string, logger mnx.Logger) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{config: config, instance: instance, logger: logger}
}

func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w", err)
	}

	dsn := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable", c.instance, c.config.Username, c.config.Database)
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, c.instance)
	}
	configurePool(poolConfig)

	var pool *pgxpool.Pool
	err = newRetryExecutor(c.logger).Execute(ctx, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return wrapConnectionError(err, c.instance, 0, c.config.Database)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return wrapConnectionError(err, c.instance, 0, c.config.Database)
		}
		pool = p
		return nil
	})
	if err != nil {
		dialer.Close()
		return nil, err
	}

	c.dialer = dialer
	return pool, nil
}

// Close releases the Cloud SQL dialer.
func (c *GoogleCloudSQLConnector) Close() error {
	if c.dialer != nil {
		c.dialer.Close()
		c.dialer = nil
	}
	return nil
}
