package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/mnxnorm/internal/retry"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// Pool sizing for loads. A load runs inside one transaction, so a small
// pool is enough; the extra connection serves the run-history insert.
const (
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
}

func newRetryExecutor(logger mnx.Logger) *retry.Executor {
	return retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), retry.NewDefaultBackoff(), logger)
}

// StandardConnector connects with username/password credentials and retries
// transient failures.
type StandardConnector struct {
	config        *mnx.ConnectionConfig
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a StandardConnector. Retry behavior uses the
// mnx defaults (DefaultRetryMaxAttempts, DefaultRetryInitialDelay, DefaultRetryMaxDelay).
func NewStandardConnector(config *mnx.ConnectionConfig, logger mnx.Logger) *StandardConnector {
	return &StandardConnector{
		config:        config,
		retryExecutor: newRetryExecutor(logger),
	}
}

// Connect establishes a pool and pings it.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(c.config)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		poolConfig, err := pgxpool.ParseConfig(connStr)
		if err != nil {
			return fmt.Errorf("failed to parse connection config: %w", err)
		}
		configurePool(poolConfig)

		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// NewConnector picks the Connector implementation for config.AuthMethod.
func NewConnector(config *mnx.ConnectionConfig, logger mnx.Logger) (mnx.Connector, error) {
	switch config.AuthMethod {
	case mnx.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case mnx.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case mnx.AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case mnx.AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, mnx.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError turns raw pgx connection errors into actionable messages.
// The result always chains both the original error and mnx.ErrConnectionFailed.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	var msg string
	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		msg = fmt.Sprintf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port
  - Firewall blocking the connection`, addr, host, port)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		msg = fmt.Sprintf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable`, host)

	case strings.Contains(errStr, "password authentication failed"):
		msg = fmt.Sprintf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password (check $PGPASSWORD or ~/.pgpass)
  - Wrong username`, database)

	case strings.Contains(errStr, "does not exist"):
		msg = fmt.Sprintf(`database "%s" does not exist

To create it and apply the schema:
  mnxnorm init`, database)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		msg = fmt.Sprintf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Wrong host/port (server not listening)`, addr)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		msg = `SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)`

	case strings.Contains(errStr, "too many connections"):
		msg = fmt.Sprintf(`too many connections to database "%s"

Possible causes:
  - max_connections limit reached in postgresql.conf
  - Stale connections from previous loads`, database)

	default:
		msg = "failed to connect to database"
	}
	return fmt.Errorf("%s\n\nOriginal error: %w: %w", msg, err, mnx.ErrConnectionFailed)
}

func newAWSConnector(config *mnx.ConnectionConfig, logger mnx.Logger) (mnx.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)
	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}
	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM", logger), nil
}

func newGoogleConnector(config *mnx.ConnectionConfig, logger mnx.Logger) (mnx.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", mnx.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("google Cloud SQL IAM auth requires username (-U): %w", mnx.ErrInvalidConfig)
	}
	return NewGoogleCloudSQLConnector(config, config.GoogleInstance, logger), nil
}

// newAzureConnector uses Service Principal auth when tenant, client and secret
// are all set, and the DefaultAzureCredential chain otherwise.
func newAzureConnector(config *mnx.ConnectionConfig, logger mnx.Logger) (mnx.Connector, error) {
	var (
		tokenProvider TokenProvider
		err           error
	)
	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
		}
	}
	return NewTokenBasedConnector(config, tokenProvider, "Azure", logger), nil
}
