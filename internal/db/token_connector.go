package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/mnxnorm/internal/retry"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// tokenExpiryWarning is the remaining lifetime below which a fresh token is
// reported, since a long load may outlive it.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector authenticates with short-lived cloud tokens (AWS IAM,
// Azure Entra ID). The token is used as the PostgreSQL password.
type TokenBasedConnector struct {
	config        *mnx.ConnectionConfig
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	providerName  string
	logger        mnx.Logger
}

// NewTokenBasedConnector creates a connector backed by tokenProvider.
// providerName appears in errors and warnings ("AWS IAM", "Azure").
func NewTokenBasedConnector(config *mnx.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger mnx.Logger) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retryExecutor: newRetryExecutor(logger),
		providerName:  providerName,
		logger:        logger,
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
		}
		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning && c.logger != nil {
			c.logger.Warn("%s token expires in %v", c.providerName, remaining.Round(time.Second))
		}

		withToken := *c.config
		withToken.Password = token

		poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(&withToken))
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
