package db

import (
	"context"
	"time"
)

// TokenProvider acquires short-lived credentials for cloud-hosted PostgreSQL.
type TokenProvider interface {
	// GetToken returns a token usable as the connection password and its expiry.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for logs. It must not include secrets.
	String() string
}

// AzurePostgreSQLScope is the OAuth scope for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"
