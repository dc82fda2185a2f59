package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

func TestWrapConnectionError(t *testing.T) {
	tests := []struct {
		name         string
		errMsg       string
		wantContains string
	}{
		{"refused", "dial tcp 127.0.0.1:5432: connect: connection refused", "connection refused to db:5432"},
		{"windows refused", "No connection could be made because the target machine actively refused it", "connection refused to db:5432"},
		{"dns", "dial tcp: lookup db: no such host", `cannot resolve host "db"`},
		{"password", "FATAL: password authentication failed for user \"loader\"", `password authentication failed for database "metanetx"`},
		{"missing database", `FATAL: database "metanetx" does not exist`, "mnxnorm init"},
		{"timeout", "dial tcp 10.0.0.1:5432: i/o timeout", "connection timed out to db:5432"},
		{"tls", "tls: handshake failure", "SSL/TLS connection error"},
		{"too many connections", "FATAL: sorry, too many connections for role", `too many connections to database "metanetx"`},
		{"fallback", "something unexpected", "failed to connect to database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := errors.New(tt.errMsg)
			wrapped := wrapConnectionError(original, "db", 5432, "metanetx")

			assert.Contains(t, wrapped.Error(), tt.wantContains)
			assert.ErrorIs(t, wrapped, original)
			assert.ErrorIs(t, wrapped, mnx.ErrConnectionFailed)
		})
	}
}

func TestNewConnector_SelectsImplementation(t *testing.T) {
	std, err := NewConnector(&mnx.ConnectionConfig{AuthMethod: mnx.AuthMethodStandard}, nil)
	assert.NoError(t, err)
	assert.IsType(t, &StandardConnector{}, std)

	google, err := NewConnector(&mnx.ConnectionConfig{AuthMethod: mnx.AuthMethodGoogleIAM, Username: "sa", GoogleInstance: "p:r:i"}, nil)
	assert.NoError(t, err)
	assert.IsType(t, &GoogleCloudSQLConnector{}, google)

	_, err = NewConnector(&mnx.ConnectionConfig{AuthMethod: mnx.AuthMethodGoogleIAM}, nil)
	assert.ErrorIs(t, err, mnx.ErrInvalidConfig)

	_, err = NewConnector(&mnx.ConnectionConfig{AuthMethod: mnx.AuthMethodAWSIAM, Host: "h", Port: 5432, Username: "u"}, nil)
	assert.ErrorIs(t, err, mnx.ErrInvalidConfig, "aws without region")

	_, err = NewConnector(&mnx.ConnectionConfig{AuthMethod: mnx.AuthMethod(99)}, nil)
	assert.ErrorIs(t, err, mnx.ErrUnsupportedAuthMethod)
}

func TestAWSIAMTokenProvider_String(t *testing.T) {
	p, err := NewAWSIAMTokenProvider("db.rds.amazonaws.com:5432", "eu-west-1", "loader")
	assert.NoError(t, err)
	assert.Equal(t, "AWSIAMTokenProvider(endpoint=db.rds.amazonaws.com:5432, region=eu-west-1, user=loader)", p.String())
}
