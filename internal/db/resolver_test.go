package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/mnxnorm/internal/config"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

func TestGranularConnFlags_IsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		flags GranularConnFlags
		want  bool
	}{
		{name: "empty flags", flags: GranularConnFlags{}, want: true},
		{name: "only host set", flags: GranularConnFlags{Host: "localhost"}, want: false},
		{name: "only port set", flags: GranularConnFlags{Port: 5432}, want: false},
		{name: "only username set", flags: GranularConnFlags{Username: "loader"}, want: false},
		{name: "only database set", flags: GranularConnFlags{Database: "metanetx"}, want: true},
		{name: "only sslmode set", flags: GranularConnFlags{SSLMode: "require"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.flags.IsEmpty())
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PGHOST", "envhost")
	t.Setenv("PGPORT", "6543")
	t.Setenv("PGUSER", "envuser")
	t.Setenv("PGPASSWORD", "secret")
	t.Setenv("PGDATABASE", "envdb")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("AZURE_CLIENT_SECRET", "azsecret")

	env := LoadFromEnvironment()
	assert.Equal(t, "envhost", env.PGHOST)
	assert.Equal(t, "6543", env.PGPORT)
	assert.Equal(t, "envuser", env.PGUSER)
	assert.Equal(t, "secret", env.PGPASSWORD)
	assert.Equal(t, "envdb", env.PGDATABASE)
	assert.Equal(t, "eu-west-1", env.AWS_REGION)
	assert.Equal(t, "azsecret", env.AZURE_CLIENT_SECRET)
}

func TestResolveConnectionParams_ConflictDetection(t *testing.T) {
	_, _, err := ResolveConnectionParams(
		"postgresql://user@localhost/postgres",
		&GranularConnFlags{Host: "other"},
		nil, nil, nil,
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mnx.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "cannot specify both")
}

func TestResolveConnectionParams_FromConnectionString(t *testing.T) {
	tests := []struct {
		name      string
		connStr   string
		flags     *GranularConnFlags
		env       *EnvVars
		wantDB    string
		wantMaint string
		wantSSL   string
		wantHost  string
		wantPort  int
		wantLogin string
	}{
		{
			name:      "uri with database",
			connStr:   "postgresql://loader:pw@db.example.com:5433/postgres?sslmode=require",
			wantDB:    "postgres",
			wantMaint: "postgres",
			wantSSL:   "require",
			wantHost:  "db.example.com",
			wantPort:  5433,
			wantLogin: "loader",
		},
		{
			name:      "database flag overrides target but not maintenance db",
			connStr:   "postgresql://loader@localhost/template1",
			flags:     &GranularConnFlags{Database: "metanetx"},
			wantDB:    "metanetx",
			wantMaint: "template1",
			wantSSL:   "prefer",
			wantHost:  "localhost",
			wantPort:  5432,
			wantLogin: "loader",
		},
		{
			name:      "PGSSLMODE fills missing sslmode",
			connStr:   "Host=localhost;Port=5432;Database=postgres;Username=loader;SSL Mode=",
			env:       &EnvVars{PGSSLMODE: "verify-full"},
			wantDB:    "postgres",
			wantMaint: "postgres",
			wantSSL:   "verify-full",
			wantHost:  "localhost",
			wantPort:  5432,
			wantLogin: "loader",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, maint, err := ResolveConnectionParams(tt.connStr, tt.flags, nil, tt.env, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDB, cfg.Database)
			assert.Equal(t, tt.wantMaint, maint)
			assert.Equal(t, tt.wantSSL, cfg.SSLMode)
			assert.Equal(t, tt.wantHost, cfg.Host)
			assert.Equal(t, tt.wantPort, cfg.Port)
			assert.Equal(t, tt.wantLogin, cfg.Username)
			assert.Equal(t, mnx.AuthMethodStandard, cfg.AuthMethod)
		})
	}
}

func TestResolveConnectionParams_Precedence(t *testing.T) {
	project := &config.ProjectConfig{Connection: config.ConnectionConfig{
		Host:               "yamlhost",
		Port:               7000,
		Username:           "yamluser",
		Database:           "yamldb",
		SSLMode:            "disable",
		ManagementDatabase: "maint",
	}}

	t.Run("yaml used when nothing else is set", func(t *testing.T) {
		cfg, maint, err := ResolveConnectionParams("", nil, nil, &EnvVars{}, project)
		require.NoError(t, err)
		assert.Equal(t, "yamlhost", cfg.Host)
		assert.Equal(t, 7000, cfg.Port)
		assert.Equal(t, "yamluser", cfg.Username)
		assert.Equal(t, "yamldb", cfg.Database)
		assert.Equal(t, "disable", cfg.SSLMode)
		assert.Equal(t, "maint", maint)
	})

	t.Run("environment beats yaml", func(t *testing.T) {
		env := &EnvVars{PGHOST: "envhost", PGPORT: "6000", PGUSER: "envuser", PGDATABASE: "envdb", PGPASSWORD: "pw"}
		cfg, _, err := ResolveConnectionParams("", nil, nil, env, project)
		require.NoError(t, err)
		assert.Equal(t, "envhost", cfg.Host)
		assert.Equal(t, 6000, cfg.Port)
		assert.Equal(t, "envuser", cfg.Username)
		assert.Equal(t, "envdb", cfg.Database)
		assert.Equal(t, "pw", cfg.Password)
	})

	t.Run("flags beat environment", func(t *testing.T) {
		env := &EnvVars{PGHOST: "envhost", PGPORT: "6000"}
		flags := &GranularConnFlags{Host: "flaghost", Port: 5999, Database: "flagdb"}
		cfg, _, err := ResolveConnectionParams("", flags, nil, env, project)
		require.NoError(t, err)
		assert.Equal(t, "flaghost", cfg.Host)
		assert.Equal(t, 5999, cfg.Port)
		assert.Equal(t, "flagdb", cfg.Database)
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, maint, err := ResolveConnectionParams("", nil, nil, &EnvVars{}, nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 5432, cfg.Port)
		assert.Equal(t, "prefer", cfg.SSLMode)
		assert.Equal(t, mnx.DefaultManagementDB, maint)
	})
}

func TestResolveConnectionParams_DatabaseURL(t *testing.T) {
	env := &EnvVars{DATABASE_URL: "postgres://u@urlhost:5440/urldb", PGHOST: "ignored"}
	cfg, maint, err := ResolveConnectionParams("", nil, nil, env, nil)
	require.NoError(t, err)
	assert.Equal(t, "urlhost", cfg.Host)
	assert.Equal(t, 5440, cfg.Port)
	assert.Equal(t, "urldb", maint)

	cfg, _, err = ResolveConnectionParams("", &GranularConnFlags{Host: "flaghost"}, nil, env, nil)
	require.NoError(t, err)
	assert.Equal(t, "flaghost", cfg.Host, "granular flags bypass DATABASE_URL")
}

func TestResolveConnectionParams_InvalidPGPORT(t *testing.T) {
	_, _, err := ResolveConnectionParams("", nil, nil, &EnvVars{PGPORT: "abc"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mnx.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "$PGPORT")
}

func TestResolveConnectionParams_CloudAuth(t *testing.T) {
	tests := []struct {
		name    string
		cloud   *CloudFlags
		env     *EnvVars
		project *config.ProjectConfig
		check   func(t *testing.T, cfg *mnx.ConnectionConfig)
		wantErr error
	}{
		{
			name:  "aws region from environment",
			cloud: &CloudFlags{AuthMethod: "aws"},
			env:   &EnvVars{AWS_REGION: "us-east-2"},
			check: func(t *testing.T, cfg *mnx.ConnectionConfig) {
				assert.Equal(t, mnx.AuthMethodAWSIAM, cfg.AuthMethod)
				assert.Equal(t, "us-east-2", cfg.AWSRegion)
			},
		},
		{
			name:    "google instance from yaml",
			project: &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "google", GoogleInstance: "p:r:i"}},
			check: func(t *testing.T, cfg *mnx.ConnectionConfig) {
				assert.Equal(t, mnx.AuthMethodGoogleIAM, cfg.AuthMethod)
				assert.Equal(t, "p:r:i", cfg.GoogleInstance)
			},
		},
		{
			name: "azure inferred from environment credentials",
			env:  &EnvVars{AZURE_TENANT_ID: "tenant", AZURE_CLIENT_ID: "client", AZURE_CLIENT_SECRET: "secret"},
			check: func(t *testing.T, cfg *mnx.ConnectionConfig) {
				assert.Equal(t, mnx.AuthMethodAzureEntraID, cfg.AuthMethod)
				assert.Equal(t, "tenant", cfg.AzureTenantID)
				assert.Equal(t, "client", cfg.AzureClientID)
				assert.Equal(t, "secret", cfg.AzureClientSecret)
			},
		},
		{
			name:  "azure flag beats environment",
			cloud: &CloudFlags{AzureTenantID: "flag-tenant"},
			env:   &EnvVars{AZURE_TENANT_ID: "env-tenant"},
			check: func(t *testing.T, cfg *mnx.ConnectionConfig) {
				assert.Equal(t, "flag-tenant", cfg.AzureTenantID)
			},
		},
		{
			name:    "unknown method",
			cloud:   &CloudFlags{AuthMethod: "kerberos"},
			wantErr: mnx.ErrUnsupportedAuthMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := tt.env
			if env == nil {
				env = &EnvVars{}
			}
			cfg, _, err := ResolveConnectionParams("", nil, tt.cloud, env, tt.project)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
