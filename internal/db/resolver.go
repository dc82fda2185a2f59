package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/mnxnorm/internal/config"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// GranularConnFlags holds the libpq-style connection flags (-h, -p, -U, -d).
// There is no password flag; use $PGPASSWORD, .pgpass or a connection string.
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty reports whether no connection-related flag was given. Database is
// excluded because it may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// CloudFlags selects and parameterises cloud IAM authentication. Secrets come
// from the environment only.
type CloudFlags struct {
	AuthMethod     string
	AWSRegion      string
	GoogleInstance string
	AzureTenantID  string
	AzureClientID  string
}

// EnvVars holds libpq and cloud SDK environment variables.
type EnvVars struct {
	PGHOST       string
	PGPORT       string
	PGUSER       string
	PGPASSWORD   string
	PGDATABASE   string
	PGSSLMODE    string
	DATABASE_URL string

	AWS_REGION string

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:              os.Getenv("PGHOST"),
		PGPORT:              os.Getenv("PGPORT"),
		PGUSER:              os.Getenv("PGUSER"),
		PGPASSWORD:          os.Getenv("PGPASSWORD"),
		PGDATABASE:          os.Getenv("PGDATABASE"),
		PGSSLMODE:           os.Getenv("PGSSLMODE"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		AWS_REGION:          os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ResolveConnectionParams resolves connection parameters with libpq-style precedence:
//
//  1. --connection string
//  2. DATABASE_URL, when no granular flag is set
//  3. granular flags, then PG* variables, then mnxnorm.yaml, then defaults
//
// Cloud authentication is applied last: an explicit auth method (flag, then
// mnxnorm.yaml) wins; otherwise Azure credentials in flags or environment
// switch to Entra ID. The second return value is the maintenance database
// used by init for CREATE DATABASE.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*mnx.ConnectionConfig, string, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}
	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, "", fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/metanetx\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U myuser -d metanetx\n"+
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=myuser: %w",
			mnx.ErrInvalidConfig,
		)
	}

	var (
		cfg           *mnx.ConnectionConfig
		maintenanceDB string
		err           error
	)
	switch {
	case connStringFlag != "":
		cfg, maintenanceDB, err = resolveFromConnectionString(connStringFlag, envVars)
	case granularFlags.IsEmpty() && envVars.DATABASE_URL != "":
		cfg, maintenanceDB, err = resolveFromConnectionString(envVars.DATABASE_URL, envVars)
	default:
		cfg, maintenanceDB, err = resolveFromGranularParams(granularFlags, envVars, pc)
	}
	if err != nil {
		return nil, "", err
	}
	if granularFlags.Database != "" {
		cfg.Database = granularFlags.Database
	}

	if err := applyCloudAuth(cfg, cloudFlags, envVars, pc); err != nil {
		return nil, "", err
	}
	return cfg, maintenanceDB, nil
}

func applyCloudAuth(cfg *mnx.ConnectionConfig, flags *CloudFlags, env *EnvVars, pc config.ConnectionConfig) error {
	tenantID := firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
	clientID := firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)

	method := firstNonEmpty(flags.AuthMethod, pc.AuthMethod)
	if method != "" {
		m, err := mnx.ParseAuthMethod(method)
		if err != nil {
			return err
		}
		cfg.AuthMethod = m
	} else if tenantID != "" || clientID != "" {
		cfg.AuthMethod = mnx.AuthMethodAzureEntraID
	}

	switch cfg.AuthMethod {
	case mnx.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
	case mnx.AuthMethodGoogleIAM:
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	case mnx.AuthMethodAzureEntraID:
		cfg.AzureTenantID = tenantID
		cfg.AzureClientID = clientID
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}
	return nil
}

// resolveFromConnectionString parses connStr; its database doubles as the
// maintenance database. PGSSLMODE fills sslmode when the string omits it.
func resolveFromConnectionString(connStr string, envVars *EnvVars) (*mnx.ConnectionConfig, string, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, "", fmt.Errorf("invalid connection string: %w: %w", err, mnx.ErrInvalidConfig)
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = firstNonEmpty(envVars.PGSSLMODE, "prefer")
	}
	maintenanceDB := cfg.Database
	if maintenanceDB == "" {
		maintenanceDB = mnx.DefaultManagementDB
	}
	return cfg, maintenanceDB, nil
}

// resolveFromGranularParams applies flag > environment > mnxnorm.yaml > default
// per field. The maintenance database is the yaml override or "postgres".
func resolveFromGranularParams(flags *GranularConnFlags, envVars *EnvVars, pc config.ConnectionConfig) (*mnx.ConnectionConfig, string, error) {
	cfg := &mnx.ConnectionConfig{
		AuthMethod:       mnx.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
		Host:             firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, "localhost"),
		Username:         firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME")),
		Password:         envVars.PGPASSWORD,
		Database:         firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database),
		SSLMode:          firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, "prefer"),
	}

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, "", fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", envVars.PGPORT, mnx.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = 5432
	}

	return cfg, firstNonEmpty(pc.ManagementDatabase, mnx.DefaultManagementDB), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
