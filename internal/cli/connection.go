package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/mnxnorm/internal/config"
	"github.com/vvka-141/mnxnorm/internal/db"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// ConnectionStringEnv holds a PostgreSQL connection string used when
// --connection is not given. DATABASE_URL is honoured after it.
const ConnectionStringEnv = "MNXNORM_CONNECTION_STRING"

// connectionFlags holds the PostgreSQL connection flag values.
type connectionFlags struct {
	connection     string
	host           string
	port           int
	username       string
	database       string
	sslMode        string
	authMethod     string
	awsRegion      string
	googleInstance string
	azureTenantID  string
	azureClientID  string
}

// registerConnectionFlags adds the PostgreSQL flags to cmd.
func registerConnectionFlags(cmd *cobra.Command, f *connectionFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.connection, "connection", "",
		"PostgreSQL connection string (URI or ADO.NET format).\n"+
			"Mutually exclusive with granular flags (--host, --port, --username).\n"+
			"Alternative: $"+ConnectionStringEnv+" or $DATABASE_URL.\n"+
			"Example: postgresql://loader@localhost:5432/metanetx")
	flags.StringVarP(&f.host, "host", "h", "", "PostgreSQL server host\nPrecedence: --host > $PGHOST > "+configFileHint+" > localhost")
	flags.IntVarP(&f.port, "port", "p", 0, "PostgreSQL server port\nPrecedence: --port > $PGPORT > "+configFileHint+" > 5432")
	flags.StringVarP(&f.username, "username", "U", "", "PostgreSQL user (default: $PGUSER or current OS user)")
	flags.StringVarP(&f.database, "database", "d", "", "Target database (overrides the connection string database; default: $PGDATABASE)")
	flags.StringVar(&f.sslMode, "sslmode", "", "SSL mode: disable|allow|prefer|require|verify-ca|verify-full\n(default: prefer, or $PGSSLMODE)")
	flags.StringVar(&f.authMethod, "auth", "", "Authentication method: standard|aws|google|azure")
	flags.StringVar(&f.awsRegion, "aws-region", "", "AWS region for IAM auth (default: $AWS_REGION)")
	flags.StringVar(&f.googleInstance, "google-instance", "", "Cloud SQL instance connection name (project:region:instance)")
	flags.StringVar(&f.azureTenantID, "azure-tenant-id", "", "Azure tenant id (default: $AZURE_TENANT_ID)")
	flags.StringVar(&f.azureClientID, "azure-client-id", "", "Azure client id (default: $AZURE_CLIENT_ID)")

	_ = cmd.RegisterFlagCompletionFunc("sslmode", completeSSLModes)
	_ = cmd.RegisterFlagCompletionFunc("auth", completeAuthMethods)
}

// connectionStringFromEnv returns $MNXNORM_CONNECTION_STRING. DATABASE_URL is
// handled by the resolver because granular flags take precedence over it.
func connectionStringFromEnv() string {
	return os.Getenv(ConnectionStringEnv)
}

// resolvedConnection is a fully resolved PostgreSQL target.
type resolvedConnection struct {
	Config        *mnx.ConnectionConfig
	MaintenanceDB string
}

// resolveConnectionFromFlags applies flag > environment > project config >
// default precedence.
func resolveConnectionFromFlags(f connectionFlags, projectCfg *config.ProjectConfig) (*resolvedConnection, error) {
	connString := f.connection
	if connString == "" {
		connString = connectionStringFromEnv()
	}

	cfg, maintenanceDB, err := db.ResolveConnectionParams(
		connString,
		&db.GranularConnFlags{
			Host:     f.host,
			Port:     f.port,
			Username: f.username,
			Database: f.database,
			SSLMode:  f.sslMode,
		},
		&db.CloudFlags{
			AuthMethod:     f.authMethod,
			AWSRegion:      f.awsRegion,
			GoogleInstance: f.googleInstance,
			AzureTenantID:  f.azureTenantID,
			AzureClientID:  f.azureClientID,
		},
		db.LoadFromEnvironment(),
		projectCfg,
	)
	if err != nil {
		return nil, err
	}
	return &resolvedConnection{Config: cfg, MaintenanceDB: maintenanceDB}, nil
}

// logConnectionVerbose prints the resolved target without secrets.
func logConnectionVerbose(logger mnx.Logger, conn *resolvedConnection) {
	cfg := conn.Config
	logger.Verbose("Connection resolved:")
	logger.Verbose("  Host: %s", cfg.Host)
	logger.Verbose("  Port: %d", cfg.Port)
	logger.Verbose("  User: %s", cfg.Username)
	logger.Verbose("  Target Database: %s", cfg.Database)
	logger.Verbose("  Maintenance Database: %s", conn.MaintenanceDB)
	logger.Verbose("  SSL Mode: %s", cfg.SSLMode)
	logger.Verbose("  Auth Method: %s", cfg.AuthMethod)
}
