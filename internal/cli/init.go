package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/mnxnorm/internal/config"
	"github.com/vvka-141/mnxnorm/internal/db/manager"
	"github.com/vvka-141/mnxnorm/internal/services"
	"github.com/vvka-141/mnxnorm/internal/tui"
	"github.com/vvka-141/mnxnorm/internal/tui/wizards"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the target database and the mnxnorm tables",
	Long: `Init prepares a sink for 'mnxnorm run'. For PostgreSQL it creates the target
database when it does not exist (connecting to the maintenance database,
"postgres" by default) and applies the schema. For SQLite it creates the file
and applies the schema. Init is idempotent.

Run in a terminal without any connection settings, init asks for them
interactively.

Examples:
  mnxnorm init -d metanetx
  mnxnorm init --sink sqlite --sqlite-path mnx.db`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

type initFlagValues struct {
	target  targetFlagValues
	timeout time.Duration
}

var initFlags initFlagValues

func init() {
	rootCmd.AddCommand(initCmd)
	registerTargetFlags(initCmd, &initFlags.target)
	initCmd.Flags().DurationVar(&initFlags.timeout, "timeout", 5*time.Minute, "Timeout for database creation and schema setup")
}

func runInit(cmd *cobra.Command, args []string) error {
	logger, projectCfg, err := prepare(cmd)
	if err != nil {
		return err
	}
	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, initFlags.timeout)
	if err != nil {
		return err
	}
	cfg := mnx.InitConfig{Timeout: timeout, Verbose: getVerboseFlag(cmd)}

	if needsInitWizard(cmd, projectCfg) {
		result, err := wizards.RunSinkWizard(os.Stdin, os.Stderr, cfg)
		if errors.Is(err, wizards.ErrCancelled) {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
		result.ApplyTo(&cfg)
		if cfg.Sink == mnx.SinkPostgres {
			cfg.MaintenanceDatabase = mnx.DefaultManagementDB
			offerSavePgpass(&cfg.Connection, os.Stdin, os.Stderr)
		}
	} else {
		target, err := resolveSinkTarget(cmd, initFlags.target, projectCfg, logger)
		if err != nil {
			return err
		}
		cfg.Sink = target.Sink
		cfg.SQLitePath = target.SQLitePath
		cfg.Connection = target.Connection
		cfg.MaintenanceDatabase = target.MaintenanceDB
	}

	initializer := services.NewInitializer(
		services.NewBackendOpener(connectorFactory(logger), logger, mnx.DefaultBatchSize),
		connectorFactory(logger),
		manager.New(),
		logger,
	)

	ctx, stop := signalContext()
	defer stop()
	return initializer.Init(ctx, cfg)
}

// needsInitWizard is true only for an interactive terminal with no sink
// settings from flags, environment or project config.
func needsInitWizard(cmd *cobra.Command, projectCfg *config.ProjectConfig) bool {
	if !tui.IsInteractive() || projectCfg != nil || hasEnvConnectionSource() {
		return false
	}
	for _, name := range []string{"sink", "sqlite-path", "connection", "host", "port", "username", "database", "auth"} {
		if cmd.Flags().Changed(name) {
			return false
		}
	}
	return true
}

// hasEnvConnectionSource reports whether the environment already names a
// PostgreSQL target.
func hasEnvConnectionSource() bool {
	if connectionStringFromEnv() != "" || os.Getenv("DATABASE_URL") != "" {
		return true
	}
	return os.Getenv("PGHOST") != "" && os.Getenv("PGDATABASE") != ""
}
