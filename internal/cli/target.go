package cli

import (
	"github.com/spf13/cobra"

	"github.com/vvka-141/mnxnorm/internal/config"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// targetFlagValues selects the sink that init and reset act on.
type targetFlagValues struct {
	sink       string
	sqlitePath string
	conn       connectionFlags
}

func registerTargetFlags(cmd *cobra.Command, f *targetFlagValues) {
	cmd.Flags().StringVar(&f.sink, "sink", string(mnx.SinkPostgres), "Sink backend: postgres|sqlite")
	cmd.Flags().StringVar(&f.sqlitePath, "sqlite-path", "", "SQLite database file for --sink sqlite")
	registerConnectionFlags(cmd, &f.conn)
	_ = cmd.RegisterFlagCompletionFunc("sink", completeSinkKinds)
}

// sinkTarget is a resolved sink with its PostgreSQL connection, if any.
type sinkTarget struct {
	Sink          mnx.SinkKind
	SQLitePath    string
	Connection    mnx.ConnectionConfig
	MaintenanceDB string
}

// resolveSinkTarget applies flag > project config > default for the sink
// kind and resolves the connection of a PostgreSQL sink.
func resolveSinkTarget(cmd *cobra.Command, f targetFlagValues, projectCfg *config.ProjectConfig, logger mnx.Logger) (*sinkTarget, error) {
	kind := f.sink
	if !cmd.Flags().Changed("sink") && projectCfg != nil && projectCfg.Sink != "" {
		kind = projectCfg.Sink
	}
	sink, err := mnx.ParseSinkKind(kind)
	if err != nil {
		return nil, err
	}

	target := &sinkTarget{Sink: sink, SQLitePath: f.sqlitePath}
	switch sink {
	case mnx.SinkSQLite:
		if target.SQLitePath == "" && projectCfg != nil {
			target.SQLitePath = projectCfg.SQLitePath
		}
	case mnx.SinkPostgres:
		conn, err := resolveConnectionFromFlags(f.conn, projectCfg)
		if err != nil {
			return nil, err
		}
		if getVerboseFlag(cmd) {
			logConnectionVerbose(logger, conn)
		}
		target.Connection = *conn.Config
		target.MaintenanceDB = conn.MaintenanceDB
	}
	return target, nil
}
