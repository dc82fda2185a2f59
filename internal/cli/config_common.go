package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/mnxnorm/internal/config"
	"github.com/vvka-141/mnxnorm/internal/db"
	"github.com/vvka-141/mnxnorm/internal/files/filesystem"
	"github.com/vvka-141/mnxnorm/internal/logging"
	"github.com/vvka-141/mnxnorm/internal/params"
	"github.com/vvka-141/mnxnorm/internal/services"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

const configFileHint = config.ConfigFileName

// loadEnvironment applies ./.env and every --env-file. Existing variables
// always win.
func loadEnvironment(cmd *cobra.Command, logger mnx.Logger) error {
	_ = godotenv.Load()

	files, err := cmd.Flags().GetStringArray("env-file")
	if err != nil {
		return nil
	}
	exported, err := params.ApplyEnvFiles(filesystem.NewOSFileSystem(), files)
	if err != nil {
		return fmt.Errorf("%w: %w", err, mnx.ErrInvalidConfig)
	}
	if len(exported) > 0 {
		logger.Verbose("Loaded %d variable(s) from env files: %v", len(exported), exported)
	}
	return nil
}

// loadProjectConfig reads --config, or ./mnxnorm.yaml when the flag is
// unset. A missing default file is not an error and yields nil.
func loadProjectConfig(cmd *cobra.Command) (*config.ProjectConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.LoadFile(path)
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("config file %s not found: %w", path, mnx.ErrInvalidConfig)
		}
		return cfg, err
	}

	cfg, err := config.Load(".")
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}
	return cfg, nil
}

// prepare loads the environment and project config shared by all commands.
func prepare(cmd *cobra.Command) (mnx.Logger, *config.ProjectConfig, error) {
	logger := logging.NewConsoleLogger(getVerboseFlag(cmd))
	if err := loadEnvironment(cmd, logger); err != nil {
		return nil, nil, err
	}
	projectCfg, err := loadProjectConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return logger, projectCfg, nil
}

// resolveEffectiveTimeout prefers an explicit --timeout, then the project
// config, then the flag default.
func resolveEffectiveTimeout(cmd *cobra.Command, projectCfg *config.ProjectConfig, flagTimeout time.Duration) (time.Duration, error) {
	if projectCfg != nil && projectCfg.Timeout != "" && !cmd.Flags().Changed("timeout") {
		parsed, err := time.ParseDuration(projectCfg.Timeout)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout in %s: %w: %w", config.ConfigFileName, err, mnx.ErrInvalidConfig)
		}
		return parsed, nil
	}
	return flagTimeout, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func connectorFactory(logger mnx.Logger) services.ConnectorFactory {
	return func(cfg *mnx.ConnectionConfig) (mnx.Connector, error) {
		return db.NewConnector(cfg, logger)
	}
}
