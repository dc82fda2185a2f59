package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/mnxnorm/internal/services"
	"github.com/vvka-141/mnxnorm/internal/tui"
	"github.com/vvka-141/mnxnorm/internal/ui"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the mnxnorm tables",
	Long: `Reset drops every mnxnorm table in the sink, including the run history, and
recreates the empty schema. The database itself is kept.

Without --force you must type the target name to confirm. With --force a
countdown runs first; press Ctrl+C to abort. Outside a terminal --force is
required.

Examples:
  mnxnorm reset -d metanetx
  mnxnorm reset --sink sqlite --sqlite-path mnx.db --force`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

type resetFlagValues struct {
	target  targetFlagValues
	force   bool
	timeout time.Duration
}

var resetFlags resetFlagValues

func init() {
	rootCmd.AddCommand(resetCmd)
	registerTargetFlags(resetCmd, &resetFlags.target)
	resetCmd.Flags().BoolVar(&resetFlags.force, "force", false, "Skip the typed confirmation (a countdown still runs)")
	resetCmd.Flags().DurationVar(&resetFlags.timeout, "timeout", 5*time.Minute, "Timeout for the reset")
}

func runReset(cmd *cobra.Command, args []string) error {
	logger, projectCfg, err := prepare(cmd)
	if err != nil {
		return err
	}
	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, resetFlags.timeout)
	if err != nil {
		return err
	}
	target, err := resolveSinkTarget(cmd, resetFlags.target, projectCfg, logger)
	if err != nil {
		return err
	}
	approver, err := selectApprover(resetFlags.force, tui.IsInteractive(), getVerboseFlag(cmd))
	if err != nil {
		return err
	}

	resetter := services.NewResetter(
		services.NewBackendOpener(connectorFactory(logger), logger, mnx.DefaultBatchSize),
		approver,
		logger,
	)

	ctx, stop := signalContext()
	defer stop()
	return resetter.Reset(ctx, mnx.ResetConfig{
		Sink:       target.Sink,
		SQLitePath: target.SQLitePath,
		Connection: target.Connection,
		Force:      resetFlags.force,
		Timeout:    timeout,
		Verbose:    getVerboseFlag(cmd),
	})
}

// selectApprover returns the countdown approver for --force and the typed
// confirmation otherwise. Typed confirmation needs a terminal.
func selectApprover(force, interactive, verbose bool) (mnx.Approver, error) {
	if force {
		return ui.NewForcedApprover(verbose), nil
	}
	if !interactive {
		return nil, fmt.Errorf("reset needs --force when not running in a terminal: %w", mnx.ErrApprovalDenied)
	}
	return ui.NewInteractiveApprover(verbose), nil
}
