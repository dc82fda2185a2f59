package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

var rootCmd = &cobra.Command{
	Use:   "mnxnorm",
	Short: "MetaNetX identifier resolution and normalization",
	Long: `mnxnorm reads MetaNetX (MNXref) dump tables, parses formulas, equations and
cross-reference strings, merges every identifier naming the same entity into one
canonical id, builds the entity graph, validates it and loads it into
PostgreSQL or SQLite.

Nothing is written unless the whole graph validates.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - User denied reset approval
  20 - Unsupported dump schema version
  21 - Unresolved reference in the dumps
  22 - Integrity violation (dangling edge, duplicate key)
  23 - Sink rejected the load
  24 - Input dump not found`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	// -h is taken by --host, so help is long-form only.
	rootCmd.PersistentFlags().Bool("help", false, "Help for mnxnorm")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().String("config", "",
		"Path to the project config (default: ./"+configFileHint+" when present)")
	rootCmd.PersistentFlags().StringArray("env-file", nil,
		"Load environment variables from a .env file (repeatable).\n"+
			"Variables already set in the environment are not overridden.")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", err, mnx.ErrUsage)
	})
}

// getVerboseFlag safely retrieves the verbose flag value.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
