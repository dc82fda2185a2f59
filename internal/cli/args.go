package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// OptionalDumpDir accepts at most one argument: a directory holding the
// MetaNetX tables under their canonical names.
func OptionalDumpDir(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf(`accepts at most 1 arg(s), received %d

Usage: %s

Example:
  %s ./mnxref-4.4: %w`, len(args), cmd.UseLine(), cmd.CommandPath(), mnx.ErrUsage)
	}
	return nil
}
