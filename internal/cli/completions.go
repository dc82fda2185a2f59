package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

var (
	sslModes    = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}
	authMethods = []string{"standard", "aws", "google", "azure"}
	sinkKinds   = []string{string(mnx.SinkPostgres), string(mnx.SinkSQLite), string(mnx.SinkNone)}
)

func completePrefix(candidates []string, toComplete string) []string {
	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, toComplete) {
			matches = append(matches, c)
		}
	}
	return matches
}

func completeSSLModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completePrefix(sslModes, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeAuthMethods(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completePrefix(authMethods, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeSinkKinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completePrefix(sinkKinds, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeInputs offers "kind=" prefixes and lets the shell complete the
// path after the '='.
func completeInputs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if strings.Contains(toComplete, "=") {
		return nil, cobra.ShellCompDirectiveDefault
	}
	kinds := make([]string, len(mnx.InputKinds))
	for i, k := range mnx.InputKinds {
		kinds[i] = string(k) + "="
	}
	return completePrefix(kinds, toComplete), cobra.ShellCompDirectiveNoSpace | cobra.ShellCompDirectiveNoFileComp
}

// completeDirectories lets the shell complete directory names only.
func completeDirectories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveFilterDirs
}
