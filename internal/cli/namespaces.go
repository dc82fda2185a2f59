package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/mnxnorm/internal/files/filesystem"
	"github.com/vvka-141/mnxnorm/internal/params"
	"github.com/vvka-141/mnxnorm/internal/services"
	"github.com/vvka-141/mnxnorm/internal/source"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

var namespacesCmd = &cobra.Command{
	Use:   "namespaces [dump_dir]",
	Short: "List the identifier namespaces a release refers to",
	Long: `Namespaces prints every namespace prefix the dump tables use, one per line.
With --registry it also lists the prefixes the identifiers.org registry lacks
and exits with code 10 when any are missing.

Examples:
  mnxnorm namespaces ./mnxref-4.4
  mnxnorm namespaces ./mnxref-4.4 --registry identifiers.json`,
	Args:              OptionalDumpDir,
	ValidArgsFunction: completeDirectories,
	RunE:              runNamespaces,
}

type namespacesFlagValues struct {
	inputs   []string
	registry string
	aliases  []string
}

var namespacesFlags namespacesFlagValues

func init() {
	rootCmd.AddCommand(namespacesCmd)
	namespacesCmd.Flags().StringArrayVarP(&namespacesFlags.inputs, "input", "i", nil, "Dump table as kind=location (repeatable)")
	namespacesCmd.Flags().StringVar(&namespacesFlags.registry, "registry", "", "identifiers.org registry JSON (path or s3:// URI)")
	namespacesCmd.Flags().StringArrayVar(&namespacesFlags.aliases, "alias", nil, "Prefix alias as prefix=namespace (repeatable)")
	_ = namespacesCmd.RegisterFlagCompletionFunc("input", completeInputs)
}

func runNamespaces(cmd *cobra.Command, args []string) error {
	logger, projectCfg, err := prepare(cmd)
	if err != nil {
		return err
	}
	fsProvider := filesystem.NewOSFileSystem()

	q, err := buildNamespaceQuery(args, namespacesFlags, fsProvider)
	if err != nil {
		return err
	}
	if projectCfg != nil {
		var cfg mnx.RunConfig
		cfg.Inputs, cfg.RegistryPath, cfg.PrefixAliases = q.Inputs, q.RegistryPath, q.PrefixAliases
		if err := projectCfg.ApplyTo(&cfg); err != nil {
			return err
		}
		q.Inputs, q.RegistryPath, q.PrefixAliases = cfg.Inputs, cfg.RegistryPath, cfg.PrefixAliases
	}

	pipeline := services.NewPipeline(
		source.NewAcquirer(fsProvider, logger),
		services.NewBackendOpener(connectorFactory(logger), logger, mnx.DefaultBatchSize),
		logger,
	)
	ctx, stop := signalContext()
	defer stop()

	report, err := pipeline.Namespaces(ctx, q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, prefix := range report.Required {
		fmt.Fprintln(out, prefix)
	}
	if q.RegistryPath == "" {
		return nil
	}
	if len(report.Missing) == 0 {
		logger.Info("✓ Registry covers all %d namespaces", len(report.Required))
		return nil
	}
	fmt.Fprintf(out, "\nMissing from registry (%d):\n", len(report.Missing))
	for _, prefix := range report.Missing {
		fmt.Fprintf(out, "  %s\n", prefix)
	}
	return fmt.Errorf("%d namespace(s) missing from %s: %w: %w",
		len(report.Missing), q.RegistryPath, mnx.ErrUnknownNamespace, mnx.ErrInvalidConfig)
}

func buildNamespaceQuery(args []string, f namespacesFlagValues, fsProvider filesystem.FileSystemProvider) (services.NamespaceQuery, error) {
	inputs, err := collectInputs(args, f.inputs, fsProvider)
	if err != nil {
		return services.NamespaceQuery{}, err
	}
	aliases, err := params.ParseKeyValuePairs(f.aliases)
	if err != nil {
		return services.NamespaceQuery{}, fmt.Errorf("invalid --alias: %w", err)
	}
	return services.NamespaceQuery{Inputs: inputs, RegistryPath: f.registry, PrefixAliases: aliases}, nil
}
