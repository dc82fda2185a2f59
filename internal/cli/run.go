package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/mnxnorm/internal/config"
	"github.com/vvka-141/mnxnorm/internal/diagnostics"
	"github.com/vvka-141/mnxnorm/internal/files/filesystem"
	"github.com/vvka-141/mnxnorm/internal/params"
	"github.com/vvka-141/mnxnorm/internal/services"
	"github.com/vvka-141/mnxnorm/internal/source"
	"github.com/vvka-141/mnxnorm/internal/tui"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

var runCmd = &cobra.Command{
	Use:   "run [dump_dir]",
	Short: "Resolve, validate and load a MetaNetX release",
	Long: `Run reads the MetaNetX dump tables, resolves every identifier to a canonical
id, builds and validates the entity graph, and loads it into the sink.

Inputs are given as kind=location pairs (location is a path or s3://bucket/key)
or discovered from a directory holding chem_prop.tsv, chem_xref.tsv,
comp_prop.tsv, comp_xref.tsv, reac_prop.tsv and reac_xref.tsv.

The sink is written in one transaction and only after the whole graph
validates. Diagnostics and metrics files are written even for failed runs.

Examples:
  # Load a release directory into PostgreSQL
  mnxnorm run ./mnxref-4.4 -d metanetx

  # Load explicit tables into SQLite
  mnxnorm run --input chem_prop=chem_prop.tsv --input comp_prop=comp_prop.tsv \
    --sink sqlite --sqlite-path mnx.db

  # Check a release without writing anything
  mnxnorm run ./mnxref-4.4 --dry-run --diagnostics-file diag.jsonl`,
	Args:              OptionalDumpDir,
	ValidArgsFunction: completeDirectories,
	RunE:              runPipeline,
}

var validateCmd = &cobra.Command{
	Use:   "validate [dump_dir]",
	Short: "Resolve and validate a MetaNetX release without loading it",
	Long: `Validate runs every stage of 'mnxnorm run' except the load. The exit code
tells whether the release would load cleanly.`,
	Args:              OptionalDumpDir,
	ValidArgsFunction: completeDirectories,
	RunE:              runValidate,
}

type runFlagValues struct {
	inputs          []string
	registry        string
	priority        []string
	aliases         []string
	compartment     string
	pseudoElements  []string
	mergeByInChIKey bool
	workers         int
	sink            string
	sqlitePath      string
	dryRun          bool
	diagnosticsFile string
	metricsFile     string
	timeout         time.Duration
	conn            connectionFlags
}

var runFlags runFlagValues

func registerPipelineFlags(cmd *cobra.Command, f *runFlagValues) {
	flags := cmd.Flags()
	flags.StringArrayVarP(&f.inputs, "input", "i", nil,
		"Dump table as kind=location, or a path named after its table (repeatable).\n"+
			"Kinds: chem_prop, chem_xref, comp_prop, comp_xref, reac_prop, reac_xref")
	flags.StringVar(&f.registry, "registry", "", "identifiers.org registry JSON (path or s3:// URI)")
	flags.StringSliceVar(&f.priority, "priority", nil, "Namespace order for canonical representatives (comma separated)")
	flags.StringArrayVar(&f.aliases, "alias", nil, "Prefix alias as prefix=namespace (repeatable)")
	flags.StringVar(&f.compartment, "default-compartment", "", "Compartment for equation terms without '@' (default: "+mnx.DefaultCompartment+")")
	flags.StringSliceVar(&f.pseudoElements, "pseudo-element", nil, "Extra formula symbols accepted besides the periodic table (default: R)")
	flags.BoolVar(&f.mergeByInChIKey, "merge-by-inchikey", true, "Merge compounds sharing an InChIKey")
	flags.IntVar(&f.workers, "workers", 0, "Parallel parse workers (default: GOMAXPROCS)")
	flags.StringVar(&f.diagnosticsFile, "diagnostics-file", "", "Write diagnostics as JSON lines to this file")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format to this file")
	flags.DurationVar(&f.timeout, "timeout", mnx.DefaultTimeout, "Timeout for the whole run")

	_ = cmd.RegisterFlagCompletionFunc("input", completeInputs)
}

func init() {
	rootCmd.AddCommand(runCmd, validateCmd)

	registerPipelineFlags(runCmd, &runFlags)
	runCmd.Flags().StringVar(&runFlags.sink, "sink", string(mnx.SinkPostgres), "Load target: postgres|sqlite|none")
	runCmd.Flags().StringVar(&runFlags.sqlitePath, "sqlite-path", "", "SQLite database file for --sink sqlite")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "Validate only, equivalent to --sink none")
	registerConnectionFlags(runCmd, &runFlags.conn)
	_ = runCmd.RegisterFlagCompletionFunc("sink", completeSinkKinds)

	registerPipelineFlags(validateCmd, &validateFlags)
}

var validateFlags runFlagValues

func runPipeline(cmd *cobra.Command, args []string) error {
	return executePipeline(cmd, args, runFlags)
}

func runValidate(cmd *cobra.Command, args []string) error {
	f := validateFlags
	f.dryRun = true
	return executePipeline(cmd, args, f)
}

func executePipeline(cmd *cobra.Command, args []string, f runFlagValues) error {
	logger, projectCfg, err := prepare(cmd)
	if err != nil {
		return err
	}
	fsProvider := filesystem.NewOSFileSystem()

	cfg, err := buildRunConfig(cmd, args, f, projectCfg, fsProvider)
	if err != nil {
		return err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.Sink == mnx.SinkPostgres {
		conn, err := resolveConnectionFromFlags(f.conn, projectCfg)
		if err != nil {
			return err
		}
		cfg.Connection = *conn.Config
		if cfg.Verbose {
			logConnectionVerbose(logger, conn)
		}
	}

	progress := tui.NewProgress(os.Stderr, tui.IsInteractive())
	pipeline := services.NewPipeline(
		source.NewAcquirer(fsProvider, logger),
		services.NewBackendOpener(connectorFactory(logger), logger, mnx.DefaultBatchSize),
		logger,
		services.WithStageObserver(progress),
	)

	ctx, stop := signalContext()
	defer stop()

	result, err := pipeline.Run(ctx, cfg)
	progress.Close()
	if result != nil {
		printSummary(cmd, result)
	}
	return err
}

// buildRunConfig merges positional dump directory, flags and the project
// config. Flags win over the project config.
func buildRunConfig(cmd *cobra.Command, args []string, f runFlagValues, projectCfg *config.ProjectConfig, fsProvider filesystem.FileSystemProvider) (mnx.RunConfig, error) {
	var errs []error

	inputs, err := collectInputs(args, f.inputs, fsProvider)
	if err != nil {
		return mnx.RunConfig{}, err
	}

	aliases, err := params.ParseKeyValuePairs(f.aliases)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid --alias: %w", err))
	}

	cfg := mnx.RunConfig{
		Inputs:             inputs,
		RegistryPath:       f.registry,
		Priority:           f.priority,
		PrefixAliases:      aliases,
		DefaultCompartment: f.compartment,
		PseudoElements:     f.pseudoElements,
		MergeByInChIKey:    f.mergeByInChIKey,
		Workers:            f.workers,
		SQLitePath:         f.sqlitePath,
		DiagnosticsFile:    f.diagnosticsFile,
		MetricsFile:        f.metricsFile,
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = f.timeout
	}

	switch {
	case f.dryRun:
		cfg.Sink = mnx.SinkNone
	case cmd.Flags().Changed("sink") || projectCfg == nil || projectCfg.Sink == "":
		sink, err := mnx.ParseSinkKind(f.sink)
		if err != nil {
			errs = append(errs, err)
		}
		cfg.Sink = sink
	}

	if err := projectCfg.ApplyTo(&cfg); err != nil {
		errs = append(errs, err)
	}
	if cmd.Flags().Changed("merge-by-inchikey") {
		cfg.MergeByInChIKey = f.mergeByInChIKey
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = f.timeout
	}

	if err := errors.Join(errs...); err != nil {
		return mnx.RunConfig{}, err
	}
	return cfg, nil
}

// collectInputs merges --input specs with the tables discovered in the
// optional dump directory. Explicit inputs win.
func collectInputs(args, specs []string, fsProvider filesystem.FileSystemProvider) (map[mnx.InputKind]string, error) {
	inputs, err := params.ParseInputs(specs)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return inputs, nil
	}
	discovered, err := source.Discover(fsProvider, args[0])
	if err != nil {
		return nil, err
	}
	if inputs == nil {
		inputs = make(map[mnx.InputKind]string, len(discovered))
	}
	for kind, loc := range discovered {
		if _, explicit := inputs[kind]; !explicit {
			inputs[kind] = loc
		}
	}
	return inputs, nil
}

func printSummary(cmd *cobra.Command, result *services.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", result.RunID)
	if result.Graph != nil {
		counts := result.Graph.Counts()
		fmt.Fprintf(out, "  compounds:    %d\n", counts[mnx.KindCompound])
		fmt.Fprintf(out, "  reactions:    %d\n", counts[mnx.KindReaction])
		fmt.Fprintf(out, "  compartments: %d\n", counts[mnx.KindCompartment])
		fmt.Fprintf(out, "  namespaces:   %d\n", counts[mnx.KindNamespace])
		fmt.Fprintf(out, "  edges:        %d\n", len(result.Graph.Edges))
	}
	for _, c := range diagnostics.Counts(result.Diagnostics) {
		fmt.Fprintf(out, "  %-7s %-22s %d\n", c.Severity, c.Code, c.N)
	}
	if result.Loaded {
		fmt.Fprintf(out, "Loaded %d entities, %d edges, %d aliases\n",
			result.Summary.Entities, result.Summary.Edges, result.Summary.Aliases)
	}
}
