package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vvka-141/mnxnorm/internal/diagnostics"
	"github.com/vvka-141/mnxnorm/internal/grammar"
	"github.com/vvka-141/mnxnorm/internal/graph"
	"github.com/vvka-141/mnxnorm/internal/ingest"
	"github.com/vvka-141/mnxnorm/internal/metrics"
	"github.com/vvka-141/mnxnorm/internal/namespace"
	"github.com/vvka-141/mnxnorm/internal/resolver"
	"github.com/vvka-141/mnxnorm/internal/source"
	"github.com/vvka-141/mnxnorm/internal/validator"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// Pipeline stages, in execution order.
const (
	StageAcquire  = "acquire"
	StageIngest   = "ingest"
	StageParse    = "parse"
	StageBuild    = "build"
	StageValidate = "validate"
	StageLoad     = "load"
)

// StageObserver is told when each stage starts and ends.
type StageObserver interface {
	StageStarted(stage string)
	StageFinished(stage string, elapsed time.Duration, err error)
}

// Result describes a completed run.
type Result struct {
	RunID       uuid.UUID
	Inputs      []mnx.InputFingerprint
	Graph       *mnx.ResolvedGraph
	Diagnostics []mnx.Diagnostic
	Loaded      bool
	Summary     mnx.WriteSummary
}

// Pipeline runs acquisition, parsing, resolution, graph building,
// validation and loading. A Pipeline holds no per-run state; concurrent Run
// calls are safe when the injected sink opener is.
type Pipeline struct {
	acquirer  *source.Acquirer
	sinks     SinkOpener
	logger    mnx.Logger
	observer  StageObserver
	newMetric func() *metrics.Recorder
	now       func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithStageObserver reports stage progress, e.g. to a terminal spinner.
func WithStageObserver(o StageObserver) PipelineOption {
	return func(p *Pipeline) { p.observer = o }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline panics if acquirer, sinks or logger is nil.
func NewPipeline(acquirer *source.Acquirer, sinks SinkOpener, logger mnx.Logger, opts ...PipelineOption) *Pipeline {
	if acquirer == nil {
		panic("acquirer cannot be nil")
	}
	if sinks == nil {
		panic("sinks cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	p := &Pipeline{
		acquirer:  acquirer,
		sinks:     sinks,
		logger:    logger,
		observer:  nopObserver{},
		newMetric: metrics.New,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run carries the state of one Run call.
type run struct {
	*Pipeline
	cfg       mnx.RunConfig
	info      mnx.RunInfo
	collector *diagnostics.Collector
	metrics   *metrics.Recorder
}

// Run executes the pipeline. Nothing is written to the sink unless every
// stage before the load succeeds. Diagnostics and metrics files are written
// even when the run fails.
func (p *Pipeline) Run(ctx context.Context, cfg mnx.RunConfig) (result *Result, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	r := &run{
		Pipeline:  p,
		cfg:       cfg,
		info:      mnx.RunInfo{ID: uuid.New(), StartedAt: p.now()},
		collector: diagnostics.NewCollector(p.logger),
		metrics:   p.newMetric(),
	}
	p.logger.Verbose("Starting run %s", r.info.ID)
	defer func() {
		if ferr := r.finish(err); ferr != nil {
			err = errors.Join(err, ferr)
			result = nil
		}
	}()

	g, err := r.resolve(ctx)
	if err != nil {
		return nil, err
	}

	result = &Result{RunID: r.info.ID, Inputs: r.info.Inputs, Graph: g}
	if cfg.Sink != mnx.SinkNone {
		summary, err := r.load(ctx, g)
		if err != nil {
			return nil, err
		}
		result.Loaded = true
		result.Summary = summary
	}
	result.Diagnostics = r.collector.All()
	return result, nil
}

// resolve runs every stage up to and including validation.
func (r *run) resolve(ctx context.Context) (*mnx.ResolvedGraph, error) {
	var inputs []*source.Input
	err := r.stage(StageAcquire, func() error {
		var err error
		inputs, err = r.acquirer.AcquireAll(ctx, r.cfg.Inputs)
		return err
	})
	if err != nil {
		return nil, err
	}

	var registry *namespace.Registry
	if r.cfg.RegistryPath != "" {
		data, err := r.acquirer.Fetch(ctx, r.cfg.RegistryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read namespace registry: %w", err)
		}
		if registry, err = namespace.Parse(data); err != nil {
			return nil, err
		}
		r.logger.Verbose("Loaded %d namespaces from %s", registry.Len(), r.cfg.RegistryPath)
	}

	refs := grammar.NewRefParser(r.cfg.PrefixAliases)
	var (
		raw     []mnx.RawRecord
		dropped []mnx.SourceRef
		perKind = make(map[mnx.InputKind]*kindCount)
	)
	err = r.stage(StageIngest, func() error {
		converter := ingest.NewConverter(refs)
		tables := make([]*ingest.Table, len(inputs))
		for i, in := range inputs {
			table, err := ingest.ReadTable(in.Location, in.Kind, in.Content)
			if err != nil {
				return err
			}
			tables[i] = table
			in.Fingerprint.Version = table.Schema.Version
			r.info.Inputs = append(r.info.Inputs, in.Fingerprint)
			r.metrics.ObserveInput(in.Fingerprint)
			r.logger.Verbose("%s: MNXref release %s, %d rows", in.Location, table.Schema.Version, len(table.Rows))
		}
		for _, table := range tables {
			records, lost, diags := converter.Convert(table)
			raw = append(raw, records...)
			dropped = append(dropped, lost...)
			r.collector.Add(diags...)
			perKind[table.Kind] = &kindCount{file: table.File, converted: len(records), dropped: len(table.Rows) - rowsOf(records)}
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}

	var parsed *ingest.Outcome
	err = r.stage(StageParse, func() error {
		parser := ingest.NewParser(
			grammar.NewFormulaParser(r.cfg.PseudoElements...),
			grammar.NewEquationParser(refs, r.cfg.DefaultCompartment),
			r.cfg.Workers,
		)
		var err error
		parsed, err = parser.ParseAll(ctx, raw)
		if err != nil {
			return err
		}
		r.collector.Add(parsed.Diagnostics...)
		dropped = append(dropped, parsed.Dropped...)
		r.observeRecords(perKind, parsed.Records)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var g *mnx.ResolvedGraph
	err = r.stage(StageBuild, func() error {
		res := resolver.New(resolver.Options{Priority: r.cfg.Priority, MergeByInChIKey: r.cfg.MergeByInChIKey})
		var err error
		g, err = graph.NewBuilder(res, registry, r.logger).Build(ctx, parsed.Records, dropped)
		if err != nil {
			return err
		}
		r.collector.Add(g.Diagnostics...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(StageValidate, func() error {
		validated, err := validator.NewDefault(r.logger).Validate(ctx, g)
		if err != nil {
			return err
		}
		r.collector.Add(validated.Diagnostics[len(g.Diagnostics):]...)
		g = validated
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.metrics.ObserveGraph(g)
	return g, nil
}

func (r *run) load(ctx context.Context, g *mnx.ResolvedGraph) (mnx.WriteSummary, error) {
	var summary mnx.WriteSummary
	err := r.stage(StageLoad, func() error {
		target := Target{
			Kind:             r.cfg.Sink,
			ConnectionString: r.cfg.ConnectionString,
			SQLitePath:       r.cfg.SQLitePath,
			Connection:       r.cfg.Connection,
		}
		sink, cleanup, err := r.sinks.Open(ctx, target)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := sink.EnsureSchema(ctx); err != nil {
			return err
		}
		summary, err = sink.Write(ctx, g, r.info)
		if err != nil {
			return fmt.Errorf("load into %s failed: %w", target.Name(), err)
		}
		r.metrics.ObserveLoad(summary)
		r.logger.Info("✓ Loaded %d entities and %d edges into %s", summary.Entities, summary.Edges, target.Name())
		return nil
	})
	return summary, err
}

// stage times fn and reports it to the observer and metrics.
func (r *run) stage(name string, fn func() error) error {
	r.observer.StageStarted(name)
	start := r.now()
	err := fn()
	elapsed := r.now().Sub(start)
	r.observer.StageFinished(name, elapsed, err)
	r.metrics.ObserveStage(name, elapsed)
	r.logger.Verbose("Stage %s finished in %s", name, elapsed.Round(time.Millisecond))
	return err
}

// finish writes the diagnostics and metrics files.
func (r *run) finish(runErr error) error {
	var errs []error
	diags := r.collector.All()
	r.metrics.ObserveDiagnostics(diags)
	r.metrics.Finish(runErr, r.now())

	if r.cfg.DiagnosticsFile != "" {
		if err := diagnostics.WriteFile(r.cfg.DiagnosticsFile, diags); err != nil {
			errs = append(errs, err)
		} else {
			r.logger.Verbose("Wrote %d diagnostic(s) to %s", len(diags), r.cfg.DiagnosticsFile)
		}
	}
	if r.cfg.MetricsFile != "" {
		if err := r.metrics.WriteTextfile(r.cfg.MetricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range diagnostics.Counts(diags) {
		r.logger.Verbose("%d %s %s", c.N, c.Severity, c.Code)
	}
	return errors.Join(errs...)
}

type kindCount struct {
	file      string
	converted int
	dropped   int
}

// observeRecords attributes parsed records to their input table.
func (r *run) observeRecords(perKind map[mnx.InputKind]*kindCount, kept []mnx.ParsedRecord) {
	keptByFile := make(map[string]int)
	for _, pr := range kept {
		keptByFile[pr.Raw.File]++
	}
	for _, kind := range mnx.InputKinds {
		c, ok := perKind[kind]
		if !ok {
			continue
		}
		n := keptByFile[c.file]
		r.metrics.AddRecords(kind, n, c.dropped+c.converted-n)
	}
}

// rowsOf counts the distinct source lines that produced records.
func rowsOf(records []mnx.RawRecord) int {
	lines := make(map[int]bool, len(records))
	for _, rec := range records {
		lines[rec.Line] = true
	}
	return len(lines)
}

type nopObserver struct{}

func (nopObserver) StageStarted(string)                        {}
func (nopObserver) StageFinished(string, time.Duration, error) {}
