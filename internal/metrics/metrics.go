// Package metrics exposes per-run Prometheus metrics. A batch run has no
// scrape endpoint, so the registry is written in the node_exporter textfile
// format when a metrics file is configured.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

const namespace = "mnxnorm"

// Recorder owns a private registry so runs in the same process never share state.
type Recorder struct {
	registry *prometheus.Registry

	inputBytes    *prometheus.GaugeVec
	records       *prometheus.CounterVec
	diagnostics   *prometheus.CounterVec
	entities      *prometheus.GaugeVec
	edges         *prometheus.GaugeVec
	ambiguous     prometheus.Gauge
	stageSeconds  *prometheus.GaugeVec
	loaded        *prometheus.GaugeVec
	lastRun       *prometheus.GaugeVec
	runsCompleted *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		inputBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "input_bytes",
			Help: "Size of each acquired dump table.",
		}, []string{"input"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "records_total",
			Help: "Dump rows by table and outcome (parsed, dropped).",
		}, []string{"input", "outcome"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "diagnostics_total",
			Help: "Diagnostics emitted by severity and code.",
		}, []string{"severity", "code"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "graph_entities",
			Help: "Entities in the resolved graph by kind.",
		}, []string{"kind"}),
		edges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "graph_edges",
			Help: "Edges in the resolved graph by kind.",
		}, []string{"kind"}),
		ambiguous: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "graph_ambiguous_entities",
			Help: "Entities whose identity set contains a namespace collision.",
		}),
		stageSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "stage_duration_seconds",
			Help: "Wall time of each pipeline stage.",
		}, []string{"stage"}),
		loaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "loaded_rows",
			Help: "Rows written by the sink by table.",
		}, []string{"table"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_run_timestamp_seconds",
			Help: "Unix time the last run finished, by result.",
		}, []string{"result"}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Finished runs by result.",
		}, []string{"result"}),
	}
	r.registry.MustRegister(
		r.inputBytes, r.records, r.diagnostics, r.entities, r.edges,
		r.ambiguous, r.stageSeconds, r.loaded, r.lastRun, r.runsCompleted,
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) ObserveInput(fp mnx.InputFingerprint) {
	r.inputBytes.WithLabelValues(string(fp.Kind)).Set(float64(fp.Bytes))
}

func (r *Recorder) AddRecords(kind mnx.InputKind, parsed, dropped int) {
	r.records.WithLabelValues(string(kind), "parsed").Add(float64(parsed))
	r.records.WithLabelValues(string(kind), "dropped").Add(float64(dropped))
}

func (r *Recorder) ObserveDiagnostics(diags []mnx.Diagnostic) {
	for _, d := range diags {
		r.diagnostics.WithLabelValues(string(d.Severity), string(d.Code)).Inc()
	}
}

func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageSeconds.WithLabelValues(stage).Set(d.Seconds())
}

func (r *Recorder) ObserveGraph(g *mnx.ResolvedGraph) {
	ambiguous := 0
	for kind, n := range g.Counts() {
		r.entities.WithLabelValues(string(kind)).Set(float64(n))
	}
	for _, e := range g.Entities {
		if e.Ambiguous {
			ambiguous++
		}
	}
	byKind := make(map[mnx.EdgeKind]int)
	for _, e := range g.Edges {
		byKind[e.Kind]++
	}
	for kind, n := range byKind {
		r.edges.WithLabelValues(string(kind)).Set(float64(n))
	}
	r.ambiguous.Set(float64(ambiguous))
}

func (r *Recorder) ObserveLoad(s mnx.WriteSummary) {
	r.loaded.WithLabelValues("entities").Set(float64(s.Entities))
	r.loaded.WithLabelValues("edges").Set(float64(s.Edges))
	r.loaded.WithLabelValues("aliases").Set(float64(s.Aliases))
	r.loaded.WithLabelValues("names").Set(float64(s.Names))
}

// Finish marks the run outcome at t.
func (r *Recorder) Finish(err error, t time.Time) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.lastRun.WithLabelValues(result).Set(float64(t.Unix()))
	r.runsCompleted.WithLabelValues(result).Inc()
}

// WriteTextfile writes the registry atomically in the textfile collector format.
func (r *Recorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
