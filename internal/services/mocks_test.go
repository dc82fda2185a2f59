package services

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/mnxnorm/internal/loader"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

type mockConnector struct {
	pool *pgxpool.Pool
	err  error
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

type mockApprover struct {
	approved bool
	err      error
	target   string
}

func (m *mockApprover) RequestApproval(_ context.Context, target string) (bool, error) {
	m.target = target
	return m.approved, m.err
}

// memorySink adds schema bookkeeping to loader.MemorySink.
type memorySink struct {
	*loader.MemorySink
	ensured  int
	resets   int
	writeErr error
}

func (m *memorySink) EnsureSchema(_ context.Context) error {
	m.ensured++
	return nil
}

func (m *memorySink) Reset(_ context.Context) error {
	m.resets++
	m.MemorySink = loader.NewMemorySink()
	return nil
}

func (m *memorySink) Write(ctx context.Context, g *mnx.ResolvedGraph, run mnx.RunInfo) (mnx.WriteSummary, error) {
	if m.writeErr != nil {
		return mnx.WriteSummary{}, m.writeErr
	}
	return m.MemorySink.Write(ctx, g, run)
}

type mockOpener struct {
	sink    *memorySink
	err     error
	opened  []Target
	cleaned int
}

func newMockOpener() *mockOpener {
	return &mockOpener{sink: &memorySink{MemorySink: loader.NewMemorySink()}}
}

func (m *mockOpener) Open(_ context.Context, target Target) (ManagedSink, func(), error) {
	m.opened = append(m.opened, target)
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.sink, func() { m.cleaned++ }, nil
}

type mockDatabaseManager struct {
	ensureCreated bool
	ensureErr     error
	ensured       []string
}

func (m *mockDatabaseManager) Exists(_ context.Context, _ mnx.DBConnection, _ string) (bool, error) {
	return !m.ensureCreated, nil
}

func (m *mockDatabaseManager) Create(_ context.Context, _ mnx.DBConnection, _ string) error {
	return nil
}

func (m *mockDatabaseManager) Ensure(_ context.Context, _ mnx.DBConnection, name string) (bool, error) {
	m.ensured = append(m.ensured, name)
	return m.ensureCreated, m.ensureErr
}

type recordingObserver struct {
	mu       sync.Mutex
	started  []string
	finished map[string]error
}

func (o *recordingObserver) StageStarted(stage string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, stage)
}

func (o *recordingObserver) StageFinished(stage string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.finished == nil {
		o.finished = make(map[string]error)
	}
	o.finished[stage] = err
}
