package mnx

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Sink persists a validated graph. Implementations upsert entities by
// canonical id and edges by (source, target, kind), and reject the whole
// batch if any edge references an id that is not part of it.
type Sink interface {
	Write(ctx context.Context, g *ResolvedGraph, run RunInfo) (WriteSummary, error)
}

// RunInfo describes the run that produced a graph.
type RunInfo struct {
	ID        uuid.UUID
	StartedAt time.Time
	Inputs    []InputFingerprint
}

// InputFingerprint identifies one dump consumed by a run.
type InputFingerprint struct {
	Kind     InputKind
	Location string
	Version  string
	SHA256   string
	Bytes    int64

	// ContentSHA256 ignores comment lines and line endings, so a re-release
	// with only a new banner keeps the same value.
	ContentSHA256 string
}

// WriteSummary reports what a sink wrote.
type WriteSummary struct {
	Entities int
	Edges    int
	Aliases  int
	Names    int
}
