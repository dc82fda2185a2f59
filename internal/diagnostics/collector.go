// Package diagnostics gathers the non-fatal findings of a run, echoes them
// to the logger and exports them as JSON lines.
package diagnostics

import (
	"sort"
	"sync"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// Collector accumulates diagnostics in arrival order. Safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	items  []mnx.Diagnostic
	logger mnx.Logger
}

// NewCollector echoes each diagnostic to logger as it arrives: warnings via
// Warn, errors via Error, info only in verbose output. A nil logger disables echo.
func NewCollector(logger mnx.Logger) *Collector {
	return &Collector{logger: logger}
}

func (c *Collector) Add(diags ...mnx.Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, diags...)
	c.mu.Unlock()

	if c.logger == nil {
		return
	}
	for _, d := range diags {
		switch d.Severity {
		case mnx.SeverityError:
			c.logger.Error("%s", d.String())
		case mnx.SeverityWarning:
			c.logger.Warn("%s", d.String())
		default:
			c.logger.Verbose("%s", d.String())
		}
	}
}

// All returns a copy of the collected diagnostics.
func (c *Collector) All() []mnx.Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]mnx.Diagnostic(nil), c.items...)
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Count is the number of diagnostics for one (severity, code) pair.
type Count struct {
	Severity mnx.Severity
	Code     mnx.Code
	N        int
}

// Counts groups diags by severity and code, most severe first, then by code.
func Counts(diags []mnx.Diagnostic) []Count {
	type key struct {
		s mnx.Severity
		c mnx.Code
	}
	byKey := make(map[key]int)
	for _, d := range diags {
		byKey[key{d.Severity, d.Code}]++
	}

	out := make([]Count, 0, len(byKey))
	for k, n := range byKey {
		out = append(out, Count{Severity: k.s, Code: k.c, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if ri, rj := severityRank(out[i].Severity), severityRank(out[j].Severity); ri != rj {
			return ri < rj
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func severityRank(s mnx.Severity) int {
	switch s {
	case mnx.SeverityError:
		return 0
	case mnx.SeverityWarning:
		return 1
	default:
		return 2
	}
}
