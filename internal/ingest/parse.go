package ingest

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/mnxnorm/internal/grammar"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// parseBatchSize is the number of records one worker parses per task.
const parseBatchSize = 512

// Parser parses the structural payload of records.
// Parser is safe for concurrent use.
type Parser struct {
	formulas  *grammar.FormulaParser
	equations *grammar.EquationParser
	workers   int
}

// NewParser creates a parser. workers <= 0 uses GOMAXPROCS.
// Panics if formulas or equations is nil.
func NewParser(formulas *grammar.FormulaParser, equations *grammar.EquationParser, workers int) *Parser {
	if formulas == nil {
		panic("formulas cannot be nil")
	}
	if equations == nil {
		panic("equations cannot be nil")
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Parser{formulas: formulas, equations: equations, workers: workers}
}

// Outcome is the merged result of parsing a batch of records.
type Outcome struct {
	// Records holds every record that parsed, in input order.
	Records []mnx.ParsedRecord
	// Dropped lists the refs of records removed because their payload was malformed.
	Dropped     []mnx.SourceRef
	Diagnostics []mnx.Diagnostic
}

type parseSlot struct {
	structure mnx.Structure
	err       error
}

// ParseAll parses every record. Malformed payloads drop their record with a
// diagnostic and never fail the batch; only cancellation returns an error.
func (p *Parser) ParseAll(ctx context.Context, records []mnx.RawRecord) (*Outcome, error) {
	slots := make([]parseSlot, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for start := 0; start < len(records); start += parseBatchSize {
		end := min(start+parseBatchSize, len(records))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				s, err := p.Parse(records[i])
				slots[i] = parseSlot{structure: s, err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parsing interrupted: %w", err)
	}

	out := &Outcome{Records: make([]mnx.ParsedRecord, 0, len(records))}
	for i, rec := range records {
		if err := slots[i].err; err != nil {
			out.Dropped = append(out.Dropped, rec.Ref)
			out.Diagnostics = append(out.Diagnostics, dropDiagnostic(rec, err))
			continue
		}
		out.Records = append(out.Records, mnx.ParsedRecord{Raw: rec, Structure: slots[i].structure})
	}
	return out, nil
}

// Parse returns the structure of a single record, or nil for kinds without one.
func (p *Parser) Parse(rec mnx.RawRecord) (mnx.Structure, error) {
	switch rec.Kind {
	case mnx.KindCompound:
		return p.compound(rec)
	case mnx.KindReaction:
		return p.equations.Parse(rec.Equation)
	default:
		return nil, nil
	}
}

// compound parses the formula and folds in the separate charge column. A
// compound with neither has no structure.
func (p *Parser) compound(rec mnx.RawRecord) (mnx.Structure, error) {
	if rec.Formula == "" && rec.Charge == "" {
		return nil, nil
	}
	f, err := p.formulas.Parse(rec.Formula)
	if err != nil {
		return nil, err
	}
	if rec.Charge == "" {
		return f, nil
	}
	charge, convErr := strconv.Atoi(rec.Charge)
	if convErr != nil {
		return nil, &grammar.ParseError{Kind: mnx.ErrMalformedFormula, Input: rec.Charge, Reason: "charge is not an integer"}
	}
	if f.HasCharge && f.Charge != charge {
		return nil, &grammar.ParseError{
			Kind:   mnx.ErrMalformedFormula,
			Input:  rec.Formula,
			Reason: fmt.Sprintf("formula charge %d disagrees with charge column %d", f.Charge, charge),
		}
	}
	f.Charge, f.HasCharge = charge, true
	return f, nil
}

func dropDiagnostic(rec mnx.RawRecord, err error) mnx.Diagnostic {
	code := mnx.CodeMalformedRecord
	switch {
	case errors.Is(err, mnx.ErrMalformedFormula):
		code = mnx.CodeMalformedFormula
	case errors.Is(err, mnx.ErrMalformedEquation):
		code = mnx.CodeMalformedEquation
	}
	ctx := map[string]string{"record": rec.Location(), "id": rec.Ref.String(), "reason": err.Error()}
	var perr *grammar.ParseError
	if errors.As(err, &perr) {
		ctx["input"] = perr.Input
		ctx["offset"] = strconv.Itoa(perr.Offset)
		ctx["reason"] = perr.Reason
	}
	return mnx.Diagnostic{Severity: mnx.SeverityError, Code: code, Stage: "parse", Context: ctx}
}
