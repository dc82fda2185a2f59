package grammar

import (
	"fmt"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// ParseError reports where and why an input fell outside a grammar.
type ParseError struct {
	// Kind is the sentinel the error unwraps to.
	Kind   error
	Input  string
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v %q at offset %d: %s", e.Kind, e.Input, e.Offset, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}

func formulaError(input string, offset int, format string, args ...any) error {
	return &ParseError{Kind: mnx.ErrMalformedFormula, Input: input, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

func equationError(input string, offset int, format string, args ...any) error {
	return &ParseError{Kind: mnx.ErrMalformedEquation, Input: input, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

func refError(input string, format string, args ...any) error {
	return &ParseError{Kind: mnx.ErrMalformedRecord, Input: input, Reason: fmt.Sprintf(format, args...)}
}
