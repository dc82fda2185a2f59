// Package grammar parses the textual encodings found in MetaNetX dumps:
// chemical formulas, reaction equations and namespace-qualified
// cross-reference strings.
//
// Every parser is a pure function over its input. Inputs outside the
// grammar are rejected with a *ParseError that unwraps to one of the
// mnx sentinel errors (ErrMalformedFormula, ErrMalformedEquation,
// ErrMalformedRecord); no parser guesses at a best-effort result.
//
// Formula grammar:
//
//	formula := group* charge?
//	group   := element count? | '(' group+ ')' count? | '[' group+ ']' count?
//	element := [A-Z][a-z]*            (periodic table or configured pseudo-element)
//	charge  := ('+' | '-') digits?
//
// The sign always precedes the magnitude: "Fe+3" is one iron with charge +3,
// while "Fe3+" is three irons with charge +1.
//
// Equation grammar:
//
//	equation    := side SEP side
//	SEP         := '=' | '<=>' | '<->' | '-->' | '->' | '<--' | '<-' | '=>' | '<='
//	side        := ε | term ('+' term)*
//	term        := coefficient? compound ('@' compartment)?
//	coefficient := sign? (integer | decimal | integer '/' integer | '(' expr ')')
package grammar
