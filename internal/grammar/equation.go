package grammar

import (
	"math/big"
	"strings"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// separators are matched longest first.
var separators = []struct {
	token     string
	direction mnx.Direction
}{
	{"<=>", mnx.DirectionReversible},
	{"<->", mnx.DirectionReversible},
	{"-->", mnx.DirectionForward},
	{"<--", mnx.DirectionBackward},
	{"->", mnx.DirectionForward},
	{"<-", mnx.DirectionBackward},
	{"=>", mnx.DirectionForward},
	{"<=", mnx.DirectionBackward},
	{"=", mnx.DirectionReversible},
}

// EquationParser parses reaction equations. It is safe for concurrent use.
type EquationParser struct {
	refs               *RefParser
	defaultCompartment string
}

// NewEquationParser returns a parser resolving prefixed tokens with refs and
// placing terms without '@compartment' into defaultCompartment.
func NewEquationParser(refs *RefParser, defaultCompartment string) *EquationParser {
	if refs == nil {
		refs = NewRefParser(nil)
	}
	if defaultCompartment == "" {
		defaultCompartment = mnx.DefaultCompartment
	}
	return &EquationParser{refs: refs, defaultCompartment: defaultCompartment}
}

type equationScanner struct {
	p     *EquationParser
	input string
	pos   int
}

// Parse converts an equation into ordered participant terms. Terms keep the
// coefficient as written; Side follows the separator direction.
func (p *EquationParser) Parse(input string) (*mnx.Equation, error) {
	sc := &equationScanner{p: p, input: input}

	left, err := sc.side()
	if err != nil {
		return nil, err
	}
	sc.skipSpace()
	sepAt := sc.pos
	dir, ok := sc.separator()
	if !ok {
		if sc.pos >= len(input) {
			return nil, equationError(input, sc.pos, "missing separator")
		}
		return nil, equationError(input, sc.pos, "unexpected %q", input[sc.pos])
	}
	right, err := sc.side()
	if err != nil {
		return nil, err
	}
	sc.skipSpace()
	if sc.pos < len(input) {
		if sc.atSeparator() {
			return nil, equationError(input, sc.pos, "more than one separator (first at offset %d)", sepAt)
		}
		return nil, equationError(input, sc.pos, "unexpected %q", input[sc.pos])
	}

	leftSide, rightSide := mnx.SideReactant, mnx.SideProduct
	if dir == mnx.DirectionBackward {
		leftSide, rightSide = rightSide, leftSide
	}
	terms := make([]mnx.Term, 0, len(left)+len(right))
	for _, t := range left {
		t.Side = leftSide
		terms = append(terms, t)
	}
	for _, t := range right {
		t.Side = rightSide
		terms = append(terms, t)
	}
	return &mnx.Equation{Direction: dir, Terms: terms}, nil
}

// side reads terms until a separator or the end of input.
func (sc *equationScanner) side() ([]mnx.Term, error) {
	var terms []mnx.Term
	for {
		sc.skipSpace()
		if sc.pos >= len(sc.input) || sc.atSeparator() {
			if len(terms) > 0 {
				return nil, equationError(sc.input, sc.pos, "participant has no compound")
			}
			return nil, nil
		}
		t, err := sc.term()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)

		sc.skipSpace()
		if sc.pos < len(sc.input) && sc.input[sc.pos] == '+' {
			sc.pos++
			continue
		}
		if sc.pos >= len(sc.input) || sc.atSeparator() {
			return terms, nil
		}
		return nil, equationError(sc.input, sc.pos, "expected '+' or separator, found %q", sc.input[sc.pos])
	}
}

func (sc *equationScanner) term() (mnx.Term, error) {
	coef, err := sc.coefficient()
	if err != nil {
		return mnx.Term{}, err
	}
	sc.skipSpace()
	start := sc.pos
	compound := sc.token()
	if compound == "" {
		return mnx.Term{}, equationError(sc.input, start, "participant has no compound")
	}
	compoundRef, err := sc.p.refs.Parse(compound, mnx.KindCompound)
	if err != nil {
		return mnx.Term{}, equationError(sc.input, start, "invalid compound %q", compound)
	}

	compartment := sc.p.defaultCompartment
	if sc.pos < len(sc.input) && sc.input[sc.pos] == '@' {
		sc.pos++
		at := sc.pos
		compartment = sc.token()
		if compartment == "" {
			return mnx.Term{}, equationError(sc.input, at, "missing compartment after '@'")
		}
	}
	compartmentRef, err := sc.p.refs.Parse(compartment, mnx.KindCompartment)
	if err != nil {
		return mnx.Term{}, equationError(sc.input, sc.pos, "invalid compartment %q", compartment)
	}
	return mnx.Term{Coefficient: coef, Compound: compoundRef, Compartment: compartmentRef}, nil
}

// coefficient reads an optional signed number or parenthesised expression.
// An absent coefficient is 1.
func (sc *equationScanner) coefficient() (mnx.Coefficient, error) {
	start := sc.pos
	negative := false
	if sc.pos < len(sc.input) && (sc.input[sc.pos] == '-' || sc.input[sc.pos] == '+') && !sc.atSeparator() {
		negative = sc.input[sc.pos] == '-'
		sc.pos++
	}
	if sc.pos >= len(sc.input) {
		return mnx.Coefficient{}, equationError(sc.input, start, "sign without coefficient")
	}

	var coef mnx.Coefficient
	switch c := sc.input[sc.pos]; {
	case c == '(':
		expr, err := sc.parenthesised()
		if err != nil {
			return mnx.Coefficient{}, err
		}
		inner := strings.TrimSpace(expr[1 : len(expr)-1])
		if v, ok := parseRational(inner); ok {
			coef = mnx.Coefficient{Value: v, Expr: expr}
		} else if validSymbolic(inner) {
			coef = mnx.Coefficient{Expr: expr}
		} else {
			return mnx.Coefficient{}, equationError(sc.input, start, "invalid coefficient %q", expr)
		}

	case (c >= '0' && c <= '9') || c == '.':
		j := sc.pos
		for j < len(sc.input) && (isDigit(sc.input[j]) || sc.input[j] == '.' || sc.input[j] == '/') {
			j++
		}
		text := sc.input[sc.pos:j]
		v, ok := parseRational(text)
		if !ok {
			return mnx.Coefficient{}, equationError(sc.input, sc.pos, "invalid coefficient %q", text)
		}
		sc.pos = j
		coef = mnx.Coefficient{Value: v}

	default:
		if negative || sc.pos != start {
			return mnx.Coefficient{}, equationError(sc.input, start, "sign without coefficient")
		}
		return mnx.NewCoefficient(1, 1), nil
	}

	if negative {
		coef = coef.Neg()
	}
	return coef, nil
}

// parenthesised returns the balanced "( ... )" text starting at the current position.
func (sc *equationScanner) parenthesised() (string, error) {
	start := sc.pos
	depth := 0
	for sc.pos < len(sc.input) {
		switch sc.input[sc.pos] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				sc.pos++
				return sc.input[start:sc.pos], nil
			}
		}
		sc.pos++
	}
	return "", equationError(sc.input, start, "unbalanced '(' in coefficient")
}

// token reads an identifier: it stops at whitespace, '@', '+', brackets or a separator.
// An identifier never starts with a digit, '.' or '-'.
func (sc *equationScanner) token() string {
	start := sc.pos
	for sc.pos < len(sc.input) {
		c := sc.input[sc.pos]
		if c == ' ' || c == '\t' || c == '@' || c == '+' || c == '(' || c == ')' {
			break
		}
		if sc.pos == start && (isDigit(c) || c == '.' || c == '-') {
			break
		}
		if (c == '<' || c == '=' || c == '-') && sc.atSeparator() {
			break
		}
		sc.pos++
	}
	return sc.input[start:sc.pos]
}

func (sc *equationScanner) skipSpace() {
	for sc.pos < len(sc.input) && (sc.input[sc.pos] == ' ' || sc.input[sc.pos] == '\t') {
		sc.pos++
	}
}

func (sc *equationScanner) atSeparator() bool {
	rest := sc.input[sc.pos:]
	for _, s := range separators {
		if strings.HasPrefix(rest, s.token) {
			return true
		}
	}
	return false
}

func (sc *equationScanner) separator() (mnx.Direction, bool) {
	rest := sc.input[sc.pos:]
	for _, s := range separators {
		if strings.HasPrefix(rest, s.token) {
			sc.pos += len(s.token)
			return s.direction, true
		}
	}
	return 0, false
}

func parseRational(s string) (*big.Rat, bool) {
	if s == "" || strings.Count(s, "/") > 1 || strings.Count(s, ".") > 1 {
		return nil, false
	}
	if strings.Contains(s, "/") && strings.Contains(s, ".") {
		return nil, false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && c != '.' && c != '/' && !(i == 0 && (c == '-' || c == '+')) {
			return nil, false
		}
	}
	first := s[0]
	if first == '-' || first == '+' {
		if len(s) == 1 {
			return nil, false
		}
		first = s[1]
	}
	if !isDigit(first) || s[len(s)-1] == '.' || s[len(s)-1] == '/' {
		return nil, false
	}
	return new(big.Rat).SetString(s)
}

// validSymbolic accepts polymer expressions such as "n", "n+1" or "2n".
func validSymbolic(s string) bool {
	if s == "" {
		return false
	}
	hasLetter := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			hasLetter = true
		case isDigit(c), c == '+', c == '-', c == '*', c == '/', c == '.', c == ' ':
		default:
			return false
		}
	}
	return hasLetter
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
