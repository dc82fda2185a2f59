package grammar

import (
	"strconv"
	"strings"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// maxCount bounds element counts so multiplication through nested groups cannot overflow.
const maxCount = 1 << 30

// FormulaParser parses chemical formulas. It is safe for concurrent use.
type FormulaParser struct {
	symbols map[string]struct{}
}

// NewFormulaParser accepts the periodic table plus the given pseudo-elements.
// Without arguments DefaultPseudoElements are used.
func NewFormulaParser(pseudoElements ...string) *FormulaParser {
	if pseudoElements == nil {
		pseudoElements = DefaultPseudoElements
	}
	symbols := make(map[string]struct{}, len(periodicTable)+len(pseudoElements))
	for _, s := range periodicTable {
		symbols[s] = struct{}{}
	}
	for _, s := range pseudoElements {
		symbols[s] = struct{}{}
	}
	return &FormulaParser{symbols: symbols}
}

// Parse converts a formula into element counts and charge.
// The empty string is a valid formula with no elements.
func (p *FormulaParser) Parse(input string) (*mnx.Formula, error) {
	s := strings.TrimSpace(input)
	body, charge, hasCharge, err := splitCharge(s)
	if err != nil {
		return nil, err
	}

	stack := []map[string]int{{}}
	var openers []int // offsets of unclosed brackets
	i := 0
	for i < len(body) {
		c := body[i]
		switch {
		case c == '(' || c == '[':
			stack = append(stack, map[string]int{})
			openers = append(openers, i)
			i++

		case c == ')' || c == ']':
			if len(openers) == 0 {
				return nil, formulaError(s, i, "unbalanced %q", c)
			}
			open := body[openers[len(openers)-1]]
			if (open == '(' && c != ')') || (open == '[' && c != ']') {
				return nil, formulaError(s, i, "%q closes %q", c, open)
			}
			group := stack[len(stack)-1]
			if len(group) == 0 {
				return nil, formulaError(s, openers[len(openers)-1], "empty group")
			}
			stack = stack[:len(stack)-1]
			openers = openers[:len(openers)-1]
			n, next, err := readCount(s, body, i+1)
			if err != nil {
				return nil, err
			}
			top := stack[len(stack)-1]
			for el, k := range group {
				if k > 0 && n > maxCount/k {
					return nil, formulaError(s, i, "count overflow")
				}
				if err := add(s, i, top, el, k*n); err != nil {
					return nil, err
				}
			}
			i = next

		case c >= 'A' && c <= 'Z':
			j := i + 1
			for j < len(body) && body[j] >= 'a' && body[j] <= 'z' {
				j++
			}
			symbol := body[i:j]
			if _, ok := p.symbols[symbol]; !ok {
				return nil, formulaError(s, i, "unrecognized element %q", symbol)
			}
			n, next, err := readCount(s, body, j)
			if err != nil {
				return nil, err
			}
			if err := add(s, i, stack[len(stack)-1], symbol, n); err != nil {
				return nil, err
			}
			i = next

		case c == '+' || c == '-':
			return nil, formulaError(s, i, "negative count or misplaced sign")

		default:
			return nil, formulaError(s, i, "unexpected character %q", c)
		}
	}
	if len(openers) > 0 {
		return nil, formulaError(s, openers[len(openers)-1], "unbalanced %q", body[openers[len(openers)-1]])
	}

	return &mnx.Formula{Elements: stack[0], Charge: charge, HasCharge: hasCharge}, nil
}

// splitCharge separates a trailing "+", "-", "+n" or "-n" from the formula body.
// Digits before the sign belong to the last element or group.
func splitCharge(s string) (body string, charge int, hasCharge bool, err error) {
	idx := strings.LastIndexAny(s, "+-")
	if idx < 0 {
		return s, 0, false, nil
	}
	digits := s[idx+1:]
	for k := 0; k < len(digits); k++ {
		if digits[k] < '0' || digits[k] > '9' {
			return "", 0, false, formulaError(s, idx, "negative count or misplaced sign")
		}
	}
	magnitude := 1
	if digits != "" {
		magnitude, err = strconv.Atoi(digits)
		if err != nil || magnitude > maxCount {
			return "", 0, false, formulaError(s, idx+1, "charge out of range")
		}
	}
	if s[idx] == '-' {
		magnitude = -magnitude
	}
	return s[:idx], magnitude, true, nil
}

// readCount reads an optional non-negative multiplicity starting at i.
func readCount(input, body string, i int) (n int, next int, err error) {
	j := i
	for j < len(body) && body[j] >= '0' && body[j] <= '9' {
		j++
	}
	if j == i {
		return 1, i, nil
	}
	n, convErr := strconv.Atoi(body[i:j])
	if convErr != nil || n > maxCount {
		return 0, 0, formulaError(input, i, "count out of range")
	}
	return n, j, nil
}

func add(input string, offset int, into map[string]int, el string, n int) error {
	if into[el] > maxCount-n {
		return formulaError(input, offset, "count overflow")
	}
	into[el] += n
	return nil
}
