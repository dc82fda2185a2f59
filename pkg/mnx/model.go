package mnx

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// Kind classifies raw records and the entities built from them.
type Kind string

const (
	KindCompound    Kind = "compound"
	KindReaction    Kind = "reaction"
	KindCompartment Kind = "compartment"
	KindXref        Kind = "xref"
	KindNamespace   Kind = "namespace"
)

// PrimaryNamespace returns the MetaNetX namespace holding primary ids of this kind.
func (k Kind) PrimaryNamespace() string {
	switch k {
	case KindCompound:
		return NamespaceChemical
	case KindReaction:
		return NamespaceReaction
	case KindCompartment:
		return NamespaceCompartment
	default:
		return ""
	}
}

// SourceRef is a namespace-qualified source identifier.
type SourceRef struct {
	Namespace string
	ID        string
}

// Ref is shorthand for building a SourceRef.
func Ref(namespace, id string) SourceRef {
	return SourceRef{Namespace: namespace, ID: id}
}

func (r SourceRef) String() string {
	return r.Namespace + ":" + r.ID
}

// IsZero reports whether the reference is unset.
func (r SourceRef) IsZero() bool {
	return r.Namespace == "" && r.ID == ""
}

// RawRecord is one row of a source dump. It is never modified after ingestion.
type RawRecord struct {
	// Index is the position of the record in the merged, ordered input.
	Index int
	File  string
	Line  int
	Kind  Kind
	Ref   SourceRef

	// Target and TargetKind are set on cross-reference records and name the
	// primary record the source id is equivalent to.
	Target     SourceRef
	TargetKind Kind

	Formula  string
	Charge   string
	Equation string

	Names      []string
	Attributes map[string]string
}

// Location renders the record position for diagnostics.
func (r RawRecord) Location() string {
	if r.File == "" {
		return fmt.Sprintf("record %d", r.Index)
	}
	return fmt.Sprintf("%s:%d", r.File, r.Line)
}

// Structure is the parsed form of a record's structural payload:
// *Formula for compounds and *Equation for reactions.
type Structure interface {
	fmt.Stringer
	isStructure()
}

// Formula is an element-to-count mapping plus a net charge.
type Formula struct {
	Elements map[string]int
	Charge   int
	// HasCharge records whether the charge was stated explicitly.
	HasCharge bool
}

func (*Formula) isStructure() {}

// String renders the formula in Hill order followed by the charge suffix.
func (f *Formula) String() string {
	var b strings.Builder
	for _, el := range HillOrder(f.Elements) {
		b.WriteString(el)
		if n := f.Elements[el]; n != 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	switch {
	case f.Charge > 0:
		b.WriteString("+" + strconv.Itoa(f.Charge))
	case f.Charge < 0:
		b.WriteString(strconv.Itoa(f.Charge))
	}
	return b.String()
}

// Equal compares element counts and charge.
func (f *Formula) Equal(o *Formula) bool {
	if f == nil || o == nil {
		return f == o
	}
	if f.Charge != o.Charge || len(f.Elements) != len(o.Elements) {
		return false
	}
	for el, n := range f.Elements {
		if m, ok := o.Elements[el]; !ok || m != n {
			return false
		}
	}
	return true
}

// HillOrder sorts element symbols carbon first, hydrogen second, then
// alphabetically. Without carbon all symbols are alphabetical.
func HillOrder(elements map[string]int) []string {
	out := make([]string, 0, len(elements))
	_, hasCarbon := elements["C"]
	for el := range elements {
		if hasCarbon && (el == "C" || el == "H") {
			continue
		}
		out = append(out, el)
	}
	sort.Strings(out)
	if hasCarbon {
		head := []string{"C"}
		if _, ok := elements["H"]; ok {
			head = append(head, "H")
		}
		out = append(head, out...)
	}
	return out
}

// Direction of a reaction equation separator.
type Direction int

const (
	DirectionReversible Direction = iota
	DirectionForward
	DirectionBackward
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	default:
		return "reversible"
	}
}

// Side of a reaction a participant is on.
type Side int

const (
	SideUnspecified Side = iota
	SideReactant
	SideProduct
)

func (s Side) String() string {
	switch s {
	case SideReactant:
		return "reactant"
	case SideProduct:
		return "product"
	default:
		return "unspecified"
	}
}

// Coefficient is a stoichiometric quantity. Numeric coefficients carry Value;
// symbolic polymer coefficients such as "(n)" carry only Expr.
type Coefficient struct {
	Value *big.Rat
	Expr  string
}

// NewCoefficient returns a numeric coefficient p/q.
func NewCoefficient(p, q int64) Coefficient {
	return Coefficient{Value: big.NewRat(p, q)}
}

// IsSymbolic reports whether the coefficient has no numeric value.
func (c Coefficient) IsSymbolic() bool {
	return c.Value == nil
}

// IsZero reports whether the coefficient is numerically zero.
func (c Coefficient) IsZero() bool {
	return c.Value != nil && c.Value.Sign() == 0
}

// Sign returns -1, 0 or +1. Symbolic coefficients are signed by a leading '-'.
func (c Coefficient) Sign() int {
	if c.Value != nil {
		return c.Value.Sign()
	}
	if strings.HasPrefix(c.Expr, "-") {
		return -1
	}
	return 1
}

// Neg returns the negated coefficient.
func (c Coefficient) Neg() Coefficient {
	if c.Value != nil {
		return Coefficient{Value: new(big.Rat).Neg(c.Value), Expr: c.Expr}
	}
	if strings.HasPrefix(c.Expr, "-") {
		return Coefficient{Expr: c.Expr[1:]}
	}
	return Coefficient{Expr: "-" + c.Expr}
}

// Abs returns the coefficient without sign.
func (c Coefficient) Abs() Coefficient {
	if c.Sign() < 0 {
		return c.Neg()
	}
	return c
}

func (c Coefficient) String() string {
	if c.Value == nil {
		return c.Expr
	}
	return c.Value.RatString()
}

// Term is one participant of a parsed equation.
type Term struct {
	Coefficient Coefficient
	Compound    SourceRef
	Compartment SourceRef
	Side        Side
}

// Equation is an ordered list of participant terms.
type Equation struct {
	Direction Direction
	Terms     []Term
}

func (*Equation) isStructure() {}

// String renders the equation in MetaNetX notation.
func (e *Equation) String() string {
	var left, right []string
	for _, t := range e.Terms {
		s := t.Coefficient.String() + " " + t.Compound.ID + "@" + t.Compartment.ID
		if t.Side == SideProduct {
			right = append(right, s)
		} else {
			left = append(left, s)
		}
	}
	sep := " = "
	switch e.Direction {
	case DirectionForward:
		sep = " --> "
	case DirectionBackward:
		sep = " <-- "
		left, right = right, left
	}
	return strings.TrimSpace(strings.Join(left, " + ") + sep + strings.Join(right, " + "))
}

// ParsedRecord pairs a raw record with its parsed structure (nil when the
// record kind has none).
type ParsedRecord struct {
	Raw       RawRecord
	Structure Structure
}
