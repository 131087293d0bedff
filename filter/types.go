package filter

import "errors"

// Kind identifies the node variant.
type Kind string

const (
	KindSingle Kind = "single"
	KindOne    Kind = "one"
	KindAnyOf  Kind = "anyof"
	KindAllOf  Kind = "allof"
	KindNot    Kind = "not"
)

// Operator identifies a leaf comparison.
type Operator string

const (
	// OpNone is the no-op operator; leaves using it never match.
	OpNone Operator = ""

	OpNull Operator = "null"
	OpEq   Operator = "eq"
	OpLt   Operator = "lt"
	OpLe   Operator = "le"
	OpLte  Operator = "lte"
	OpGt   Operator = "gt"
	OpGe   Operator = "ge"
	OpGte  Operator = "gte"
	OpCn   Operator = "cn"
	OpCni  Operator = "cni"
	OpSw   Operator = "sw"
	OpSwi  Operator = "swi"
	OpEw   Operator = "ew"
	OpEwi  Operator = "ewi"
)

var kinds = map[Kind]struct{}{
	KindSingle: {},
	KindOne:    {},
	KindAnyOf:  {},
	KindAllOf:  {},
	KindNot:    {},
}

var operators = map[Operator]struct{}{
	OpNull: {}, OpEq: {},
	OpLt: {}, OpLe: {}, OpLte: {},
	OpGt: {}, OpGe: {}, OpGte: {},
	OpCn: {}, OpCni: {},
	OpSw: {}, OpSwi: {},
	OpEw: {}, OpEwi: {},
}

// IsCombinator reports whether nodes of kind k carry children.
func (k Kind) IsCombinator() bool {
	return k == KindAnyOf || k == KindAllOf || k == KindNot
}

// Node is a sanitized filter expression. Each node exclusively owns its
// children; a tree produced by Sanitize is bounded by the Limits used.
type Node struct {
	Kind Kind
	Op   Operator

	// Column is the referenced column position, -1 when unused.
	Column int

	// Literal is the comparison operand; nil means "no value supplied".
	Literal *string

	// Children is only meaningful for anyof, allof and not.
	Children []*Node
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	d := 0
	for _, c := range n.Children {
		d = max(d, c.Depth()+1)
	}
	return d
}

// Walk calls fn for n and every descendant in depth-first order.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Limits bound the shape of a sanitized tree.
type Limits struct {
	MaxDepth    int
	MaxChildren int
	MaxLiteral  int
}

// DefaultLimits returns depth 4, 16 children per node, 1024-rune literals.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:    4,
		MaxChildren: 16,
		MaxLiteral:  1024,
	}
}

// ErrValidation is matched (via errors.Is) by every ValidationError.
var ErrValidation = errors.New("invalid filter")

// ValidationError reports a top-level filter payload that cannot be used at
// all. Malformed content below the top level never produces an error.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid filter: " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
