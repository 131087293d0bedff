package filter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hugr-lab/tabflight/dataset"
)

// Predicate reports whether a row matches a compiled filter.
type Predicate func(dataset.Row) bool

// Evaluate reports whether row matches n. It is a pure function of its
// arguments. A nil node matches every row.
//
// Combinators evaluate every child, without short-circuiting:
//   - anyof: true if any child holds, or if there are no children
//   - allof: true if every child holds
//   - not:   true if no child holds
//
// The gt and ge operators compare as lt and le respectively.
func Evaluate(n *Node, row dataset.Row, schema dataset.Schema) bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case KindAnyOf:
		if len(n.Children) == 0 {
			return true
		}
		match := false
		for _, c := range n.Children {
			if Evaluate(c, row, schema) {
				match = true
			}
		}
		return match
	case KindAllOf:
		match := true
		for _, c := range n.Children {
			if !Evaluate(c, row, schema) {
				match = false
			}
		}
		return match
	case KindNot:
		match := true
		for _, c := range n.Children {
			if Evaluate(c, row, schema) {
				match = false
			}
		}
		return match
	default:
		if n.Op != OpNull && n.Literal == nil {
			return true
		}
		value := lookup(row, n.Column)
		if n.Op == OpNull {
			return value.IsNull()
		}
		lit := dataset.Coerce(*n.Literal, schema.TypeAt(n.Column))
		return compare(n.Op, value, lit)
	}
}

// Compile binds n to schema, coercing every literal once. The returned
// predicate agrees with Evaluate for every row of that schema.
func Compile(n *Node, schema dataset.Schema) Predicate {
	if n == nil {
		return func(dataset.Row) bool { return true }
	}
	switch n.Kind {
	case KindAnyOf, KindAllOf, KindNot:
		if len(n.Children) == 0 {
			return func(dataset.Row) bool { return true }
		}
		children := make([]Predicate, len(n.Children))
		for i, c := range n.Children {
			children[i] = Compile(c, schema)
		}
		return combine(n.Kind, children)
	}

	if n.Op != OpNull && n.Literal == nil {
		return func(dataset.Row) bool { return true }
	}
	col := n.Column
	if n.Op == OpNull {
		return func(row dataset.Row) bool { return lookup(row, col).IsNull() }
	}
	op := n.Op
	lit := dataset.Coerce(*n.Literal, schema.TypeAt(col))
	return func(row dataset.Row) bool {
		return compare(op, lookup(row, col), lit)
	}
}

func combine(kind Kind, children []Predicate) Predicate {
	switch kind {
	case KindAnyOf:
		return func(row dataset.Row) bool {
			match := false
			for _, p := range children {
				if p(row) {
					match = true
				}
			}
			return match
		}
	case KindAllOf:
		return func(row dataset.Row) bool {
			match := true
			for _, p := range children {
				if !p(row) {
					match = false
				}
			}
			return match
		}
	default:
		return func(row dataset.Row) bool {
			match := true
			for _, p := range children {
				if p(row) {
					match = false
				}
			}
			return match
		}
	}
}

func lookup(row dataset.Row, col int) dataset.Value {
	if col < 0 || col >= len(row) {
		return dataset.Absent()
	}
	return row[col]
}

// compare applies a non-null operator. Null or absent operands never match.
func compare(op Operator, value, lit dataset.Value) bool {
	if value.IsNull() || value.IsAbsent() || lit.IsNull() {
		return false
	}
	switch op {
	case OpEq:
		return dataset.Equal(value, lit)
	case OpLt, OpGt:
		c, ok := dataset.Compare(value, lit)
		return ok && c < 0
	case OpLe, OpLte, OpGe, OpGte:
		c, ok := dataset.Compare(value, lit)
		return ok && c <= 0
	case OpCn:
		return strings.Contains(value.String(), lit.String())
	case OpCni:
		return strings.Contains(lower(value.String()), lower(lit.String()))
	case OpSw:
		return strings.HasPrefix(value.String(), lit.String())
	case OpSwi:
		return strings.HasPrefix(lower(value.String()), lower(lit.String()))
	case OpEw:
		return strings.HasSuffix(value.String(), lit.String())
	case OpEwi:
		return strings.HasSuffix(lower(value.String()), lower(lit.String()))
	default:
		return false
	}
}

// lower folds s to lower case. A Caser is stateful, so one is created per call.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// HasPrefixFold reports whether s starts with prefix, ignoring case.
func HasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(lower(s), lower(prefix))
}
