package filter

import (
	"math"
	"strconv"
	"strings"

	"github.com/hugr-lab/tabflight/dataset"
)

// DuckDBEncoder encodes filter trees to DuckDB SQL with the same semantics
// as Evaluate. Every leaf is wrapped in COALESCE(..., FALSE) so that NULL
// cells behave as non-matches under NOT, and gt/ge render as < and <=.
//
// String operators on numeric, logic and date columns cast the column to
// VARCHAR; DuckDB's textual forms of those types may differ from the
// evaluator's.
type DuckDBEncoder struct {
	schema dataset.Schema
	opts   *EncoderOptions
}

// NewDuckDBEncoder creates a DuckDB encoder for the given schema.
// If opts is nil, default options are used.
func NewDuckDBEncoder(schema dataset.Schema, opts *EncoderOptions) *DuckDBEncoder {
	if opts == nil {
		opts = &EncoderOptions{}
	}
	return &DuckDBEncoder{schema: schema, opts: opts}
}

// EncodeDuckDB is a shorthand for NewDuckDBEncoder(schema, nil).Encode(n).
func EncodeDuckDB(n *Node, schema dataset.Schema) string {
	return NewDuckDBEncoder(schema, nil).Encode(n)
}

// Encode converts a tree to a boolean SQL expression without "WHERE".
func (e *DuckDBEncoder) Encode(n *Node) string {
	if n == nil {
		return "TRUE"
	}

	switch n.Kind {
	case KindAnyOf:
		return e.encodeChildren(n.Children, " OR ", "")
	case KindAllOf:
		return e.encodeChildren(n.Children, " AND ", "")
	case KindNot:
		return e.encodeChildren(n.Children, " AND ", "NOT ")
	default:
		return e.encodeLeaf(n)
	}
}

func (e *DuckDBEncoder) encodeChildren(children []*Node, sep, prefix string) string {
	if len(children) == 0 {
		return "TRUE"
	}
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = prefix + e.Encode(c)
	}
	if len(parts) == 1 && prefix == "" {
		return parts[0]
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func (e *DuckDBEncoder) encodeLeaf(n *Node) string {
	if n.Op != OpNull && n.Literal == nil {
		return "TRUE"
	}
	col, ok := e.schema.Column(n.Column)
	if !ok {
		return "FALSE"
	}
	ref := e.columnRef(col)
	if n.Op == OpNull {
		return "(" + ref + " IS NULL)"
	}

	lit := dataset.Coerce(*n.Literal, col.Type)
	if lit.IsNull() {
		return "FALSE"
	}

	var cond string
	switch n.Op {
	case OpEq:
		cond = ref + " = " + encodeValue(lit)
	case OpLt, OpGt:
		cond = ref + " < " + encodeValue(lit)
	case OpLe, OpLte, OpGe, OpGte:
		cond = ref + " <= " + encodeValue(lit)
	case OpCn:
		cond = "contains(" + e.textRef(col) + ", " + quoteLiteral(lit.String()) + ")"
	case OpCni:
		cond = "contains(lower(" + e.textRef(col) + "), lower(" + quoteLiteral(lit.String()) + "))"
	case OpSw:
		cond = "prefix(" + e.textRef(col) + ", " + quoteLiteral(lit.String()) + ")"
	case OpSwi:
		cond = "prefix(lower(" + e.textRef(col) + "), lower(" + quoteLiteral(lit.String()) + "))"
	case OpEw:
		cond = "suffix(" + e.textRef(col) + ", " + quoteLiteral(lit.String()) + ")"
	case OpEwi:
		cond = "suffix(lower(" + e.textRef(col) + "), lower(" + quoteLiteral(lit.String()) + "))"
	default:
		return "FALSE"
	}
	return "COALESCE(" + cond + ", FALSE)"
}

func (e *DuckDBEncoder) columnRef(col dataset.Column) string {
	name := col.Name
	if mapped, ok := e.opts.ColumnMapping[name]; ok {
		name = mapped
	}
	return quoteIdentifier(name)
}

func (e *DuckDBEncoder) textRef(col dataset.Column) string {
	ref := e.columnRef(col)
	if col.Type == dataset.Nominal || col.Type == dataset.Text {
		return ref
	}
	return "CAST(" + ref + " AS VARCHAR)"
}

func encodeValue(v dataset.Value) string {
	switch v.Kind() {
	case dataset.KindNumber:
		f := v.Num()
		switch {
		case math.IsInf(f, 1):
			return "CAST('inf' AS DOUBLE)"
		case math.IsInf(f, -1):
			return "CAST('-inf' AS DOUBLE)"
		}
		return "CAST(" + strconv.FormatFloat(f, 'g', -1, 64) + " AS DOUBLE)"
	case dataset.KindBool:
		if v.Bool() {
			return "TRUE"
		}
		return "FALSE"
	case dataset.KindTime:
		return "TIMESTAMP " + quoteLiteral(v.Time().UTC().Format("2006-01-02 15:04:05.000"))
	default:
		return quoteLiteral(v.String())
	}
}
