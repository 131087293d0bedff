package filter

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/hugr-lab/tabflight/dataset"
)

var evalSchema = dataset.NewSchema(
	dataset.ColumnDef{Name: "x", Type: dataset.Numeric},
	dataset.ColumnDef{Name: "city", Type: dataset.Nominal},
	dataset.ColumnDef{Name: "note", Type: dataset.Text},
	dataset.ColumnDef{Name: "ok", Type: dataset.Logic},
	dataset.ColumnDef{Name: "at", Type: dataset.Date},
)

func evalRow(x any, city, note any, ok any, at any) dataset.Row {
	return dataset.Row{
		dataset.Coerce(x, dataset.Numeric),
		dataset.Coerce(city, dataset.Nominal),
		dataset.Coerce(note, dataset.Text),
		dataset.Coerce(ok, dataset.Logic),
		dataset.Coerce(at, dataset.Date),
	}
}

func leaf(op Operator, col int, lit string) *Node {
	return &Node{Kind: KindSingle, Op: op, Column: col, Literal: &lit}
}

func TestEvaluate(t *testing.T) {
	row := evalRow(5.0, "Berlin", "Hello World", true, "2024-03-01T00:00:00Z")
	nullRow := evalRow(nil, nil, nil, nil, nil)

	tests := []struct {
		name string
		node *Node
		row  dataset.Row
		want bool
	}{
		{"nil node", nil, row, true},
		{"empty anyof", &Node{Kind: KindAnyOf}, row, true},
		{"empty allof", &Node{Kind: KindAllOf}, row, true},
		{"empty not", &Node{Kind: KindNot}, row, true},
		{"eq number", leaf(OpEq, 0, "5"), row, true},
		{"eq number mismatch", leaf(OpEq, 0, "6"), row, false},
		{"lt", leaf(OpLt, 0, "6"), row, true},
		{"lt equal", leaf(OpLt, 0, "5"), row, false},
		{"gt compares as lt", leaf(OpGt, 0, "6"), row, true},
		{"gt does not compare as gt", leaf(OpGt, 0, "4"), row, false},
		{"le equal", leaf(OpLe, 0, "5"), row, true},
		{"lte equal", leaf(OpLte, 0, "5"), row, true},
		{"ge compares as le", leaf(OpGe, 0, "5"), row, true},
		{"gte compares as le", leaf(OpGte, 0, "4"), row, false},
		{"lt on nominal", leaf(OpLt, 1, "C"), row, true},
		{"cn", leaf(OpCn, 2, "lo Wo"), row, true},
		{"cn case sensitive", leaf(OpCn, 2, "hello"), row, false},
		{"cni", leaf(OpCni, 2, "HELLO"), row, true},
		{"sw", leaf(OpSw, 1, "Ber"), row, true},
		{"swi", leaf(OpSwi, 1, "bER"), row, true},
		{"ew", leaf(OpEw, 1, "lin"), row, true},
		{"ewi", leaf(OpEwi, 1, "LIN"), row, true},
		{"ew mismatch", leaf(OpEw, 1, "Ber"), row, false},
		{"cn on number", leaf(OpCn, 0, "5"), row, true},
		{"eq logic", leaf(OpEq, 3, "1"), row, true},
		{"eq logic false", leaf(OpEq, 3, "false"), row, false},
		{"date lt", leaf(OpLt, 4, "2024-04-01"), row, true},
		{"date eq instant", leaf(OpEq, 4, "2024-03-01T01:00:00+01:00"), row, true},
		{"unknown operator", leaf(OpNone, 0, "5"), row, false},
		{"missing literal", &Node{Kind: KindSingle, Op: OpEq, Column: 0}, row, true},
		{"missing literal bad column", &Node{Kind: KindSingle, Op: OpEq, Column: 99}, row, true},
		{"null operator on null", &Node{Kind: KindSingle, Op: OpNull, Column: 0}, nullRow, true},
		{"null operator on value", &Node{Kind: KindSingle, Op: OpNull, Column: 0}, row, false},
		{"null operator on absent", &Node{Kind: KindSingle, Op: OpNull, Column: 42}, row, false},
		{"null cell never compares", leaf(OpLe, 0, "100"), nullRow, false},
		{"null cell never contains", leaf(OpCn, 1, ""), nullRow, false},
		{"absent column", leaf(OpEq, 17, "5"), row, false},
		{"negative column", leaf(OpEq, -1, "5"), row, false},
		{"unparsable numeric literal", leaf(OpLe, 0, "abc"), row, false},
		{"one is a leaf", &Node{Kind: KindOne, Op: OpEq, Column: 0, Literal: ptr("5")}, row, true},
		{
			"anyof",
			&Node{Kind: KindAnyOf, Children: []*Node{leaf(OpEq, 0, "1"), leaf(OpEq, 0, "5")}},
			row, true,
		},
		{
			"anyof none",
			&Node{Kind: KindAnyOf, Children: []*Node{leaf(OpEq, 0, "1"), leaf(OpEq, 0, "2")}},
			row, false,
		},
		{
			"allof",
			&Node{Kind: KindAllOf, Children: []*Node{leaf(OpEq, 0, "5"), leaf(OpSw, 1, "B")}},
			row, true,
		},
		{
			"allof one fails",
			&Node{Kind: KindAllOf, Children: []*Node{leaf(OpEq, 0, "5"), leaf(OpSw, 1, "X")}},
			row, false,
		},
		{
			"not",
			&Node{Kind: KindNot, Children: []*Node{leaf(OpEq, 0, "1"), leaf(OpEq, 0, "2")}},
			row, true,
		},
		{
			"not any holds",
			&Node{Kind: KindNot, Children: []*Node{leaf(OpEq, 0, "1"), leaf(OpEq, 0, "5")}},
			row, false,
		},
		{
			"not over null cell",
			&Node{Kind: KindNot, Children: []*Node{leaf(OpEq, 0, "5")}},
			nullRow, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.node, tt.row, evalSchema); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
			if got := Compile(tt.node, evalSchema)(tt.row); got != tt.want {
				t.Errorf("Compile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateExample(t *testing.T) {
	schema := dataset.NewSchema(
		dataset.ColumnDef{Name: "x", Type: dataset.Numeric},
		dataset.ColumnDef{Name: "y", Type: dataset.Nominal},
	)
	rows := []dataset.Row{
		{dataset.NumberValue(1), dataset.StringValue("a")},
		{dataset.NumberValue(3), dataset.StringValue("b")},
	}

	n := Sanitize(map[string]any{"type": "single", "operation": "gt", "left": 0.0, "right": "2"})
	var got []string
	for _, r := range rows {
		if Evaluate(n, r, schema) {
			got = append(got, r[1].String())
		}
	}
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("matched %v, want [a]", got)
	}
}

func TestEvaluateDoesNotShortCircuit(t *testing.T) {
	row := evalRow(1.0, "a", "b", false, time.Unix(0, 0))
	n := &Node{Kind: KindAnyOf, Children: []*Node{
		leaf(OpEq, 0, "1"),
		{Kind: KindAllOf, Children: []*Node{leaf(OpEq, 0, "2"), leaf(OpEq, 1, "a")}},
		leaf(OpEq, 1, "a"),
	}}
	if !Evaluate(n, row, evalSchema) {
		t.Error("Evaluate() = false, want true")
	}

	calls := 0
	counting := func(Predicate) Predicate {
		return func(dataset.Row) bool { calls++; return true }
	}
	p := combine(KindAnyOf, []Predicate{counting(nil), counting(nil), counting(nil)})
	p(row)
	if calls != 3 {
		t.Errorf("anyof evaluated %d children, want 3", calls)
	}
}

func TestHasPrefixFold(t *testing.T) {
	tests := []struct {
		s, prefix string
		want      bool
	}{
		{"Berlin", "ber", true},
		{"Berlin", "", true},
		{"Ärger", "är", true},
		{"Bonn", "ber", false},
	}
	for _, tt := range tests {
		if got := HasPrefixFold(tt.s, tt.prefix); got != tt.want {
			t.Errorf("HasPrefixFold(%q, %q) = %v, want %v", tt.s, tt.prefix, got, tt.want)
		}
	}
}

func TestEvaluateNumberFormatting(t *testing.T) {
	row := dataset.Row{dataset.Coerce(json.Number("1.0"), dataset.Nominal)}
	schema := dataset.NewSchema(dataset.ColumnDef{Name: "code", Type: dataset.Nominal})

	for _, right := range []any{json.Number("1"), json.Number("1.00"), json.Number("1e0"), 1.0} {
		n := Sanitize(map[string]any{"type": "single", "operation": "eq", "left": 0.0, "right": right})
		if !Evaluate(n, row, schema) {
			t.Errorf("eq %v on nominal 1.0 = false, want true", right)
		}
	}
}

func cloneNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Literal != nil {
		lit := *n.Literal
		c.Literal = &lit
	}
	c.Children = nil
	if n.Children != nil {
		c.Children = make([]*Node, 0, len(n.Children))
	}
	for _, child := range n.Children {
		c.Children = append(c.Children, cloneNode(child))
	}
	return &c
}

func TestEvaluateIsPure(t *testing.T) {
	row := evalRow(5.0, "Berlin", "Hello World", true, "2024-03-01T00:00:00Z")
	nodes := map[string]*Node{
		"leaf":    leaf(OpCni, 2, "WORLD"),
		"null":    {Kind: KindSingle, Op: OpNull, Column: 3},
		"absent":  leaf(OpEq, 40, "x"),
		"no lit":  {Kind: KindSingle, Op: OpEq, Column: 0},
		"empty":   {Kind: KindAllOf},
		"nested":  {Kind: KindNot, Children: []*Node{leaf(OpGt, 0, "6"), {Kind: KindAnyOf, Children: []*Node{leaf(OpSw, 1, "B")}}}},
		"bad lit": leaf(OpLe, 4, "not a date"),
	}

	for name, n := range nodes {
		t.Run(name, func(t *testing.T) {
			wantNode := cloneNode(n)
			wantRow := make(dataset.Row, len(row))
			copy(wantRow, row)

			first := Evaluate(n, row, evalSchema)
			second := Evaluate(n, row, evalSchema)
			if first != second {
				t.Errorf("Evaluate() = %v then %v", first, second)
			}
			if compiled := Compile(n, evalSchema)(row); compiled != first {
				t.Errorf("Compile() = %v, Evaluate() = %v", compiled, first)
			}
			if !reflect.DeepEqual(n, wantNode) {
				t.Errorf("node changed: got %+v, want %+v", n, wantNode)
			}
			if !reflect.DeepEqual(row, wantRow) {
				t.Errorf("row changed: got %v, want %v", row, wantRow)
			}
		})
	}
}
