// Package query runs filter, order, projection and pagination over a
// dataset.
//
// Every operation is synchronous and scans the full row collection. Results
// are freshly allocated slices; the dataset itself is never reordered or
// modified, so a Pipeline can serve concurrent requests without locking.
package query

import (
	"slices"
	"strings"

	"github.com/hugr-lab/tabflight/dataset"
	"github.com/hugr-lab/tabflight/filter"
)

// MaxNominalValues caps the NominalValues result.
const MaxNominalValues = 128

// Direction is the sort direction for Order.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// ParseDirection returns Desc for "desc" (any case) and Asc otherwise.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Desc
	}
	return Asc
}

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Pipeline executes queries against one immutable dataset.
type Pipeline struct {
	ds *dataset.Dataset
}

// New creates a pipeline over ds.
func New(ds *dataset.Dataset) *Pipeline {
	return &Pipeline{ds: ds}
}

// Dataset returns the underlying dataset.
func (p *Pipeline) Dataset() *dataset.Dataset { return p.ds }

// Schema returns the dataset schema.
func (p *Pipeline) Schema() dataset.Schema { return p.ds.Schema() }

// Result is a projected schema with its rows.
type Result struct {
	Schema dataset.Schema
	Rows   []dataset.Row
}

// Run executes a full query: filter, order, project, then skip and limit.
// Skip and limit therefore index the ordered, projected result. The result
// rows are owned by the caller and share no storage with the dataset.
func (p *Pipeline) Run(req Request) Result {
	rows := p.Filter(req.Filter)
	rows = p.Order(rows, req.Order, req.Dir)
	rows = Project(rows, req.Projection)
	rows = Paginate(rows, req.Skip, req.Limit)
	if len(req.Projection) == 0 {
		rows = cloneRows(rows)
	}
	return Result{
		Schema: p.ProjectSchema(req.Projection),
		Rows:   rows,
	}
}

// Filter returns the rows matching n in dataset order. A nil node keeps all.
func (p *Pipeline) Filter(n *filter.Node) []dataset.Row {
	if n == nil {
		return p.ds.Rows()
	}
	match := filter.Compile(n, p.ds.Schema())
	var rows []dataset.Row
	p.ds.Each(func(r dataset.Row) {
		if match(r) {
			rows = append(rows, r)
		}
	})
	return rows
}

// Count returns the number of rows matching n without collecting them.
func (p *Pipeline) Count(n *filter.Node) int {
	if n == nil {
		return p.ds.Len()
	}
	match := filter.Compile(n, p.ds.Schema())
	count := 0
	p.ds.Each(func(r dataset.Row) {
		if match(r) {
			count++
		}
	})
	return count
}

// Order returns a sorted copy of rows keyed on one column. An invalid column
// returns rows unchanged. Nulls sort before values in ascending order and
// after them in descending order; ties keep input order.
func (p *Pipeline) Order(rows []dataset.Row, column int, dir Direction) []dataset.Row {
	if _, ok := p.ds.Schema().Column(column); !ok {
		return rows
	}
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b dataset.Row) int {
		c := compareCells(a[column], b[column])
		if dir == Desc {
			return -c
		}
		return c
	})
	return sorted
}

func compareCells(a, b dataset.Value) int {
	an, bn := a.IsNull() || a.IsAbsent(), b.IsNull() || b.IsAbsent()
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	c, ok := dataset.Compare(a, b)
	if !ok {
		return 0
	}
	return c
}

func cloneRows(rows []dataset.Row) []dataset.Row {
	out := make([]dataset.Row, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// Paginate drops the first skip rows, then keeps at most limit rows.
// skip <= 0 skips nothing; limit <= 0 means unlimited.
func Paginate(rows []dataset.Row, skip, limit int) []dataset.Row {
	if skip > 0 {
		if skip >= len(rows) {
			return rows[:0]
		}
		rows = rows[skip:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// Project remaps every row to the requested columns, in order, keeping
// duplicates. An empty column list returns rows unchanged. Positions
// outside a row yield absent cells.
func Project(rows []dataset.Row, columns []int) []dataset.Row {
	if len(columns) == 0 {
		return rows
	}
	out := make([]dataset.Row, len(rows))
	for i, r := range rows {
		pr := make(dataset.Row, len(columns))
		for j, c := range columns {
			if c >= 0 && c < len(r) {
				pr[j] = r[c]
			} else {
				pr[j] = dataset.Absent()
			}
		}
		out[i] = pr
	}
	return out
}

// ProjectSchema is the schema counterpart of Project. Positions in the
// result are dense; unknown columns appear as unnamed text columns.
func (p *Pipeline) ProjectSchema(columns []int) dataset.Schema {
	schema := p.ds.Schema()
	if len(columns) == 0 {
		return schema
	}
	defs := make([]dataset.ColumnDef, len(columns))
	for i, c := range columns {
		if col, ok := schema.Column(c); ok {
			defs[i] = dataset.ColumnDef{Name: col.Name, Type: col.Type}
		} else {
			defs[i] = dataset.ColumnDef{Type: dataset.Text}
		}
	}
	return dataset.NewSchema(defs...)
}

// NominalValues lists the values of a nominal column among the rows matching
// n, keeping those starting with prefix (case-insensitive; empty matches
// all). Values are not deduplicated and the list stops at MaxNominalValues.
// Null cells are skipped. Non-nominal or invalid columns yield an empty list.
func (p *Pipeline) NominalValues(n *filter.Node, prefix string, column int) []string {
	values := []string{}
	col, ok := p.ds.Schema().Column(column)
	if !ok || col.Type != dataset.Nominal {
		return values
	}

	for _, r := range p.Filter(n) {
		v := r[column]
		if v.IsNull() {
			continue
		}
		s := v.String()
		if prefix != "" && !filter.HasPrefixFold(s, prefix) {
			continue
		}
		values = append(values, s)
		if len(values) == MaxNominalValues {
			break
		}
	}
	return values
}

// ColumnInfo describes a column in Metadata.
type ColumnInfo struct {
	Name string `msgpack:"name" json:"name"`
	Type string `msgpack:"type" json:"type"`
}

// Metadata is the dataset schema with uppercased type names and the
// unfiltered row count.
type Metadata struct {
	Columns []ColumnInfo `msgpack:"columns" json:"columns"`
	Count   int          `msgpack:"count" json:"count"`
}

// Metadata describes the dataset.
func (p *Pipeline) Metadata() Metadata {
	cols := p.ds.Schema().Columns()
	md := Metadata{
		Columns: make([]ColumnInfo, len(cols)),
		Count:   p.ds.Len(),
	}
	for i, c := range cols {
		md.Columns[i] = ColumnInfo{Name: c.Name, Type: c.Type.Upper()}
	}
	return md
}
