package dataset

import (
	"fmt"
	"strings"
)

// ColumnType is the declared type of a dataset column.
type ColumnType int

const (
	// Nominal is a categorical string column, capped at MaxNominalLength runes.
	Nominal ColumnType = iota
	// Text is a free-form string column.
	Text
	// Numeric is a float64 column.
	Numeric
	// Logic is a boolean column.
	Logic
	// Date is an absolute timestamp column.
	Date
)

var columnTypeNames = [...]string{
	Nominal: "nominal",
	Text:    "text",
	Numeric: "numeric",
	Logic:   "logic",
	Date:    "date",
}

// String returns the lowercase type name.
func (t ColumnType) String() string {
	if t < 0 || int(t) >= len(columnTypeNames) {
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
	return columnTypeNames[t]
}

// Upper returns the uppercased type name reported by the metadata operation.
func (t ColumnType) Upper() string {
	return strings.ToUpper(t.String())
}

// ParseColumnType resolves a type name case-insensitively.
func ParseColumnType(name string) (ColumnType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range columnTypeNames {
		if n == name {
			return ColumnType(i), nil
		}
	}
	return Text, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Column describes one typed attribute of every row.
type Column struct {
	// Position is the column index in every row and in projection/order references.
	Position int
	Name     string
	Type     ColumnType
}

// ColumnDef is a column declaration without a position.
type ColumnDef struct {
	Name string
	Type ColumnType
}

// Schema is the ordered list of dataset columns.
// Positions are dense and match declaration order.
type Schema struct {
	columns []Column
}

// NewSchema builds a schema, assigning positions in declaration order.
func NewSchema(defs ...ColumnDef) Schema {
	cols := make([]Column, len(defs))
	for i, d := range defs {
		cols[i] = Column{Position: i, Name: d.Name, Type: d.Type}
	}
	return Schema{columns: cols}
}

// ParseSchema builds a schema from "name:type" declarations.
func ParseSchema(decls []string) (Schema, error) {
	defs := make([]ColumnDef, 0, len(decls))
	for _, decl := range decls {
		name, typ, ok := strings.Cut(decl, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return Schema{}, fmt.Errorf("invalid column declaration %q: expected name:type", decl)
		}
		ct, err := ParseColumnType(typ)
		if err != nil {
			return Schema{}, fmt.Errorf("column %q: %w", name, err)
		}
		defs = append(defs, ColumnDef{Name: strings.TrimSpace(name), Type: ct})
	}
	return NewSchema(defs...), nil
}

// Len returns the number of columns.
func (s Schema) Len() int { return len(s.columns) }

// Column returns the column at position i.
func (s Schema) Column(i int) (Column, bool) {
	if i < 0 || i >= len(s.columns) {
		return Column{}, false
	}
	return s.columns[i], true
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for _, c := range s.columns {
		if c.Name == name {
			return c.Position
		}
	}
	return -1
}

// Columns returns a copy of the column list.
func (s Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// TypeAt returns the declared type of column i, falling back to Text for
// out-of-range positions.
func (s Schema) TypeAt(i int) ColumnType {
	if c, ok := s.Column(i); ok {
		return c.Type
	}
	return Text
}
