// Package dataset holds the immutable, typed table served by tabflight.
//
// A Dataset is a Schema plus an ordered sequence of Rows. It is built once at
// startup (see Load and Open) and shared read-only by every request; nothing
// in this module mutates a Dataset after construction, so no locking is
// needed.
//
// Values entering the dataset or a filter literal go through Coerce, which
// maps arbitrary external input onto the declared column type and never
// fails.
package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSequence is returned by the loader when the source is not a JSON array.
	ErrNotSequence = errors.New("dataset source is not a sequence")

	// ErrRowShape is returned when a row is neither an object nor an array.
	ErrRowShape = errors.New("row must be an object or an array")

	// ErrRowWidth is returned when a row length does not match the schema.
	ErrRowWidth = errors.New("row width does not match schema")

	// ErrUnknownType is returned for unrecognised column type names.
	ErrUnknownType = errors.New("unknown column type")
)

// Dataset is an immutable schema and row collection.
type Dataset struct {
	schema Schema
	rows   []Row
}

// New creates a dataset. Every row must have exactly schema.Len() values.
func New(schema Schema, rows []Row) (*Dataset, error) {
	for i, r := range rows {
		if len(r) != schema.Len() {
			return nil, fmt.Errorf("%w: row %d has %d values, schema has %d columns", ErrRowWidth, i, len(r), schema.Len())
		}
	}
	return &Dataset{schema: schema, rows: rows}, nil
}

// Schema returns the column schema.
func (d *Dataset) Schema() Schema { return d.schema }

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Row returns row i. The returned row must not be modified.
func (d *Dataset) Row(i int) Row { return d.rows[i] }

// Rows returns a fresh slice referencing every row in dataset order.
// Callers may reorder or truncate the slice freely; the rows themselves are
// shared and must not be modified.
func (d *Dataset) Rows() []Row {
	out := make([]Row, len(d.rows))
	copy(out, d.rows)
	return out
}

// Each calls fn for every row in order, without allocating.
func (d *Dataset) Each(fn func(Row)) {
	for _, r := range d.rows {
		fn(r)
	}
}
