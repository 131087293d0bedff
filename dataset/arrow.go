package dataset

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Arrow field metadata keys describing the dataset column behind a field.
const (
	MetaColumnType     = "tabflight.type"
	MetaColumnPosition = "tabflight.position"
)

// DefaultBatchSize is the number of rows per Arrow record batch.
const DefaultBatchSize = 4096

// ArrowType maps a column type to its Arrow data type.
func ArrowType(t ColumnType) arrow.DataType {
	switch t {
	case Numeric:
		return arrow.PrimitiveTypes.Float64
	case Logic:
		return arrow.FixedWidthTypes.Boolean
	case Date:
		return &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}
	default:
		return arrow.BinaryTypes.String
	}
}

// ArrowSchema converts a dataset schema to an Arrow schema. All fields are
// nullable; field metadata records the dataset type and position.
func ArrowSchema(s Schema) *arrow.Schema {
	fields := make([]arrow.Field, 0, s.Len())
	for _, c := range s.columns {
		fields = append(fields, arrow.Field{
			Name:     c.Name,
			Type:     ArrowType(c.Type),
			Nullable: true,
			Metadata: arrow.NewMetadata(
				[]string{MetaColumnType, MetaColumnPosition},
				[]string{c.Type.String(), strconv.Itoa(c.Position)},
			),
		})
	}
	return arrow.NewSchema(fields, nil)
}

// NewRecordReader converts rows to Arrow record batches of at most batchSize
// rows. Caller MUST call Release() on the returned reader.
func NewRecordReader(mem memory.Allocator, s Schema, rows []Row, batchSize int) (array.RecordReader, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	as := ArrowSchema(s)
	records := make([]arrow.Record, 0, len(rows)/batchSize+1)
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()

	builder := array.NewRecordBuilder(mem, as)
	defer builder.Release()

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		for _, row := range rows[start:end] {
			if err := appendRow(builder, s, row); err != nil {
				return nil, err
			}
		}
		records = append(records, builder.NewRecord())
	}

	return array.NewRecordReader(as, records)
}

func appendRow(b *array.RecordBuilder, s Schema, row Row) error {
	if len(row) != s.Len() {
		return fmt.Errorf("%w: got %d values, schema has %d columns", ErrRowWidth, len(row), s.Len())
	}
	for i, c := range s.columns {
		v := row[i]
		switch fb := b.Field(i).(type) {
		case *array.StringBuilder:
			if v.kind != KindString {
				fb.AppendNull()
				continue
			}
			fb.Append(v.str)
		case *array.Float64Builder:
			if v.kind != KindNumber {
				fb.AppendNull()
				continue
			}
			fb.Append(v.num)
		case *array.BooleanBuilder:
			if v.kind != KindBool {
				fb.AppendNull()
				continue
			}
			fb.Append(v.b)
		case *array.TimestampBuilder:
			if v.kind != KindTime {
				fb.AppendNull()
				continue
			}
			fb.Append(arrow.Timestamp(v.t.UnixMilli()))
		default:
			return fmt.Errorf("column %q: unsupported builder %T", c.Name, fb)
		}
	}
	return nil
}
