package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hugr-lab/tabflight/internal/serialize"
)

// Load reads a JSON array of rows and coerces every cell to the schema.
// A row is either an object keyed by column name or a positional array;
// missing cells are Null and extra cells are ignored.
func Load(r io.Reader, schema Schema) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSequence, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, ErrNotSequence
	}

	var rows []Row
	for dec.More() {
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("row %d: invalid JSON: %w", len(rows), err)
		}
		row, err := rowFromRaw(raw, schema)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(rows), err)
		}
		rows = append(rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("unterminated row array: %w", err)
	}

	return New(schema, rows)
}

// Open loads a dataset file. Files ending in ".zst" are zstd-decompressed
// before parsing.
func Open(path string, schema Schema) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	if strings.HasSuffix(path, ".zst") {
		dec, err := serialize.NewDecompressor()
		if err != nil {
			return nil, err
		}
		defer dec.Close()

		data, err = dec.Decompress(data)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", path, err)
		}
	}

	return Load(bytes.NewReader(data), schema)
}

func rowFromRaw(raw any, schema Schema) (Row, error) {
	row := make(Row, schema.Len())
	switch v := raw.(type) {
	case map[string]any:
		for _, c := range schema.columns {
			row[c.Position] = Coerce(v[c.Name], c.Type)
		}
	case []any:
		for _, c := range schema.columns {
			var cell any
			if c.Position < len(v) {
				cell = v[c.Position]
			}
			row[c.Position] = Coerce(cell, c.Type)
		}
	default:
		return nil, ErrRowShape
	}
	return row, nil
}
