package filter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hugr-lab/tabflight/internal/msgpack"
)

// ParseJSON decodes a JSON filter payload into the dynamic form accepted by
// SanitizeFilter. Numbers are kept as json.Number. An empty payload decodes
// to nil ("keep all").
func ParseJSON(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("filter: invalid JSON: %w", err)
	}
	return raw, nil
}

// ParseMsgpack decodes a MessagePack filter payload into the dynamic form
// accepted by SanitizeFilter. An empty payload decodes to nil.
func ParseMsgpack(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}

	raw, err := msgpack.DecodeAny(data)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return raw, nil
}

// ParseAndSanitizeJSON decodes and sanitizes a JSON filter payload.
func ParseAndSanitizeJSON(data []byte) (*Node, error) {
	raw, err := ParseJSON(data)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	return SanitizeFilter(raw)
}
