package msgpack

import (
	"testing"
)

type countResult struct {
	Count int `msgpack:"count"`
}

func TestEncodeDecode(t *testing.T) {
	data, err := Encode(countResult{Count: 7})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var got countResult
	if err := Decode(data, &got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Count != 7 {
		t.Errorf("Count = %d, want 7", got.Count)
	}

	m, err := DecodeMap(data)
	if err != nil {
		t.Fatalf("DecodeMap() error = %v", err)
	}
	if _, ok := m["count"]; !ok {
		t.Errorf("DecodeMap() = %v, want a count key", m)
	}
}

func TestDecodeErrors(t *testing.T) {
	var v any
	if err := Decode(nil, &v); err == nil {
		t.Error("Decode(nil) succeeded")
	}
	if _, err := DecodeMap(nil); err == nil {
		t.Error("DecodeMap(nil) succeeded")
	}
	if _, err := DecodeAny(nil); err == nil {
		t.Error("DecodeAny(nil) succeeded")
	}

	arr, err := Encode([]int{1, 2})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if _, err := DecodeMap(arr); err == nil {
		t.Error("DecodeMap(array) succeeded")
	}
	if _, err := DecodeAny([]byte{0xc1}); err == nil {
		t.Error("DecodeAny(reserved byte) succeeded")
	}
}

func TestDecodeAny(t *testing.T) {
	data, err := Encode(map[string]any{"type": "allof", "children": []any{map[string]any{"left": 1}}})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	raw, err := DecodeAny(data)
	if err != nil {
		t.Fatalf("DecodeAny() error = %v", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		t.Fatalf("DecodeAny() = %T, want map[string]any", raw)
	}
	children, ok := obj["children"].([]any)
	if !ok || len(children) != 1 {
		t.Errorf("children = %#v", obj["children"])
	}
}
