package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/hugr-lab/tabflight/dataset"
)

// SanitizeFilter is the entry check for an untrusted filter payload.
//
// A nil payload returns (nil, nil), meaning "keep all rows". A payload whose
// top level is not an object returns a *ValidationError. Any object is
// accepted and sanitized with DefaultLimits.
func SanitizeFilter(raw any) (*Node, error) {
	if raw == nil {
		return nil, nil
	}
	if _, ok := asObject(raw); !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("expected an object, got %T", raw)}
	}
	return Sanitize(raw), nil
}

// Sanitize converts arbitrary decoded input into a bounded Node using
// DefaultLimits. It never fails.
func Sanitize(raw any) *Node {
	return SanitizeWithLimits(raw, DefaultLimits())
}

// SanitizeWithLimits converts arbitrary decoded input into a bounded Node.
// It never fails: unknown kinds become anyof, unknown operators become
// OpNone, non-numeric column references become -1, literals are truncated,
// and children beyond the depth or fan-out limits are dropped silently.
func SanitizeWithLimits(raw any, l Limits) *Node {
	l.MaxDepth = max(l.MaxDepth, 0)
	l.MaxChildren = max(l.MaxChildren, 0)
	l.MaxLiteral = max(l.MaxLiteral, 0)
	return sanitize(raw, 0, l)
}

func sanitize(raw any, depth int, l Limits) *Node {
	obj, ok := asObject(raw)
	if !ok {
		return &Node{Kind: KindAnyOf, Column: -1}
	}

	n := &Node{
		Kind:    sanitizeKind(obj["type"]),
		Op:      sanitizeOperator(obj["operation"]),
		Column:  sanitizeColumn(obj["left"]),
		Literal: sanitizeLiteral(obj["right"], l.MaxLiteral),
	}

	if depth >= l.MaxDepth || !n.Kind.IsCombinator() {
		return n
	}
	children, ok := obj["children"].([]any)
	if !ok {
		return n
	}
	if len(children) > l.MaxChildren {
		children = children[:l.MaxChildren]
	}
	n.Children = make([]*Node, 0, len(children))
	for _, c := range children {
		n.Children = append(n.Children, sanitize(c, depth+1, l))
	}
	return n
}

// asObject accepts the map shapes produced by encoding/json and msgpack.
func asObject(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		obj := make(map[string]any, len(v))
		for k, val := range v {
			if ks, ok := k.(string); ok {
				obj[ks] = val
			}
		}
		return obj, true
	default:
		return nil, false
	}
}

func sanitizeKind(raw any) Kind {
	s, ok := raw.(string)
	if !ok {
		return KindAnyOf
	}
	k := Kind(strings.ToLower(s))
	if _, ok := kinds[k]; !ok {
		return KindAnyOf
	}
	return k
}

func sanitizeOperator(raw any) Operator {
	s, ok := raw.(string)
	if !ok {
		return OpNone
	}
	op := Operator(strings.ToLower(s))
	if _, ok := operators[op]; !ok {
		return OpNone
	}
	return op
}

func sanitizeColumn(raw any) int {
	f, ok := number(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return -1
	}
	f = math.Floor(f)
	if f < math.MinInt32 || f > math.MaxInt32 {
		return -1
	}
	return int(f)
}

func sanitizeLiteral(raw any, maxLen int) *string {
	if raw == nil {
		return nil
	}
	s := dataset.Truncate(dataset.Stringify(raw), maxLen)
	return &s
}

// number extracts a numeric value from the Go number kinds produced by the
// JSON and MessagePack decoders. Strings are not numbers.
func number(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
