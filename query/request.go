package query

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/hugr-lab/tabflight/filter"
)

// Request is a parsed full query.
type Request struct {
	// Filter selects rows; nil keeps all.
	Filter *filter.Node

	// Projection lists output columns; empty means all columns.
	Projection []int

	// Order is the sort column, -1 for dataset order.
	Order int
	Dir   Direction

	Skip  int
	Limit int
}

// CountRequest is a parsed count query.
type CountRequest struct {
	Filter *filter.Node
}

// NominalRequest is a parsed nominal-values query.
type NominalRequest struct {
	Filter  *filter.Node
	Feature int
	Query   string
}

// ParseRequest builds a Request from a decoded payload with the fields
// filter, projection, order, dir, skip and limit.
//
// Only a structurally unusable filter is an error (see filter.SanitizeFilter).
// Malformed numeric fields become 0; a missing order becomes -1.
func ParseRequest(raw map[string]any) (Request, error) {
	node, err := parseFilter(raw["filter"])
	if err != nil {
		return Request{}, err
	}
	return Request{
		Filter:     node,
		Projection: parseProjection(raw["projection"]),
		Order:      parseInt(raw["order"], -1),
		Dir:        ParseDirection(cast.ToString(raw["dir"])),
		Skip:       parseInt(raw["skip"], 0),
		Limit:      parseInt(raw["limit"], 0),
	}, nil
}

// ParseCountRequest builds a CountRequest from a payload with a filter field.
func ParseCountRequest(raw map[string]any) (CountRequest, error) {
	node, err := parseFilter(raw["filter"])
	if err != nil {
		return CountRequest{}, err
	}
	return CountRequest{Filter: node}, nil
}

// ParseNominalRequest builds a NominalRequest from a payload with the
// fields filter, feature and query. A missing feature becomes -1.
func ParseNominalRequest(raw map[string]any) (NominalRequest, error) {
	node, err := parseFilter(raw["filter"])
	if err != nil {
		return NominalRequest{}, err
	}
	q, _ := raw["query"].(string)
	return NominalRequest{
		Filter:  node,
		Feature: parseInt(raw["feature"], -1),
		Query:   q,
	}, nil
}

// parseFilter accepts a decoded object or a JSON-encoded string.
func parseFilter(raw any) (*filter.Node, error) {
	if s, ok := raw.(string); ok {
		return filter.ParseAndSanitizeJSON([]byte(s))
	}
	return filter.SanitizeFilter(raw)
}

// parseProjection accepts "2,0,1" or a list of numbers. Entries that are
// not integers are dropped.
func parseProjection(raw any) []int {
	var parts []any
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		for _, p := range strings.Split(v, ",") {
			parts = append(parts, p)
		}
	case []any:
		parts = v
	default:
		parts = []any{v}
	}

	cols := make([]int, 0, len(parts))
	for _, p := range parts {
		if c, ok := toInt(p); ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// parseInt returns def when raw is absent and 0 when it is malformed.
// Values beyond the int32 range are clamped to it.
func parseInt(raw any, def int) int {
	if raw == nil {
		return def
	}
	n, ok := toInt(raw)
	if !ok {
		return 0
	}
	return n
}

func toInt(raw any) (int, bool) {
	var f float64
	switch v := raw.(type) {
	case string:
		v = strings.TrimSpace(v)
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case nil, bool:
		return 0, false
	default:
		parsed, err := cast.ToFloat64E(raw)
		if err != nil {
			return 0, false
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Trunc(min(max(f, math.MinInt32), math.MaxInt32))), true
}
