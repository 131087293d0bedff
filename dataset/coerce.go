package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// MaxNominalLength caps nominal strings, in runes.
const MaxNominalLength = 255

// Epoch is the fallback for date values that cannot be parsed.
var Epoch = time.Unix(0, 0).UTC()

// Coerce converts an arbitrary external value into the typed representation
// for the declared column type. It never panics; malformed input degrades to
// Null (numeric) or Epoch (date).
func Coerce(raw any, t ColumnType) Value {
	if raw == nil {
		return Null()
	}
	switch t {
	case Nominal:
		return StringValue(Truncate(Stringify(raw), MaxNominalLength))
	case Text:
		return StringValue(Stringify(raw))
	case Numeric:
		return coerceNumeric(raw)
	case Logic:
		return BoolValue(truthy(raw))
	case Date:
		return TimeValue(coerceDate(raw))
	default:
		return StringValue(Stringify(raw))
	}
}

// Stringify renders an external value as a string.
func Stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "null"
	case string:
		return v
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return formatNumber(f)
		}
		return v.String()
	case Value:
		return v.String()
	case time.Time:
		return v.UTC().Format(TimeLayout)
	case float64:
		return formatNumber(v)
	case float32:
		return formatNumber(float64(v))
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return fmt.Sprint(raw)
	}
	return s
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func coerceNumeric(raw any) Value {
	switch v := raw.(type) {
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return Null()
		}
		raw = v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Null()
		}
		return NumberValue(f)
	case time.Time:
		return NumberValue(float64(v.UnixMilli()))
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return Null()
	}
	return NumberValue(f)
}

func truthy(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch v {
		case "true", "1":
			return true
		case "false", "0":
			return false
		}
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0 && !math.IsNaN(f)
	case map[string]any, []any, time.Time:
		return true
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return true
	}
	return f != 0 && !math.IsNaN(f)
}

func coerceDate(raw any) time.Time {
	switch v := raw.(type) {
	case time.Time:
		return v
	case string:
		t, err := cast.ToTimeE(strings.TrimSpace(v))
		if err != nil {
			return Epoch
		}
		return t
	case bool, map[string]any, []any:
		return Epoch
	}
	if n, ok := raw.(json.Number); ok {
		raw = string(n)
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Epoch
	}
	return time.UnixMilli(int64(f))
}
