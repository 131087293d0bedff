package dataset

import (
	"cmp"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the representation held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
	// KindAbsent marks a lookup outside the row bounds. It never appears in
	// stored rows.
	KindAbsent
)

// TimeLayout is the layout used to stringify date values.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Value is a single typed cell. The zero Value is Null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	t    time.Time
}

// Row is an ordered, fixed-length sequence of values, one per column.
type Row []Value

// Null returns the null value.
func Null() Value { return Value{} }

// Absent returns the value used for out-of-range column lookups.
func Absent() Value { return Value{kind: KindAbsent} }

// StringValue wraps s.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue wraps f. NaN becomes Null.
func NumberValue(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{kind: KindNumber, num: f}
}

// BoolValue wraps b.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// TimeValue wraps t, normalised to UTC.
func TimeValue(t time.Time) Value { return Value{kind: KindTime, t: t.UTC()} }

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null. Absent values are not Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsAbsent reports whether v came from an out-of-range lookup.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Str returns the string payload.
func (v Value) Str() string { return v.str }

// Num returns the numeric payload.
func (v Value) Num() float64 { return v.num }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.b }

// Time returns the timestamp payload.
func (v Value) Time() time.Time { return v.t }

// String stringifies the value the way string operators see it.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(TimeLayout)
	case KindAbsent:
		return ""
	default:
		return "null"
	}
}

// Interface returns the natural Go representation: nil, string, float64,
// bool or time.Time.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// Compare orders two values of the same kind. ok is false when either side
// is null or absent, or the kinds differ.
func Compare(a, b Value) (c int, ok bool) {
	if a.kind != b.kind {
		return 0, false
	}
	switch a.kind {
	case KindString:
		return strings.Compare(a.str, b.str), true
	case KindNumber:
		return cmp.Compare(a.num, b.num), true
	case KindBool:
		switch {
		case a.b == b.b:
			return 0, true
		case !a.b:
			return -1, true
		default:
			return 1, true
		}
	case KindTime:
		return a.t.Compare(b.t), true
	default:
		return 0, false
	}
}

// Equal reports whether a and b are comparable and equal.
func Equal(a, b Value) bool {
	c, ok := Compare(a, b)
	return ok && c == 0
}

func formatNumber(f float64) string {
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
