package dataset

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindTime
)

// String returns the lowercase kind name used in logs and error messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is a single cell. The zero Value is Null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	t    time.Time
}

// Null returns the missing cell.
func Null() Value { return Value{} }

// String returns a text cell. The text is kept as read, untrimmed.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns an integer cell.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point cell.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Time returns a date or timestamp cell.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the missing cell. Use IsEmpty to also treat
// blank text as missing.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int returns the integer payload; zero unless Kind is KindInt.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload; zero unless Kind is KindFloat.
func (v Value) Float() float64 { return v.f }

// Time returns the time payload; zero unless Kind is KindTime.
func (v Value) Time() time.Time { return v.t }

// StringVal returns the text payload; "" unless Kind is KindString. Text
// gives the string view of any kind.
func (v Value) StringVal() string { return v.s }

// Text is the string-coerced view of the cell. Null renders as "", floats use
// the shortest representation that round-trips, and times render as a date
// unless they carry a clock component.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindTime:
		if hasClock(v.t) {
			return v.t.Format(time.RFC3339)
		}
		return v.t.Format("2006-01-02")
	default:
		return ""
	}
}

// IsEmpty reports whether the cell is Null or blank after trimming.
func (v Value) IsEmpty() bool {
	if v.kind == KindNull {
		return true
	}
	return strings.TrimSpace(v.Text()) == ""
}

// Any returns the cell as a driver-friendly Go value: nil, string, int64,
// float64 or time.Time.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// MarshalJSON encodes the cell as its natural JSON value.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		return json.Marshal(v.f)
	default:
		return json.Marshal(v.Text())
	}
}

// Equal reports whether two cells hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

func hasClock(t time.Time) bool {
	h, m, s := t.Clock()
	return h != 0 || m != 0 || s != 0 || t.Nanosecond() != 0
}
