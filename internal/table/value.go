// Package table defines the in-memory representation of one worksheet:
// an ordered set of named columns whose cells are tagged-union scalar values.
//
// Before cleaning, a column may hold a mix of kinds (numbers next to text
// next to blanks). All coercion logic in internal/cleaner and type inference
// in internal/schema operates over this union explicitly; there is no implicit
// runtime coercion anywhere.
package table

import (
	"strconv"
	"time"
)

// Kind tags the scalar kind stored in a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is one cell. The zero value is a null cell.
//
// Only the field matching Kind is meaningful; the others stay at their zero
// value. Value is small and is always passed by value.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
	Time time.Time
}

func Null() Value            { return Value{} }
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func Text(s string) Value    { return Value{Kind: KindText, Str: s} }
func Boolean(b bool) Value   { return Value{Kind: KindBool, Bool: b} }
func Time(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// IsNull reports whether the cell holds no value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Render returns a display string for the cell. Null renders as "".
//
// Numbers use the shortest representation that round-trips (strconv 'g'),
// times use RFC 3339. Render is what dedupe keys, mode counting, and text
// length statistics are computed over, so it must be deterministic.
func (v Value) Render() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindText:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindTime:
		return v.Time.Format(time.RFC3339)
	default:
		return ""
	}
}

// Equal reports cell equality. Times compare with time.Time.Equal so the
// same instant in different locations still matches.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindText:
		return v.Str == o.Str
	case KindBool:
		return v.Bool == o.Bool
	case KindTime:
		return v.Time.Equal(o.Time)
	default:
		return true
	}
}
