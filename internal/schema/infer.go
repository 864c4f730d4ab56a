package schema

import (
	"math"
	"strings"

	"sheetsql/internal/table"
)

// SQLType is the inferred storage-level type of a column. Backends map these
// to their own dialect; the inference layer never emits anything else.
type SQLType string

const (
	TypeInteger  SQLType = "INTEGER"
	TypeFloat    SQLType = "FLOAT"
	TypeBoolean  SQLType = "BOOLEAN"
	TypeDatetime SQLType = "DATETIME"
	TypeText     SQLType = "TEXT"
)

// maxStoredTextWidth bounds the recorded max_length of TEXT columns.
const maxStoredTextWidth = 1000

// Inference is the outcome of classifying one column.
type Inference struct {
	Type       SQLType
	Nullable   bool
	Confidence float64
	// MaxLength is set only for TEXT columns with at least one value.
	MaxLength *int
}

// InferColumn classifies a column's SQL type from its non-null values.
// Decision order, first match wins:
//
//  1. boolean-like values with at most two distinct renderings -> BOOLEAN
//  2. all values numeric -> INTEGER when integral, else FLOAT
//  3. all values dates (and the numeric test failed) -> DATETIME
//  4. otherwise TEXT, with max_length capped at 1000
//
// An empty or all-null column always resolves to TEXT/nullable, regardless
// of the rules above. Nullable is true iff the column has at least one null,
// so adding nulls never changes the inferred type, only the flag.
func InferColumn(c table.Column) Inference {
	nonNull := c.NonNull()
	nullable := c.NullCount() > 0

	if len(nonNull) == 0 {
		return Inference{Type: TypeText, Nullable: true}
	}

	if isBooleanSet(nonNull) {
		return Inference{Type: TypeBoolean, Nullable: nullable, Confidence: 1.0}
	}

	if ok, allIntegral := isNumericSet(nonNull); ok {
		if allIntegral {
			return Inference{Type: TypeInteger, Nullable: nullable, Confidence: 1.0}
		}
		return Inference{Type: TypeFloat, Nullable: nullable, Confidence: 0.95}
	}

	if isDatetimeSet(nonNull) {
		return Inference{Type: TypeDatetime, Nullable: nullable, Confidence: 0.9}
	}

	maxLen := 0
	for _, v := range nonNull {
		if n := len(v.Render()); n > maxLen {
			maxLen = n
		}
	}
	if maxLen > maxStoredTextWidth {
		maxLen = maxStoredTextWidth
	}
	return Inference{Type: TypeText, Nullable: nullable, Confidence: 0.8, MaxLength: &maxLen}
}

// isBooleanSet reports whether every value is boolean-like (true bools,
// 0/1 numbers, and case-insensitive true/false/0/1 strings) and the column
// holds at most two distinct values.
func isBooleanSet(values []table.Value) bool {
	distinct := map[string]struct{}{}
	for _, v := range values {
		var canon string
		switch v.Kind {
		case table.KindBool:
			canon = boolCanon(v.Bool)
		case table.KindNumber:
			if v.Num != 0 && v.Num != 1 {
				return false
			}
			canon = boolCanon(v.Num == 1)
		case table.KindText:
			switch strings.ToLower(strings.TrimSpace(v.Str)) {
			case "1", "true":
				canon = boolCanon(true)
			case "0", "false":
				canon = boolCanon(false)
			default:
				return false
			}
		default:
			return false
		}
		distinct[canon] = struct{}{}
		if len(distinct) > 2 {
			return false
		}
	}
	return true
}

func boolCanon(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// isNumericSet reports whether every value parses as a number, and whether
// all of them are integral.
func isNumericSet(values []table.Value) (ok bool, allIntegral bool) {
	allIntegral = true
	for _, v := range values {
		var f float64
		switch v.Kind {
		case table.KindNumber:
			f = v.Num
		case table.KindText:
			parsed, isNum := table.ParseNumber(v.Str)
			if !isNum {
				return false, false
			}
			f = parsed
		default:
			return false, false
		}
		if f != math.Trunc(f) {
			allIntegral = false
		}
	}
	return true, allIntegral
}

// isDatetimeSet reports whether every value is a date or parses as one.
func isDatetimeSet(values []table.Value) bool {
	for _, v := range values {
		switch v.Kind {
		case table.KindTime:
		case table.KindText:
			if _, _, ok := table.ParseTimeLoose(v.Str); !ok {
				return false
			}
		default:
			return false
		}
	}
	return true
}
