// Package schema maps cleaned worksheet columns to SQL column types and
// produces collision-free, SQL-safe identifiers for tables and columns.
// Identifier sanitization is the single trust boundary between user-supplied
// names and SQL text: nothing downstream interpolates an unsanitized name.
package schema

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxIdentifierLen matches the common 63-byte identifier limit.
const maxIdentifierLen = 63

// foldMarks decomposes to NFC-free form and strips combining marks, so
// "Département" sanitizes to departement instead of d_partement.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeColumn rewrites an arbitrary column header into a safe SQL
// identifier: diacritics folded, every rune outside [A-Za-z0-9_] replaced
// with '_', prefixed with "col_" when the first character is not a letter or
// underscore, lower-cased, and truncated to 63 bytes.
func SanitizeColumn(name string) string {
	return sanitizeIdentifier(name, "col_")
}

// SanitizeTable is SanitizeColumn with the table prefix marker "t_".
func SanitizeTable(name string) string {
	return sanitizeIdentifier(name, "t_")
}

func sanitizeIdentifier(name, prefix string) string {
	if folded, _, err := transform.String(foldMarks, name); err == nil {
		name = folded
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()

	if s != "" {
		first := s[0]
		isLetter := (first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')
		if !isLetter && first != '_' {
			s = prefix + s
		}
	}

	return strings.ToLower(truncateIdentifier(s))
}

// truncateIdentifier enforces the identifier length limit without splitting
// a UTF-8 sequence.
func truncateIdentifier(s string) string {
	if len(s) <= maxIdentifierLen {
		return s
	}
	b := []byte(s)
	cut := maxIdentifierLen
	for cut > 0 && !utf8.Valid(b[:cut]) {
		cut--
	}
	if cut <= 0 {
		return s[:maxIdentifierLen]
	}
	return string(b[:cut])
}

// ColumnMapping pairs an original header with its sanitized identifier,
// preserving column order.
type ColumnMapping struct {
	Original  string
	Sanitized string
}

// BuildColumnMappings sanitizes every column name and resolves collisions
// deterministically: the first occurrence keeps the bare name, later
// colliding names get the lowest free _1, _2, ... suffix in encounter order.
// A suffixed candidate may itself collide with another column's bare name
// ("a", "a", "a 1" all sanitize into the a/a_1 space), so every assigned
// name is tracked and the suffix bumped until the candidate is unused. A
// header that sanitizes to nothing falls back to column_{index}.
func BuildColumnMappings(names []string) []ColumnMapping {
	out := make([]ColumnMapping, 0, len(names))
	used := make(map[string]bool, len(names))
	suffix := make(map[string]int, len(names))

	for idx, name := range names {
		sanitized := SanitizeColumn(name)
		if sanitized == "" || strings.Trim(sanitized, "_") == "" {
			sanitized = fmt.Sprintf("column_%d", idx)
		}

		candidate := sanitized
		for used[candidate] {
			suffix[sanitized]++
			candidate = fmt.Sprintf("%s_%d", sanitized, suffix[sanitized])
		}
		used[candidate] = true

		out = append(out, ColumnMapping{Original: name, Sanitized: candidate})
	}
	return out
}

// RenameMap flattens mappings into an original->sanitized map for
// table.Rename.
func RenameMap(mappings []ColumnMapping) map[string]string {
	out := make(map[string]string, len(mappings))
	for _, m := range mappings {
		out[m.Original] = m.Sanitized
	}
	return out
}

// TableNameFor sanitizes a sheet name into a base table name. Sheets whose
// names sanitize to nothing get a short random suffix so two such sheets in
// different workbooks never contend for the same name.
func TableNameFor(sheetName string) string {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "sheet"
	}
	base := SanitizeTable(sheetName)
	if base == "" || strings.Trim(base, "_") == "" {
		base = "sheet_" + uuid.NewString()[:6]
	}
	return base
}
