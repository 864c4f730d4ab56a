// Package safesql is the sole checkpoint between an externally supplied
// (typically model-generated) query string and execution against a
// materialized table. It enforces a single-statement, read-only,
// size-bounded contract lexically; it performs no semantic validation of
// column or table references.
package safesql

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuery marks a statement rejected by the gate. Callers must not
// downgrade a rejection to a fallback query at this layer.
var ErrInvalidQuery = errors.New("invalid query")

// DefaultLimit is appended to statements carrying no row-limiting clause.
const DefaultLimit = 200

// forbiddenTokens are rejected anywhere in the upper-cased statement. The
// match is deliberately a plain substring scan: it over-rejects (a column
// literally named "updated" trips UPDATE) but never under-rejects, and the
// gate's contract is safety, not recall.
var forbiddenTokens = []string{
	"INSERT",
	"UPDATE",
	"DELETE",
	"DROP",
	"ALTER",
	"TRUNCATE",
	"MERGE",
	"CALL",
	"EXEC",
	"PRAGMA",
}

// commentTokens truncate the statement at their first occurrence.
var commentTokens = []string{"--", "/*", "//"}

// Sanitize validates sqlText and returns the executable form.
//
// Rules, in order:
//   - must begin with SELECT (case-insensitive, leading whitespace allowed)
//   - no forbidden keyword may appear anywhere in the upper-cased text
//   - inline comments truncate the statement at their first marker
//   - a LIMIT clause is appended when none survives truncation
//
// Errors:
//   - ErrInvalidQuery (wrapped with the offending detail) on any violation.
func Sanitize(sqlText string) (string, error) {
	stripped := strings.TrimSpace(sqlText)
	if !hasSelectPrefix(stripped) {
		return "", fmt.Errorf("%w: only SELECT statements are allowed", ErrInvalidQuery)
	}

	upper := strings.ToUpper(stripped)
	for _, tok := range forbiddenTokens {
		if strings.Contains(upper, tok) {
			return "", fmt.Errorf("%w: forbidden SQL operation detected: %s", ErrInvalidQuery, tok)
		}
	}

	for _, tok := range commentTokens {
		if i := strings.Index(stripped, tok); i >= 0 {
			stripped = strings.TrimSpace(stripped[:i])
		}
	}

	if !strings.Contains(strings.ToUpper(stripped), "LIMIT") {
		stripped = fmt.Sprintf("%s LIMIT %d", strings.TrimRight(stripped, "; \t\n"), DefaultLimit)
	}

	return stripped, nil
}

func hasSelectPrefix(s string) bool {
	if len(s) < len("select") {
		return false
	}
	head := strings.ToUpper(s[:len("select")])
	if head != "SELECT" {
		return false
	}
	// "SELECTED" is not a SELECT statement.
	rest := s[len("select"):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '\r' || rest[0] == '*' || rest[0] == '('
}

// ReplaceTarget rewrites the "FROM data" placeholder that the external
// collaborator generates against, substituting the physical table name.
// The table name must already be sanitized; it is quoted here.
func ReplaceTarget(sqlText, table string) string {
	quoted := `"` + strings.ReplaceAll(table, `"`, `""`) + `"`
	sqlText = strings.ReplaceAll(sqlText, "FROM data", "FROM "+quoted)
	sqlText = strings.ReplaceAll(sqlText, "from data", "from "+quoted)
	return sqlText
}
