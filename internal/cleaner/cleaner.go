// Package cleaner repairs one raw worksheet table at a time: header repair,
// type coercion, missing-value handling, date normalization, de-duplication,
// and text trimming, in that fixed order. Later steps assume earlier ones
// already ran (missing-value fills, for example, rely on coercion having
// settled each column's kind).
//
// Design constraints:
//   - Clean is a pure function of its input. The input table is never
//     mutated and no state survives between calls.
//   - Coercion and parsing failures are never fatal. They degrade to null
//     cells and are recorded in the Report as data-quality issues.
package cleaner

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"sheetsql/internal/table"
)

// nowFn is a clock seam so tests can pin Report.CleanedAt.
var nowFn = time.Now

// Coercion thresholds, measured over a column's non-null values.
const (
	numericCoerceRatio  = 0.8
	datetimeCoerceRatio = 0.5
)

// modeFallback fills text columns that have no non-null values to vote on.
const modeFallback = "Unknown"

// Clean repairs t and returns the cleaned copy plus a report of every
// repair applied.
func Clean(t table.Table) (table.Table, Report) {
	working := t.Clone()
	rep := newReport(t.Rows(), t.Cols())

	renameUnnamedColumns(&working, rep)
	standardizeTypes(&working, rep)
	working = handleMissingValues(working, rep)
	standardizeDates(&working, rep)
	working = removeDuplicates(working, rep)
	standardizeText(&working, rep)

	rep.finalize(working.Rows(), working.Cols(), nowFn())
	return working, *rep
}

// renameUnnamedColumns renames empty, all-whitespace, or placeholder
// ("Unnamed: N") headers to column_{index}.
func renameUnnamedColumns(t *table.Table, rep *Report) {
	for i := range t.Columns {
		name := t.Columns[i].Name
		if strings.TrimSpace(name) != "" && !strings.HasPrefix(name, "Unnamed:") {
			continue
		}
		newName := fmt.Sprintf("column_%d", i)
		t.Columns[i].Name = newName
		rep.ColumnsRenamed[name] = newName
		rep.recordIssue(IssueMissingHeader, fmt.Sprintf("Renamed unnamed column %q to %q", name, newName))
	}
	if len(rep.ColumnsRenamed) > 0 {
		rep.recordStep("Renamed unnamed columns")
	}
}

// standardizeTypes coerces textual columns to numeric or datetime when
// enough of the column parses. Numeric wins over datetime; a column that
// converts to numeric is not considered for dates.
func standardizeTypes(t *table.Table, rep *Report) {
	for i := range t.Columns {
		col := &t.Columns[i]
		if !isTextual(*col) {
			continue
		}

		if n, ok := coerceNumeric(col); ok {
			rep.recordStep(fmt.Sprintf("Converted column %q to numeric", col.Name))
			rep.addMetric(MetricNumericConversions, n)
			continue
		}

		if valid, invalid, ok := coerceDatetime(col, datetimeCoerceRatio); ok {
			if invalid > 0 {
				rep.recordIssue(IssueInvalidDatetime,
					fmt.Sprintf("Standardized dates in %q, %d invalid entries set to null", col.Name, invalid))
			}
			rep.recordStep(fmt.Sprintf("Converted column %q to datetime", col.Name))
			rep.addMetric(MetricDatetimeConversions, valid)
		}
	}
}

// handleMissingValues fills or drops nulls column by column. Numeric columns
// take the median, textual columns the mode ("Unknown" when no mode exists),
// and any other column kind has its null-bearing rows dropped entirely.
//
// Numeric and text fills apply regardless of how much of the column is
// missing; only the drop path is row-destructive.
func handleMissingValues(t table.Table, rep *Report) table.Table {
	for i := 0; i < len(t.Columns); i++ {
		col := t.Columns[i]
		missing := col.NullCount()
		if missing == 0 {
			continue
		}
		// An entirely null column has no values to vote with. It stays
		// null so inference resolves it to TEXT/nullable instead of the
		// rows all being dropped.
		if missing == len(col.Values) {
			continue
		}

		switch {
		case isNumeric(col):
			median := medianOf(col)
			fillColumn(&t.Columns[i], table.Number(median))
			rep.recordIssue(IssueMissingValues,
				fmt.Sprintf("Filled %d missing values in %q with median (%g)", missing, col.Name, median))
			rep.addMetric(MetricFilledNullValues, missing)

		case isTextual(col):
			fill := modeOf(col)
			fillColumn(&t.Columns[i], table.Text(fill))
			rep.recordIssue(IssueMissingValues,
				fmt.Sprintf("Filled %d missing values in %q with %q", missing, col.Name, fill))
			rep.addMetric(MetricFilledNullValues, missing)

		default:
			keep := make([]bool, t.Rows())
			dropped := 0
			for r, v := range col.Values {
				keep[r] = !v.IsNull()
				if v.IsNull() {
					dropped++
				}
			}
			t = t.KeepRows(keep)
			if dropped > 0 {
				rep.recordIssue(IssueMissingValues,
					fmt.Sprintf("Dropped %d rows with missing values in %q", dropped, col.Name))
				rep.addMetric(MetricRowsDropped, dropped)
			}
		}

		rep.recordStep(fmt.Sprintf("Handled missing values in %q (%d values)", col.Name, missing))
	}
	return t
}

// standardizeDates catches still-textual columns that the 50% threshold in
// standardizeTypes missed: any column where at least one value parses as a
// date is converted, with unparseable entries nulled and logged.
func standardizeDates(t *table.Table, rep *Report) {
	for i := range t.Columns {
		col := &t.Columns[i]
		if !isTextual(*col) {
			continue
		}
		valid, invalid, ok := coerceDatetime(col, 0)
		if !ok || valid == 0 {
			continue
		}
		if invalid > 0 {
			rep.recordIssue(IssueInvalidDatetime,
				fmt.Sprintf("Normalized %q to datetime; %d invalid entries set to null", col.Name, invalid))
		}
		rep.recordStep(fmt.Sprintf("Standardized date formats in %q", col.Name))
		rep.addMetric(MetricDatetimeConversions, valid)
	}
}

// removeDuplicates drops exact duplicate rows (all columns equal), keeping
// the first occurrence. Cleaning an already-cleaned table removes nothing.
func removeDuplicates(t table.Table, rep *Report) table.Table {
	rows := t.Rows()
	if rows == 0 {
		return t
	}

	seen := make(map[string]struct{}, rows)
	keep := make([]bool, rows)
	removed := 0
	for r := 0; r < rows; r++ {
		key := rowKey(t, r)
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		keep[r] = true
	}
	if removed == 0 {
		return t
	}

	rep.recordIssue(IssueDuplicates, fmt.Sprintf("Removed %d duplicate rows", removed))
	rep.recordStep("Removed duplicate rows")
	rep.addMetric(MetricDuplicatesRemoved, removed)
	return t.KeepRows(keep)
}

// standardizeText trims leading/trailing whitespace from every text cell and
// counts the cells actually changed. Trimming is cosmetic: it is tallied as
// a metric but not recorded as an issue.
func standardizeText(t *table.Table, rep *Report) {
	for i := range t.Columns {
		col := &t.Columns[i]
		if !isTextual(*col) {
			continue
		}
		changed := 0
		for j, v := range col.Values {
			if v.Kind != table.KindText {
				continue
			}
			trimmed := strings.TrimSpace(v.Str)
			if trimmed != v.Str {
				col.Values[j] = table.Text(trimmed)
				changed++
			}
		}
		if changed > 0 {
			rep.recordStep(fmt.Sprintf("Trimmed text values in %q (%d cells updated)", col.Name, changed))
			rep.addMetric(MetricTextStandardized, changed)
		}
	}
}

// ---------------------------------------------------------------------------
// column classification and coercion
// ---------------------------------------------------------------------------

// isTextual reports whether a column still carries free-form text: at least
// one non-null text cell. Mixed-kind columns count as textual, mirroring how
// spreadsheet readers surface inconsistent cells.
func isTextual(c table.Column) bool {
	for _, v := range c.Values {
		if v.Kind == table.KindText {
			return true
		}
	}
	return false
}

// isNumeric reports whether every non-null cell is a number, with at least
// one present.
func isNumeric(c table.Column) bool {
	seen := false
	for _, v := range c.Values {
		switch v.Kind {
		case table.KindNull:
		case table.KindNumber:
			seen = true
		default:
			return false
		}
	}
	return seen
}

// coerceNumeric converts the column to numbers when at least
// numericCoerceRatio of its non-null cells parse. Cells that do not parse
// become null. Returns the count of converted cells.
func coerceNumeric(c *table.Column) (int, bool) {
	nonNull := 0
	parsed := 0
	for _, v := range c.Values {
		if v.IsNull() {
			continue
		}
		nonNull++
		if _, ok := numericValue(v); ok {
			parsed++
		}
	}
	if nonNull == 0 || float64(parsed)/float64(nonNull) < numericCoerceRatio {
		return 0, false
	}

	for i, v := range c.Values {
		if v.IsNull() {
			continue
		}
		if f, ok := numericValue(v); ok {
			c.Values[i] = table.Number(f)
		} else {
			c.Values[i] = table.Null()
		}
	}
	return parsed, true
}

// numericValue extracts a float from a cell the way lenient numeric coercion
// sees it: numbers pass through, booleans count as 0/1, text parses.
func numericValue(v table.Value) (float64, bool) {
	switch v.Kind {
	case table.KindNumber:
		return v.Num, true
	case table.KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case table.KindText:
		return table.ParseNumber(v.Str)
	default:
		return 0, false
	}
}

// coerceDatetime converts the column to times when the parseable share of
// non-null cells reaches minRatio. Returns (valid, invalid, converted).
func coerceDatetime(c *table.Column, minRatio float64) (int, int, bool) {
	nonNull := 0
	valid := 0
	for _, v := range c.Values {
		if v.IsNull() {
			continue
		}
		nonNull++
		if timeValue(v) != nil {
			valid++
		}
	}
	if nonNull == 0 || float64(valid)/float64(nonNull) < minRatio || valid == 0 {
		return 0, 0, false
	}

	invalid := 0
	for i, v := range c.Values {
		if v.IsNull() {
			continue
		}
		if ts := timeValue(v); ts != nil {
			c.Values[i] = table.Time(*ts)
		} else {
			c.Values[i] = table.Null()
			invalid++
		}
	}
	return valid, invalid, true
}

func timeValue(v table.Value) *time.Time {
	switch v.Kind {
	case table.KindTime:
		t := v.Time
		return &t
	case table.KindText:
		if t, _, ok := table.ParseTimeLoose(v.Str); ok {
			return &t
		}
	}
	return nil
}

// fillColumn replaces null cells with fill.
func fillColumn(c *table.Column, fill table.Value) {
	for i, v := range c.Values {
		if v.IsNull() {
			c.Values[i] = fill
		}
	}
}

// medianOf computes the median of a numeric column's non-null cells. Even
// counts average the two middle values.
func medianOf(c table.Column) float64 {
	vals := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if v.Kind == table.KindNumber {
			vals = append(vals, v.Num)
		}
	}
	if len(vals) == 0 {
		return 0
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// modeOf returns the most frequent non-null rendering in a text column.
// Ties break toward the lexicographically smallest value so the result is
// deterministic. Columns with no non-null cells fall back to "Unknown".
func modeOf(c table.Column) string {
	counts := map[string]int{}
	for _, v := range c.Values {
		if v.IsNull() {
			continue
		}
		counts[v.Render()]++
	}
	if len(counts) == 0 {
		return modeFallback
	}

	best := ""
	bestN := 0
	for s, n := range counts {
		if n > bestN || (n == bestN && s < best) {
			best = s
			bestN = n
		}
	}
	return best
}

// rowKey builds the exact-equality key used for de-duplication. Kind tags
// are part of the key so 1 (number) and "1" (text) stay distinct.
func rowKey(t table.Table, r int) string {
	var b strings.Builder
	for _, c := range t.Columns {
		v := table.Null()
		if r < len(c.Values) {
			v = c.Values[r]
		}
		b.WriteString(v.Kind.String())
		b.WriteByte(':')
		b.WriteString(v.Render())
		b.WriteByte('\x1f')
	}
	return b.String()
}
