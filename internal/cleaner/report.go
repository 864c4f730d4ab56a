package cleaner

import "time"

// Issue categories recorded by the cleaner. These are the keys of
// Report.IssueSummary and the Type of every Issue entry.
const (
	IssueMissingHeader   = "missing_header"
	IssueInvalidDatetime = "invalid_datetime"
	IssueMissingValues   = "missing_values"
	IssueDuplicates      = "duplicates"
)

// Metric keys tallied in Report.Metrics. Each counts cells (or rows, where
// noted) actually modified by one repair operation.
const (
	MetricFilledNullValues    = "filled_null_values"
	MetricRowsDropped         = "rows_dropped"
	MetricDuplicatesRemoved   = "duplicates_removed"
	MetricNumericConversions  = "numeric_conversions"
	MetricDatetimeConversions = "datetime_conversions"
	MetricTextStandardized    = "text_standardized"
)

// Issue is one recorded data-quality repair.
type Issue struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Report describes every repair applied during one cleaning pass.
//
// A fresh Report is produced per Clean call; nothing is shared between
// calls, so sheets can be cleaned concurrently.
//
// QualityScore is 1 − (total issue count / total cells), floored at zero,
// where total cells is measured against the original table shape. Text
// trimming bumps MetricTextStandardized but records no Issue, so it does
// not lower the score.
type Report struct {
	OriginalRowCount    int               `json:"original_row_count"`
	OriginalColumnCount int               `json:"original_column_count"`
	CleanedRowCount     int               `json:"cleaned_row_count"`
	CleanedColumnCount  int               `json:"cleaned_column_count"`
	RowsRemoved         int               `json:"rows_removed"`
	ColumnsRenamed      map[string]string `json:"columns_renamed"`
	Issues              []Issue           `json:"issues"`
	IssueSummary        map[string]int    `json:"issue_summary"`
	Steps               []string          `json:"cleaning_steps"`
	Metrics             map[string]int    `json:"metrics"`
	QualityScore        float64           `json:"quality_score"`
	CellsModified       int               `json:"cells_modified"`
	CleanedAt           time.Time         `json:"cleaned_at"`
}

// TotalIssues returns the sum of all issue-category tallies.
func (r Report) TotalIssues() int {
	n := 0
	for _, c := range r.IssueSummary {
		n += c
	}
	return n
}

func newReport(rows, cols int) *Report {
	return &Report{
		OriginalRowCount:    rows,
		OriginalColumnCount: cols,
		ColumnsRenamed:      map[string]string{},
		Issues:              []Issue{},
		IssueSummary:        map[string]int{},
		Steps:               []string{},
		Metrics: map[string]int{
			MetricFilledNullValues:    0,
			MetricRowsDropped:         0,
			MetricDuplicatesRemoved:   0,
			MetricNumericConversions:  0,
			MetricDatetimeConversions: 0,
			MetricTextStandardized:    0,
		},
	}
}

func (r *Report) recordIssue(issueType, message string) {
	r.Issues = append(r.Issues, Issue{Type: issueType, Message: message})
	r.IssueSummary[issueType]++
}

func (r *Report) recordStep(step string) {
	r.Steps = append(r.Steps, step)
}

func (r *Report) addMetric(metric string, n int) {
	r.Metrics[metric] += n
}

// finalize derives the shape deltas and the quality score once all steps
// have run.
func (r *Report) finalize(cleanedRows, cleanedCols int, now time.Time) {
	r.CleanedRowCount = cleanedRows
	r.CleanedColumnCount = cleanedCols
	r.RowsRemoved = r.OriginalRowCount - cleanedRows
	if r.RowsRemoved < 0 {
		r.RowsRemoved = 0
	}

	for _, n := range r.Metrics {
		r.CellsModified += n
	}

	cols := r.OriginalColumnCount
	if cols < 1 {
		cols = 1
	}
	totalCells := r.OriginalRowCount * cols
	if totalCells > 0 {
		score := 1.0 - float64(r.TotalIssues())/float64(totalCells)
		if score < 0 {
			score = 0
		}
		r.QualityScore = score
	}

	r.CleanedAt = now.UTC()
}
