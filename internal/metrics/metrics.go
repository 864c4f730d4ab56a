// Package metrics defines the minimal metrics surface the ingestion
// pipeline emits to. The core depends only on Backend; concrete exporters
// (Datadog) live in subpackages so their SDKs never leak into pipeline code.
package metrics

// Labels are metric tags, e.g. {"sheet": "orders", "status": "ok"}.
type Labels map[string]string

// Backend receives counters and histogram samples from the pipeline.
//
// Concurrency:
//   - Implementations must be safe for concurrent use; sheet processing may
//     be parallelized by callers.
type Backend interface {
	// IncCounter adds delta to a named counter. Non-positive deltas are
	// ignored.
	IncCounter(name string, delta float64, labels Labels)

	// ObserveHistogram records one sample of a distribution (durations,
	// row counts per sheet, ...).
	ObserveHistogram(name string, value float64, labels Labels)

	// Flush submits buffered metrics now.
	Flush() error

	// Close stops background flushing and performs one final Flush.
	Close() error
}

// Metric names emitted by the pipeline.
const (
	SheetsProcessedTotal = "sheetsql_sheets_processed_total"
	RowsCleanedTotal     = "sheetsql_rows_cleaned_total"
	CellsRepairedTotal   = "sheetsql_cells_repaired_total"
	IssuesTotal          = "sheetsql_issues_total"
	StageDurationSeconds = "sheetsql_stage_duration_seconds"
	TablesCreatedTotal   = "sheetsql_tables_created_total"
	RetryTotal           = "sheetsql_storage_retry_total"
)

// Nop is a Backend that discards everything. Used when no exporter is
// configured.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}
func (Nop) Flush() error                             { return nil }
func (Nop) Close() error                             { return nil }

var _ Backend = Nop{}
