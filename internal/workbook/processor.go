package workbook

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"sheetsql/internal/cleaner"
	"sheetsql/internal/metrics"
	"sheetsql/internal/profile"
	"sheetsql/internal/schema"
	"sheetsql/internal/table"
)

// Logger is the minimal logging interface used by the processor.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// sampleRows bounds the preview rows carried on each sheet result.
const sampleRows = 5

// SheetResult is the full processing output for one sheet: the cleaned
// table under its original headers, the column-safe copy under sanitized
// identifiers, and everything derived from them.
type SheetResult struct {
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	Index        int    `json:"index"`

	Cleaned table.Table `json:"-"`
	Safe    table.Table `json:"-"`

	Mappings []schema.ColumnMapping  `json:"column_mappings"`
	Schema   schema.TableSchema      `json:"schema"`
	Report   cleaner.Report          `json:"cleaning_report"`
	Profiles []profile.ColumnProfile `json:"column_profiles"`

	// Sample is a bounded head of the cleaned table keyed by sanitized
	// column name, for UI previews. Nulls are nil.
	Sample []map[string]any `json:"sample_rows"`
}

// Result is the workbook-level bundle the materializer consumes.
type Result struct {
	ID           string        `json:"id"`
	FileName     string        `json:"file_name"`
	Sheets       []SheetResult `json:"sheets"`
	SheetNames   []string      `json:"sheet_names"`
	TotalRows    int           `json:"total_rows"`
	PrimarySheet string        `json:"primary_sheet"`
}

// Processor runs the per-sheet pipeline: clean, sanitize identifiers, infer
// schema, profile columns. Zero value is usable; nil Logger discards and nil
// Metrics counts nothing.
type Processor struct {
	Logger  Logger
	Metrics metrics.Backend
}

// Process runs every sheet of wb, in order. Sheet names are disambiguated
// against already-processed sheets, empty names become Sheet{index+1}.
// Sheets with no columns are skipped. Any sheet-level failure aborts the
// whole workbook; the first processed sheet becomes the primary.
func (p *Processor) Process(wb Workbook) (*Result, error) {
	logf := p.logger()
	m := p.metrics()

	res := &Result{
		ID:       uuid.NewString(),
		FileName: wb.Name,
	}

	seen := make(map[string]bool, len(wb.Sheets))
	for i, sh := range wb.Sheets {
		name := resolveSheetName(sh.Name, i, seen)
		seen[name] = true

		if sh.Data.Cols() == 0 {
			logf("stage=sheet sheet=%s skipped=empty", name)
			continue
		}

		sr, err := p.processSheet(sh.Data, name, sh.Name, i, logf, m)
		if err != nil {
			return nil, fmt.Errorf("workbook %s: sheet %q: %w", wb.Name, name, err)
		}

		res.Sheets = append(res.Sheets, sr)
		res.SheetNames = append(res.SheetNames, name)
		res.TotalRows += sr.Cleaned.Rows()
		if res.PrimarySheet == "" {
			res.PrimarySheet = name
		}
		m.IncCounter(metrics.SheetsProcessedTotal, 1, nil)
	}

	if len(res.Sheets) == 0 {
		return nil, fmt.Errorf("workbook %s: no usable sheets", wb.Name)
	}
	return res, nil
}

func (p *Processor) processSheet(raw table.Table, name, originalName string, index int, logf func(string, ...any), m metrics.Backend) (SheetResult, error) {
	cleanStart := time.Now()
	cleaned, report := cleaner.Clean(raw)
	logf("stage=clean sheet=%s ok duration=%s rows=%d quality=%.3f",
		name, durMS(cleanStart), cleaned.Rows(), report.QualityScore)
	m.IncCounter(metrics.RowsCleanedTotal, float64(cleaned.Rows()), nil)
	m.IncCounter(metrics.CellsRepairedTotal, float64(report.CellsModified), nil)
	for issueType, n := range report.IssueSummary {
		m.IncCounter(metrics.IssuesTotal, float64(n), metrics.Labels{"issue": issueType})
	}
	m.ObserveHistogram(metrics.StageDurationSeconds, time.Since(cleanStart).Seconds(), metrics.Labels{"stage": "clean"})

	inferStart := time.Now()
	mappings := schema.BuildColumnMappings(cleaned.ColumnNames())
	safe := cleaned.Rename(schema.RenameMap(mappings))
	ts := schema.Infer(cleaned, name, mappings)
	logf("stage=infer sheet=%s ok duration=%s columns=%d table=%s",
		name, durMS(inferStart), len(ts.Columns), ts.TableName)
	m.ObserveHistogram(metrics.StageDurationSeconds, time.Since(inferStart).Seconds(), metrics.Labels{"stage": "infer"})

	profileStart := time.Now()
	profiles := make([]profile.ColumnProfile, 0, cleaned.Cols())
	for ci, c := range cleaned.Columns {
		profiles = append(profiles, profile.Column(c, mappings[ci].Sanitized, ci))
	}
	logf("stage=profile sheet=%s ok duration=%s", name, durMS(profileStart))
	m.ObserveHistogram(metrics.StageDurationSeconds, time.Since(profileStart).Seconds(), metrics.Labels{"stage": "profile"})

	return SheetResult{
		Name:         name,
		OriginalName: originalName,
		Index:        index,
		Cleaned:      cleaned,
		Safe:         safe,
		Mappings:     mappings,
		Schema:       ts,
		Report:       report,
		Profiles:     profiles,
		Sample:       sampleOf(safe),
	}, nil
}

// resolveSheetName maps empty names to Sheet{index+1} and suffixes
// collisions with _{index+1}.
func resolveSheetName(name string, index int, seen map[string]bool) string {
	if name == "" {
		name = fmt.Sprintf("Sheet%d", index+1)
	}
	if seen[name] {
		name = fmt.Sprintf("%s_%d", name, index+1)
	}
	return name
}

func sampleOf(t table.Table) []map[string]any {
	n := t.Rows()
	if n > sampleRows {
		n = sampleRows
	}
	out := make([]map[string]any, 0, n)
	for r := 0; r < n; r++ {
		row := make(map[string]any, t.Cols())
		for _, c := range t.Columns {
			if c.Values[r].IsNull() {
				row[c.Name] = nil
			} else {
				row[c.Name] = c.Values[r].Render()
			}
		}
		out = append(out, row)
	}
	return out
}

func (p *Processor) logger() func(format string, v ...any) {
	if p.Logger == nil {
		l := log.New(discardWriter{}, "", 0)
		return l.Printf
	}
	return p.Logger.Printf
}

func (p *Processor) metrics() metrics.Backend {
	if p.Metrics == nil {
		return metrics.Nop{}
	}
	return p.Metrics
}

func durMS(start time.Time) time.Duration { return time.Since(start).Truncate(time.Millisecond) }

type discardWriter struct{}

func (discardWriter) Write(p []byte) (n int, err error) { return len(p), nil }
