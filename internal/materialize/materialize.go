// Package materialize turns a processed workbook into physical database
// tables: one table per sheet, created and loaded through the storage
// Repository with bounded retries and all-or-nothing rollback.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"sheetsql/internal/metrics"
	"sheetsql/internal/schema"
	"sheetsql/internal/storage"
	"sheetsql/internal/table"
	"sheetsql/internal/workbook"
)

// Logger is the minimal logging interface used by the materializer.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// insertBatchSize bounds the rows per parameterized INSERT. Keeps statements
// under every backend's bind-parameter limit.
const insertBatchSize = 512

// RetryPolicy bounds retries of transient storage failures. Only
// storage.ErrBusy is retried; any other error fails immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy retries twice after the first failure, backing off
// exponentially from 100ms.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond}

// sleepFn is a test seam.
var sleepFn = sleepCtx

// SheetTable records where one sheet landed.
type SheetTable struct {
	Sheet    string `json:"sheet"`
	Table    string `json:"table"`
	RowCount int64  `json:"row_count"`
}

// Materializer creates and loads one physical table per processed sheet.
// Zero values for Logger, Metrics and Retry fall back to discard, Nop and
// DefaultRetryPolicy.
type Materializer struct {
	Repo    storage.Repository
	Logger  Logger
	Metrics metrics.Backend
	Retry   RetryPolicy
}

// MaterializeWorkbook persists every sheet of res. On any failure, including
// retry exhaustion, every table already created for this workbook is dropped
// and a single error is returned: no partial persistence.
func (m *Materializer) MaterializeWorkbook(ctx context.Context, res *workbook.Result, fileID int64) ([]SheetTable, error) {
	if m.Repo == nil {
		return nil, fmt.Errorf("materialize: Repo is required")
	}
	logf := m.logger()
	mb := m.metricsBackend()

	placed := make([]SheetTable, 0, len(res.Sheets))
	created := make([]string, 0, len(res.Sheets))

	for _, sr := range res.Sheets {
		name := PhysicalTableName(fileID, sr.Index, sr.Schema.TableName)
		spec := buildTableSpec(name, sr.Schema)

		createStart := time.Now()
		err := m.withRetry(ctx, "create_table", func() error {
			return m.Repo.CreateTable(ctx, spec)
		})
		if err != nil {
			m.rollback(ctx, created, logf)
			return nil, fmt.Errorf("materialize: create %s: %w", name, err)
		}
		created = append(created, name)
		mb.IncCounter(metrics.TablesCreatedTotal, 1, nil)
		logf("stage=create_table table=%s ok duration=%s", name, durMS(createStart))

		insertStart := time.Now()
		inserted, err := m.insertSheet(ctx, name, sr, fileID)
		if err != nil {
			m.rollback(ctx, created, logf)
			return nil, fmt.Errorf("materialize: load %s: %w", name, err)
		}
		logf("stage=insert table=%s ok duration=%s rows=%d", name, durMS(insertStart), inserted)
		mb.ObserveHistogram(metrics.StageDurationSeconds, time.Since(insertStart).Seconds(), metrics.Labels{"stage": "insert"})

		placed = append(placed, SheetTable{Sheet: sr.Name, Table: name, RowCount: inserted})
	}

	return placed, nil
}

// PhysicalTableName composes the per-workbook table name. The sheet's
// inferred base name keeps the composed identifier readable; the file id and
// sheet index make it unique per upload.
func PhysicalTableName(fileID int64, sheetIndex int, schemaTableName string) string {
	base := strings.TrimPrefix(schemaTableName, "t_")
	return schema.SanitizeTable(fmt.Sprintf("file_%d_sheet_%d_%s", fileID, sheetIndex, base))
}

// buildTableSpec maps an inferred sheet schema onto a physical table:
// surrogate id, the data columns, then file_id/row_index bookkeeping and
// timestamp defaults.
func buildTableSpec(name string, ts schema.TableSchema) storage.TableSpec {
	cols := make([]storage.ColumnSpec, 0, len(ts.Columns)+2)
	for _, c := range ts.Columns {
		cols = append(cols, storage.ColumnSpec{
			Name:      c.Name,
			Type:      c.Type,
			Nullable:  c.Nullable,
			MaxLength: c.MaxLength,
		})
	}
	cols = append(cols,
		storage.ColumnSpec{Name: "file_id", Type: schema.TypeInteger},
		storage.ColumnSpec{Name: "row_index", Type: schema.TypeInteger},
	)
	return storage.TableSpec{
		Name:       name,
		AutoID:     true,
		Timestamps: true,
		Columns:    cols,
	}
}

func (m *Materializer) insertSheet(ctx context.Context, tableName string, sr workbook.SheetResult, fileID int64) (int64, error) {
	columns := make([]string, 0, len(sr.Schema.Columns)+2)
	for _, c := range sr.Schema.Columns {
		columns = append(columns, c.Name)
	}
	columns = append(columns, "file_id", "row_index")

	var total int64
	rows := sr.Safe.Rows()
	for start := 0; start < rows; start += insertBatchSize {
		end := start + insertBatchSize
		if end > rows {
			end = rows
		}

		batch := make([][]any, 0, end-start)
		for r := start; r < end; r++ {
			row := make([]any, 0, len(columns))
			for ci := range sr.Safe.Columns {
				row = append(row, bindValue(sr.Safe.Columns[ci].Values[r], sr.Schema.Columns[ci].Type))
			}
			row = append(row, fileID, int64(r))
			batch = append(batch, row)
		}

		var n int64
		err := m.withRetry(ctx, "insert", func() error {
			var ierr error
			n, ierr = m.Repo.InsertRows(ctx, tableName, columns, batch)
			return ierr
		})
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// bindValue converts a cell into a driver-bindable value. Integral numbers
// headed for INTEGER columns bind as int64 so backends without column
// affinity store them exactly. Cells headed for BOOLEAN columns bind as Go
// bools: inference accepts 0/1 numbers and boolean-like strings into BOOLEAN
// columns, and drivers reject those raw kinds against a boolean target.
func bindValue(v table.Value, t schema.SQLType) any {
	if t == schema.TypeBoolean {
		if b, ok := boolFor(v); ok {
			return b
		}
	}
	switch v.Kind {
	case table.KindNull:
		return nil
	case table.KindNumber:
		if t == schema.TypeInteger {
			return int64(v.Num)
		}
		return v.Num
	case table.KindBool:
		return v.Bool
	case table.KindTime:
		return v.Time
	default:
		return v.Str
	}
}

// boolFor extracts a Go bool from a boolean-like cell. The accepted text
// forms are a superset of what inference admits into a BOOLEAN column, so
// every cell that reaches a boolean bind converts.
func boolFor(v table.Value) (bool, bool) {
	switch v.Kind {
	case table.KindBool:
		return v.Bool, true
	case table.KindNumber:
		return v.Num != 0, true
	case table.KindText:
		return table.ParseBoolLoose(v.Str)
	default:
		return false, false
	}
}

// withRetry runs fn under the configured policy. Only storage.ErrBusy is
// retried; backoff doubles per attempt starting at BaseDelay.
func (m *Materializer) withRetry(ctx context.Context, op string, fn func() error) error {
	policy := m.Retry
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, storage.ErrBusy) || attempt >= policy.MaxAttempts {
			return err
		}
		m.metricsBackend().IncCounter(metrics.RetryTotal, 1, metrics.Labels{"op": op})
		delay := policy.BaseDelay << (attempt - 1)
		if serr := sleepFn(ctx, delay); serr != nil {
			return serr
		}
	}
}

// rollback best-effort drops every table created so far. Drop failures are
// logged and swallowed; the original error is what the caller reports.
func (m *Materializer) rollback(ctx context.Context, created []string, logf func(string, ...any)) {
	for _, name := range created {
		if err := m.Repo.DropTable(ctx, name); err != nil {
			logf("stage=rollback table=%s status=error err=%v", name, err)
			continue
		}
		logf("stage=rollback table=%s status=dropped", name)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *Materializer) logger() func(format string, v ...any) {
	if m.Logger == nil {
		l := log.New(discardWriter{}, "", 0)
		return l.Printf
	}
	return m.Logger.Printf
}

func (m *Materializer) metricsBackend() metrics.Backend {
	if m.Metrics == nil {
		return metrics.Nop{}
	}
	return m.Metrics
}

func durMS(start time.Time) time.Duration { return time.Since(start).Truncate(time.Millisecond) }

type discardWriter struct{}

func (discardWriter) Write(p []byte) (n int, err error) { return len(p), nil }
