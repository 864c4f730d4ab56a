// Package sqlite implements storage.Repository on modernc.org/sqlite.
//
// Key design points vs the postgres backend:
//   - SQLite has no native timestamp type; DATETIME columns get TEXT
//     affinity and values are stored as RFC3339Nano strings for reliable
//     round-trips with modernc.org/sqlite.
//   - Booleans are stored as INTEGER 0/1.
//   - A lock held by a concurrent writer surfaces as "database is locked";
//     those failures are wrapped with storage.ErrBusy so the materializer's
//     retry policy can tell contention apart from real errors.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"sheetsql/internal/schema"
	"sheetsql/internal/storage"
)

// Repo implements storage.Repository for SQLite.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	// A single writer at a time keeps lock contention to transient
	// busy errors instead of interleaved partial writes.
	db.SetMaxOpenConns(1)
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

// CreateTable builds and executes CREATE TABLE IF NOT EXISTS from the spec.
func (r *Repo) CreateTable(ctx context.Context, spec storage.TableSpec) error {
	ddl, err := buildCreateTableSQL(spec)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return wrapBusy(fmt.Errorf("create table %s: %w", spec.Name, err))
	}
	return nil
}

// InsertRows performs a SQLite multi-row parameterized insert.
func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	colList := make([]string, 0, len(columns))
	for _, c := range columns {
		colList = append(colList, sqlIdent(c))
	}
	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(colList, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholders)
		for _, v := range row {
			args = append(args, bindValue(v))
		}
	}

	res, err := r.db.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, wrapBusy(fmt.Errorf("insert into %s: %w", table, err))
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *Repo) DropTable(ctx context.Context, table string) error {
	if _, err := r.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+sqlIdent(table)); err != nil {
		return wrapBusy(fmt.Errorf("drop table %s: %w", table, err))
	}
	return nil
}

// Query executes a read-only statement and scans all rows generically.
func (r *Repo) Query(ctx context.Context, sqlText string) (*storage.Result, error) {
	rows, err := r.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, wrapBusy(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types := make([]string, len(cols))
	if cts, err := rows.ColumnTypes(); err == nil {
		for i, ct := range cts {
			types[i] = ct.DatabaseTypeName()
		}
	}

	out := &storage.Result{Columns: cols, Types: types, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		scan := make([]any, len(cols))
		for i := range vals {
			scan[i] = &vals[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		// TEXT can scan as []byte depending on the driver path; normalize
		// to string for JSON-friendly output.
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out.Rows = append(out.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out.RowCount = len(out.Rows)
	return out, nil
}

// sqlIdent quotes an identifier. SQLite supports "quoted identifiers".
func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// columnType maps a logical SQL type to SQLite affinity.
func columnType(t schema.SQLType) string {
	switch t {
	case schema.TypeInteger, schema.TypeBoolean:
		return "INTEGER"
	case schema.TypeFloat:
		return "REAL"
	case schema.TypeDatetime, schema.TypeText:
		return "TEXT"
	default:
		return "TEXT"
	}
}

func buildCreateTableSQL(t storage.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("table name is empty")
	}

	var parts []string
	if t.AutoID {
		// "INTEGER PRIMARY KEY" is special in sqlite: it becomes the rowid
		// and auto-generates values.
		parts = append(parts, `"id" INTEGER PRIMARY KEY AUTOINCREMENT`)
	}

	for _, c := range t.Columns {
		col := fmt.Sprintf("%s %s", sqlIdent(c.Name), columnType(c.Type))
		if !c.Nullable {
			col += " NOT NULL"
		}
		parts = append(parts, col)
	}

	if t.Timestamps {
		parts = append(parts,
			`"created_at" TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))`,
			`"updated_at" TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))`,
		)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", sqlIdent(t.Name), strings.Join(parts, ",\n  ")), nil
}

// bindValue converts pipeline values to what the sqlite driver stores
// cleanly: timestamps as RFC3339Nano UTC strings, booleans as 0/1.
func bindValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	default:
		return v
	}
}

// wrapBusy tags transient lock contention with storage.ErrBusy.
func wrapBusy(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database table is locked") {
		return fmt.Errorf("%w: %v", storage.ErrBusy, err)
	}
	return err
}
