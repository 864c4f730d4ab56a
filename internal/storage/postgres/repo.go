// Package postgres implements storage.Repository on jackc/pgx/v5.
//
// Differences from the sqlite backend:
//   - Placeholders are $1..$n, not ?.
//   - DATETIME maps to TIMESTAMPTZ and timestamps are bound natively.
//   - Lock contention surfaces as SQLSTATE 55P03/40P01/40001; those are
//     wrapped with storage.ErrBusy for the materializer's retry policy.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"sheetsql/internal/schema"
	"sheetsql/internal/storage"
)

// Repo implements storage.Repository for Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Close() { r.pool.Close() }

func (r *Repo) CreateTable(ctx context.Context, spec storage.TableSpec) error {
	ddl, err := buildCreateTableSQL(spec)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return wrapBusy(fmt.Errorf("create table %s: %w", spec.Name, err))
	}
	return nil
}

func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	sqlText, args := buildInsertSQL(table, columns, rows)
	cmd, err := r.pool.Exec(ctx, sqlText, args...)
	if err != nil {
		return 0, wrapBusy(fmt.Errorf("insert into %s: %w", table, err))
	}
	return cmd.RowsAffected(), nil
}

func (r *Repo) DropTable(ctx context.Context, table string) error {
	if _, err := r.pool.Exec(ctx, "DROP TABLE IF EXISTS "+pgIdent(table)); err != nil {
		return wrapBusy(fmt.Errorf("drop table %s: %w", table, err))
	}
	return nil
}

func (r *Repo) Query(ctx context.Context, sqlText string) (*storage.Result, error) {
	rows, err := r.pool.Query(ctx, sqlText)
	if err != nil {
		return nil, wrapBusy(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	types := make([]string, len(fields))
	for i, fd := range fields {
		cols[i] = fd.Name
		types[i] = typeNameForOID(fd.DataTypeOID)
	}

	out := &storage.Result{Columns: cols, Types: types, Rows: [][]any{}}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		out.Rows = append(out.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out.RowCount = len(out.Rows)
	return out, nil
}

// pgIdent quotes a Postgres identifier.
func pgIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// columnType maps a logical SQL type to the Postgres dialect. TEXT columns
// with a known bound become sized varchars.
func columnType(c storage.ColumnSpec) string {
	switch c.Type {
	case schema.TypeInteger:
		return "BIGINT"
	case schema.TypeFloat:
		return "DOUBLE PRECISION"
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeDatetime:
		return "TIMESTAMPTZ"
	default:
		if c.MaxLength != nil && *c.MaxLength > 0 {
			return fmt.Sprintf("VARCHAR(%d)", *c.MaxLength)
		}
		return "TEXT"
	}
}

func buildCreateTableSQL(t storage.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("table name is empty")
	}

	var parts []string
	if t.AutoID {
		parts = append(parts, `"id" BIGSERIAL PRIMARY KEY`)
	}
	for _, c := range t.Columns {
		col := fmt.Sprintf("%s %s", pgIdent(c.Name), columnType(c))
		if !c.Nullable {
			col += " NOT NULL"
		}
		parts = append(parts, col)
	}
	if t.Timestamps {
		parts = append(parts,
			`"created_at" TIMESTAMPTZ NOT NULL DEFAULT now()`,
			`"updated_at" TIMESTAMPTZ NOT NULL DEFAULT now()`,
		)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", pgIdent(t.Name), strings.Join(parts, ",\n  ")), nil
}

// buildInsertSQL constructs a single multi-row INSERT and its args.
//
// It is pure and deterministic so placeholder numbering can be unit tested
// without a database.
func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}
	return b.String(), args
}

// transientStates are SQLSTATEs worth retrying: lock_not_available,
// deadlock_detected, serialization_failure.
var transientStates = map[string]bool{
	"55P03": true,
	"40P01": true,
	"40001": true,
}

func wrapBusy(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && transientStates[pgErr.Code] {
		return fmt.Errorf("%w: %v", storage.ErrBusy, err)
	}
	return err
}

// typeNameForOID maps the common result-column OIDs to readable type tags.
// Unknown OIDs fall back to the numeric form.
func typeNameForOID(oid uint32) string {
	switch oid {
	case 16:
		return "BOOLEAN"
	case 20, 21, 23:
		return "INTEGER"
	case 700, 701, 1700:
		return "FLOAT"
	case 25, 1043:
		return "TEXT"
	case 1114, 1184:
		return "DATETIME"
	default:
		return fmt.Sprintf("OID(%d)", oid)
	}
}
