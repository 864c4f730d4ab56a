package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"sheetsql/internal/schema"
	"sheetsql/internal/storage"
)

func intp(n int) *int { return &n }

// TestBuildCreateTableSQL verifies Postgres DDL assembly.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	spec := storage.TableSpec{
		Name:       "file_2_sheet_1_refunds",
		AutoID:     true,
		Timestamps: true,
		Columns: []storage.ColumnSpec{
			{Name: "reason", Type: schema.TypeText, Nullable: true, MaxLength: intp(120)},
			{Name: "note", Type: schema.TypeText, Nullable: true},
			{Name: "amount", Type: schema.TypeFloat},
			{Name: "approved", Type: schema.TypeBoolean},
			{Name: "when", Type: schema.TypeDatetime, Nullable: true},
			{Name: "file_id", Type: schema.TypeInteger},
		},
	}

	ddl, err := buildCreateTableSQL(spec)
	if err != nil {
		t.Fatalf("buildCreateTableSQL err=%v", err)
	}

	wantFragments := []string{
		`CREATE TABLE IF NOT EXISTS "file_2_sheet_1_refunds"`,
		`"id" BIGSERIAL PRIMARY KEY`,
		`"reason" VARCHAR(120)`,
		`"note" TEXT`,
		`"amount" DOUBLE PRECISION NOT NULL`,
		`"approved" BOOLEAN NOT NULL`,
		`"when" TIMESTAMPTZ`,
		`"file_id" BIGINT NOT NULL`,
		`"created_at" TIMESTAMPTZ NOT NULL DEFAULT now()`,
		`"updated_at" TIMESTAMPTZ NOT NULL DEFAULT now()`,
	}
	for _, frag := range wantFragments {
		if !strings.Contains(ddl, frag) {
			t.Fatalf("ddl missing %q:\n%s", frag, ddl)
		}
	}
}

// TestBuildInsertSQL verifies placeholder numbering across rows.
func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	sqlText, args := buildInsertSQL("tbl", []string{"a", "b"}, [][]any{
		{1, "x"},
		{2, "y"},
	})

	want := `INSERT INTO "tbl" ("a", "b") VALUES ($1, $2), ($3, $4)`
	if sqlText != want {
		t.Fatalf("sql=%q, want %q", sqlText, want)
	}
	if len(args) != 4 || args[0] != 1 || args[3] != "y" {
		t.Fatalf("args=%v", args)
	}
}

// TestWrapBusy verifies only transient SQLSTATEs map to storage.ErrBusy.
func TestWrapBusy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code string
		busy bool
	}{
		{name: "lock_not_available", code: "55P03", busy: true},
		{name: "deadlock_detected", code: "40P01", busy: true},
		{name: "serialization_failure", code: "40001", busy: true},
		{name: "undefined_table", code: "42P01", busy: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := wrapBusy(&pgconn.PgError{Code: tc.code, Message: tc.name})
			if got := errors.Is(err, storage.ErrBusy); got != tc.busy {
				t.Fatalf("busy=%v, want %v (%v)", got, tc.busy, err)
			}
		})
	}

	if wrapBusy(nil) != nil {
		t.Fatalf("wrapBusy(nil) != nil")
	}
	plain := errors.New("conn refused")
	if got := wrapBusy(plain); got != plain {
		t.Fatalf("plain error rewritten: %v", got)
	}
}

// TestTypeNameForOID verifies the OID tag mapping and its fallback.
func TestTypeNameForOID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		oid  uint32
		want string
	}{
		{16, "BOOLEAN"},
		{20, "INTEGER"},
		{23, "INTEGER"},
		{701, "FLOAT"},
		{1700, "FLOAT"},
		{25, "TEXT"},
		{1043, "TEXT"},
		{1184, "DATETIME"},
		{3802, "OID(3802)"},
	}
	for _, tc := range tests {
		if got := typeNameForOID(tc.oid); got != tc.want {
			t.Fatalf("typeNameForOID(%d)=%q, want %q", tc.oid, got, tc.want)
		}
	}
}
