// Package storage defines the backend-agnostic repository interface the
// materializer and query path run against, plus the factory registry that
// backend packages hook into from init().
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"sheetsql/internal/schema"
)

// ErrBusy marks a transient lock/busy failure from the storage engine.
// Backends wrap contention errors with this sentinel; the materializer
// retries only errors satisfying errors.Is(err, ErrBusy). Anything else is
// treated as fatal.
var ErrBusy = errors.New("storage: busy")

// Config selects and configures a backend.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is
//     backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// TableSpec is the backend-agnostic shape of a physical table. Column types
// are the logical schema.SQLType values; each backend maps them to its own
// dialect.
type TableSpec struct {
	Name string
	// AutoID emits a surrogate integer primary key named "id".
	AutoID bool
	// Timestamps emits created_at/updated_at columns defaulted to now.
	Timestamps bool
	Columns    []ColumnSpec
}

// ColumnSpec is one column of a TableSpec.
type ColumnSpec struct {
	Name     string
	Type     schema.SQLType
	Nullable bool
	// MaxLength bounds TEXT columns on backends with sized string types.
	MaxLength *int
}

// Result is the outcome of a read query: rows plus per-column type tags.
type Result struct {
	Columns  []string `json:"columns"`
	Types    []string `json:"types"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"row_count"`
}

// Repository is the minimal surface the ingestion pipeline needs. Each
// backend implements these semantics in its own idiomatic way (sqlite
// "?" placeholders and text timestamps, postgres "$n" and native types).
type Repository interface {
	// Close releases backend resources. Call once at shutdown.
	Close()

	// CreateTable creates the physical table if it does not already exist.
	CreateTable(ctx context.Context, spec TableSpec) error

	// InsertRows bulk-inserts rows; every row must align with columns.
	// Inserts are parameterized, never string-formatted.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// DropTable removes a table, tolerating its absence. Used for
	// rollback of partially materialized workbooks.
	DropTable(ctx context.Context, table string) error

	// Query runs an already-sanitized read-only statement and returns
	// rows with per-column type tags.
	Query(ctx context.Context, sqlText string) (*Result, error)
}

// ---- backend factories ----

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "sqlite", "postgres").
// Called from an init() in each backend package.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered. Failing fast avoids ambiguous backend
//     selection.
func Register(kind string, f factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
//
// Errors:
//   - If cfg.Kind is empty or not registered.
//   - Whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing Kind")
	}

	factoriesMu.RLock()
	f := factories[cfg.Kind]
	factoriesMu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
