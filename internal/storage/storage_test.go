package storage

import (
	"context"
	"strings"
	"testing"
)

type nopRepo struct{}

func (nopRepo) Close()                                           {}
func (nopRepo) CreateTable(context.Context, TableSpec) error     { return nil }
func (nopRepo) DropTable(context.Context, string) error          { return nil }
func (nopRepo) Query(context.Context, string) (*Result, error)   { return &Result{}, nil }
func (nopRepo) InsertRows(context.Context, string, []string, [][]any) (int64, error) {
	return 0, nil
}

func nopFactory(ctx context.Context, cfg Config) (Repository, error) {
	return nopRepo{}, nil
}

func mustPanic(t *testing.T, wantSub string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q", wantSub)
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, wantSub) {
			t.Fatalf("panic=%v, want substring %q", r, wantSub)
		}
	}()
	fn()
}

// TestRegisterAndNew verifies factory registration and lookup.
func TestRegisterAndNew(t *testing.T) {
	Register("memtest", nopFactory)

	repo, err := New(context.Background(), Config{Kind: "memtest"})
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	if _, ok := repo.(nopRepo); !ok {
		t.Fatalf("repo=%T, want nopRepo", repo)
	}
}

// TestRegister_Panics verifies the fail-fast paths.
func TestRegister_Panics(t *testing.T) {
	mustPanic(t, "empty kind", func() { Register("", nopFactory) })
	mustPanic(t, "nil factory", func() { Register("memtest2", nil) })

	Register("memtest3", nopFactory)
	mustPanic(t, "already registered", func() { Register("memtest3", nopFactory) })
}

// TestNew_Errors verifies missing and unknown kinds fail without panicking.
func TestNew_Errors(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("New with empty kind succeeded")
	}
	if _, err := New(context.Background(), Config{Kind: "no-such-backend"}); err == nil {
		t.Fatalf("New with unknown kind succeeded")
	}
}
