package table

import (
	"testing"
	"time"
)

// TestValueRender verifies deterministic rendering per kind.
func TestValueRender(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{name: "null", v: Null(), want: ""},
		{name: "integer_number", v: Number(42), want: "42"},
		{name: "float_number", v: Number(2.5), want: "2.5"},
		{name: "text", v: Text("hello"), want: "hello"},
		{name: "bool", v: Boolean(true), want: "true"},
		{name: "time", v: Time(ts), want: "2024-02-03T04:05:06Z"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.v.Render(); got != tc.want {
				t.Fatalf("Render()=%q, want %q", got, tc.want)
			}
		})
	}
}

// TestValueEqual verifies kind-aware equality, including time instants
// across locations.
func TestValueEqual(t *testing.T) {
	t.Parallel()

	utc := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	shifted := utc.In(time.FixedZone("X", 3600))

	if !Time(utc).Equal(Time(shifted)) {
		t.Fatalf("same instant in different zones compared unequal")
	}
	if Number(1).Equal(Text("1")) {
		t.Fatalf("number 1 equals text 1")
	}
	if !Null().Equal(Null()) {
		t.Fatalf("nulls compare unequal")
	}
}

// TestTableClone verifies clones share nothing with the source.
func TestTableClone(t *testing.T) {
	t.Parallel()

	src := Table{Columns: []Column{
		{Name: "a", Values: []Value{Text("x"), Text("y")}},
	}}

	c := src.Clone()
	c.Columns[0].Name = "renamed"
	c.Columns[0].Values[0] = Null()

	if src.Columns[0].Name != "a" || src.Columns[0].Values[0].Str != "x" {
		t.Fatalf("clone mutated source: %+v", src.Columns[0])
	}
}

// TestTableKeepRows verifies row filtering across columns.
func TestTableKeepRows(t *testing.T) {
	t.Parallel()

	src := Table{Columns: []Column{
		{Name: "a", Values: []Value{Text("r0"), Text("r1"), Text("r2")}},
		{Name: "b", Values: []Value{Number(0), Number(1), Number(2)}},
	}}

	got := src.KeepRows([]bool{true, false, true})

	if got.Rows() != 2 {
		t.Fatalf("rows=%d, want 2", got.Rows())
	}
	if got.Columns[0].Values[1].Str != "r2" || got.Columns[1].Values[1].Num != 2 {
		t.Fatalf("kept wrong rows: %+v", got.Columns)
	}
	if src.Rows() != 3 {
		t.Fatalf("KeepRows mutated the source")
	}
}

// TestTableRename verifies header mapping leaves unmapped names alone.
func TestTableRename(t *testing.T) {
	t.Parallel()

	src := Table{Columns: []Column{
		{Name: "Name"},
		{Name: "Other"},
	}}

	got := src.Rename(map[string]string{"Name": "name"})

	if got.Columns[0].Name != "name" || got.Columns[1].Name != "Other" {
		t.Fatalf("renamed=%v", got.ColumnNames())
	}
	if src.Columns[0].Name != "Name" {
		t.Fatalf("Rename mutated the source")
	}
}

// TestParseNumber verifies the loose numeric parser.
func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{in: "42", want: 42, ok: true},
		{in: " 2.5 ", want: 2.5, ok: true},
		{in: "-1e3", want: -1000, ok: true},
		{in: "", ok: false},
		{in: "N/A", ok: false},
		{in: "12x", ok: false},
	}
	for _, tc := range tests {
		got, ok := ParseNumber(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("ParseNumber(%q)=(%v,%v), want (%v,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

// TestParseBoolLoose verifies accepted encodings.
func TestParseBoolLoose(t *testing.T) {
	t.Parallel()

	truthy := []string{"1", "t", "TRUE", " yes ", "Y"}
	falsy := []string{"0", "f", "False", "no", "N"}
	for _, s := range truthy {
		if v, ok := ParseBoolLoose(s); !ok || !v {
			t.Fatalf("ParseBoolLoose(%q)=(%v,%v), want true", s, v, ok)
		}
	}
	for _, s := range falsy {
		if v, ok := ParseBoolLoose(s); !ok || v {
			t.Fatalf("ParseBoolLoose(%q)=(%v,%v), want false", s, v, ok)
		}
	}
	if _, ok := ParseBoolLoose("maybe"); ok {
		t.Fatalf("ParseBoolLoose accepted maybe")
	}
}

// TestParseTimeLoose verifies layout coverage and that dates win over
// timestamps.
func TestParseTimeLoose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{in: "2024-03-05", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "05.03.2024", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "2024-03-05 10:20:30", want: time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC), ok: true},
		{in: "2024-03-05T10:20:30", want: time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC), ok: true},
		{in: "not a date", ok: false},
		{in: "", ok: false},
	}
	for _, tc := range tests {
		got, _, ok := ParseTimeLoose(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParseTimeLoose(%q) ok=%v, want %v", tc.in, ok, tc.ok)
		}
		if ok && !got.Equal(tc.want) {
			t.Fatalf("ParseTimeLoose(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}
