package schema

import (
	"testing"
	"time"

	"sheetsql/internal/table"
)

func valuesOf(cells ...table.Value) table.Column {
	return table.Column{Name: "c", Values: cells}
}

// TestInferColumn verifies the type decision order and confidences.
func TestInferColumn(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		col      table.Column
		wantType SQLType
		wantConf float64
		nullable bool
	}{
		{
			name:     "booleans_win_over_numbers",
			col:      valuesOf(table.Text("1"), table.Text("0"), table.Text("1")),
			wantType: TypeBoolean,
			wantConf: 1.0,
		},
		{
			name:     "true_false_strings",
			col:      valuesOf(table.Text("TRUE"), table.Text("false")),
			wantType: TypeBoolean,
			wantConf: 1.0,
		},
		{
			name:     "integers",
			col:      valuesOf(table.Number(1), table.Number(2), table.Number(42)),
			wantType: TypeInteger,
			wantConf: 1.0,
		},
		{
			name:     "floats",
			col:      valuesOf(table.Number(1), table.Number(2.5)),
			wantType: TypeFloat,
			wantConf: 0.95,
		},
		{
			name:     "numeric_text_parses",
			col:      valuesOf(table.Text("10"), table.Text("20")),
			wantType: TypeInteger,
			wantConf: 1.0,
		},
		{
			name:     "datetimes",
			col:      valuesOf(table.Time(ts), table.Text("2024-03-02")),
			wantType: TypeDatetime,
			wantConf: 0.9,
		},
		{
			name:     "mixed_falls_to_text",
			col:      valuesOf(table.Text("abc"), table.Number(1)),
			wantType: TypeText,
			wantConf: 0.8,
		},
		{
			name:     "three_distinct_zero_ones_are_not_boolean",
			col:      valuesOf(table.Text("0"), table.Text("1"), table.Text("2")),
			wantType: TypeInteger,
			wantConf: 1.0,
		},
		{
			name:     "nulls_do_not_change_type",
			col:      valuesOf(table.Number(1), table.Null(), table.Number(2)),
			wantType: TypeInteger,
			wantConf: 1.0,
			nullable: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := InferColumn(tc.col)
			if got.Type != tc.wantType {
				t.Fatalf("type=%s, want %s", got.Type, tc.wantType)
			}
			if got.Confidence != tc.wantConf {
				t.Fatalf("confidence=%v, want %v", got.Confidence, tc.wantConf)
			}
			if got.Nullable != tc.nullable {
				t.Fatalf("nullable=%v, want %v", got.Nullable, tc.nullable)
			}
		})
	}
}

// TestInferColumn_EmptyAndAllNull verifies the TEXT/nullable fallback with
// zero confidence.
func TestInferColumn_EmptyAndAllNull(t *testing.T) {
	t.Parallel()

	for _, col := range []table.Column{
		valuesOf(),
		valuesOf(table.Null(), table.Null()),
	} {
		got := InferColumn(col)
		if got.Type != TypeText || !got.Nullable || got.Confidence != 0 {
			t.Fatalf("empty column inference=%+v, want TEXT/nullable/conf 0", got)
		}
		if got.MaxLength != nil {
			t.Fatalf("empty column MaxLength=%v, want nil", *got.MaxLength)
		}
	}
}

// TestInferColumn_TextMaxLength verifies the 1000-byte cap.
func TestInferColumn_TextMaxLength(t *testing.T) {
	t.Parallel()

	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	got := InferColumn(valuesOf(table.Text("short"), table.Text(string(long))))
	if got.Type != TypeText {
		t.Fatalf("type=%s, want TEXT", got.Type)
	}
	if got.MaxLength == nil || *got.MaxLength != 1000 {
		t.Fatalf("MaxLength=%v, want 1000", got.MaxLength)
	}
}

// TestInfer verifies schema assembly keeps positions and sanitized names
// aligned with the mappings.
func TestInfer(t *testing.T) {
	t.Parallel()

	tab := table.Table{Columns: []table.Column{
		{Name: "Name", Values: []table.Value{table.Text("a")}},
		{Name: "Count", Values: []table.Value{table.Number(3)}},
	}}
	mappings := BuildColumnMappings(tab.ColumnNames())

	got := Infer(tab, "Q1 Sales", mappings)

	if got.TableName != "q1_sales" {
		t.Fatalf("table=%q, want q1_sales", got.TableName)
	}
	if len(got.Columns) != 2 {
		t.Fatalf("columns=%d, want 2", len(got.Columns))
	}
	if got.Columns[0].Name != "name" || got.Columns[0].OriginalName != "Name" || got.Columns[0].Position != 0 {
		t.Fatalf("column 0 = %+v", got.Columns[0])
	}
	if got.Columns[1].Type != TypeInteger {
		t.Fatalf("column 1 type=%s, want INTEGER", got.Columns[1].Type)
	}
}
