package workbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"sheetsql/internal/table"
)

// TestTableFromRecords verifies grid assembly from raw records.
//
// Edge cases:
//   - ragged rows pad with nulls
//   - empty and whitespace cells become nulls
//   - width is the max over all records, headers included
func TestTableFromRecords(t *testing.T) {
	t.Parallel()

	got := tableFromRecords([][]string{
		{"a", "b"},
		{"1", "2", "3"},
		{"4"},
		{"", "  "},
	})

	if got.Cols() != 3 || got.Rows() != 3 {
		t.Fatalf("shape=%dx%d, want 3 cols x 3 rows", got.Cols(), got.Rows())
	}
	if got.Columns[0].Name != "a" || got.Columns[2].Name != "" {
		t.Fatalf("headers=%v", got.ColumnNames())
	}

	if got.Columns[2].Values[0].Str != "3" {
		t.Fatalf("cell (0,2)=%v", got.Columns[2].Values[0])
	}
	if !got.Columns[1].Values[1].IsNull() || !got.Columns[2].Values[1].IsNull() {
		t.Fatalf("ragged row not padded with nulls")
	}
	if !got.Columns[0].Values[2].IsNull() || !got.Columns[1].Values[2].IsNull() {
		t.Fatalf("blank cells should be nulls")
	}
}

func TestTableFromRecords_Empty(t *testing.T) {
	t.Parallel()

	if got := tableFromRecords(nil); got.Cols() != 0 {
		t.Fatalf("nil records produced %d columns", got.Cols())
	}
	if got := tableFromRecords([][]string{}); got.Cols() != 0 {
		t.Fatalf("empty records produced %d columns", got.Cols())
	}
}

// TestReadCSV verifies the single-sheet normalization of CSV files.
func TestReadCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "orders.csv")
	data := "name,amount\nwidget,10\ngadget,20\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	wb, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV err=%v", err)
	}

	if wb.Name != "orders.csv" {
		t.Fatalf("name=%q", wb.Name)
	}
	if len(wb.Sheets) != 1 || wb.Sheets[0].Name != "orders" {
		t.Fatalf("sheets=%v", wb.Sheets)
	}
	tab := wb.Sheets[0].Data
	if tab.Cols() != 2 || tab.Rows() != 2 {
		t.Fatalf("shape=%dx%d, want 2x2", tab.Cols(), tab.Rows())
	}
	if tab.Columns[1].Values[1].Kind != table.KindText || tab.Columns[1].Values[1].Str != "20" {
		t.Fatalf("cell=%v, want raw text 20", tab.Columns[1].Values[1])
	}
}

// TestReadXLSX round-trips a two-sheet Excel file: sheets arrive in workbook
// order, the first record row becomes the header, and empty cells (including
// trailing cells GetRows drops from ragged rows) become nulls.
func TestReadXLSX(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Orders"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	if err := f.SetSheetRow("Orders", "A1", &[]any{"id", "amount", "note"}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := f.SetSheetRow("Orders", "A2", &[]any{1, 9.5, "first"}); err != nil {
		t.Fatalf("write row: %v", err)
	}
	// Short row: amount and note cells never written.
	if err := f.SetSheetRow("Orders", "A3", &[]any{2}); err != nil {
		t.Fatalf("write row: %v", err)
	}
	if _, err := f.NewSheet("Refunds"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	if err := f.SetSheetRow("Refunds", "A1", &[]any{"order_id"}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := f.SetSheetRow("Refunds", "A2", &[]any{7}); err != nil {
		t.Fatalf("write row: %v", err)
	}

	path := filepath.Join(t.TempDir(), "orders.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}

	wb, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile err=%v", err)
	}

	if wb.Name != "orders.xlsx" {
		t.Fatalf("name=%q", wb.Name)
	}
	if len(wb.Sheets) != 2 || wb.Sheets[0].Name != "Orders" || wb.Sheets[1].Name != "Refunds" {
		t.Fatalf("sheets out of order: %v", wb.Sheets)
	}

	orders := wb.Sheets[0].Data
	if orders.Cols() != 3 || orders.Rows() != 2 {
		t.Fatalf("shape=%dx%d, want 3 cols x 2 rows", orders.Cols(), orders.Rows())
	}
	if got := orders.ColumnNames(); got[0] != "id" || got[1] != "amount" || got[2] != "note" {
		t.Fatalf("headers=%v", got)
	}
	if v := orders.Columns[1].Values[0]; v.Kind != table.KindText || v.Str != "9.5" {
		t.Fatalf("cell (0,1)=%v, want raw text 9.5", v)
	}
	if !orders.Columns[1].Values[1].IsNull() || !orders.Columns[2].Values[1].IsNull() {
		t.Fatalf("empty cells should be nulls: %v", orders.Row(1))
	}

	refunds := wb.Sheets[1].Data
	if refunds.Cols() != 1 || refunds.Rows() != 1 {
		t.Fatalf("refunds shape=%dx%d, want 1x1", refunds.Cols(), refunds.Rows())
	}
	if v := refunds.Columns[0].Values[0]; v.Str != "7" {
		t.Fatalf("refunds cell=%v", v)
	}
}

// TestReadFile_UnsupportedExtension verifies the dispatch error.
func TestReadFile_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	if _, err := ReadFile("workbook.pdf"); err == nil {
		t.Fatalf("pdf accepted")
	}
}
