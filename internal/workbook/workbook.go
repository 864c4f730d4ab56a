// Package workbook reads spreadsheet files and turns every sheet into a
// cleaned, profiled, schema-bearing result bundle ready for materialization.
package workbook

import (
	"fmt"
	"path/filepath"
	"strings"

	"sheetsql/internal/table"
)

// Sheet is one raw worksheet: the name as it appears in the file and its
// cell grid as a text table. Empty cells arrive as nulls; all typing happens
// downstream in the cleaner.
type Sheet struct {
	Name string
	Data table.Table
}

// Workbook is the raw input bundle. A single-table source (CSV) is
// normalized into a one-sheet workbook.
type Workbook struct {
	Name   string
	Sheets []Sheet
}

// ReadFile dispatches on the file extension.
func ReadFile(path string) (*Workbook, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	case ".csv":
		return ReadCSV(path)
	default:
		return nil, fmt.Errorf("workbook: unsupported file type %q", filepath.Ext(path))
	}
}

// tableFromRecords builds a raw table from a header row plus data rows.
// Ragged rows are padded with nulls; cells beyond the widest row never
// occur because width is the max across all records. Empty cells become
// nulls, everything else stays text.
func tableFromRecords(records [][]string) table.Table {
	if len(records) == 0 {
		return table.Table{}
	}

	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	if width == 0 {
		return table.Table{}
	}

	header := records[0]
	cols := make([]table.Column, width)
	for i := range cols {
		name := ""
		if i < len(header) {
			name = header[i]
		}
		cols[i] = table.Column{
			Name:   name,
			Values: make([]table.Value, 0, len(records)-1),
		}
	}

	for _, rec := range records[1:] {
		for i := range cols {
			cell := ""
			if i < len(rec) {
				cell = rec[i]
			}
			if strings.TrimSpace(cell) == "" {
				cols[i].Values = append(cols[i].Values, table.Null())
			} else {
				cols[i].Values = append(cols[i].Values, table.Text(cell))
			}
		}
	}

	return table.Table{Columns: cols}
}
