package workbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadCSV loads a CSV file as a one-sheet workbook. The sheet takes the
// file's base name without extension.
//
// Parsing is lenient: quotes are lazy and records may have uneven field
// counts (ragged rows are padded with nulls by tableFromRecords).
func ReadCSV(path string) (*Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("workbook: open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records := make([][]string, 0, 1024)
	for {
		rec, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("workbook: parse %s: %w", filepath.Base(path), err)
		}
		records = append(records, rec)
	}

	base := filepath.Base(path)
	sheetName := strings.TrimSuffix(base, filepath.Ext(base))
	return &Workbook{
		Name: base,
		Sheets: []Sheet{
			{Name: sheetName, Data: tableFromRecords(records)},
		},
	}, nil
}
