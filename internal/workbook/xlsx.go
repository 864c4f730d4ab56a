package workbook

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX loads every worksheet of an Excel file, in workbook order.
// Chart-only and hidden sheets still appear; sheets with no cells become
// empty tables and are skipped by the processor's per-sheet loop only when
// they have no columns at all.
func ReadXLSX(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("workbook: open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	wb := &Workbook{Name: filepath.Base(path)}
	for _, name := range f.GetSheetList() {
		records, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("workbook: read sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{
			Name: name,
			Data: tableFromRecords(records),
		})
	}

	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("workbook: %s has no sheets", filepath.Base(path))
	}
	return wb, nil
}
