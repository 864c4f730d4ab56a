package schema

import "sheetsql/internal/table"

// ColumnSchema describes one inferred column. Name is the sanitized,
// collision-free identifier; OriginalName is the header as it appeared in
// the sheet after cleaning.
type ColumnSchema struct {
	Name         string  `json:"name"`
	OriginalName string  `json:"original_name"`
	Position     int     `json:"position"`
	Type         SQLType `json:"type"`
	Nullable     bool    `json:"nullable"`
	Confidence   float64 `json:"confidence"`
	MaxLength    *int    `json:"max_length,omitempty"`
}

// TableSchema is the inferred relational shape of one sheet. TableName is a
// sanitized base name; the materializer disambiguates it per workbook and
// sheet before any DDL runs.
type TableSchema struct {
	TableName string         `json:"table_name"`
	Columns   []ColumnSchema `json:"columns"`
}

// Infer builds the TableSchema for a cleaned sheet. mappings must come from
// BuildColumnMappings over the same table so sanitized names line up with
// column positions.
func Infer(t table.Table, sheetName string, mappings []ColumnMapping) TableSchema {
	cols := make([]ColumnSchema, 0, t.Cols())
	for i, c := range t.Columns {
		inf := InferColumn(c)
		sanitized := ""
		if i < len(mappings) {
			sanitized = mappings[i].Sanitized
		} else {
			sanitized = SanitizeColumn(c.Name)
		}
		cols = append(cols, ColumnSchema{
			Name:         sanitized,
			OriginalName: c.Name,
			Position:     i,
			Type:         inf.Type,
			Nullable:     inf.Nullable,
			Confidence:   inf.Confidence,
			MaxLength:    inf.MaxLength,
		})
	}
	return TableSchema{
		TableName: TableNameFor(sheetName),
		Columns:   cols,
	}
}
