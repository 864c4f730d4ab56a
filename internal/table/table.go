package table

// Column is one named, ordered sequence of cells.
type Column struct {
	Name   string
	Values []Value
}

// Table is an ordered sequence of columns, all the same length.
//
// A Table read from a worksheet is treated as immutable input; the cleaner
// always works on a deep copy (see Clone).
type Table struct {
	Columns []Column
}

// Rows returns the row count. Columns are kept equal-length by construction,
// so the first column is authoritative.
func (t Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Cols returns the column count.
func (t Table) Cols() int { return len(t.Columns) }

// Clone returns a deep copy. Cell values are plain scalars, so copying the
// backing slices is enough.
func (t Table) Clone() Table {
	out := Table{Columns: make([]Column, len(t.Columns))}
	for i, c := range t.Columns {
		vals := make([]Value, len(c.Values))
		copy(vals, c.Values)
		out.Columns[i] = Column{Name: c.Name, Values: vals}
	}
	return out
}

// Row materializes row i across all columns. Out-of-range cells (ragged
// input that slipped past the reader) come back as null.
func (t Table) Row(i int) []Value {
	out := make([]Value, len(t.Columns))
	for j, c := range t.Columns {
		if i < len(c.Values) {
			out[j] = c.Values[i]
		}
	}
	return out
}

// ColumnNames returns the header row in column order.
func (t Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Rename returns a copy of the table with columns renamed through mapping.
// Names absent from the mapping are kept as-is.
func (t Table) Rename(mapping map[string]string) Table {
	out := t.Clone()
	for i := range out.Columns {
		if n, ok := mapping[out.Columns[i].Name]; ok {
			out.Columns[i].Name = n
		}
	}
	return out
}

// KeepRows returns a copy of the table holding only the rows whose index is
// true in keep. Used by the cleaner for row drops and de-duplication.
func (t Table) KeepRows(keep []bool) Table {
	out := Table{Columns: make([]Column, len(t.Columns))}
	for i, c := range t.Columns {
		vals := make([]Value, 0, len(c.Values))
		for r, v := range c.Values {
			if r < len(keep) && keep[r] {
				vals = append(vals, v)
			}
		}
		out.Columns[i] = Column{Name: c.Name, Values: vals}
	}
	return out
}

// NonNull returns the column's non-null cells in order.
func (c Column) NonNull() []Value {
	out := make([]Value, 0, len(c.Values))
	for _, v := range c.Values {
		if !v.IsNull() {
			out = append(out, v)
		}
	}
	return out
}

// NullCount returns how many cells are null.
func (c Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsNull() {
			n++
		}
	}
	return n
}
