// Package profile computes per-column statistics over cleaned tables: null
// and uniqueness counts always, plus type-specific summaries (numeric
// moments, date ranges, string lengths). Profiles feed quality scoring and
// the result bundle consumed by external collaborators; nothing here mutates
// the table.
package profile

import (
	"math"
	"sort"
	"time"

	"sheetsql/internal/table"
)

// needsCleaningNullPct flags columns whose null share exceeds this percentage.
const needsCleaningNullPct = 20.0

// uniqueSampleCap bounds the distinct-value sample kept for text columns.
const uniqueSampleCap = 20

// NumericStats summarizes a numeric column. Std is the sample standard
// deviation and is nil with fewer than two values.
type NumericStats struct {
	Mean   float64  `json:"mean"`
	Median float64  `json:"median"`
	Std    *float64 `json:"std"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Count  int      `json:"count"`
}

// DateRange is the observed min/max of a datetime column.
type DateRange struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// TextStats summarizes a text/categorical column.
type TextStats struct {
	MaxLength    int      `json:"max_length"`
	AvgLength    float64  `json:"avg_length"`
	UniqueValues []string `json:"unique_values"`
}

// ColumnProfile is the read-only statistics bundle for one column, keyed by
// its sanitized name. Exactly one of Numeric, Dates, Text is set (none for an
// all-null column).
type ColumnProfile struct {
	SanitizedName  string        `json:"sanitized_name"`
	ColumnIndex    int           `json:"column_index"`
	NullCount      int           `json:"null_count"`
	NullPercentage float64       `json:"null_percentage"`
	UniqueCount    int           `json:"unique_count"`
	IsNullable     bool          `json:"is_nullable"`
	NeedsCleaning  bool          `json:"needs_cleaning"`
	Numeric        *NumericStats `json:"numeric,omitempty"`
	Dates          *DateRange    `json:"date_range,omitempty"`
	Text           *TextStats    `json:"text,omitempty"`
}

// Column profiles a single cleaned column.
func Column(c table.Column, sanitizedName string, index int) ColumnProfile {
	totalRows := len(c.Values)
	denom := totalRows
	if denom < 1 {
		denom = 1
	}

	nullCount := c.NullCount()
	nullPct := float64(nullCount) / float64(denom) * 100

	p := ColumnProfile{
		SanitizedName:  sanitizedName,
		ColumnIndex:    index,
		NullCount:      nullCount,
		NullPercentage: nullPct,
		UniqueCount:    uniqueCount(c),
		IsNullable:     nullCount > 0,
		NeedsCleaning:  nullPct > needsCleaningNullPct,
	}

	nonNull := c.NonNull()
	if len(nonNull) == 0 {
		return p
	}

	switch {
	case allKind(nonNull, table.KindNumber):
		p.Numeric = numericStats(nonNull)
	case allKind(nonNull, table.KindTime):
		p.Dates = dateRange(nonNull)
	default:
		p.Text = textStats(nonNull)
	}
	return p
}

func allKind(values []table.Value, k table.Kind) bool {
	for _, v := range values {
		if v.Kind != k {
			return false
		}
	}
	return true
}

func uniqueCount(c table.Column) int {
	seen := map[string]struct{}{}
	for _, v := range c.Values {
		if v.IsNull() {
			continue
		}
		seen[v.Kind.String()+":"+v.Render()] = struct{}{}
	}
	return len(seen)
}

func numericStats(values []table.Value) *NumericStats {
	n := len(values)
	nums := make([]float64, n)
	sum := 0.0
	min := math.Inf(1)
	max := math.Inf(-1)
	for i, v := range values {
		nums[i] = v.Num
		sum += v.Num
		if v.Num < min {
			min = v.Num
		}
		if v.Num > max {
			max = v.Num
		}
	}
	mean := sum / float64(n)

	var std *float64
	if n >= 2 {
		ss := 0.0
		for _, f := range nums {
			d := f - mean
			ss += d * d
		}
		s := math.Sqrt(ss / float64(n-1))
		std = &s
	}

	return &NumericStats{
		Mean:   mean,
		Median: median(nums),
		Std:    std,
		Min:    min,
		Max:    max,
		Count:  n,
	}
}

func median(nums []float64) float64 {
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func dateRange(values []table.Value) *DateRange {
	min := values[0].Time
	max := values[0].Time
	for _, v := range values[1:] {
		if v.Time.Before(min) {
			min = v.Time
		}
		if v.Time.After(max) {
			max = v.Time
		}
	}
	return &DateRange{Min: min, Max: max}
}

func textStats(values []table.Value) *TextStats {
	maxLen := 0
	totalLen := 0
	sample := make([]string, 0, uniqueSampleCap)
	seen := map[string]struct{}{}

	for _, v := range values {
		s := v.Render()
		if n := len(s); n > maxLen {
			maxLen = n
		}
		totalLen += len(s)

		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			if len(sample) < uniqueSampleCap {
				sample = append(sample, s)
			}
		}
	}

	return &TextStats{
		MaxLength:    maxLen,
		AvgLength:    float64(totalLen) / float64(len(values)),
		UniqueValues: sample,
	}
}
