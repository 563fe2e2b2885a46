// Package profiling describes the columns of a dataset: what kind of values
// they hold, how complete they are, and summary statistics for numeric ones.
package profiling

import (
	"strconv"
	"strings"

	"reportai/internal/summarizer"
)

// Kind is the inferred value kind of a column
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindDate    Kind = "date"
	KindText    Kind = "text"
	KindEmpty   Kind = "empty"
)

// kindThreshold is the share of non-empty cells that must parse for a
// column to be typed numeric or date.
const kindThreshold = 0.9

// ColumnProfile describes one column
type ColumnProfile struct {
	Index    int               `json:"index"`
	Name     string            `json:"name"`
	Roles    []summarizer.Role `json:"roles"`
	Kind     Kind              `json:"kind"`
	Missing  int               `json:"missing"`
	Distinct int               `json:"distinct"`
	Numeric  *NumericSummary   `json:"numeric,omitempty"`
}

// DatasetProfile describes a whole dataset
type DatasetProfile struct {
	Rows         int             `json:"rows"`
	Columns      []ColumnProfile `json:"columns"`
	Completeness float64         `json:"completeness"`
}

// Profile inspects every column of ds. Cells missing from short rows count
// as missing.
func Profile(ds summarizer.Dataset) DatasetProfile {
	profile := DatasetProfile{
		Rows:         ds.RowCount(),
		Columns:      make([]ColumnProfile, 0, ds.ColumnCount()),
		Completeness: 1,
	}

	totalMissing := 0
	for i, header := range ds.Headers {
		col := profileColumn(ds, i, header)
		totalMissing += col.Missing
		profile.Columns = append(profile.Columns, col)
	}

	if cells := ds.RowCount() * ds.ColumnCount(); cells > 0 {
		profile.Completeness = 1 - float64(totalMissing)/float64(cells)
	}
	return profile
}

func profileColumn(ds summarizer.Dataset, index int, header string) ColumnProfile {
	col := ColumnProfile{
		Index: index,
		Name:  header,
		Roles: summarizer.RolesOf(header),
	}
	if col.Roles == nil {
		col.Roles = []summarizer.Role{}
	}

	distinct := make(map[string]struct{})
	var numbers []float64
	present, dates := 0, 0

	for _, row := range ds.Rows {
		cell := strings.TrimSpace(ds.Cell(row, index))
		if cell == "" {
			col.Missing++
			continue
		}
		present++
		distinct[cell] = struct{}{}

		if _, ok := summarizer.ParseDate(cell); ok {
			dates++
			continue
		}
		if v, ok := parseNumericCell(cell); ok {
			numbers = append(numbers, v)
		}
	}
	col.Distinct = len(distinct)

	switch {
	case present == 0:
		col.Kind = KindEmpty
	case float64(len(numbers)) >= kindThreshold*float64(present):
		col.Kind = KindNumeric
		if summary, err := summarizeNumeric(numbers); err == nil {
			col.Numeric = &summary
		}
	case float64(dates) >= kindThreshold*float64(present):
		col.Kind = KindDate
	default:
		col.Kind = KindText
	}
	return col
}

var numericReplacer = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", ",", "", "%", "", " ", "")

// parseNumericCell is stricter than summarizer.ParseAmount: after removing
// currency symbols and thousands separators the whole cell must be a
// number, so "abc1" is text rather than 1.
func parseNumericCell(cell string) (float64, bool) {
	cleaned := numericReplacer.Replace(cell)
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
		negative = true
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}
