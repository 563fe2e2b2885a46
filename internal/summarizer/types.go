package summarizer

// Dataset is a parsed delimited file: headers plus rows aligned to them by
// position. Rows may be ragged; a cell past the end of a row reads as "".
type Dataset struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Cell returns the raw text at (row, col), or "" when the row
// is too short or col is negative.
func (d Dataset) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// RowCount returns the number of data rows.
func (d Dataset) RowCount() int {
	return len(d.Rows)
}

// ColumnCount returns the number of headers.
func (d Dataset) ColumnCount() int {
	return len(d.Headers)
}

// SeriesName identifies one chart series in an AnalysisResult.
type SeriesName string

const (
	SeriesRevenue      SeriesName = "revenue"
	SeriesSales        SeriesName = "sales"
	SeriesProducts     SeriesName = "products"
	SeriesDistribution SeriesName = "distribution"
	SeriesCustomers    SeriesName = "customers"
)

// AllSeries lists every series in display order.
var AllSeries = []SeriesName{
	SeriesRevenue,
	SeriesSales,
	SeriesProducts,
	SeriesDistribution,
	SeriesCustomers,
}

// SeriesPoint is one (label, value) pair of a chart series.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// KeyMetric is a display card.
type KeyMetric struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Change string `json:"change"`
}

// AnalysisResult is the output of Summarize. It is built fresh on every call
// and is not modified afterwards.
type AnalysisResult struct {
	Summary         string                       `json:"summary"`
	KeyMetrics      []KeyMetric                  `json:"keyMetrics"`
	Recommendations []string                     `json:"recommendations"`
	ChartData       map[SeriesName][]SeriesPoint `json:"chartData"`
}

// Series returns the named series, or an empty slice.
func (r AnalysisResult) Series(name SeriesName) []SeriesPoint {
	if points, ok := r.ChartData[name]; ok {
		return points
	}
	return []SeriesPoint{}
}
