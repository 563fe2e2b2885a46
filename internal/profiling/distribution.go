package profiling

import (
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// NumericSummary holds summary statistics for a numeric column
type NumericSummary struct {
	Count    int     `json:"count"`
	Sum      float64 `json:"sum"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"stdDev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
}

// summarizeNumeric computes summary statistics for data. It returns an
// error only when data is empty.
func summarizeNumeric(data []float64) (NumericSummary, error) {
	summary := NumericSummary{Count: len(data)}

	sum, err := stats.Sum(data)
	if err != nil {
		return summary, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return summary, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return summary, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return summary, err
	}
	q25, err := stats.Percentile(data, 25)
	if err != nil {
		return summary, err
	}
	q75, err := stats.Percentile(data, 75)
	if err != nil {
		return summary, err
	}

	summary.Sum = sum
	summary.Min = min
	summary.Max = max
	summary.Median = median
	summary.Q25 = q25
	summary.Q75 = q75

	// Sample standard deviation and skewness need at least two points
	summary.Mean = stat.Mean(data, nil)
	if len(data) > 1 {
		summary.StdDev = stat.StdDev(data, nil)
	}
	if len(data) > 2 && summary.StdDev > 0 {
		summary.Skewness = stat.Skew(data, nil)
	}

	return summary, nil
}
