package summarizer

import (
	"sort"
	"time"
)

const (
	revenueBucketLimit = 12
	salesBucketLimit   = 6
	productLimit       = 10
	distributionLimit  = 8
)

// customerSegments are fixed shares of the row count in percent. They are a
// placeholder and do not predict anything about the customers.
var customerSegments = []struct {
	label   string
	percent int
}{
	{"New", 40},
	{"Returning", 35},
	{"VIP", 15},
	{"At-Risk", 10},
}

// bucketAccumulator sums values per label and remembers first-seen order.
type bucketAccumulator struct {
	order []string
	sums  map[string]float64
}

func newBucketAccumulator() *bucketAccumulator {
	return &bucketAccumulator{sums: make(map[string]float64)}
}

func (b *bucketAccumulator) add(label string, value float64) {
	if _, ok := b.sums[label]; !ok {
		b.order = append(b.order, label)
	}
	b.sums[label] += value
}

func (b *bucketAccumulator) points() []SeriesPoint {
	points := make([]SeriesPoint, 0, len(b.order))
	for _, label := range b.order {
		points = append(points, SeriesPoint{Label: label, Value: roundHalfUp(b.sums[label])})
	}
	return points
}

func truncate(points []SeriesPoint, limit int) []SeriesPoint {
	if limit >= 0 && len(points) > limit {
		return points[:limit]
	}
	return points
}

// RevenueSeries sums the monetary column per calendar month ("January 2024")
// in first-seen order, keeping at most 12 months. Rows with an unparseable
// date or amount are skipped. Without both a date and a monetary column the
// series is empty.
func RevenueSeries(ds Dataset, roles ColumnRoles) []SeriesPoint {
	if !roles.Has(RoleDate) || !roles.Has(RoleMonetary) {
		return []SeriesPoint{}
	}
	return monthlySum(ds, roles.Date, roles.Monetary, longMonthLabel, revenueBucketLimit)
}

// SalesSeries sums the quantity column per month ("Jan 2024"). With a date
// column but no quantity column it counts rows per month instead. At most 6
// months are kept.
func SalesSeries(ds Dataset, roles ColumnRoles) []SeriesPoint {
	switch {
	case roles.Has(RoleQuantity) && roles.Has(RoleDate):
		return monthlySum(ds, roles.Date, roles.Quantity, shortMonthLabel, salesBucketLimit)
	case roles.Has(RoleDate):
		return monthlyCount(ds, roles.Date, shortMonthLabel, salesBucketLimit)
	default:
		return []SeriesPoint{}
	}
}

func monthlySum(ds Dataset, dateCol, valueCol int, label func(time.Time) string, limit int) []SeriesPoint {
	acc := newBucketAccumulator()
	for _, row := range ds.Rows {
		t, ok := ParseDate(ds.Cell(row, dateCol))
		if !ok {
			continue
		}
		v, ok := ParseAmount(ds.Cell(row, valueCol))
		if !ok {
			continue
		}
		acc.add(label(t), v)
	}
	return truncate(acc.points(), limit)
}

func monthlyCount(ds Dataset, dateCol int, label func(time.Time) string, limit int) []SeriesPoint {
	acc := newBucketAccumulator()
	for _, row := range ds.Rows {
		t, ok := ParseDate(ds.Cell(row, dateCol))
		if !ok {
			continue
		}
		acc.add(label(t), 1)
	}
	return truncate(acc.points(), limit)
}

// TopCategorySeries groups rows by the text in keyCol. Each row adds the
// parsed value of valueCol, or 1 when valueCol is negative or the cell is
// not a number. Points are sorted by value, largest first, with ties kept in
// first-seen order, and cut to limit. Rows with a blank key are skipped.
func TopCategorySeries(ds Dataset, keyCol, valueCol, limit int) []SeriesPoint {
	if keyCol < 0 {
		return []SeriesPoint{}
	}
	acc := newBucketAccumulator()
	for _, row := range ds.Rows {
		key := ds.Cell(row, keyCol)
		if isBlank(key) {
			continue
		}
		weight := 1.0
		if valueCol >= 0 {
			if v, ok := ParseAmount(ds.Cell(row, valueCol)); ok {
				weight = v
			}
		}
		acc.add(key, weight)
	}
	points := acc.points()
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Value > points[j].Value
	})
	return truncate(points, limit)
}

// ProductSeries ranks products by revenue (or by row count when there is no
// monetary column), top 10.
func ProductSeries(ds Dataset, roles ColumnRoles) []SeriesPoint {
	if !roles.Has(RoleProduct) {
		return []SeriesPoint{}
	}
	return TopCategorySeries(ds, roles.Product, roles.Monetary, productLimit)
}

// DistributionSeries counts rows per value of the first non-identifier,
// non-temporal column, top 8.
func DistributionSeries(ds Dataset) []SeriesPoint {
	col := DistributionColumn(ds.Headers)
	if col < 0 {
		return []SeriesPoint{}
	}
	return TopCategorySeries(ds, col, -1, distributionLimit)
}

// CustomerSegments splits the row count into fixed New/Returning/VIP/At-Risk
// shares, floored, when a customer column exists.
func CustomerSegments(ds Dataset, roles ColumnRoles) []SeriesPoint {
	if !roles.Has(RoleCustomer) || ds.RowCount() == 0 {
		return []SeriesPoint{}
	}
	total := ds.RowCount()
	points := make([]SeriesPoint, 0, len(customerSegments))
	for _, seg := range customerSegments {
		points = append(points, SeriesPoint{
			Label: seg.label,
			Value: float64(total * seg.percent / 100),
		})
	}
	return points
}
