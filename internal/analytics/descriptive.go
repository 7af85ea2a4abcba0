package analytics

import (
	"fmt"
	"sort"
	"time"

	"salesiq/internal/models"
)

// AnalyticalEngine computes descriptive KPIs and diagnostic driver
// analysis over its private copy of the canonical table.
type AnalyticalEngine struct {
	table *models.Table
}

func NewAnalyticalEngine(t *models.Table) *AnalyticalEngine {
	return &AnalyticalEngine{table: t.Clone()}
}

// Months returns the distinct month buckets in the table, ascending.
func (e *AnalyticalEngine) Months() []time.Time {
	return e.table.Months()
}

// SummaryKPIs aggregates the table into a KPI snapshot, optionally
// restricted to an inclusive date range. An empty range yields all-zero
// totals and empty breakdowns, not an error.
func (e *AnalyticalEngine) SummaryKPIs(from, to *time.Time) *models.KPISnapshot {
	rows := filterDates(e.table.Records, from, to)

	snap := &models.KPISnapshot{Orders: len(rows)}
	var discountSum float64
	for _, r := range rows {
		if r.Revenue.Valid {
			snap.RevenueTotal += r.Revenue.Float64
		}
		if r.Profit.Valid {
			snap.ProfitTotal += r.Profit.Float64
		}
		snap.UnitsTotal += r.UnitsSold
		discountSum += r.Discount
	}
	if len(rows) > 0 {
		snap.AvgDiscount = discountSum / float64(len(rows))
	}

	byCategory, _ := sumByKey(rows, models.FieldProductCategory, models.FieldRevenue)
	byRegion, _ := sumByKey(rows, models.FieldRegion, models.FieldRevenue)
	snap.TopCategories = topN(rankDescending(byCategory), 3)
	snap.TopRegions = topN(rankDescending(byRegion), 3)

	if e.table.HasColumn(models.FieldSalesChannel) {
		byChannel, _ := sumByKey(rows, models.FieldSalesChannel, models.FieldRevenue)
		snap.ByChannel = rankDescending(byChannel)
	}
	return snap
}

func topN(shares []models.RevenueShare, n int) []models.RevenueShare {
	if len(shares) > n {
		return shares[:n]
	}
	return shares
}

// Trend sums a measure within each distinct value of the grouping field
// after date filtering, sorted ascending by bucket. The default grouping
// is the derived month bucket.
func (e *AnalyticalEngine) Trend(groupby, measure string, from, to *time.Time) ([]models.TrendPoint, error) {
	if groupby == "" {
		groupby = GroupMonth
	}
	if measure == "" {
		measure = models.FieldRevenue
	}
	rows := filterDates(e.table.Records, from, to)

	if groupby == GroupMonth {
		totals, err := monthlyTotals(rows, measure)
		if err != nil {
			return nil, err
		}
		points := make([]models.TrendPoint, 0, len(totals))
		for _, mt := range totals {
			points = append(points, models.TrendPoint{Bucket: mt.Month.Format(monthLabel), Value: mt.Total})
		}
		return points, nil
	}

	totals, err := sumByKey(rows, groupby, measure)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	points := make([]models.TrendPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, models.TrendPoint{Bucket: k, Value: totals[k]})
	}
	return points, nil
}

// Drivers compares two month buckets ("YYYY-MM"): the aggregate revenue
// delta, per-dimension deltas sorted descending with missing keys as
// zero, and the Pearson correlation between daily mean revenue and
// daily mean discount within period A when the source had a discount
// column.
func (e *AnalyticalEngine) Drivers(periodA, periodB string, dims []string) (*models.DriverDeltaSet, error) {
	if len(dims) == 0 {
		dims = []string{models.FieldRegion, models.FieldProductCategory}
	}
	monthA, err := time.Parse(monthLabel, periodA)
	if err != nil {
		return nil, fmt.Errorf("parse period_a %q: %w", periodA, err)
	}
	monthB, err := time.Parse(monthLabel, periodB)
	if err != nil {
		return nil, fmt.Errorf("parse period_b %q: %w", periodB, err)
	}

	rowsA := e.monthRows(monthA)
	rowsB := e.monthRows(monthB)

	out := &models.DriverDeltaSet{
		PeriodA:      periodA,
		PeriodB:      periodB,
		DeltaRevenue: sumValid(rowsB) - sumValid(rowsA),
		Dimensions:   make(map[string][]models.DimensionDelta, len(dims)),
	}

	for _, dim := range dims {
		aTotals, err := sumByKey(rowsA, dim, models.FieldRevenue)
		if err != nil {
			return nil, err
		}
		bTotals, err := sumByKey(rowsB, dim, models.FieldRevenue)
		if err != nil {
			return nil, err
		}
		out.Dimensions[dim] = dimensionDeltas(aTotals, bTotals)
	}

	if e.table.HasColumn(models.FieldDiscount) {
		corr := dailyDiscountRevenueCorr(rowsA)
		out.DiscountRevenueCorr = &corr
	}
	return out, nil
}

func (e *AnalyticalEngine) monthRows(month time.Time) []models.SalesRecord {
	var out []models.SalesRecord
	for _, r := range e.table.Records {
		if r.Month.Equal(month) {
			out = append(out, r)
		}
	}
	return out
}

func sumValid(records []models.SalesRecord) float64 {
	var total float64
	for _, r := range records {
		if r.Revenue.Valid {
			total += r.Revenue.Float64
		}
	}
	return total
}

func dimensionDeltas(a, b map[string]float64) []models.DimensionDelta {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}

	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	deltas := make([]models.DimensionDelta, 0, len(names))
	for _, k := range names {
		deltas = append(deltas, models.DimensionDelta{Key: k, Delta: b[k] - a[k]})
	}
	sort.SliceStable(deltas, func(i, j int) bool { return deltas[i].Delta > deltas[j].Delta })
	return deltas
}

// dailyDiscountRevenueCorr correlates daily mean revenue with daily mean
// discount. Undefined correlations (under two days, zero variance)
// collapse to 0.
func dailyDiscountRevenueCorr(records []models.SalesRecord) float64 {
	type daily struct {
		revenueSum   float64
		revenueCount int
		discountSum  float64
		rows         int
	}
	days := make(map[time.Time]*daily)
	for _, r := range records {
		d := days[r.Date]
		if d == nil {
			d = &daily{}
			days[r.Date] = d
		}
		if r.Revenue.Valid {
			d.revenueSum += r.Revenue.Float64
			d.revenueCount++
		}
		d.discountSum += r.Discount
		d.rows++
	}

	var revenues, discounts []float64
	for _, d := range days {
		if d.revenueCount == 0 || d.rows == 0 {
			continue
		}
		revenues = append(revenues, d.revenueSum/float64(d.revenueCount))
		discounts = append(discounts, d.discountSum/float64(d.rows))
	}
	return pearson(revenues, discounts)
}
