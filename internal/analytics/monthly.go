// Package analytics holds the descriptive/diagnostic, predictive, and
// prescriptive engines. Each engine takes a private copy of the
// canonical table at construction and every operation is a pure
// computation returning a fresh result object.
package analytics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"salesiq/internal/models"
)

// ErrUnknownField is returned when a measure or grouping field does not
// exist in the canonical schema. The engines never guess or substitute.
var ErrUnknownField = errors.New("unknown field")

// GroupMonth selects the derived month bucket for grouping.
const GroupMonth = "month"

const monthLabel = "2006-01"

// measureValue resolves a canonical measure on a record. The boolean is
// false when the cell is null and must be skipped by aggregation.
func measureValue(r models.SalesRecord, measure string) (float64, bool) {
	switch measure {
	case models.FieldRevenue:
		return r.Revenue.Float64, r.Revenue.Valid
	case models.FieldProfit:
		return r.Profit.Float64, r.Profit.Valid
	case models.FieldUnitsSold:
		return float64(r.UnitsSold), true
	case models.FieldDiscount:
		return r.Discount, true
	}
	return 0, false
}

func checkMeasure(measure string) error {
	switch measure {
	case models.FieldRevenue, models.FieldProfit, models.FieldUnitsSold, models.FieldDiscount:
		return nil
	}
	return fmt.Errorf("%w: measure %q", ErrUnknownField, measure)
}

// groupKey resolves a categorical grouping field on a record.
func groupKey(r models.SalesRecord, field string) (string, error) {
	switch field {
	case models.FieldRegion:
		return r.Region, nil
	case models.FieldProductCategory:
		return r.ProductCategory, nil
	case models.FieldCustomerSegment:
		return r.CustomerSegment, nil
	case models.FieldSalesChannel:
		return r.SalesChannel, nil
	}
	return "", fmt.Errorf("%w: group %q", ErrUnknownField, field)
}

// MonthTotal is one month bucket and its summed measure.
type MonthTotal struct {
	Month time.Time
	Total float64
}

// monthlyTotals aggregates a measure by month bucket, ascending. It is
// the single group-by-month implementation shared by the trend, growth,
// and forecasting paths. Null cells are skipped, but a month whose rows
// are all null still yields a zero bucket.
func monthlyTotals(records []models.SalesRecord, measure string) ([]MonthTotal, error) {
	if err := checkMeasure(measure); err != nil {
		return nil, err
	}
	totals := make(map[time.Time]float64)
	for _, r := range records {
		m := models.MonthStart(r.Date)
		if v, ok := measureValue(r, measure); ok {
			totals[m] += v
		} else {
			totals[m] += 0
		}
	}
	out := make([]MonthTotal, 0, len(totals))
	for m, total := range totals {
		out = append(out, MonthTotal{Month: m, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

// sumByKey aggregates a measure over a categorical field.
func sumByKey(records []models.SalesRecord, field, measure string) (map[string]float64, error) {
	if err := checkMeasure(measure); err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for _, r := range records {
		key, err := groupKey(r, field)
		if err != nil {
			return nil, err
		}
		if v, ok := measureValue(r, measure); ok {
			totals[key] += v
		} else {
			totals[key] += 0
		}
	}
	return totals, nil
}

// rankDescending turns per-key totals into an ordered breakdown: value
// descending, ties broken by key so equal revenues rank deterministically.
func rankDescending(totals map[string]float64) []models.RevenueShare {
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.RevenueShare, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.RevenueShare{Key: k, Revenue: totals[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	return out
}

func filterDates(records []models.SalesRecord, from, to *time.Time) []models.SalesRecord {
	if from == nil && to == nil {
		return records
	}
	out := make([]models.SalesRecord, 0, len(records))
	for _, r := range records {
		if from != nil && r.Date.Before(*from) {
			continue
		}
		if to != nil && r.Date.After(*to) {
			continue
		}
		out = append(out, r)
	}
	return out
}
