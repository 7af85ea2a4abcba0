package analytics

import (
	"salesiq/internal/models"
)

// minForecastMonths is the insufficient-history threshold: a series with
// fewer distinct month buckets yields an empty forecast, never an error.
const minForecastMonths = 3

// PredictiveEngine fits a univariate linear trend to monthly aggregates
// of its private table copy and extrapolates forward.
type PredictiveEngine struct {
	table *models.Table
}

func NewPredictiveEngine(t *models.Table) *PredictiveEngine {
	return &PredictiveEngine{table: t.Clone()}
}

// ForecastMonthly aggregates the measure by month, fits an ordinary
// least-squares line over elapsed days since the earliest month, and
// predicts one value per horizon step. Each step advances the fit input
// by a fixed 30 days while the label advances by a true calendar month;
// the mismatch is a deliberate simplification kept for output parity.
func (e *PredictiveEngine) ForecastMonthly(measure string, horizon int) (*models.Forecast, error) {
	if measure == "" {
		measure = models.FieldRevenue
	}
	totals, err := monthlyTotals(e.table.Records, measure)
	if err != nil {
		return nil, err
	}
	return &models.Forecast{Measure: measure, Forecasts: extrapolate(totals, horizon)}, nil
}

// ForecastByGroup runs the monthly fit independently within each value
// of the grouping field. Groups with insufficient history are omitted
// from the result rather than reported as errors.
func (e *PredictiveEngine) ForecastByGroup(groupCol, measure string, horizon int) (*models.GroupForecast, error) {
	if groupCol == "" {
		groupCol = models.FieldRegion
	}
	if measure == "" {
		measure = models.FieldRevenue
	}
	if err := checkMeasure(measure); err != nil {
		return nil, err
	}

	grouped := make(map[string][]models.SalesRecord)
	for _, r := range e.table.Records {
		key, err := groupKey(r, groupCol)
		if err != nil {
			return nil, err
		}
		grouped[key] = append(grouped[key], r)
	}

	out := &models.GroupForecast{
		Group:     groupCol,
		Measure:   measure,
		Forecasts: make(map[string]map[string]float64),
	}
	for key, records := range grouped {
		totals, err := monthlyTotals(records, measure)
		if err != nil {
			return nil, err
		}
		preds := extrapolate(totals, horizon)
		if len(preds) == 0 {
			continue
		}
		out.Forecasts[key] = preds
	}
	return out, nil
}

// extrapolate performs the shared fit-and-predict step. Degenerate fits
// fall under the insufficient-history policy and return an empty map.
func extrapolate(totals []MonthTotal, horizon int) map[string]float64 {
	preds := make(map[string]float64)
	if len(totals) < minForecastMonths || horizon < 1 {
		return preds
	}

	first := totals[0].Month
	xs := make([]float64, len(totals))
	ys := make([]float64, len(totals))
	for i, mt := range totals {
		xs[i] = mt.Month.Sub(first).Hours() / 24
		ys[i] = mt.Total
	}

	slope, intercept, ok := olsFit(xs, ys)
	if !ok {
		return preds
	}

	last := totals[len(totals)-1]
	lastX := xs[len(xs)-1]
	for h := 1; h <= horizon; h++ {
		x := lastX + 30*float64(h)
		label := last.Month.AddDate(0, h, 0).Format(monthLabel)
		preds[label] = intercept + slope*x
	}
	return preds
}
