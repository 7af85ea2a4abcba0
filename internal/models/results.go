package models

// RevenueShare is one breakdown row: a dimension value and its summed
// revenue. Breakdowns are ordered slices so ranking survives JSON.
type RevenueShare struct {
	Key     string  `json:"key"`
	Revenue float64 `json:"revenue"`
}

// KPISnapshot is the immutable descriptive result for one query.
type KPISnapshot struct {
	RevenueTotal  float64        `json:"revenue_total"`
	ProfitTotal   float64        `json:"profit_total"`
	UnitsTotal    int            `json:"units_total"`
	AvgDiscount   float64        `json:"avg_discount"`
	Orders        int            `json:"orders"`
	TopCategories []RevenueShare `json:"top_categories"`
	TopRegions    []RevenueShare `json:"top_regions"`
	ByChannel     []RevenueShare `json:"by_channel,omitempty"`
}

// TrendPoint is one bucket of an aggregated time or category series.
type TrendPoint struct {
	Bucket string  `json:"bucket"`
	Value  float64 `json:"value"`
}

// DimensionDelta is the signed revenue change for one dimension value
// between two month buckets.
type DimensionDelta struct {
	Key   string  `json:"key"`
	Delta float64 `json:"delta"`
}

// DriverDeltaSet is the diagnostic comparison of two month buckets.
// Per-dimension deltas are sorted descending; keys missing from either
// period contribute zero on that side.
type DriverDeltaSet struct {
	PeriodA      string                      `json:"period_a"`
	PeriodB      string                      `json:"period_b"`
	DeltaRevenue float64                     `json:"delta_revenue"`
	Dimensions   map[string][]DimensionDelta `json:"dimensions"`

	// DiscountRevenueCorr is the Pearson correlation between daily mean
	// revenue and daily mean discount within period A. Nil when the
	// source had no discount column.
	DiscountRevenueCorr *float64 `json:"corr_discount_revenue_in_a,omitempty"`
}

// Forecast maps future month labels ("YYYY-MM") to predicted values for
// one measure.
type Forecast struct {
	Measure   string             `json:"measure"`
	Forecasts map[string]float64 `json:"forecasts"`
}

// GroupForecast holds independent per-group forecasts. Groups with
// insufficient history are absent from the map.
type GroupForecast struct {
	Group     string                        `json:"group"`
	Measure   string                        `json:"measure"`
	Forecasts map[string]map[string]float64 `json:"forecasts"`
}

// RecommendationContext carries the figures the prescriptive rules fired on.
type RecommendationContext struct {
	DeltaRevenue float64 `json:"delta_revenue"`
	Margin       float64 `json:"margin"`
}

// RecommendationSet is the ordered prescriptive output.
type RecommendationSet struct {
	Recommendations []string              `json:"recommendations"`
	Context         RecommendationContext `json:"context"`
}
