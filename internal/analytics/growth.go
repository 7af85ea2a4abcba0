package analytics

import (
	"fmt"
	"math"

	"salesiq/internal/models"
)

// GrowthSummary returns a one-sentence description of month-over-month
// revenue growth between the last two observed month buckets.
func (e *AnalyticalEngine) GrowthSummary() string {
	monthly, err := monthlyTotals(e.table.Records, models.FieldRevenue)
	if err != nil || len(monthly) < 2 {
		return "Not enough history to compute revenue growth."
	}

	last := monthly[len(monthly)-1]
	prev := monthly[len(monthly)-2]

	pctChange := 0.0
	if prev.Total != 0 {
		pctChange = (last.Total - prev.Total) / prev.Total * 100
	}
	trend := "increased"
	if pctChange < 0 {
		trend = "decreased"
	}
	return fmt.Sprintf("Revenue %s by %.1f%% from %s to %s.",
		trend, math.Abs(pctChange), prev.Month.Format(monthLabel), last.Month.Format(monthLabel))
}
