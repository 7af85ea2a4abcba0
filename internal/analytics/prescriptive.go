package analytics

import (
	"fmt"
	"sort"
	"strings"

	"salesiq/internal/models"
)

// Default prescriptive thresholds.
const (
	DefaultRevenueTargetGrowth = 0.05
	DefaultMarginFloor         = 0.20
)

// PrescriptiveEngine maps diagnostic and descriptive results through
// fixed business thresholds into an ordered recommendation list. It
// never touches the table.
type PrescriptiveEngine struct {
	revenueTargetGrowth float64
	marginFloor         float64
}

func NewPrescriptiveEngine(revenueTargetGrowth, marginFloor float64) *PrescriptiveEngine {
	return &PrescriptiveEngine{
		revenueTargetGrowth: revenueTargetGrowth,
		marginFloor:         marginFloor,
	}
}

// Recommend is a pure function of its inputs. Either may be nil; missing
// figures default to zero. Rules are evaluated independently and every
// applicable one is appended in order.
func (e *PrescriptiveEngine) Recommend(diag *models.DriverDeltaSet, kpis *models.KPISnapshot) *models.RecommendationSet {
	var deltaRevenue, avgDiscount, revenueTotal, profitTotal float64
	if diag != nil {
		deltaRevenue = diag.DeltaRevenue
	}
	if kpis != nil {
		avgDiscount = kpis.AvgDiscount
		revenueTotal = kpis.RevenueTotal
		profitTotal = kpis.ProfitTotal
	}

	margin := 0.0
	if revenueTotal != 0 {
		margin = profitTotal / revenueTotal
	}

	var recs []string
	if deltaRevenue < 0 {
		if avgDiscount < 0.10 {
			recs = append(recs, "Run a targeted 5% promo in impacted regions/categories for 2 weeks.")
		} else {
			recs = append(recs, "Use bundled offers instead of deeper discounts to protect margins.")
		}
		if worst := worstKeys(diag, models.FieldRegion, 2); len(worst) > 0 {
			recs = append(recs, "Focus on regions: "+strings.Join(worst, ", ")+".")
		}
		if worst := worstKeys(diag, models.FieldProductCategory, 2); len(worst) > 0 {
			recs = append(recs, "Focus on categories: "+strings.Join(worst, ", ")+".")
		}
	}

	if margin < e.marginFloor {
		recs = append(recs, "Reduce blanket discounting by 2-3% in low-elasticity categories.")
	}

	recs = append(recs, fmt.Sprintf("Set next-month revenue growth target to %d%%.", int(e.revenueTargetGrowth*100)))

	return &models.RecommendationSet{
		Recommendations: recs,
		Context: models.RecommendationContext{
			DeltaRevenue: deltaRevenue,
			Margin:       margin,
		},
	}
}

// worstKeys returns the n most negative dimension deltas, most negative
// first.
func worstKeys(diag *models.DriverDeltaSet, dim string, n int) []string {
	if diag == nil {
		return nil
	}
	deltas := diag.Dimensions[dim]
	if len(deltas) == 0 {
		return nil
	}
	ascending := make([]models.DimensionDelta, len(deltas))
	copy(ascending, deltas)
	sort.SliceStable(ascending, func(i, j int) bool { return ascending[i].Delta < ascending[j].Delta })
	if len(ascending) > n {
		ascending = ascending[:n]
	}
	keys := make([]string, len(ascending))
	for i, d := range ascending {
		keys[i] = d.Key
	}
	return keys
}
