package analytics

import (
	"math"
	"testing"

	"salesiq/internal/models"
)

func TestForecastMonthly(t *testing.T) {
	// Three monthly totals: 2023-01=100, 2023-02=150, 2023-03=200.
	// Elapsed days are 0, 31, 59; the fitted line predicted 30 days past
	// the last observation labels as the next calendar month.
	e := NewPredictiveEngine(testTable(
		rec(day(2023, 1, 10), "North", "A", 100, 20),
		rec(day(2023, 2, 10), "North", "A", 150, 30),
		rec(day(2023, 3, 10), "North", "A", 200, 40),
	))

	fc, err := e.ForecastMonthly(models.FieldRevenue, 1)
	if err != nil {
		t.Fatalf("ForecastMonthly() error = %v", err)
	}
	if fc.Measure != models.FieldRevenue {
		t.Errorf("expected measure revenue, got %q", fc.Measure)
	}
	if len(fc.Forecasts) != 1 {
		t.Fatalf("expected 1 prediction, got %v", fc.Forecasts)
	}

	got, ok := fc.Forecasts["2023-04"]
	if !ok {
		t.Fatalf("expected label 2023-04, got %v", fc.Forecasts)
	}
	// slope = 2950/1742, intercept = 150 - slope*30, x = 59+30.
	if want := 249.9139; math.Abs(got-want) > 0.001 {
		t.Errorf("expected prediction near %g, got %g", want, got)
	}
}

func TestForecastMonthly_Horizon(t *testing.T) {
	e := NewPredictiveEngine(testTable(
		rec(day(2023, 1, 10), "North", "A", 100, 20),
		rec(day(2023, 2, 10), "North", "A", 150, 30),
		rec(day(2023, 3, 10), "North", "A", 200, 40),
	))

	fc, err := e.ForecastMonthly(models.FieldRevenue, 3)
	if err != nil {
		t.Fatalf("ForecastMonthly() error = %v", err)
	}
	if len(fc.Forecasts) != 3 {
		t.Fatalf("expected 3 predictions, got %v", fc.Forecasts)
	}
	for _, label := range []string{"2023-04", "2023-05", "2023-06"} {
		if _, ok := fc.Forecasts[label]; !ok {
			t.Errorf("missing label %s in %v", label, fc.Forecasts)
		}
	}
	// Each step adds slope*30 to the previous prediction.
	step := fc.Forecasts["2023-05"] - fc.Forecasts["2023-04"]
	if want := 30 * 2950.0 / 1742.0; math.Abs(step-want) > 1e-9 {
		t.Errorf("expected step %g between horizons, got %g", want, step)
	}
}

func TestForecastMonthly_InsufficientHistory(t *testing.T) {
	e := NewPredictiveEngine(testTable(
		rec(day(2023, 1, 10), "North", "A", 100, 20),
		rec(day(2023, 2, 10), "North", "A", 150, 30),
	))

	fc, err := e.ForecastMonthly(models.FieldRevenue, 2)
	if err != nil {
		t.Fatalf("ForecastMonthly() error = %v", err)
	}
	if len(fc.Forecasts) != 0 {
		t.Errorf("under 3 months should yield an empty forecast, got %v", fc.Forecasts)
	}
}

func TestForecastMonthly_DefaultMeasure(t *testing.T) {
	e := NewPredictiveEngine(testTable(
		rec(day(2023, 1, 10), "North", "A", 100, 20),
		rec(day(2023, 2, 10), "North", "A", 150, 30),
		rec(day(2023, 3, 10), "North", "A", 200, 40),
	))
	fc, err := e.ForecastMonthly("", 1)
	if err != nil {
		t.Fatalf("ForecastMonthly() error = %v", err)
	}
	if fc.Measure != models.FieldRevenue {
		t.Errorf("empty measure should default to revenue, got %q", fc.Measure)
	}
}

func TestForecastMonthly_UnknownMeasure(t *testing.T) {
	e := NewPredictiveEngine(testTable(rec(day(2023, 1, 10), "North", "A", 100, 20)))
	if _, err := e.ForecastMonthly("bogus", 1); err == nil {
		t.Error("expected error for unknown measure")
	}
}

func TestForecastByGroup(t *testing.T) {
	// North has three months of history, South only two: South is
	// omitted rather than reported as an error.
	e := NewPredictiveEngine(testTable(
		rec(day(2023, 1, 10), "North", "A", 100, 20),
		rec(day(2023, 2, 10), "North", "A", 150, 30),
		rec(day(2023, 3, 10), "North", "A", 200, 40),
		rec(day(2023, 1, 12), "South", "A", 80, 10),
		rec(day(2023, 2, 12), "South", "A", 90, 12),
	))

	fc, err := e.ForecastByGroup(models.FieldRegion, models.FieldRevenue, 1)
	if err != nil {
		t.Fatalf("ForecastByGroup() error = %v", err)
	}
	if fc.Group != models.FieldRegion {
		t.Errorf("expected group region, got %q", fc.Group)
	}
	if _, ok := fc.Forecasts["North"]; !ok {
		t.Errorf("expected a North forecast, got %v", fc.Forecasts)
	}
	if _, ok := fc.Forecasts["South"]; ok {
		t.Errorf("South has insufficient history and should be omitted, got %v", fc.Forecasts)
	}
	if got := fc.Forecasts["North"]["2023-04"]; math.Abs(got-249.9139) > 0.001 {
		t.Errorf("North prediction should match the single-group fit, got %g", got)
	}
}

func TestForecastByGroup_Defaults(t *testing.T) {
	e := NewPredictiveEngine(testTable(
		rec(day(2023, 1, 10), "North", "A", 100, 20),
		rec(day(2023, 2, 10), "North", "A", 150, 30),
		rec(day(2023, 3, 10), "North", "A", 200, 40),
	))
	fc, err := e.ForecastByGroup("", "", 1)
	if err != nil {
		t.Fatalf("ForecastByGroup() error = %v", err)
	}
	if fc.Group != models.FieldRegion || fc.Measure != models.FieldRevenue {
		t.Errorf("expected region/revenue defaults, got %s/%s", fc.Group, fc.Measure)
	}
}

func TestForecastByGroup_UnknownGroup(t *testing.T) {
	e := NewPredictiveEngine(testTable(rec(day(2023, 1, 10), "North", "A", 100, 20)))
	if _, err := e.ForecastByGroup("bogus", models.FieldRevenue, 1); err == nil {
		t.Error("expected error for unknown grouping field")
	}
}

func TestOLSFit(t *testing.T) {
	slope, intercept, ok := olsFit([]float64{0, 1, 2}, []float64{1, 3, 5})
	if !ok {
		t.Fatal("expected a valid fit")
	}
	if math.Abs(slope-2) > 1e-12 || math.Abs(intercept-1) > 1e-12 {
		t.Errorf("expected y = 1 + 2x, got slope %g intercept %g", slope, intercept)
	}

	if _, _, ok := olsFit([]float64{1}, []float64{2}); ok {
		t.Error("single point should not fit")
	}
	if _, _, ok := olsFit([]float64{5, 5, 5}, []float64{1, 2, 3}); ok {
		t.Error("zero x variance should not fit")
	}
}

func TestPearson(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		ys   []float64
		want float64
	}{
		{"perfect positive", []float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{"perfect negative", []float64{1, 2, 3}, []float64{6, 4, 2}, -1},
		{"zero variance", []float64{1, 1, 1}, []float64{1, 2, 3}, 0},
		{"too short", []float64{1}, []float64{2}, 0},
		{"length mismatch", []float64{1, 2}, []float64{1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pearson(tt.xs, tt.ys); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("pearson() = %g, want %g", got, tt.want)
			}
		})
	}
}
