package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"salesiq/internal/agents"
	"salesiq/internal/charts"
	"salesiq/internal/models"
	"salesiq/internal/services"
)

const maxDriverRows = 20

var kpiCardsTemplate = template.Must(template.New("kpiCards").Parse(`
<div id="kpi-content">
<div class="kpi-grid">
<div class="kpi-card"><span class="kpi-label">Total Revenue</span><strong>${{printf "%.2f" .RevenueTotal}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Total Profit</span><strong>${{printf "%.2f" .ProfitTotal}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Units Sold</span><strong>{{.UnitsTotal}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Avg. Discount</span><strong>{{printf "%.1f" .AvgDiscountPct}}%</strong></div>
<div class="kpi-card"><span class="kpi-label">Orders</span><strong>{{.Orders}}</strong></div>
</div>
<p class="kpi-breakdown"><b>Top Categories:</b> {{.TopCategories}}</p>
<p class="kpi-breakdown"><b>Top Regions:</b> {{.TopRegions}}</p>
</div>`))

var trendTemplate = template.Must(template.New("trend").Parse(`
<div id="trend-content">
{{if .ChartURI}}<img src="{{.ChartURI}}" alt="{{.Title}}"/>{{end}}
<p class="section-note">{{.Growth}}</p>
</div>`))

var driversTemplate = template.Must(template.New("drivers").Parse(`
<div id="drivers-content">
{{if .Note}}<p class="section-note">{{.Note}}</p>{{else}}
<p class="section-note">Revenue delta {{printf "%.2f" .DeltaRevenue}} from {{.PeriodA}} to {{.PeriodB}}</p>
<table class="modern-table">
<thead><tr><th>Dimension</th><th>Value</th><th>Δ Revenue</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.Dim}}</td><td>{{.Key}}</td><td>{{printf "%.2f" .Delta}}</td></tr>
{{end}}
</tbody>
</table>{{end}}
</div>`))

var forecastTemplate = template.Must(template.New("forecast").Parse(`
<div id="forecast-content">
{{if .Rows}}<table class="modern-table">
<thead><tr><th>Month</th><th>Predicted Revenue</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.Month}}</td><td>{{printf "%.2f" .Value}}</td></tr>
{{end}}
</tbody>
</table>{{else}}<p class="section-note">Not enough monthly history to forecast (3 distinct months required).</p>{{end}}
</div>`))

var recommendationsTemplate = template.Must(template.New("recommendations").Parse(`
<div id="recommendations-content">
<ul class="rec-list">
{{range .Recommendations}}<li>{{.}}</li>
{{end}}
</ul>
</div>`))

type SSEHandlers struct {
	dataset *services.Dataset
	logger  *slog.Logger
}

func NewSSEHandlers(dataset *services.Dataset, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{dataset: dataset, logger: logger}
}

func (h *SSEHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	eng, ok := h.dataset.Engines()
	if !ok {
		sse.PatchElements(`<div id="kpi-content">No dataset loaded.</div>`)
		return
	}
	html, err := h.renderKPIs(eng)
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}
	sse.PatchElements(html)
	flush(w)
}

func (h *SSEHandlers) renderKPIs(eng agents.Engines) (string, error) {
	snap := eng.Analytical.SummaryKPIs(nil, nil)
	data := struct {
		RevenueTotal   float64
		ProfitTotal    float64
		UnitsTotal     int
		AvgDiscountPct float64
		Orders         int
		TopCategories  string
		TopRegions     string
	}{
		RevenueTotal:   snap.RevenueTotal,
		ProfitTotal:    snap.ProfitTotal,
		UnitsTotal:     snap.UnitsTotal,
		AvgDiscountPct: snap.AvgDiscount * 100,
		Orders:         snap.Orders,
		TopCategories:  joinKeys(snap.TopCategories),
		TopRegions:     joinKeys(snap.TopRegions),
	}
	var buf strings.Builder
	err := kpiCardsTemplate.Execute(&buf, data)
	return buf.String(), err
}

func joinKeys(shares []models.RevenueShare) string {
	keys := make([]string, len(shares))
	for i, s := range shares {
		keys[i] = s.Key
	}
	return strings.Join(keys, ", ")
}

func (h *SSEHandlers) HandleTrend(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	eng, ok := h.dataset.Engines()
	if !ok {
		sse.PatchElements(`<div id="trend-content">No dataset loaded.</div>`)
		return
	}
	html, points, err := h.renderTrend(eng)
	if err != nil {
		h.logger.Error("render trend", "error", err)
		return
	}

	// Raw series also goes out as a signal for client-side tooling.
	signals, err := json.Marshal(map[string]any{"trendData": points})
	if err != nil {
		h.logger.Error("marshal trend data", "error", err)
		return
	}
	sse.PatchSignals(signals)
	sse.PatchElements(html)
	flush(w)
}

func (h *SSEHandlers) renderTrend(eng agents.Engines) (string, []models.TrendPoint, error) {
	points, err := eng.Analytical.Trend("", "", nil, nil)
	if err != nil {
		return "", nil, err
	}
	data := struct {
		ChartURI string
		Title    string
		Growth   string
	}{
		ChartURI: charts.RenderLine(points, "Monthly Revenue Trend"),
		Title:    "Monthly Revenue Trend",
		Growth:   eng.Analytical.GrowthSummary(),
	}
	var buf strings.Builder
	err = trendTemplate.Execute(&buf, data)
	return buf.String(), points, err
}

func (h *SSEHandlers) HandleDrivers(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	eng, ok := h.dataset.Engines()
	if !ok {
		sse.PatchElements(`<div id="drivers-content">No dataset loaded.</div>`)
		return
	}
	html, err := h.renderDrivers(eng)
	if err != nil {
		h.logger.Error("render drivers", "error", err)
		return
	}
	sse.PatchElements(html)
	flush(w)
}

type driverRow struct {
	Dim   string
	Key   string
	Delta float64
}

func (h *SSEHandlers) renderDrivers(eng agents.Engines) (string, error) {
	data := struct {
		Note         string
		PeriodA      string
		PeriodB      string
		DeltaRevenue float64
		Rows         []driverRow
	}{}

	months := eng.Analytical.Months()
	if len(months) < 2 {
		data.Note = "Not enough data for month-over-month comparison."
	} else {
		periodA := months[len(months)-2].Format("2006-01")
		periodB := months[len(months)-1].Format("2006-01")
		drivers, err := eng.Analytical.Drivers(periodA, periodB, nil)
		if err != nil {
			return "", err
		}
		data.PeriodA = drivers.PeriodA
		data.PeriodB = drivers.PeriodB
		data.DeltaRevenue = drivers.DeltaRevenue

		dims := make([]string, 0, len(drivers.Dimensions))
		for dim := range drivers.Dimensions {
			dims = append(dims, dim)
		}
		sort.Strings(dims)
		for _, dim := range dims {
			for _, d := range drivers.Dimensions[dim] {
				data.Rows = append(data.Rows, driverRow{Dim: dim, Key: d.Key, Delta: d.Delta})
			}
		}
		if len(data.Rows) > maxDriverRows {
			data.Rows = data.Rows[:maxDriverRows]
		}
	}

	var buf strings.Builder
	err := driversTemplate.Execute(&buf, data)
	return buf.String(), err
}

func (h *SSEHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	eng, ok := h.dataset.Engines()
	if !ok {
		sse.PatchElements(`<div id="forecast-content">No dataset loaded.</div>`)
		return
	}
	html, err := h.renderForecast(eng)
	if err != nil {
		h.logger.Error("render forecast", "error", err)
		return
	}
	sse.PatchElements(html)
	flush(w)
}

type forecastRow struct {
	Month string
	Value float64
}

func (h *SSEHandlers) renderForecast(eng agents.Engines) (string, error) {
	forecast, err := eng.Predictive.ForecastMonthly(models.FieldRevenue, 3)
	if err != nil {
		return "", err
	}

	rows := make([]forecastRow, 0, len(forecast.Forecasts))
	for month, value := range forecast.Forecasts {
		rows = append(rows, forecastRow{Month: month, Value: value})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })

	var buf strings.Builder
	err = forecastTemplate.Execute(&buf, struct{ Rows []forecastRow }{rows})
	return buf.String(), err
}

func (h *SSEHandlers) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	eng, ok := h.dataset.Engines()
	if !ok {
		sse.PatchElements(`<div id="recommendations-content">No dataset loaded.</div>`)
		return
	}
	html, err := h.renderRecommendations(eng)
	if err != nil {
		h.logger.Error("render recommendations", "error", err)
		return
	}
	sse.PatchElements(html)
	flush(w)
}

func (h *SSEHandlers) renderRecommendations(eng agents.Engines) (string, error) {
	kpis := eng.Analytical.SummaryKPIs(nil, nil)
	var diag *models.DriverDeltaSet
	if months := eng.Analytical.Months(); len(months) >= 2 {
		periodA := months[len(months)-2].Format("2006-01")
		periodB := months[len(months)-1].Format("2006-01")
		if d, err := eng.Analytical.Drivers(periodA, periodB, nil); err == nil {
			diag = d
		}
	}
	recs := eng.Prescriptive.Recommend(diag, kpis)

	var buf strings.Builder
	err := recommendationsTemplate.Execute(&buf, recs)
	return buf.String(), err
}

// HandleRefreshAll repaints every dashboard section over one stream.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	eng, ok := h.dataset.Engines()
	if !ok {
		sse.PatchElements(`<div id="kpi-content">No dataset loaded. Upload a CSV to begin.</div>`)
		return
	}

	renderers := []func(agents.Engines) (string, error){
		h.renderKPIs,
		h.renderDrivers,
		h.renderForecast,
		h.renderRecommendations,
	}
	for _, render := range renderers {
		html, err := render(eng)
		if err != nil {
			h.logger.Error("render section", "error", err)
			continue
		}
		sse.PatchElements(html)
	}

	html, points, err := h.renderTrend(eng)
	if err == nil {
		if signals, merr := json.Marshal(map[string]any{"trendData": points}); merr == nil {
			sse.PatchSignals(signals)
		}
		sse.PatchElements(html)
	}
	flush(w)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
