// Package agents orchestrates the analytical engines and language-model
// personas into an end-to-end query workflow.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"salesiq/internal/analytics"
	"salesiq/internal/charts"
	"salesiq/internal/intent"
	"salesiq/internal/llm"
	"salesiq/internal/memory"
	"salesiq/internal/models"
)

// Engines is the snapshot of analytical engines a query runs against.
// All three operate on private copies of the same canonical table.
type Engines struct {
	Analytical   *analytics.AnalyticalEngine
	Predictive   *analytics.PredictiveEngine
	Prescriptive *analytics.PrescriptiveEngine
}

// PredictiveSection bundles the overall and per-region forecasts
// produced for predictive queries.
type PredictiveSection struct {
	Overall  *models.Forecast      `json:"overall"`
	ByRegion *models.GroupForecast `json:"by_region"`
}

// Report is the full result of one orchestrated query.
type Report struct {
	Answer         string                    `json:"answer"`
	Intents        []string                  `json:"intents"`
	Descriptive    *models.KPISnapshot       `json:"descriptive,omitempty"`
	Diagnostic     *models.DriverDeltaSet    `json:"diagnostic,omitempty"`
	DiagnosticNote string                    `json:"diagnostic_note,omitempty"`
	Predictive     *PredictiveSection        `json:"predictive,omitempty"`
	Prescriptive   *models.RecommendationSet `json:"prescriptive,omitempty"`
	ChartURI       string                    `json:"chart_uri,omitempty"`
	AgentLog       string                    `json:"agent_log,omitempty"`
	MemoryContext  string                    `json:"memory_context,omitempty"`
}

type Orchestrator struct {
	llm        *llm.Client
	memory     *memory.Memory
	blueprints *Blueprints
	logger     *slog.Logger
}

func NewOrchestrator(client *llm.Client, mem *memory.Memory, bp *Blueprints, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{llm: client, memory: mem, blueprints: bp, logger: logger}
}

var chartTokens = []string{"trend", "chart", "visualize", "graph", "plot"}

// RunQuery classifies the query, invokes the engines matching its
// intents, delegates one task per produced section to the configured
// personas, and compiles the executive summary. Without a configured
// LLM it degrades to a deterministic summary built from the same data.
func (o *Orchestrator) RunQuery(ctx context.Context, eng Engines, query string) (*Report, error) {
	report := &Report{Intents: intent.Detect(query)}
	o.logger.Info("running query", "intents", report.Intents)

	if intent.Has(report.Intents, intent.Descriptive) || intent.Has(report.Intents, intent.Diagnostic) {
		report.Descriptive = eng.Analytical.SummaryKPIs(nil, nil)
		if wantsChart(query) {
			if points, err := eng.Analytical.Trend("", "", nil, nil); err == nil {
				report.ChartURI = charts.RenderLine(points, "Monthly Revenue Trend")
			}
		}
		report.Diagnostic, report.DiagnosticNote = o.lastTwoMonthDrivers(eng)
	}

	if intent.Has(report.Intents, intent.Predictive) {
		overall, err := eng.Predictive.ForecastMonthly(models.FieldRevenue, 2)
		if err != nil {
			return nil, fmt.Errorf("overall forecast: %w", err)
		}
		byRegion, err := eng.Predictive.ForecastByGroup(models.FieldRegion, models.FieldRevenue, 1)
		if err != nil {
			return nil, fmt.Errorf("regional forecast: %w", err)
		}
		report.Predictive = &PredictiveSection{Overall: overall, ByRegion: byRegion}
	}

	if intent.Has(report.Intents, intent.Prescriptive) {
		kpis := report.Descriptive
		diag := report.Diagnostic
		if kpis == nil || diag == nil {
			kpis = eng.Analytical.SummaryKPIs(nil, nil)
			diag, _ = o.lastTwoMonthDrivers(eng)
		}
		report.Prescriptive = eng.Prescriptive.Recommend(diag, kpis)
	}

	report.AgentLog = o.runTasks(ctx, report)
	report.Answer = o.summarize(ctx, eng, query, report)

	o.memory.Add("user", query)
	o.memory.Add("assistant", report.Answer)
	report.MemoryContext = o.memory.Context()
	return report, nil
}

func wantsChart(query string) bool {
	q := strings.ToLower(query)
	for _, token := range chartTokens {
		if strings.Contains(q, token) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) lastTwoMonthDrivers(eng Engines) (*models.DriverDeltaSet, string) {
	months := eng.Analytical.Months()
	if len(months) < 2 {
		return nil, "Not enough data for month-over-month comparison."
	}
	periodA := months[len(months)-2].Format("2006-01")
	periodB := months[len(months)-1].Format("2006-01")
	diag, err := eng.Analytical.Drivers(periodA, periodB, nil)
	if err != nil {
		o.logger.Warn("driver analysis failed", "error", err)
		return nil, "Driver analysis unavailable."
	}
	return diag, ""
}

// runTasks issues one LLM call per produced section using the persona
// wired to that task. The collected exchanges form the collaboration log.
func (o *Orchestrator) runTasks(ctx context.Context, report *Report) string {
	if !o.llm.Enabled() {
		return ""
	}

	type section struct {
		task    string
		payload any
	}
	sections := []section{}
	if report.Descriptive != nil || report.Diagnostic != nil {
		sections = append(sections, section{"descriptive", map[string]any{
			"kpis": report.Descriptive, "drivers": report.Diagnostic,
		}})
	}
	if report.Predictive != nil {
		sections = append(sections, section{"predictive", report.Predictive})
	}
	if report.Prescriptive != nil {
		sections = append(sections, section{"prescriptive", report.Prescriptive})
	}

	var log strings.Builder
	for _, s := range sections {
		task, ok := o.blueprints.Tasks[s.task]
		if !ok {
			continue
		}
		agent, ok := o.blueprints.Agents[task.Agent]
		if !ok {
			continue
		}

		payload, err := json.Marshal(s.payload)
		if err != nil {
			continue
		}
		system := fmt.Sprintf("You are %s. Goal: %s\n%s", agent.Role, agent.Goal, agent.Backstory)
		user := fmt.Sprintf("%s\n\nExpected output: %s\n\nData:\n%s", task.Description, task.ExpectedOutput, payload)

		answer, err := o.llm.Complete(ctx, system, user)
		if err != nil {
			o.logger.Warn("agent task failed", "task", s.task, "error", err)
			continue
		}
		fmt.Fprintf(&log, "### %s\n%s\n\n", agent.Role, answer)
	}
	return strings.TrimSpace(log.String())
}

func (o *Orchestrator) summarize(ctx context.Context, eng Engines, query string, report *Report) string {
	if !o.llm.Enabled() {
		return o.fallbackSummary(eng, report)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return o.fallbackSummary(eng, report)
	}

	system := "You are an AI Business Intelligence Assistant preparing an executive insight summary."
	user := fmt.Sprintf(`User question:
%s

Write a concise, professional 4-6 sentence executive summary that answers the question directly.
Begin with the overall performance or trend, present key KPIs in business context, explain one or
two key drivers of change, include a short forecast highlight if predictive data exists, and close
with two or three actionable recommendations. Keep the tone factual and C-suite appropriate.

Structured analytical context:
%s

Collaborative agent summary:
%s`, query, payload, report.AgentLog)

	answer, err := o.llm.Complete(ctx, system, user)
	if err != nil {
		o.logger.Warn("summary generation failed, using fallback", "error", err)
		return o.fallbackSummary(eng, report)
	}
	return answer
}

// fallbackSummary composes a deterministic answer from the computed
// sections so the app stays useful without a model endpoint.
func (o *Orchestrator) fallbackSummary(eng Engines, report *Report) string {
	var parts []string
	parts = append(parts, eng.Analytical.GrowthSummary())

	if k := report.Descriptive; k != nil {
		parts = append(parts, fmt.Sprintf(
			"Total revenue is %.2f with profit of %.2f across %d orders (average discount %.1f%%).",
			k.RevenueTotal, k.ProfitTotal, k.Orders, k.AvgDiscount*100))
		if len(k.TopCategories) > 0 {
			parts = append(parts, "Top category: "+k.TopCategories[0].Key+".")
		}
	}
	if d := report.Diagnostic; d != nil {
		direction := "up"
		if d.DeltaRevenue < 0 {
			direction = "down"
		}
		parts = append(parts, fmt.Sprintf("Revenue moved %s by %.2f from %s to %s.",
			direction, d.DeltaRevenue, d.PeriodA, d.PeriodB))
	}
	if p := report.Predictive; p != nil && p.Overall != nil && len(p.Overall.Forecasts) > 0 {
		parts = append(parts, "A linear trend forecast is available for the coming months.")
	}
	if r := report.Prescriptive; r != nil && len(r.Recommendations) > 0 {
		parts = append(parts, "Suggested next step: "+r.Recommendations[0])
	}
	return strings.Join(parts, " ")
}
