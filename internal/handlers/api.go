package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"salesiq/internal/agents"
	"salesiq/internal/analytics"
	apperrors "salesiq/internal/errors"
	"salesiq/internal/models"
	"salesiq/internal/observability"
	"salesiq/internal/schema"
	"salesiq/internal/services"
)

const cacheControl = "public, max-age=60"

var cacheHeaders = map[string]string{"Cache-Control": cacheControl}

type APIHandlers struct {
	dataset      *services.Dataset
	orchestrator *agents.Orchestrator
	metrics      *observability.Metrics
	maxUpload    int64
	logger       *slog.Logger
}

func NewAPIHandlers(dataset *services.Dataset, orchestrator *agents.Orchestrator, metrics *observability.Metrics, maxUpload int64, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dataset:      dataset,
		orchestrator: orchestrator,
		metrics:      metrics,
		maxUpload:    maxUpload,
		logger:       logger,
	}
}

// engines fetches the current engine snapshot or writes the
// no-dataset-loaded error.
func (h *APIHandlers) engines(w http.ResponseWriter, r *http.Request) (agents.Engines, bool) {
	eng, ok := h.dataset.Engines()
	if !ok {
		requestID := observability.GetRequestID(r.Context())
		apperrors.WriteError(w, h.logger, apperrors.ServiceUnavailable("No dataset loaded"), requestID)
	}
	return eng, ok
}

func (h *APIHandlers) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := observability.GetRequestID(r.Context())
	if errors.Is(err, analytics.ErrUnknownField) {
		apperrors.WriteError(w, h.logger, apperrors.BadRequestWrap(err, err.Error()), requestID)
		return
	}
	apperrors.WriteError(w, h.logger, apperrors.InternalWrap(err, "analytics failure"), requestID)
}

func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *APIHandlers) dateRange(w http.ResponseWriter, r *http.Request) (from, to *time.Time, ok bool) {
	requestID := observability.GetRequestID(r.Context())
	from, err := parseDateParam(r, "date_from")
	if err != nil {
		apperrors.WriteError(w, h.logger, apperrors.BadRequest("date_from must be YYYY-MM-DD"), requestID)
		return nil, nil, false
	}
	to, err = parseDateParam(r, "date_to")
	if err != nil {
		apperrors.WriteError(w, h.logger, apperrors.BadRequest("date_to must be YYYY-MM-DD"), requestID)
		return nil, nil, false
	}
	return from, to, true
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	eng, ok := h.engines(w, r)
	if !ok {
		return
	}
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}
	apperrors.WriteSuccessWithHeaders(w, eng.Analytical.SummaryKPIs(from, to), cacheHeaders)
}

func (h *APIHandlers) HandleTrend(w http.ResponseWriter, r *http.Request) {
	eng, ok := h.engines(w, r)
	if !ok {
		return
	}
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	points, err := eng.Analytical.Trend(r.URL.Query().Get("groupby"), r.URL.Query().Get("measure"), from, to)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	apperrors.WriteSuccessWithHeaders(w, points, cacheHeaders)
}

func (h *APIHandlers) HandleDrivers(w http.ResponseWriter, r *http.Request) {
	eng, ok := h.engines(w, r)
	if !ok {
		return
	}
	requestID := observability.GetRequestID(r.Context())

	periodA := r.URL.Query().Get("period_a")
	periodB := r.URL.Query().Get("period_b")
	if periodA == "" || periodB == "" {
		months := eng.Analytical.Months()
		if len(months) < 2 {
			apperrors.WriteError(w, h.logger, apperrors.Validation("Not enough data for month-over-month comparison"), requestID)
			return
		}
		periodA = months[len(months)-2].Format("2006-01")
		periodB = months[len(months)-1].Format("2006-01")
	}

	var dims []string
	if raw := r.URL.Query().Get("dims"); raw != "" {
		dims = strings.Split(raw, ",")
	}

	drivers, err := eng.Analytical.Drivers(periodA, periodB, dims)
	if err != nil {
		if errors.Is(err, analytics.ErrUnknownField) {
			h.writeEngineError(w, r, err)
			return
		}
		apperrors.WriteError(w, h.logger, apperrors.BadRequest("periods must be YYYY-MM"), requestID)
		return
	}
	apperrors.WriteSuccessWithHeaders(w, drivers, cacheHeaders)
}

func (h *APIHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	eng, ok := h.engines(w, r)
	if !ok {
		return
	}
	requestID := observability.GetRequestID(r.Context())

	measure := r.URL.Query().Get("measure")
	horizon := 1
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		var err error
		horizon, err = strconv.Atoi(raw)
		if err != nil || horizon < 1 || horizon > 24 {
			apperrors.WriteError(w, h.logger, apperrors.BadRequest("horizon must be an integer between 1 and 24"), requestID)
			return
		}
	}

	if group := r.URL.Query().Get("group"); group != "" {
		forecast, err := eng.Predictive.ForecastByGroup(group, measure, horizon)
		if err != nil {
			h.writeEngineError(w, r, err)
			return
		}
		apperrors.WriteSuccessWithHeaders(w, forecast, cacheHeaders)
		return
	}

	forecast, err := eng.Predictive.ForecastMonthly(measure, horizon)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	apperrors.WriteSuccessWithHeaders(w, forecast, cacheHeaders)
}

func (h *APIHandlers) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	eng, ok := h.engines(w, r)
	if !ok {
		return
	}

	kpis := eng.Analytical.SummaryKPIs(nil, nil)
	var diag *models.DriverDeltaSet
	if months := eng.Analytical.Months(); len(months) >= 2 {
		periodA := months[len(months)-2].Format("2006-01")
		periodB := months[len(months)-1].Format("2006-01")
		if d, err := eng.Analytical.Drivers(periodA, periodB, nil); err == nil {
			diag = d
		}
	}
	apperrors.WriteSuccessWithHeaders(w, eng.Prescriptive.Recommend(diag, kpis), cacheHeaders)
}

func (h *APIHandlers) HandleGrowth(w http.ResponseWriter, r *http.Request) {
	eng, ok := h.engines(w, r)
	if !ok {
		return
	}
	apperrors.WriteSuccessWithHeaders(w, map[string]string{"summary": eng.Analytical.GrowthSummary()}, cacheHeaders)
}

type queryRequest struct {
	Query string `json:"query"`
}

func (h *APIHandlers) HandleQuery(w http.ResponseWriter, r *http.Request) {
	eng, ok := h.engines(w, r)
	if !ok {
		return
	}
	requestID := observability.GetRequestID(r.Context())

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, h.logger, apperrors.BadRequest("body must be JSON with a query field"), requestID)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		apperrors.WriteError(w, h.logger, apperrors.BadRequest("query must not be empty"), requestID)
		return
	}

	report, err := h.orchestrator.RunQuery(r.Context(), eng, req.Query)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	for _, tag := range report.Intents {
		h.metrics.QueriesTotal.WithLabelValues(tag).Inc()
	}
	apperrors.WriteSuccess(w, report)
}

type uploadResponse struct {
	Rows     int              `json:"rows"`
	Columns  models.ColumnMap `json:"columns"`
	Warnings []string         `json:"warnings"`
}

func (h *APIHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		apperrors.WriteError(w, h.logger, apperrors.BadRequestWrap(err, "invalid multipart upload"), requestID)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		apperrors.WriteError(w, h.logger, apperrors.BadRequest("upload must include a file field"), requestID)
		return
	}
	defer file.Close()

	raw, err := schema.ReadCSV(file)
	if err != nil {
		apperrors.WriteError(w, h.logger, apperrors.BadRequestWrap(err, "could not parse CSV"), requestID)
		return
	}

	warnings, err := h.dataset.LoadRaw(raw, header.Filename)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			apperrors.WriteError(w, h.logger, apperrors.MissingFields(verr.Missing), requestID)
			return
		}
		apperrors.WriteError(w, h.logger, apperrors.InternalWrap(err, "dataset load failed"), requestID)
		return
	}

	h.logger.Info("dataset uploaded",
		"filename", header.Filename,
		"rows", h.dataset.RecordCount(),
		"warnings", len(warnings),
		"request_id", requestID,
	)
	apperrors.WriteSuccess(w, uploadResponse{
		Rows:     h.dataset.RecordCount(),
		Columns:  h.dataset.Columns(),
		Warnings: warnings,
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, h.dataset.Stats())
}
