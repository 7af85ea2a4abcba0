package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"salesiq/internal/agents"
	"salesiq/internal/config"
	"salesiq/internal/llm"
	"salesiq/internal/memory"
	"salesiq/internal/observability"
	"salesiq/internal/services"
)

func createTestHandlers(t *testing.T, loaded bool) *APIHandlers {
	t.Helper()
	logger := slog.Default()
	metrics := observability.NewMetrics()
	dataset := services.NewDataset(config.AnalyticsConfig{RevenueTargetGrowth: 0.05, MarginFloor: 0.20}, metrics, logger)
	if loaded {
		if _, err := dataset.LoadRaw(services.SampleTable(), "sample"); err != nil {
			t.Fatal(err)
		}
	}

	bp, err := agents.LoadBlueprints("")
	if err != nil {
		t.Fatal(err)
	}
	orchestrator := agents.NewOrchestrator(llm.New(llm.Config{}), memory.New(10), bp, logger)

	return NewAPIHandlers(dataset, orchestrator, metrics, 1<<20, logger)
}

func decodeSuccess(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data    map[string]any `json:"data"`
		Success bool           `json:"success"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("expected success envelope, got %s", w.Body.String())
	}
	return envelope.Data
}

func TestHandleKPIs(t *testing.T) {
	h := createTestHandlers(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/kpis", nil)
	w := httptest.NewRecorder()
	h.HandleKPIs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=60" {
		t.Errorf("expected cache headers, got %q", cc)
	}

	data := decodeSuccess(t, w)
	if data["revenue_total"].(float64) <= 0 {
		t.Errorf("expected positive revenue total, got %v", data["revenue_total"])
	}
	if data["orders"].(float64) != 54 {
		t.Errorf("expected 54 orders, got %v", data["orders"])
	}
}

func TestHandleKPIs_DateFilter(t *testing.T) {
	h := createTestHandlers(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/kpis?date_from=2024-01-01&date_to=2024-01-31", nil)
	w := httptest.NewRecorder()
	h.HandleKPIs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	data := decodeSuccess(t, w)
	if data["orders"].(float64) != 9 {
		t.Errorf("expected 9 January orders, got %v", data["orders"])
	}
}

func TestHandleKPIs_BadDate(t *testing.T) {
	h := createTestHandlers(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/kpis?date_from=January", nil)
	w := httptest.NewRecorder()
	h.HandleKPIs(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestHandleKPIs_NoDataset(t *testing.T) {
	h := createTestHandlers(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/kpis", nil)
	w := httptest.NewRecorder()
	h.HandleKPIs(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 without a dataset, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No dataset loaded") {
		t.Errorf("expected no-dataset message, got %s", w.Body.String())
	}
}

func TestHandleTrend(t *testing.T) {
	h := createTestHandlers(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/trend", nil)
	w := httptest.NewRecorder()
	h.HandleTrend(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var envelope struct {
		Data []struct {
			Bucket string  `json:"bucket"`
			Value  float64 `json:"value"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if len(envelope.Data) != 6 {
		t.Fatalf("expected 6 monthly buckets, got %d", len(envelope.Data))
	}
	if envelope.Data[0].Bucket != "2024-01" {
		t.Errorf("expected first bucket 2024-01, got %q", envelope.Data[0].Bucket)
	}
}

func TestHandleTrend_UnknownMeasure(t *testing.T) {
	h := createTestHandlers(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/trend?measure=bogus", nil)
	w := httptest.NewRecorder()
	h.HandleTrend(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unknown measure, got %d", w.Code)
	}
}

func TestHandleDrivers_Defaults(t *testing.T) {
	h := createTestHandlers(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/drivers", nil)
	w := httptest.NewRecorder()
	h.HandleDrivers(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	data := decodeSuccess(t, w)
	// Defaults compare the last two observed months.
	if data["period_a"] != "2024-05" || data["period_b"] != "2024-06" {
		t.Errorf("expected default periods 2024-05/2024-06, got %v/%v", data["period_a"], data["period_b"])
	}
	dims := data["dimensions"].(map[string]any)
	if _, ok := dims["region"]; !ok {
		t.Errorf("expected region dimension, got %v", dims)
	}
	if _, ok := dims["product_category"]; !ok {
		t.Errorf("expected product_category dimension, got %v", dims)
	}
}

func TestHandleDrivers_BadPeriod(t *testing.T) {
	h := createTestHandlers(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/drivers?period_a=nope&period_b=2024-02", nil)
	w := httptest.NewRecorder()
	h.HandleDrivers(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestHandleForecast(t *testing.T) {
	h := createTestHandlers(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/forecast?horizon=2", nil)
	w := httptest.NewRecorder()
	h.HandleForecast(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	data := decodeSuccess(t, w)
	if data["measure"] != "revenue" {
		t.Errorf("expected revenue measure, got %v", data["measure"])
	}
	forecasts := data["forecasts"].(map[string]any)
	if len(forecasts) != 2 {
		t.Errorf("expected 2 predictions, got %v", forecasts)
	}
	if _, ok := forecasts["2024-07"]; !ok {
		t.Errorf("expected a 2024-07 prediction, got %v", forecasts)
	}
}

func TestHandleForecast_Grouped(t *testing.T) {
	h := createTestHandlers(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/forecast?group=region", nil)
	w := httptest.NewRecorder()
	h.HandleForecast(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	data := decodeSuccess(t, w)
	forecasts := data["forecasts"].(map[string]any)
	for _, region := range []string{"North", "South", "West"} {
		if _, ok := forecasts[region]; !ok {
			t.Errorf("expected a %s forecast, got %v", region, forecasts)
		}
	}
}

func TestHandleForecast_BadHorizon(t *testing.T) {
	h := createTestHandlers(t, true)

	for _, horizon := range []string{"0", "25", "abc", "-1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/forecast?horizon="+horizon, nil)
		w := httptest.NewRecorder()
		h.HandleForecast(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("horizon %q: expected status 400, got %d", horizon, w.Code)
		}
	}
}

func TestHandleRecommendations(t *testing.T) {
	h := createTestHandlers(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/recommendations", nil)
	w := httptest.NewRecorder()
	h.HandleRecommendations(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	data := decodeSuccess(t, w)
	recs := data["recommendations"].([]any)
	if len(recs) == 0 {
		t.Fatal("expected at least one recommendation")
	}
	// The growth target is always the final rule.
	last := recs[len(recs)-1].(string)
	if !strings.HasPrefix(last, "Set next-month revenue growth target") {
		t.Errorf("expected growth target last, got %q", last)
	}
}

func TestHandleGrowth(t *testing.T) {
	h := createTestHandlers(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/growth", nil)
	w := httptest.NewRecorder()
	h.HandleGrowth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	data := decodeSuccess(t, w)
	summary := data["summary"].(string)
	if !strings.Contains(summary, "2024-05") || !strings.Contains(summary, "2024-06") {
		t.Errorf("expected growth between the last two months, got %q", summary)
	}
}

func TestHandleQuery(t *testing.T) {
	h := createTestHandlers(t, true)

	body := bytes.NewBufferString(`{"query": "Give me a summary of performance"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/query", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleQuery(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	data := decodeSuccess(t, w)
	if data["answer"].(string) == "" {
		t.Error("expected a non-empty answer")
	}
	intents := data["intents"].([]any)
	if len(intents) != 1 || intents[0] != "descriptive" {
		t.Errorf("expected descriptive intent, got %v", intents)
	}
	if _, ok := data["descriptive"]; !ok {
		t.Error("expected a descriptive section")
	}
}

func TestHandleQuery_Empty(t *testing.T) {
	h := createTestHandlers(t, true)

	tests := []string{`{"query": "  "}`, `{}`, `not json`}
	for _, body := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.HandleQuery(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected status 400, got %d", body, w.Code)
		}
	}
}

func buildUpload(t *testing.T, csv string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "upload.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(csv)); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHandleUpload(t *testing.T) {
	h := createTestHandlers(t, false)

	csv := "Order Date,Territory,Category,Sales Amount,Profit\n" +
		"2024-01-05,North,Electronics,100,20\n" +
		"2024-02-06,South,Apparel,200,40\n"
	body, contentType := buildUpload(t, csv)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.HandleUpload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	data := decodeSuccess(t, w)
	if data["rows"].(float64) != 2 {
		t.Errorf("expected 2 rows, got %v", data["rows"])
	}
	columns := data["columns"].(map[string]any)
	if columns["revenue"] != "sales_amount" {
		t.Errorf("expected revenue mapped from sales_amount, got %v", columns)
	}
	warnings := data["warnings"].([]any)
	if len(warnings) == 0 {
		t.Error("expected the sparse-dates warning")
	}
}

func TestHandleUpload_MissingColumns(t *testing.T) {
	h := createTestHandlers(t, false)

	body, contentType := buildUpload(t, "date,region\n2024-01-05,North\n")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.HandleUpload(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", w.Code)
	}

	var envelope struct {
		Error struct {
			Code   string   `json:"code"`
			Fields []string `json:"fields"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %q", envelope.Error.Code)
	}
	if len(envelope.Error.Fields) != 3 {
		t.Errorf("expected 3 missing fields, got %v", envelope.Error.Fields)
	}
}

func TestHandleUpload_NoFile(t *testing.T) {
	h := createTestHandlers(t, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("other", "value")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.HandleUpload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 without a file field, got %d", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	h := createTestHandlers(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	data := decodeSuccess(t, w)
	if data["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", data["status"])
	}
}

func TestHandleStats(t *testing.T) {
	h := createTestHandlers(t, true)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()
	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	data := decodeSuccess(t, w)
	if data["loaded"] != true {
		t.Errorf("expected loaded=true, got %v", data["loaded"])
	}
}
