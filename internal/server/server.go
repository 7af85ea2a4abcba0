package server

import (
	"log/slog"
	"net/http"

	"salesiq/internal/agents"
	"salesiq/internal/config"
	"salesiq/internal/handlers"
	"salesiq/internal/observability"
	"salesiq/internal/services"
)

type Server struct {
	dataset     *services.Dataset
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(
	dataset *services.Dataset,
	orchestrator *agents.Orchestrator,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *slog.Logger,
	templateHandlers *TemplateHandlers,
) *Server {
	s := &Server{
		dataset:     dataset,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(dataset, orchestrator, metrics, cfg.Dataset.MaxUploadSize, logger),
		sseHandlers: handlers.NewSSEHandlers(dataset, logger),
	}
	s.setupRoutes(templateHandlers, metrics)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers, metrics *observability.Metrics) {
	// Dashboard and operational routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /metrics", metrics.Handler())

	// REST API endpoints
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /api/trend", s.apiHandlers.HandleTrend)
	s.mux.HandleFunc("GET /api/drivers", s.apiHandlers.HandleDrivers)
	s.mux.HandleFunc("GET /api/forecast", s.apiHandlers.HandleForecast)
	s.mux.HandleFunc("GET /api/recommendations", s.apiHandlers.HandleRecommendations)
	s.mux.HandleFunc("GET /api/growth", s.apiHandlers.HandleGrowth)
	s.mux.HandleFunc("POST /api/query", s.apiHandlers.HandleQuery)
	s.mux.HandleFunc("POST /api/upload", s.apiHandlers.HandleUpload)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/kpis", s.sseHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /sse/trend", s.sseHandlers.HandleTrend)
	s.mux.HandleFunc("GET /sse/drivers", s.sseHandlers.HandleDrivers)
	s.mux.HandleFunc("GET /sse/forecast", s.sseHandlers.HandleForecast)
	s.mux.HandleFunc("GET /sse/recommendations", s.sseHandlers.HandleRecommendations)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
