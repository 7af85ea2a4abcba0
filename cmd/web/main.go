package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"salesiq/internal/agents"
	"salesiq/internal/config"
	"salesiq/internal/llm"
	"salesiq/internal/memory"
	"salesiq/internal/middleware"
	"salesiq/internal/observability"
	"salesiq/internal/server"
	"salesiq/internal/services"
	"salesiq/internal/ui/templates"
)

const (
	renderTimeout  = 10 * time.Second
	csvLoadTimeout = 30 * time.Second
	cacheMaxAge    = "public, max-age=300"
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("starting application", "version", "1.0.0")

	metrics := observability.NewMetrics()
	dataset := services.NewDataset(cfg.Analytics, metrics, logger)

	ctx, cancel := context.WithTimeout(context.Background(), csvLoadTimeout)
	defer cancel()

	if cfg.Dataset.CSVFile != "" {
		warnings, err := dataset.LoadCSVFile(ctx, cfg.Dataset.CSVFile)
		if err != nil {
			logger.Error("failed to load CSV data", "file", cfg.Dataset.CSVFile, "error", err)
			os.Exit(1)
		}
		for _, warning := range warnings {
			logger.Warn("data quality", "warning", warning)
		}
	} else {
		if _, err := dataset.LoadRaw(services.SampleTable(), "bundled sample"); err != nil {
			logger.Error("failed to load sample data", "error", err)
			os.Exit(1)
		}
		logger.Info("initialized with bundled sample dataset", "rows", dataset.RecordCount())
	}

	blueprints, err := agents.LoadBlueprints(cfg.Analytics.BlueprintsFile)
	if err != nil {
		logger.Error("failed to load agent blueprints", "error", err)
		os.Exit(1)
	}

	llmClient := llm.New(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Endpoint:    cfg.LLM.Endpoint,
		Temperature: cfg.LLM.Temperature,
	})
	if !llmClient.Enabled() {
		logger.Warn("no LLM API key configured, executive summaries fall back to deterministic text")
	}

	mem := memory.New(cfg.Analytics.MemoryEntries)
	orchestrator := agents.NewOrchestrator(llmClient, mem, blueprints, logger)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}
	srv := server.NewServer(dataset, orchestrator, metrics, cfg, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Metrics(metrics),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down dataset service")
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("application stopped gracefully")
}
