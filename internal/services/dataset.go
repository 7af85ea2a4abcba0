// Package services owns the loaded dataset and the engine instances
// built from it. Engines are replaced wholesale on every load; readers
// always see a consistent snapshot.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"salesiq/internal/agents"
	"salesiq/internal/analytics"
	"salesiq/internal/config"
	"salesiq/internal/models"
	"salesiq/internal/observability"
	"salesiq/internal/schema"
)

const parseWorkers = 8

// ValidationError is the hard failure for a dataset whose required
// canonical fields had no matching header.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required logical columns: " + strings.Join(e.Missing, ", ")
}

type Dataset struct {
	mu           sync.RWMutex
	table        *models.Table
	columns      models.ColumnMap
	warnings     []string
	analytical   *analytics.AnalyticalEngine
	predictive   *analytics.PredictiveEngine
	prescriptive *analytics.PrescriptiveEngine
	source       string
	loadedAt     time.Time

	cfg     config.AnalyticsConfig
	metrics *observability.Metrics
	logger  *slog.Logger
}

func NewDataset(cfg config.AnalyticsConfig, metrics *observability.Metrics, logger *slog.Logger) *Dataset {
	return &Dataset{cfg: cfg, metrics: metrics, logger: logger}
}

// LoadCSVFile reads and installs a dataset from disk. Rows are parsed
// in bounded-parallel chunks; row order is preserved.
func (d *Dataset) LoadCSVFile(ctx context.Context, path string) ([]string, error) {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	raw, err := parseCSVParallel(ctx, string(data))
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	warnings, err := d.LoadRaw(raw, path)
	if err != nil {
		return nil, err
	}
	d.logger.Info("dataset loaded",
		"source", path,
		"rows", d.RecordCount(),
		"duration", time.Since(start),
	)
	return warnings, nil
}

// parseCSVParallel splits the body into line chunks parsed concurrently
// with a bounded errgroup, then reassembles them in order. The header
// line is parsed up front.
func parseCSVParallel(ctx context.Context, data string) (*schema.RawTable, error) {
	headerEnd := strings.IndexByte(data, '\n')
	if headerEnd < 0 {
		headerEnd = len(data)
	}
	header, err := schema.ReadCSV(strings.NewReader(data[:headerEnd]))
	if err != nil {
		return nil, err
	}

	body := ""
	if headerEnd < len(data) {
		body = data[headerEnd+1:]
	}
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return &schema.RawTable{Headers: header.Headers}, nil
	}

	chunkSize := (len(lines) + parseWorkers - 1) / parseWorkers
	type chunk struct {
		index int
		rows  [][]string
	}
	results := make([]chunk, 0, parseWorkers)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parseWorkers)

	headerLine := data[:headerEnd]
	for i := 0; i < len(lines); i += chunkSize {
		index := i / chunkSize
		end := min(i+chunkSize, len(lines))
		part := strings.Join(lines[i:end], "\n")

		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			// Re-prefix the header so column widths line up.
			parsed, err := schema.ReadCSV(strings.NewReader(headerLine + "\n" + part))
			if err != nil {
				return fmt.Errorf("chunk %d: %w", index, err)
			}
			mu.Lock()
			results = append(results, chunk{index: index, rows: parsed.Rows})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ordered := make([][][]string, (len(lines)+chunkSize-1)/chunkSize)
	for _, c := range results {
		ordered[c.index] = c.rows
	}
	var rows [][]string
	for _, part := range ordered {
		rows = append(rows, part...)
	}
	return &schema.RawTable{Headers: header.Headers, Rows: rows}, nil
}

// LoadRaw normalizes a raw table and atomically swaps in fresh engines.
// It returns advisory data-quality warnings, or a ValidationError when
// required fields are unmatched (the previous dataset stays installed).
func (d *Dataset) LoadRaw(raw *schema.RawTable, source string) ([]string, error) {
	table, columns, missing, warnings := schema.Build(raw)
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	analytical := analytics.NewAnalyticalEngine(table)
	predictive := analytics.NewPredictiveEngine(table)
	prescriptive := analytics.NewPrescriptiveEngine(d.cfg.RevenueTargetGrowth, d.cfg.MarginFloor)

	d.mu.Lock()
	d.table = table
	d.columns = columns
	d.warnings = warnings
	d.analytical = analytical
	d.predictive = predictive
	d.prescriptive = prescriptive
	d.source = source
	d.loadedAt = time.Now()
	d.mu.Unlock()

	d.metrics.DatasetRows.Set(float64(len(table.Records)))
	d.metrics.DatasetLoads.Inc()
	return warnings, nil
}

// Loaded reports whether a dataset has been installed.
func (d *Dataset) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.table != nil
}

// Engines returns the current engine snapshot for one query. All
// returned engines operate over the same table generation.
func (d *Dataset) Engines() (agents.Engines, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.table == nil {
		return agents.Engines{}, false
	}
	return agents.Engines{
		Analytical:   d.analytical,
		Predictive:   d.predictive,
		Prescriptive: d.prescriptive,
	}, true
}

func (d *Dataset) RecordCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.table == nil {
		return 0
	}
	return len(d.table.Records)
}

// Columns returns the canonical-to-source column map of the current
// dataset.
func (d *Dataset) Columns() models.ColumnMap {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(models.ColumnMap, len(d.columns))
	for k, v := range d.columns {
		out[k] = v
	}
	return out
}

// Warnings returns the advisory quality warnings from the last load.
func (d *Dataset) Warnings() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.warnings))
	copy(out, d.warnings)
	return out
}

// Stats summarizes the loaded dataset for the admin endpoint.
func (d *Dataset) Stats() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := map[string]any{
		"loaded": d.table != nil,
	}
	if d.table == nil {
		return stats
	}
	stats["source"] = d.source
	stats["loaded_at"] = d.loadedAt
	stats["rows"] = len(d.table.Records)
	stats["months"] = len(d.table.Months())
	stats["columns"] = d.columns
	stats["warnings"] = d.warnings
	return stats
}
