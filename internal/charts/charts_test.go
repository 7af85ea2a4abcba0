package charts

import (
	"encoding/base64"
	"strings"
	"testing"

	"salesiq/internal/models"
)

func decodeSVG(t *testing.T, uri string) string {
	t.Helper()
	const prefix = "data:image/svg+xml;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("expected data URI prefix, got %q", uri[:min(len(uri), 40)])
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	return string(raw)
}

func TestRenderLine(t *testing.T) {
	points := []models.TrendPoint{
		{Bucket: "2024-01", Value: 1000},
		{Bucket: "2024-02", Value: 1500},
		{Bucket: "2024-03", Value: 1200},
	}
	svg := decodeSVG(t, RenderLine(points, "Monthly Revenue Trend"))

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Error("payload should be a complete SVG document")
	}
	if !strings.Contains(svg, "Monthly Revenue Trend") {
		t.Error("title should appear in the SVG")
	}
	if !strings.Contains(svg, "<polyline") {
		t.Error("expected a polyline element")
	}
	// First and last buckets label the x axis.
	if !strings.Contains(svg, "2024-01") || !strings.Contains(svg, "2024-03") {
		t.Error("expected first and last bucket labels")
	}
	if strings.Count(svg, "<circle") != len(points) {
		t.Errorf("expected %d point markers", len(points))
	}
}

func TestRenderLine_Empty(t *testing.T) {
	if got := RenderLine(nil, "Empty"); got != "" {
		t.Errorf("empty series should render nothing, got %q", got)
	}
}

func TestRenderLine_SinglePoint(t *testing.T) {
	svg := decodeSVG(t, RenderLine([]models.TrendPoint{{Bucket: "2024-01", Value: 500}}, "One"))
	if !strings.Contains(svg, "<circle") {
		t.Error("single point should still render a marker")
	}
}

func TestRenderLine_FlatSeries(t *testing.T) {
	points := []models.TrendPoint{
		{Bucket: "2024-01", Value: 100},
		{Bucket: "2024-02", Value: 100},
	}
	svg := decodeSVG(t, RenderLine(points, "Flat"))
	if strings.Contains(svg, "NaN") {
		t.Error("flat series must not divide by zero")
	}
}

func TestRenderLine_TitleEscaped(t *testing.T) {
	svg := decodeSVG(t, RenderLine([]models.TrendPoint{{Bucket: "a", Value: 1}}, `Revenue <by> "Region"`))
	if strings.Contains(svg, "<by>") {
		t.Error("title must be HTML-escaped")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{250, "250.0"},
		{1500, "1.5K"},
		{2500000, "2.5M"},
		{-1500, "-1.5K"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%g) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
