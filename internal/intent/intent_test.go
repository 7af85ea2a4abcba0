package intent

import (
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"summary", "Give me a summary of sales performance", []string{Descriptive}},
		{"why", "Why did revenue decline last month?", []string{Diagnostic}},
		{"forecast", "Forecast revenue for next month", []string{Predictive}},
		{"recommend", "What should we do to improve margins?", []string{Prescriptive}},
		{"case insensitive", "FORECAST next QUARTER", []string{Predictive}},
		{"stem match", "Is discount correlated with revenue?", []string{Diagnostic}},
		{
			"multi intent in taxonomy order",
			"Why did sales drop and what should we do about it?",
			[]string{Diagnostic, Prescriptive},
		},
		{
			"all four",
			"Summarize the trend, explain why it dropped, forecast next month and recommend actions",
			[]string{Descriptive, Diagnostic, Predictive, Prescriptive},
		},
		{"no keywords defaults to descriptive", "hello there", []string{Descriptive}},
		{"empty query", "", []string{Descriptive}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("Detect(%q) = %v, want %v", tt.query, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Detect(%q) = %v, want %v", tt.query, got, tt.want)
					break
				}
			}
		})
	}
}

func TestDetect_Deterministic(t *testing.T) {
	query := "recommend actions because revenue dropped; also describe the trend"
	first := Detect(query)
	for i := 0; i < 10; i++ {
		got := Detect(query)
		for j := range first {
			if got[j] != first[j] {
				t.Fatalf("classification order changed between runs: %v vs %v", first, got)
			}
		}
	}
}

func TestHas(t *testing.T) {
	tags := []string{Descriptive, Predictive}
	if !Has(tags, Predictive) {
		t.Error("expected Has to find predictive")
	}
	if Has(tags, Prescriptive) {
		t.Error("expected Has to miss prescriptive")
	}
	if Has(nil, Descriptive) {
		t.Error("expected Has on nil to be false")
	}
}
