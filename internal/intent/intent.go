// Package intent classifies free-text business questions into the
// analytical intents that drive engine invocation.
package intent

import "strings"

const (
	Descriptive  = "descriptive"
	Diagnostic   = "diagnostic"
	Predictive   = "predictive"
	Prescriptive = "prescriptive"
)

// taxonomy fixes the output order so repeated queries classify
// deterministically.
var taxonomy = []string{Descriptive, Diagnostic, Predictive, Prescriptive}

var keywords = map[string][]string{
	Descriptive: {
		"what happened", "summary", "summarize", "describe", "overview",
		"kpi", "trend", "totals", "top", "bottom", "compare", "by region",
		"by category", "by segment", "share", "contribution",
	},
	Diagnostic: {
		"why", "reason", "cause", "root cause", "driver", "impact", "effect",
		"correlat", "variance", "decline", "drop", "increase", "spike", "anomaly",
	},
	Predictive: {
		"forecast", "predict", "projection", "likely", "next month", "next quarter",
		"future", "expected",
	},
	Prescriptive: {
		"what should", "recommend", "action", "optimize", "improve", "strategy",
		"promotion", "pricing", "stock", "inventory", "campaign",
	},
}

// Detect returns the non-empty set of intents whose keywords appear in
// the query, in taxonomy order. With no keyword hit it defaults to
// descriptive.
func Detect(query string) []string {
	q := strings.ToLower(query)
	var hits []string
	for _, tag := range taxonomy {
		for _, kw := range keywords[tag] {
			if strings.Contains(q, kw) {
				hits = append(hits, tag)
				break
			}
		}
	}
	if len(hits) == 0 {
		return []string{Descriptive}
	}
	return hits
}

// Has reports whether the tag set contains the given intent.
func Has(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
