// Package templates holds the dashboard page components.
package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

var dashboardPage = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>AI Sales Assistant</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f4f5f7; color: #1f2933; }
header { text-align: center; padding: 1.2rem; background: #111827; color: #f9fafb; }
header p { margin: 0.2rem 0 0; color: #9ca3af; font-size: 0.9rem; }
main { max-width: 1100px; margin: 0 auto; padding: 1rem; }
section { background: #fff; border-radius: 8px; padding: 1rem 1.2rem; margin-bottom: 1rem; box-shadow: 0 1px 2px rgba(0,0,0,0.08); }
section h2 { margin-top: 0; font-size: 1.05rem; }
.kpi-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(150px, 1fr)); gap: 0.8rem; }
.kpi-card { background: #f9fafb; border-radius: 6px; padding: 0.8rem; display: flex; flex-direction: column; gap: 0.3rem; }
.kpi-label { color: #6b7280; font-size: 0.78rem; text-transform: uppercase; }
.modern-table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
.modern-table th, .modern-table td { text-align: left; padding: 0.45rem 0.6rem; border-bottom: 1px solid #e5e7eb; }
.section-note { color: #4b5563; font-size: 0.9rem; }
.rec-list li { margin-bottom: 0.4rem; }
.query-row { display: flex; gap: 0.6rem; }
.query-row input { flex: 1; padding: 0.55rem; border: 1px solid #d1d5db; border-radius: 6px; }
button { background: #2563eb; color: #fff; border: 0; border-radius: 6px; padding: 0.55rem 1rem; cursor: pointer; }
pre#answer { white-space: pre-wrap; background: #f9fafb; padding: 0.8rem; border-radius: 6px; }
</style>
</head>
<body data-on-load="@get('/sse/refresh-all')">
<header>
<h1>AI Sales Assistant</h1>
<p>Empowering business intelligence with autonomous multi-agent collaboration</p>
</header>
<main>
<section>
<h2>Upload Sales Data</h2>
<p class="section-note">CSV with at least: Date, Region, Product Category, Revenue, Profit.</p>
<form id="upload-form" action="/api/upload" method="post" enctype="multipart/form-data">
<input type="file" name="file" accept=".csv" required/>
<button type="submit">Upload</button>
</form>
</section>
<section>
<h2>Key Business Metrics</h2>
<div id="kpi-content">Loading…</div>
</section>
<section>
<h2>Monthly Revenue Trend</h2>
<div id="trend-content">Loading…</div>
</section>
<section>
<h2>Month-over-Month Drivers</h2>
<div id="drivers-content">Loading…</div>
</section>
<section>
<h2>Revenue Forecast</h2>
<div id="forecast-content">Loading…</div>
</section>
<section>
<h2>Recommended Actions</h2>
<div id="recommendations-content">Loading…</div>
</section>
<section>
<h2>Ask the Agents</h2>
<div class="query-row" data-signals="{query: ''}">
<input type="text" data-bind-query placeholder="e.g. Why did revenue drop last month and what should we do?"/>
<button data-on-click="@post('/api/query', {contentType: 'json'})">Run Analysis</button>
</div>
<pre id="answer"></pre>
</section>
</main>
</body>
</html>`))

// Dashboard returns the main page as a templ component.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return dashboardPage.Execute(w, nil)
	})
}
