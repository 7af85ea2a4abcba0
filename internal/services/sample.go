package services

import (
	"fmt"
	"time"

	"salesiq/internal/schema"
)

// SampleTable builds a small deterministic demo dataset so the service
// starts useful before any upload, mirroring the bundled demo data of
// the reference deployment.
func SampleTable() *schema.RawTable {
	headers := []string{"Date", "Region", "Product Category", "Revenue", "Profit", "Units Sold", "Discount", "Sales Channel"}

	regions := []string{"North", "South", "West"}
	categories := []string{"Electronics", "Apparel", "Home"}
	channels := []string{"Online", "Retail"}

	var rows [][]string
	start := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	for month := 0; month < 6; month++ {
		for ri, region := range regions {
			for ci, category := range categories {
				date := start.AddDate(0, month, (ri+ci)%20)
				// Mild upward trend with per-region and per-category offsets.
				revenue := 1000.0 + 120.0*float64(month) + 250.0*float64(ri) + 90.0*float64(ci)
				profit := revenue * 0.24
				units := 40 + 5*month + 3*ri
				discount := 0.05 + 0.01*float64(ci)

				rows = append(rows, []string{
					date.Format("2006-01-02"),
					region,
					category,
					fmt.Sprintf("%.2f", revenue),
					fmt.Sprintf("%.2f", profit),
					fmt.Sprintf("%d", units),
					fmt.Sprintf("%.2f", discount),
					channels[(ri+ci)%len(channels)],
				})
			}
		}
	}
	return &schema.RawTable{Headers: headers, Rows: rows}
}
