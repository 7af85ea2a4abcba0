package schema

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"salesiq/internal/models"
)

// fieldAliases binds a canonical field to the raw headers that satisfy
// it. Alias order matters: the first alias with a matching header wins.
type fieldAliases struct {
	canonical string
	aliases   []string
}

var requiredColumns = []fieldAliases{
	{models.FieldDate, []string{"date", "order_date", "txn_date", "timestamp"}},
	{models.FieldRegion, []string{"region", "area", "territory"}},
	{models.FieldProductCategory, []string{"product_category", "category", "productgroup", "product_group"}},
	{models.FieldRevenue, []string{"revenue", "sales_amount", "net_sales", "salesvalue"}},
	{models.FieldProfit, []string{"profit", "gross_profit", "margin_amount"}},
}

var optionalColumns = []fieldAliases{
	{models.FieldCustomerSegment, []string{"customer_segment", "segment", "customer_type"}},
	{models.FieldSalesChannel, []string{"sales_channel", "channel"}},
	{models.FieldUnitsSold, []string{"units_sold", "qty", "quantity", "units"}},
	{models.FieldDiscount, []string{"discount", "discount_rate", "disc"}},
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02 Jan 2006",
	"Jan 2, 2006",
}

// WorkingTable is the intermediate result of header matching: rows keyed
// by canonical field name, still untyped.
type WorkingTable struct {
	Columns models.ColumnMap
	Rows    []map[string]string
}

// TypedTable holds coerced records before optional-column defaulting.
type TypedTable struct {
	Columns models.ColumnMap
	Records []models.SalesRecord
}

func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(h)), " ", "_")
}

// Normalize maps raw headers onto the canonical schema. It returns the
// working table, the canonical-to-source column map, and the list of
// required canonical fields no header matched. A non-empty missing list
// is a hard validation failure for the caller; the input is never
// mutated.
func Normalize(raw *RawTable) (*WorkingTable, models.ColumnMap, []string) {
	normalized := make(map[string]int, len(raw.Headers))
	for i, h := range raw.Headers {
		key := normalizeHeader(h)
		if _, ok := normalized[key]; !ok {
			normalized[key] = i
		}
	}

	match := func(aliases []string) (string, int, bool) {
		for _, a := range aliases {
			if idx, ok := normalized[a]; ok {
				return a, idx, true
			}
		}
		return "", 0, false
	}

	columns := make(models.ColumnMap)
	indexes := make(map[string]int)
	var missing []string

	for _, fa := range requiredColumns {
		alias, idx, ok := match(fa.aliases)
		if !ok {
			missing = append(missing, fa.canonical)
			continue
		}
		columns[fa.canonical] = alias
		indexes[fa.canonical] = idx
	}
	for _, fa := range optionalColumns {
		if alias, idx, ok := match(fa.aliases); ok {
			columns[fa.canonical] = alias
			indexes[fa.canonical] = idx
		}
	}

	rows := make([]map[string]string, 0, len(raw.Rows))
	for _, raw := range raw.Rows {
		row := make(map[string]string, len(indexes))
		for field, idx := range indexes {
			if idx < len(raw) {
				row[field] = strings.TrimSpace(raw[idx])
			}
		}
		rows = append(rows, row)
	}

	return &WorkingTable{Columns: columns, Rows: rows}, columns, missing
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFloat(s string) models.NullFloat {
	if s == "" {
		return models.NullFloat{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.NullFloat{}
	}
	return models.Float(v)
}

// CoerceTypes parses the working table into typed records. Rows with an
// unparseable date are dropped silently; unparseable numeric cells
// become nulls and propagate, except units which null-fill to 0.
// Discount is clamped into [0,1] and null-filled to 0.
func CoerceTypes(wt *WorkingTable) *TypedTable {
	records := make([]models.SalesRecord, 0, len(wt.Rows))
	for _, row := range wt.Rows {
		date, ok := parseDate(row[models.FieldDate])
		if !ok {
			continue
		}

		rec := models.SalesRecord{
			Date:            date,
			Region:          row[models.FieldRegion],
			ProductCategory: row[models.FieldProductCategory],
			Revenue:         parseFloat(row[models.FieldRevenue]),
			Profit:          parseFloat(row[models.FieldProfit]),
			CustomerSegment: row[models.FieldCustomerSegment],
			SalesChannel:    row[models.FieldSalesChannel],
		}

		if units := parseFloat(row[models.FieldUnitsSold]); units.Valid {
			rec.UnitsSold = int(units.Float64)
		}
		if disc := parseFloat(row[models.FieldDiscount]); disc.Valid {
			rec.Discount = clamp(disc.Float64, 0, 1)
		}

		records = append(records, rec)
	}
	return &TypedTable{Columns: wt.Columns, Records: records}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EnsureFullSchema fills absent optional columns with their defaults,
// derives month buckets, and returns the canonical table sorted
// ascending by date.
func EnsureFullSchema(tt *TypedTable) *models.Table {
	records := make([]models.SalesRecord, len(tt.Records))
	copy(records, tt.Records)

	_, hasSegment := tt.Columns[models.FieldCustomerSegment]
	_, hasChannel := tt.Columns[models.FieldSalesChannel]
	for i := range records {
		if !hasSegment {
			records[i].CustomerSegment = "Unknown"
		}
		if !hasChannel {
			records[i].SalesChannel = "Unknown"
		}
		records[i].Month = models.MonthStart(records[i].Date)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	columns := make(models.ColumnMap, len(tt.Columns))
	for k, v := range tt.Columns {
		columns[k] = v
	}
	return &models.Table{Records: records, Columns: columns}
}

// QualityWarnings returns advisory data-quality signals. These never
// fail the pipeline; the caller surfaces them to the user.
func QualityWarnings(t *models.Table) []string {
	var warnings []string

	dates := make(map[time.Time]struct{})
	nonPositive := 0
	for _, r := range t.Records {
		dates[r.Date] = struct{}{}
		if r.Revenue.Valid && r.Revenue.Float64 <= 0 {
			nonPositive++
		}
	}

	if len(dates) < 30 {
		warnings = append(warnings, "Less than 30 unique dates - forecasting accuracy may be limited.")
	}
	if n := len(t.Records); n > 0 && float64(nonPositive)/float64(n) > 0.2 {
		warnings = append(warnings, "Over 20% of rows have non-positive revenue - check data quality.")
	}
	return warnings
}

// Build runs the full normalization pipeline on a raw table. When
// required canonical fields are unmatched it returns their names and a
// nil table; otherwise the canonical table plus advisory warnings.
func Build(raw *RawTable) (*models.Table, models.ColumnMap, []string, []string) {
	working, columns, missing := Normalize(raw)
	if len(missing) > 0 {
		return nil, columns, missing, nil
	}
	table := EnsureFullSchema(CoerceTypes(working))
	return table, columns, nil, QualityWarnings(table)
}
