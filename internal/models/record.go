package models

import (
	"encoding/json"
	"sort"
	"time"
)

// Canonical field names produced by the schema normalizer. Engines and
// handlers refer to columns by these identifiers only.
const (
	FieldDate            = "date"
	FieldRegion          = "region"
	FieldProductCategory = "product_category"
	FieldRevenue         = "revenue"
	FieldProfit          = "profit"
	FieldCustomerSegment = "customer_segment"
	FieldSalesChannel    = "sales_channel"
	FieldUnitsSold       = "units_sold"
	FieldDiscount        = "discount"
)

// NullFloat is a float64 that may be missing. Unparseable numeric cells
// become invalid values and are skipped by sums and means rather than
// halting the pipeline.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

func Float(v float64) NullFloat {
	return NullFloat{Float64: v, Valid: true}
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat{}
		return nil
	}
	if err := json.Unmarshal(data, &n.Float64); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// SalesRecord is one canonical transaction row. All required fields are
// guaranteed present after normalization; optional fields carry their
// documented defaults when the source had no matching column.
type SalesRecord struct {
	Date            time.Time `json:"date"`
	Region          string    `json:"region"`
	ProductCategory string    `json:"product_category"`
	Revenue         NullFloat `json:"revenue"`
	Profit          NullFloat `json:"profit"`
	CustomerSegment string    `json:"customer_segment"`
	SalesChannel    string    `json:"sales_channel"`
	UnitsSold       int       `json:"units_sold"`
	Discount        float64   `json:"discount"`

	// Month is the first-of-month bucket derived from Date. Engines
	// recompute it on their private copies at construction.
	Month time.Time `json:"month"`
}

// MonthStart returns the first-of-month bucket for t.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// ColumnMap records which source header satisfied each canonical field.
// Optional fields absent from the source have no entry even though the
// canonical table carries default-filled values for them.
type ColumnMap map[string]string

// Table is the validated canonical dataset all engines consume: records
// sorted ascending by date, with the column map describing which fields
// the source actually provided.
type Table struct {
	Records []SalesRecord
	Columns ColumnMap
}

// HasColumn reports whether the source dataset provided the canonical
// field, as opposed to it being default-filled by the normalizer.
func (t *Table) HasColumn(field string) bool {
	_, ok := t.Columns[field]
	return ok
}

// Clone returns a deep private copy with month buckets recomputed, so an
// engine never shares mutable state with its caller.
func (t *Table) Clone() *Table {
	records := make([]SalesRecord, len(t.Records))
	copy(records, t.Records)
	for i := range records {
		records[i].Month = MonthStart(records[i].Date)
	}
	columns := make(ColumnMap, len(t.Columns))
	for k, v := range t.Columns {
		columns[k] = v
	}
	return &Table{Records: records, Columns: columns}
}

// Months returns the distinct month buckets present, ascending.
func (t *Table) Months() []time.Time {
	seen := make(map[time.Time]struct{})
	var months []time.Time
	for _, r := range t.Records {
		m := MonthStart(r.Date)
		if _, ok := seen[m]; !ok {
			seen[m] = struct{}{}
			months = append(months, m)
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}
